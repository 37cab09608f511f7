// Package session runs a list of routes as one session: it builds the route
// order, filters routes by the allow and forbid lists, times each route and
// reports a summary at the end.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ConserveLee/route-idle/internal/config"
	"github.com/ConserveLee/route-idle/internal/interpreter"
	"github.com/ConserveLee/route-idle/internal/logger"
	"github.com/ConserveLee/route-idle/internal/route"
	"github.com/ConserveLee/route-idle/internal/state"
)

// Library lists and loads routes.
type Library interface {
	Names() []string
	Load(base string) (*route.Route, error)
}

// Store is the configuration the controller reads and writes.
type Store interface {
	Bool(key string) bool
	Strings(key string) ([]string, error)
	SetBool(key string, v bool) error
}

// Runner executes one route.
type Runner interface {
	Run(ctx context.Context, sess *state.Session, r *route.Route) interpreter.Outcome
}

// Aligner is implemented by runners that calibrate the camera before a
// session starts.
type Aligner interface {
	AlignCamera(ctx context.Context)
}

// Controller drives sessions. Only one session may run at a time, since the
// one-shot allowlist flag is consumed from the shared store.
type Controller struct {
	lib    Library
	store  Store
	runner Runner
	log    *slog.Logger
	now    func() time.Time
}

// NewController creates a controller.
func NewController(lib Library, store Store, runner Runner, log *slog.Logger, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{lib: lib, store: store, runner: runner, log: log, now: now}
}

// Run executes the routes from startID onwards. With startInMid the routes
// before startID run after the last one. A runner that is also an Aligner
// calibrates the camera first. It returns route.ErrRouteNotFound, having
// done nothing, when startID is unknown.
func (c *Controller) Run(ctx context.Context, startID string, startInMid, dev bool) (*state.Session, error) {
	sess := state.NewSession(uuid.NewString(), dev)
	ctx = logger.WithSessionID(ctx, sess.ID)

	list, err := route.BuildList(c.lib.Names(), startID, startInMid)
	if err != nil {
		c.log.ErrorContext(ctx, "route does not exist, check the route files", "start", startID)
		return sess, err
	}

	if a, ok := c.runner.(Aligner); ok {
		a.AlignCamera(ctx)
	}
	sess.Stats.ResetRound()
	c.log.InfoContext(ctx, "session started", "start", startID, "routes", len(list), "start_in_mid", startInMid, "dev", dev)
	begin := c.now()

	for _, file := range list {
		if ctx.Err() != nil {
			c.log.InfoContext(ctx, "session stopped", "reason", ctx.Err())
			break
		}
		c.runOne(ctx, sess, route.BaseName(file))
		if sess.Progress.StopRequested {
			c.log.InfoContext(ctx, "stop requested by route, ending session")
			break
		}
	}

	sess.Stats.TotalElapsed = c.now().Sub(begin)
	c.report(ctx, sess)
	return sess, nil
}

func (c *Controller) runOne(ctx context.Context, sess *state.Session, base string) {
	r, err := c.lib.Load(base)
	if err != nil {
		if errors.Is(err, route.ErrInvalidRoute) {
			c.log.ErrorContext(ctx, "invalid route file, skipped", "route", base, "error", err)
		} else {
			c.log.ErrorContext(ctx, "route could not be loaded, skipped", "route", base, "error", err)
		}
		return
	}
	if c.notAllowlisted(ctx, sess, r) || c.forbidden(ctx, r) {
		return
	}

	p := &sess.Progress
	if p.FirstRoute == "" {
		p.FirstRoute = r.Name
	}
	p.LastRoute = r.Name

	start := c.now()
	out := c.runner.Run(ctx, sess, r)
	elapsed := c.now().Sub(start)
	sess.Stats.RouteTime += elapsed

	c.log.InfoContext(logger.WithRoute(ctx, base), "route finished",
		"outcome", out, "elapsed", elapsed.Round(time.Millisecond),
		"total", sess.Stats.RouteTime.Round(time.Millisecond))
}

// notAllowlisted reports whether allowlist mode is on and r is not listed.
// The one-shot flag turns allowlist mode on for the rest of the session and
// is written back as false.
func (c *Controller) notAllowlisted(ctx context.Context, sess *state.Session, r *route.Route) bool {
	if c.store.Bool(config.KeyAllowlistModeOnce) {
		sess.AllowlistMode = true
		if err := c.store.SetBool(config.KeyAllowlistModeOnce, false); err != nil {
			c.log.WarnContext(ctx, "could not reset the one-shot allowlist flag", "error", err)
		}
	}
	if c.store.Bool(config.KeyAllowlistMode) {
		sess.AllowlistMode = true
	}
	if !sess.AllowlistMode {
		return false
	}

	allowed, err := c.store.Strings(config.KeyAllowlistMap)
	if err != nil {
		c.log.WarnContext(ctx, "configuration error", "error", err)
	}
	if slices.Contains(allowed, r.Prefix()) {
		return false
	}
	c.log.InfoContext(ctx, "route not in the allowlist, skipped", "route", r.Name)
	return true
}

// forbidden reports whether r is on the forbid list. Malformed entries are
// logged and ignored.
func (c *Controller) forbidden(ctx context.Context, r *route.Route) bool {
	forbid, err := c.store.Strings(config.KeyForbidMap)
	if err != nil {
		c.log.WarnContext(ctx, "configuration error", "error", err)
	}
	if !slices.Contains(forbid, r.Prefix()) {
		return false
	}
	c.log.InfoContext(ctx, "route in the forbid list, skipped", "route", r.Name)
	return true
}
