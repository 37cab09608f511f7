// Package interpreter executes one route: its setup entries, then its map
// steps. Every step is classified into a kind, dispatched to that kind's
// handler, and the handler's Outcome decides how the route continues.
package interpreter

import (
	"context"
	"log/slog"
	"time"

	"github.com/ConserveLee/route-idle/internal/clicker"
	"github.com/ConserveLee/route-idle/internal/config"
	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine"
	"github.com/ConserveLee/route-idle/internal/interrupt"
	"github.com/ConserveLee/route-idle/internal/logger"
	"github.com/ConserveLee/route-idle/internal/navigate"
	"github.com/ConserveLee/route-idle/internal/route"
	"github.com/ConserveLee/route-idle/internal/state"
)

// Outcome is the result of one step, and of a whole route.
type Outcome int

const (
	Continue   Outcome = iota // Go on with the next step
	SkipRoute                 // Stop the route quietly, the session goes on
	AbortRoute                // Abandon the route after an input failure
	RetryStep                 // Run the same step again
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case SkipRoute:
		return "skip"
	case AbortRoute:
		return "abort"
	case RetryStep:
		return "retry"
	default:
		return "unknown"
	}
}

// Navigator brings off-screen targets into view.
type Navigator interface {
	Locate(ctx context.Context, path string, opts navigate.Options) bool
	Scene(ctx context.Context, path string, opts navigate.Options) bool
}

// Clicker clicks templates.
type Clicker interface {
	Click(ctx context.Context, path string, opts clicker.Options) clicker.Result
}

// Actions performs the primitive actions.
type Actions interface {
	Press(ctx context.Context, key string, value float64) error
	Await(value float64)
	Move(ctx context.Context, st *state.Stats, key string, value float64, normalRun bool, lastKey string) error
	Interact(ctx context.Context, value float64) error
	Fight(ctx context.Context, st *state.Stats, value float64)
	Technique(ctx context.Context, st *state.Stats, value float64) error
	AwaitCombat(ctx context.Context, st *state.Stats) bool
	Look(ctx context.Context, action string, value float64) error
	BackToMain(ctx context.Context) bool
	OpenMap(ctx context.Context) bool
	AlignCamera(ctx context.Context)
	WaitSceneLoad(ctx context.Context) bool
	KeyError() bool
	ResetKeyError()
}

// Config is the read side of the configuration store.
type Config interface {
	Bool(key string) bool
	Values() map[string]any
}

// DayGate answers weekday guards.
type DayGate interface {
	Eligible(now time.Time, codes []int) (bool, error)
	Today(now time.Time) int
}

// Monitor is polled for operator overrides between steps.
type Monitor interface {
	Check(ctx context.Context) interrupt.Signal
}

// Source reloads a route from storage.
type Source interface {
	Load(base string) (*route.Route, error)
}

// Deps are the collaborators of an Interpreter.
type Deps struct {
	Vision    engine.Vision
	Input     engine.Dispatcher
	Navigator Navigator
	Clicker   Clicker
	Actions   Actions
	Config    Config
	Days      DayGate
	Monitor   Monitor
	Source    Source
	Log       *slog.Logger
	Now       func() time.Time
	RetryMax  int    // Defaults to constants.RetryCountMax
	Version   string // Route version; constants.SweepVersion adds the end-of-route sweep
}

type handlerFunc func(ctx context.Context, s *step) Outcome

// Interpreter runs routes. It is not safe for concurrent use; a session runs
// its routes one at a time.
type Interpreter struct {
	Deps
	handlers map[kind]handlerFunc
	guards   *guardCache
}

// New creates an interpreter.
func New(d Deps) *Interpreter {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.RetryMax <= 0 {
		d.RetryMax = constants.RetryCountMax
	}
	it := &Interpreter{Deps: d, guards: newGuardCache()}
	it.handlers = map[kind]handlerFunc{
		kindFlag:        it.setFlag,
		kindNormalRun:   it.normalRun,
		kindCheck:       it.checkDay,
		kindNeedAllow:   it.needAllow,
		kindRequire:     it.require,
		kindBlackscreen: it.blackscreen,
		kindOpenMap:     it.openMap,
		kindPress:       it.press,
		kindMove:        it.move,
		kindInteract:    it.interact,
		kindFight:       it.fight,
		kindTechnique:   it.technique,
		kindLook:        it.look,
		kindMain:        it.main,
		kindAwait:       it.await,
		kindShutdown:    it.shutdown,
		kindFloor:       it.floor,
		kindBack:        it.back,
		kindPlanet:      it.planet,
		kindOrientation: it.orientation,
		kindCheckpoint:  it.checkpoint,
		kindAnchor41:    it.anchor41,
		kindAnchor43:    it.anchor43,
		kindPurchase:    it.purchase,
		kindTransfer:    it.transfer,
		kindVisual:      it.visual,
	}
	return it
}

// Flags are the per-route switches set by setup directives. Entry
// attributes override them for that entry only.
type Flags struct {
	DragMap    bool
	DragExact  *[3]int
	DragScene  bool
	Clicks     int
	RetryInMap bool
}

func defaultFlags() Flags {
	return Flags{Clicks: 1, RetryInMap: true}
}

type phase int

const (
	phaseSetup phase = iota
	phaseMap
)

func (p phase) String() string {
	if p == phaseSetup {
		return "start"
	}
	return "map"
}

// routeContext is the mutable state of the route being run.
type routeContext struct {
	route     *route.Route
	flags     Flags
	forceDrag bool // Set by the previous route running out of retries
	retryDrag bool // Set by a retry, cleared once the step moves on
	retries   int
	lastKey   string

	// retryEligible is raised by a click during the current step.
	retryEligible bool
}

// step is one entry being executed.
type step struct {
	sess  *state.Session
	rc    *routeContext
	entry route.Entry
	kind  kind
	phase phase
	flags Flags
}

func (s *step) value() float64 {
	return s.entry.Value.Float(0)
}

// Run executes r against the session and reports how the route ended:
// Continue when every step ran, SkipRoute or AbortRoute otherwise.
func (it *Interpreter) Run(ctx context.Context, sess *state.Session, r *route.Route) Outcome {
	ctx = logger.WithRoute(ctx, r.Base)
	p := &sess.Progress

	rc := &routeContext{
		route:     r,
		flags:     defaultFlags(),
		forceDrag: p.NextRouteForceDrag,
	}
	p.NextRouteForceDrag = false
	p.ResetRoute()
	it.Actions.ResetKeyError()

	it.Log.InfoContext(ctx, "starting route", "name", r.Name, "author", r.Author)

	out := it.runPhase(ctx, sess, rc, phaseSetup, r.Start)
	if out != Continue {
		return out
	}
	if err := it.Actions.Look(ctx, "view_set", constants.PreMapViewWait); err != nil {
		it.Log.WarnContext(ctx, "camera pitch not set", "error", err)
	}
	out = it.runMap(ctx, sess, rc)
	if out == Continue && it.Version == constants.SweepVersion {
		it.sweep(ctx, sess, rc)
	}
	return out
}

// AlignCamera levels the camera before a session unless the client has been
// calibrated already.
func (it *Interpreter) AlignCamera(ctx context.Context) {
	angle, _ := it.Config.Values()[config.KeyAngle].(string)
	if angle == "" {
		angle = config.DefaultAngle
	}
	if it.Config.Bool(config.KeyAngleSet) && angle != config.DefaultAngle {
		return
	}
	it.Log.InfoContext(ctx, "aligning camera", "angle", angle)
	it.Actions.AlignCamera(ctx)
}

// runMap runs the map steps, restarting them from the top (with a fresh
// copy of the route) when the operator asks for it.
func (it *Interpreter) runMap(ctx context.Context, sess *state.Session, rc *routeContext) Outcome {
	for {
		rc.lastKey = ""
		out, restart := it.runMapOnce(ctx, sess, rc)
		if !restart {
			return out
		}
	}
}

func (it *Interpreter) runMapOnce(ctx context.Context, sess *state.Session, rc *routeContext) (Outcome, bool) {
	entries := rc.route.Map
	for i := 0; i < len(entries); {
		if sig := it.Monitor.Check(ctx); sig.Hard() {
			it.restart(ctx, sess, rc, sig)
			return Continue, true
		}
		if ctx.Err() != nil {
			it.Log.InfoContext(ctx, "route interrupted", "error", ctx.Err())
			return AbortRoute, false
		}

		stepCtx := logger.WithStep(ctx, i+1)
		it.Log.InfoContext(stepCtx, "map step", "n", i+1, "of", len(entries), "entry", entries[i].String())
		out := it.exec(stepCtx, sess, rc, phaseMap, entries[i])
		rc.lastKey = entries[i].Key

		next, done := it.settle(stepCtx, sess, rc, out)
		if done {
			return next, false
		}
		if next == RetryStep {
			continue
		}
		i++
	}
	return Continue, false
}

// restart waits for the client to settle, optionally teleports again and
// reloads the route so that live edits are picked up.
func (it *Interpreter) restart(ctx context.Context, sess *state.Session, rc *routeContext, sig interrupt.Signal) {
	it.Input.Sleep(constants.RestartSettleWait)
	if sig == interrupt.RestartTeleport {
		it.click(ctx, sess, rc, transferKey, clicker.Options{Threshold: constants.ClickThreshold})
		it.Actions.WaitSceneLoad(ctx)
	}
	fresh, err := it.Source.Load(rc.route.Base)
	if err != nil {
		it.Log.ErrorContext(ctx, "reload route failed, restarting the loaded copy", "error", err)
		return
	}
	rc.route = fresh
	it.Log.InfoContext(ctx, "route restarted", "signal", sig)
}

// runPhase runs the start entries. A pause holds them like map steps, but a
// restart is ignored since there is nothing to restart from yet.
func (it *Interpreter) runPhase(ctx context.Context, sess *state.Session, rc *routeContext, ph phase, entries []route.Entry) Outcome {
	for i := 0; i < len(entries); {
		if sig := it.Monitor.Check(ctx); sig.Hard() {
			it.Log.InfoContext(ctx, "restart ignored during start steps", "signal", sig)
		}
		if ctx.Err() != nil {
			it.Log.InfoContext(ctx, "route interrupted", "error", ctx.Err())
			return AbortRoute
		}
		stepCtx := logger.WithStep(ctx, i+1)
		it.Log.DebugContext(stepCtx, "start entry", "entry", entries[i].String())

		out := it.exec(stepCtx, sess, rc, ph, entries[i])
		next, done := it.settle(stepCtx, sess, rc, out)
		if done {
			return next
		}
		if next == RetryStep {
			continue
		}
		i++
	}
	return Continue
}

// settle interprets a step outcome centrally. done reports that the route
// ends with the returned outcome.
func (it *Interpreter) settle(ctx context.Context, sess *state.Session, rc *routeContext, out Outcome) (Outcome, bool) {
	p := &sess.Progress

	if it.Actions.KeyError() {
		it.Log.WarnContext(ctx, "key error, abandoning route", "name", rc.route.Name)
		sess.Stats.KeyErrorRoutes = append(sess.Stats.KeyErrorRoutes, rc.route.Name)
		return AbortRoute, true
	}

	switch out {
	case RetryStep:
		rc.retries++
		if rc.retries >= it.RetryMax {
			it.Log.WarnContext(ctx, "retries exhausted, skipping route", "retries", rc.retries)
			p.SkipRoute = true
			p.NextRouteForceDrag = true
			return SkipRoute, true
		}
		it.Log.InfoContext(ctx, "retrying step with map drag", "retry", rc.retries, "max", it.RetryMax)
		rc.retryDrag = true
		return RetryStep, false
	case SkipRoute:
		p.SkipRoute = true
		return SkipRoute, true
	case AbortRoute:
		return AbortRoute, true
	default:
		rc.retryDrag = false
		return Continue, false
	}
}

// exec classifies and dispatches one entry.
func (it *Interpreter) exec(ctx context.Context, sess *state.Session, rc *routeContext, ph phase, e route.Entry) Outcome {
	k := classify(e.Key)
	if k == kindUnknown {
		if ph == phaseSetup {
			it.Log.WarnContext(ctx, "unknown start entry ignored", "key", e.Key)
			return Continue
		}
		k = kindMove
	}

	flags, err := applyAttrs(rc.flags, e)
	if err != nil {
		it.Log.WarnContext(ctx, "bad entry attribute ignored", "key", e.Key, "error", err)
	}
	s := &step{sess: sess, rc: rc, entry: e, kind: k, phase: ph, flags: flags}

	if !k.visual() {
		return it.handlers[k](ctx, s)
	}
	return it.visualStep(ctx, s)
}

// visualStep wraps the template handlers: a bounded pre-click wait, the
// handler, teleport click accounting and the retry signal.
func (it *Interpreter) visualStep(ctx context.Context, s *step) Outcome {
	wait := time.Duration(s.value() * float64(time.Second))
	if wait > constants.MaxPreClickWait {
		wait = constants.MaxPreClickWait
	}
	if wait > 0 {
		it.Input.Sleep(wait)
	}

	s.rc.retryEligible = false
	out := it.handlers[s.kind](ctx, s)

	s.sess.Progress.TeleportClicks++
	s.sess.Stats.TeleportClicks++
	it.Log.InfoContext(ctx, "teleport click", "count", s.sess.Progress.TeleportClicks, "kind", s.kind)

	if out == Continue && s.rc.retryEligible {
		return RetryStep
	}
	return out
}

// click runs one click and records its confidence and retry signal.
func (it *Interpreter) click(ctx context.Context, sess *state.Session, rc *routeContext, path string, opts clicker.Options) bool {
	res := it.Clicker.Click(ctx, path, opts)
	if res.Clicked && res.Confidence < constants.LowConfidenceMark {
		sess.Matches.Record(path, res.Confidence)
	}
	if res.RetryEligible {
		rc.retryEligible = true
	}
	return res.Clicked
}

// visible probes a reference template once.
func (it *Interpreter) visible(path string, region engine.Region, threshold float64) bool {
	return engine.Visible(it.Vision, path, region, threshold)
}
