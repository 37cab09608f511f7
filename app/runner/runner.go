// Package runner owns the goroutine a route session runs on and wires the
// engine collaborators together for the desktop shell.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ConserveLee/route-idle/internal/calendar"
	"github.com/ConserveLee/route-idle/internal/clicker"
	"github.com/ConserveLee/route-idle/internal/config"
	"github.com/ConserveLee/route-idle/internal/engine"
	"github.com/ConserveLee/route-idle/internal/engine/input"
	"github.com/ConserveLee/route-idle/internal/engine/screen"
	"github.com/ConserveLee/route-idle/internal/handle"
	"github.com/ConserveLee/route-idle/internal/interpreter"
	"github.com/ConserveLee/route-idle/internal/interrupt"
	"github.com/ConserveLee/route-idle/internal/navigate"
	"github.com/ConserveLee/route-idle/internal/route"
	"github.com/ConserveLee/route-idle/internal/session"
)

// ErrRunning is returned by Start while a session is active.
var ErrRunning = errors.New("a session is already running")

// Displays switch the captured and clicked display.
type Displays interface {
	SetDisplayID(id int)
}

// Runner starts and stops sessions. At most one session runs at a time.
type Runner struct {
	settings   config.Settings
	log        *slog.Logger
	statusFunc func(string)

	vision   engine.Vision
	input    engine.Dispatcher
	displays []Displays
	monitor  *interrupt.Monitor
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a runner driving the real screen and input devices.
func New(settings config.Settings, log *slog.Logger, status func(string)) *Runner {
	probe := screen.NewProbe(screen.NewSearcher(), settings.AssetsDir, log)
	robot := input.NewRobot(log)
	r := newRunner(settings, log, status, probe, robot)
	r.displays = []Displays{probe, robot}
	r.SetDisplayID(settings.Display)
	return r
}

func newRunner(settings config.Settings, log *slog.Logger, status func(string), vision engine.Vision, in engine.Dispatcher) *Runner {
	if status == nil {
		status = func(string) {}
	}
	return &Runner{
		settings:   settings,
		log:        log,
		statusFunc: status,
		vision:     vision,
		input:      in,
		monitor:    interrupt.NewMonitor(log),
		now:        time.Now,
	}
}

// SetDisplayID selects the display the session captures and clicks on.
func (r *Runner) SetDisplayID(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.displays {
		d.SetDisplayID(id)
	}
}

// Signal forwards an operator override to the running session.
func (r *Runner) Signal(s interrupt.Signal) bool {
	ok := r.monitor.Send(s)
	if !ok {
		r.log.Warn("override dropped, queue full", "signal", s)
	}
	return ok
}

// Paused reports whether the session is held by a pause override.
func (r *Runner) Paused() bool {
	return r.monitor.Paused()
}

// Running reports whether a session is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start begins a session at startID on a new goroutine.
func (r *Runner) Start(startID string, startInMid, dev bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRunning
	}

	ctrl, err := r.build()
	if err != nil {
		r.log.Error("startup failed", "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.running = true
	r.monitor.SetDev(dev)
	r.monitor.Reset()

	r.statusFunc("Status: Running")
	r.wg.Add(1)
	go r.loop(ctx, ctrl, startID, startInMid, dev)
	return nil
}

func (r *Runner) loop(ctx context.Context, ctrl *session.Controller, startID string, startInMid, dev bool) {
	defer r.wg.Done()
	_, err := ctrl.Run(ctx, startID, startInMid, dev)

	r.mu.Lock()
	r.running = false
	r.cancel()
	r.mu.Unlock()

	if err != nil {
		r.statusFunc(fmt.Sprintf("Status: %v", err))
		return
	}
	r.statusFunc("Status: Finished")
}

// Stop cancels the session and waits for its goroutine to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()

	// A paused monitor blocks until ctx is done, so cancel before waiting.
	r.wg.Wait()
	r.log.Info("runner stopped")
	r.statusFunc("Status: Stopped")
}

// Wait blocks until the current session, if any, has ended.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// build opens the stores fresh for every session so edits made between
// sessions are picked up.
func (r *Runner) build() (*session.Controller, error) {
	s := r.settings
	store, err := config.Open(s.ConfigPath)
	if err != nil {
		return nil, err
	}
	lib, err := route.OpenLibrary(s.RouteDir, s.RouteVersion)
	if err != nil {
		return nil, err
	}
	r.log.Info("route library loaded", "dir", s.RouteDir, "version", s.RouteVersion, "routes", len(lib.Names()))

	it := interpreter.New(interpreter.Deps{
		Vision:    r.vision,
		Input:     r.input,
		Navigator: navigate.New(r.vision, r.input, r.log, r.now),
		Clicker:   clicker.New(r.vision, r.input, r.log, r.now),
		Actions:   handle.New(r.vision, r.input, r.log, r.now),
		Config:    store,
		Days:      calendar.NewGate(s.DayResetHour),
		Monitor:   r.monitor,
		Source:    lib,
		Log:       r.log,
		Now:       r.now,
		Version:   s.RouteVersion,
	})
	return session.NewController(lib, store, it, r.log, r.now), nil
}
