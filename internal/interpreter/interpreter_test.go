package interpreter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/ConserveLee/route-idle/internal/calendar"
	"github.com/ConserveLee/route-idle/internal/clicker"
	"github.com/ConserveLee/route-idle/internal/config"
	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine/enginetest"
	"github.com/ConserveLee/route-idle/internal/handle"
	"github.com/ConserveLee/route-idle/internal/interrupt"
	"github.com/ConserveLee/route-idle/internal/logger"
	"github.com/ConserveLee/route-idle/internal/navigate"
	"github.com/ConserveLee/route-idle/internal/route"
	"github.com/ConserveLee/route-idle/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const point = "picture/map_1-1_point_1.png"

type memSource map[string]*route.Route

func (m memSource) Load(base string) (*route.Route, error) {
	r, ok := m[base]
	if !ok {
		return nil, fmt.Errorf("%w: %s", route.ErrRouteNotFound, base)
	}
	return r, nil
}

type harness struct {
	it    *Interpreter
	v     *enginetest.Vision
	d     *enginetest.Dispatcher
	clock *enginetest.Clock
	mon   *interrupt.Monitor
	src   memSource
	sess  *state.Session
}

// 2026-10-14 is a Wednesday.
func newHarness(t *testing.T, cfg map[string]any) *harness {
	t.Helper()
	clock := enginetest.NewClock(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	v := enginetest.NewVision(clock)
	d := enginetest.NewDispatcher(clock)
	log := logger.Discard()
	mon := interrupt.NewMonitor(log)
	src := memSource{}

	it := New(Deps{
		Vision:    v,
		Input:     d,
		Navigator: navigate.New(v, d, log, clock.Now),
		Clicker:   clicker.New(v, d, log, clock.Now),
		Actions:   handle.New(v, d, log, clock.Now),
		Config:    config.NewMemory(cfg),
		Days:      calendar.NewGate(4),
		Monitor:   mon,
		Source:    src,
		Log:       log,
		Now:       clock.Now,
	})
	return &harness{it: it, v: v, d: d, clock: clock, mon: mon, src: src, sess: state.NewSession("test", false)}
}

func parse(t *testing.T, base, doc string) *route.Route {
	t.Helper()
	v, err := route.NewValidator()
	require.NoError(t, err)
	r, err := v.Parse(base, []byte(doc))
	require.NoError(t, err)
	return r
}

func (h *harness) run(r *route.Route) Outcome {
	return h.it.Run(context.Background(), h.sess, r)
}

func TestRun_DayGuardSkipsOnWednesday(t *testing.T) {
	h := newHarness(t, nil)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"check": [1, 4]}, {"picture\\transfer.png": 1}],
		"map": [{"w": 1}]}`)

	out := h.run(r)
	assert.Equal(t, SkipRoute, out)
	assert.True(t, h.sess.Progress.SkipRoute)
	assert.Empty(t, h.d.Actions())
	assert.Equal(t, state.Stats{}, h.sess.Stats)
}

func TestRun_DayGuardOneMeansEveryDay(t *testing.T) {
	h := newHarness(t, nil)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"check": 1}],
		"map": [{"w": 0.5}]}`)

	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, 1, h.d.Count("hold:w"))
}

func TestRun_TwoRetryEligibleMissesSkipAndForceDrag(t *testing.T) {
	h := newHarness(t, nil)
	h.v.Set(point, 0.90)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"picture\\map_1-1_point_1.png": 0.5}, {"picture\\transfer.png": 1}],
		"map": [{"w": 1}]}`)

	out := h.run(r)
	assert.Equal(t, SkipRoute, out)
	assert.True(t, h.sess.Progress.SkipRoute)
	assert.True(t, h.sess.Progress.NextRouteForceDrag)
	assert.Equal(t, 2, h.sess.Stats.TeleportClicks)
	assert.Zero(t, h.d.Count("click:"))
	assert.Zero(t, h.d.Count("hold:w"))

	// Only the retry searched the map.
	assert.NotZero(t, h.d.Count("drag:"))
	for _, p := range h.v.ProbesOf(point) {
		if p.Threshold > 0 {
			assert.GreaterOrEqual(t, p.Threshold, constants.SearchMinThreshold)
		}
	}
}

func TestRun_ForcedDragIsConsumed(t *testing.T) {
	h := newHarness(t, nil)
	h.v.Set(point, 0.99)
	h.sess.Progress.NextRouteForceDrag = true
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"picture\\map_1-1_point_1.png": 0.5}],
		"map": []}`)

	assert.Equal(t, Continue, h.run(r))
	assert.False(t, h.sess.Progress.NextRouteForceDrag)
	assert.Equal(t, 1, h.d.Count("click:"))
	assert.Equal(t, point, h.sess.Progress.LastTeleport)
	// The locate probe ran before the click probe.
	assert.Equal(t, constants.MapSearchThreshold, h.v.ProbesOf(point)[0].Threshold)
}

func TestRun_KeyErrorAbandonsRoute(t *testing.T) {
	h := newHarness(t, nil)
	h.v.Set(constants.InteractPromptTemplate, 0.99)
	r := parse(t, "map_2-1_1", `{"name": "2-1_1 Cellar", "author": "a",
		"map": [{"f": 1}, {"w": 1}]}`)

	assert.Equal(t, AbortRoute, h.run(r))
	assert.Equal(t, []string{"2-1_1 Cellar"}, h.sess.Stats.KeyErrorRoutes)
	assert.Zero(t, h.d.Count("hold:w"))
}

func TestRun_FailedPressIsLoggedAndAbandons(t *testing.T) {
	var out bytes.Buffer
	h := newHarness(t, nil)
	h.it.Log = logger.New(&out, slog.LevelDebug)
	h.d.Fail = map[string]error{"F4": errors.New("no such key")}
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a", "map": [{"F4": 0.1}, {"w": 1}]}`)

	assert.Equal(t, AbortRoute, h.run(r))
	assert.Contains(t, out.String(), "press failed")
	assert.Contains(t, out.String(), "no such key")
	assert.Zero(t, h.d.Count("hold:w"))
}

func TestRun_PermissionGuards(t *testing.T) {
	doc := `{"name": "1-2", "author": "a", "start": [{"need_allow_map_buy": 1}], "map": [{"await": 1}]}`

	h := newHarness(t, map[string]any{config.KeyAllowMapBuy: false})
	assert.Equal(t, SkipRoute, h.run(parse(t, "map_1-2", doc)))
	assert.Zero(t, h.d.Slept())

	h = newHarness(t, map[string]any{config.KeyAllowMapBuy: true})
	assert.Equal(t, Continue, h.run(parse(t, "map_1-2", doc)))
	// The await plus the camera pitch set before the map steps.
	assert.Equal(t, 1200*time.Millisecond, h.d.Slept())
}

func TestRun_RequireExpression(t *testing.T) {
	doc := `{"name": "1-2", "author": "a", "start": [{"require": "allow_snack_buy && weekday == 2 && hour >= 12"}], "map": []}`

	h := newHarness(t, map[string]any{config.KeyAllowSnackBuy: true})
	assert.Equal(t, Continue, h.run(parse(t, "map_1-2", doc)))

	h = newHarness(t, map[string]any{config.KeyAllowSnackBuy: false})
	assert.Equal(t, SkipRoute, h.run(parse(t, "map_1-2", doc)))

	bad := `{"name": "1-2", "author": "a", "start": [{"require": "weekday +"}], "map": []}`
	h = newHarness(t, nil)
	assert.Equal(t, SkipRoute, h.run(parse(t, "map_1-2", bad)))
}

func TestRun_DragExactAttributePansBeforeClick(t *testing.T) {
	h := newHarness(t, nil)
	h.v.Set(point, 0.98)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"picture\\map_1-1_point_1.png": 0.1, "drag_exact": [0, 1, 0], "clicks": 2}],
		"map": []}`)

	// The target is already visible, so the offset variant does not pan.
	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, []string{"click:105,205*2", "move:0,400"}, h.d.Actions())

	h = newHarness(t, nil)
	panned := false
	h.v.Confidence = func(path string, _ bool) float64 {
		if path == point && panned {
			return 0.98
		}
		return 0.5
	}
	it := h.it
	it.Input = &panRecorder{Dispatcher: h.d, panned: &panned}
	it.Navigator = navigate.New(h.v, it.Input, logger.Discard(), h.clock.Now)
	it.Clicker = clicker.New(h.v, it.Input, logger.Discard(), h.clock.Now)

	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, []string{"drag:1330,200,730,200", "click:105,205*2", "move:0,400"}, h.d.Actions())
}

func TestRun_AltClickOnMainInterface(t *testing.T) {
	h := newHarness(t, nil)
	h.v.Set(point, 0.95)
	h.v.Set(constants.MainInterfaceTemplate, 0.99)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"picture\\map_1-1_point_1.png": 0.1}], "map": []}`)

	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, []string{"hold:alt", "click:105,205*1", "release:alt", "move:0,400"}, h.d.Actions())
	assert.InDelta(t, 0.95, h.sess.Matches[point], 1e-9)
}

func TestRun_PlanetMemoSkipsNavigation(t *testing.T) {
	h := newHarness(t, nil)
	h.sess.Progress.Planet = "picture/orientation_2.png"
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"picture\\orientation_1.png": 0.1}, {"picture\\orientation_2.png": 0.1}],
		"map": []}`)

	assert.Equal(t, Continue, h.run(r))
	assert.Zero(t, h.d.Count("click:"))
	assert.Equal(t, 2, h.sess.Stats.TeleportClicks)
}

func TestRun_PlanetSelectionRemembered(t *testing.T) {
	h := newHarness(t, nil)
	planet := "picture/orientation_3.png"
	h.v.Set(planet, 0.99)
	r := parse(t, "map_2-1_1", `{"name": "2-1_1", "author": "a",
		"start": [{"picture\\orientation_3.png": 0.1}], "map": []}`)

	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, planet, h.sess.Progress.Planet)
	assert.Equal(t, 1, h.d.Count("click:"))
}

func TestRun_CheckpointFailureIsRemembered(t *testing.T) {
	h := newHarness(t, nil)
	h.v.Set("picture/check_4-1_point_1.png", 0.97)
	r := parse(t, "map_4-1_1", `{"name": "4-1_1", "author": "a",
		"start": [{"picture\\check_4-1_point_1.png": 0.1}],
		"map": [{"await": 0.5}]}`)

	assert.Equal(t, Continue, h.run(r))
	assert.True(t, h.sess.Progress.CheckpointFailed)
	assert.False(t, h.sess.Progress.SkipRoute)
}

func TestRun_TransferMissSkipsRoute(t *testing.T) {
	h := newHarness(t, nil)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"picture\\transfer.png": 1}], "map": [{"w": 1}]}`)

	assert.Equal(t, SkipRoute, h.run(r))
	assert.Zero(t, h.d.Count("hold:w"))
	assert.Zero(t, h.sess.Stats.TeleportClicks)
}

func TestRun_FloorAlreadySelected(t *testing.T) {
	h := newHarness(t, nil)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"picture\\2floor.png": 0.1}], "map": []}`)

	assert.Equal(t, Continue, h.run(r))
	assert.Zero(t, h.d.Count("click:"))
	assert.Len(t, h.v.ProbesOf("picture/2floor.png"), 1)
}

func TestRun_PurchaseGate(t *testing.T) {
	h := newHarness(t, nil)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"picture\\max.png": 0.1}], "map": [{"w": 1}]}`)
	assert.Equal(t, SkipRoute, h.run(r))

	h = newHarness(t, nil)
	h.v.Set("picture/max.png", 0.99)
	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, 1, h.d.Count("click:"))
}

func TestRun_HardSignalReloadsRoute(t *testing.T) {
	h := newHarness(t, nil)
	h.mon.SetDev(true)
	h.mon.Send(interrupt.Restart)

	old := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a", "map": [{"a": 0.5}]}`)
	fresh := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a", "map": [{"d": 0.5}]}`)
	h.src["map_1-1_1"] = fresh

	assert.Equal(t, Continue, h.run(old))
	assert.Zero(t, h.d.Count("hold:a"))
	assert.Equal(t, 1, h.d.Count("hold:d"))
}

func TestRun_HardSignalIgnoredOutsideDev(t *testing.T) {
	h := newHarness(t, nil)
	h.mon.Send(interrupt.RestartTeleport)

	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a", "map": [{"a": 0.5}]}`)
	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, 1, h.d.Count("hold:a"))
	assert.Zero(t, h.d.Count("click:"))
}

func TestRun_MapStepsAndShutdown(t *testing.T) {
	h := newHarness(t, nil)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"normal_run": 1}],
		"map": [{"w": 2}, {"z": 0.5}, {"space": 0.1}, {"view_rotate": 10}, {"shutdown": 1}]}`)

	assert.Equal(t, Continue, h.run(r))
	assert.True(t, h.sess.Progress.StopRequested)
	assert.True(t, h.sess.Progress.NormalRun)
	assert.Zero(t, h.d.Count("press:shift"))
	assert.Equal(t, 1, h.d.Count("hold:z"))
	assert.Equal(t, 1, h.d.Count("press:space"))
	assert.Equal(t, 1, h.d.Count("move:30,0"))
}

func TestRun_ForbidRetryDirective(t *testing.T) {
	h := newHarness(t, nil)
	h.v.Set(point, 0.90)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"forbid_retry": 1}, {"picture\\map_1-1_point_1.png": 0.1}],
		"map": [{"w": 0.5}]}`)

	// No retry is allowed, so the near miss ends the route.
	assert.Equal(t, SkipRoute, h.run(r))
	assert.True(t, h.sess.Progress.SkipRoute)
	assert.False(t, h.sess.Progress.NextRouteForceDrag)
	assert.Equal(t, 1, h.sess.Stats.TeleportClicks)
	assert.Zero(t, h.d.Count("hold:w"))
}

func TestRun_VisualMissSkipsRoute(t *testing.T) {
	doc := `{"name": "1-1_1", "author": "a",
		"start": [{"picture\\map_1-1_point_1.png": 0.5}],
		"map": [{"w": 1}]}`

	h := newHarness(t, nil)
	h.v.Set(point, 0.50)
	assert.Equal(t, SkipRoute, h.run(parse(t, "map_1-1_1", doc)))
	assert.True(t, h.sess.Progress.SkipRoute)
	assert.False(t, h.sess.Progress.NextRouteForceDrag)
	assert.Zero(t, h.d.Count("hold:w"))

	// Alt clicks on the main interface are never retried.
	h = newHarness(t, nil)
	h.v.Set(point, 0.90)
	h.v.Set(constants.MainInterfaceTemplate, 0.99)
	assert.Equal(t, SkipRoute, h.run(parse(t, "map_1-1_1", doc)))
	assert.Equal(t, 1, h.sess.Stats.TeleportClicks)
	assert.Zero(t, h.d.Count("hold:w"))
}

func TestRun_RetryDragEndsWithTheStep(t *testing.T) {
	const second = "picture/map_1-1_point_2.png"
	h := newHarness(t, nil)
	panned := false
	h.v.Confidence = func(path string, _ bool) float64 {
		switch {
		case path == point && panned:
			return 0.99
		case path == point:
			return 0.90
		case path == second:
			return 0.99
		}
		return 0
	}
	it := h.it
	it.Input = &panRecorder{Dispatcher: h.d, panned: &panned}
	it.Navigator = navigate.New(h.v, it.Input, logger.Discard(), h.clock.Now)
	it.Clicker = clicker.New(h.v, it.Input, logger.Discard(), h.clock.Now)

	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"picture\\map_1-1_point_1.png": 0.1}, {"picture\\map_1-1_point_2.png": 0.1}],
		"map": [{"w": 0.5}]}`)

	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, 3, h.sess.Stats.TeleportClicks)
	assert.Equal(t, 2, h.d.Count("click:"))
	assert.Equal(t, 1, h.d.Count("hold:w"))

	// The second target was clicked without searching the map.
	probes := h.v.ProbesOf(second)
	require.NotEmpty(t, probes)
	assert.NotEqual(t, constants.MapSearchThreshold, probes[0].Threshold)
	for _, p := range probes {
		assert.NotEqual(t, constants.MapSearchThreshold, p.Threshold)
	}
}

func TestRun_StartStepsHonourPause(t *testing.T) {
	h := newHarness(t, nil)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"await": 0.5}], "map": []}`)
	h.mon.Send(interrupt.Pause)

	done := make(chan Outcome, 1)
	go func() { done <- h.run(r) }()

	require.Eventually(t, h.mon.Paused, time.Second, 5*time.Millisecond)
	assert.Zero(t, h.d.Slept())
	h.mon.Send(interrupt.Resume)

	select {
	case out := <-done:
		assert.Equal(t, Continue, out)
	case <-time.After(time.Second):
		t.Fatal("route did not resume")
	}
	assert.GreaterOrEqual(t, h.d.Slept(), 500*time.Millisecond)
}

func TestRun_RestartIgnoredDuringStartSteps(t *testing.T) {
	h := newHarness(t, nil)
	h.mon.SetDev(true)
	h.mon.Send(interrupt.Restart)
	h.src["map_1-1_1"] = parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a", "map": [{"d": 0.5}]}`)

	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"await": 0.1}], "map": [{"w": 0.5}]}`)
	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, 1, h.d.Count("hold:w"))
	assert.Zero(t, h.d.Count("hold:d"))
}

func TestRun_PitchSetBeforeMapSteps(t *testing.T) {
	h := newHarness(t, nil)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a",
		"start": [{"await": 0.1}], "map": [{"w": 0.5}]}`)

	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, []string{"move:0,400", "hold:w", "release:w"}, h.d.Actions())
}

func TestRun_SweepWhileAlerted(t *testing.T) {
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a", "map": [{"d": 0.5}]}`)
	script := func(h *harness) {
		h.v.Confidence = func(path string, _ bool) float64 {
			switch path {
			case constants.MainInterfaceTemplate:
				return 0.99
			case constants.DoubtTemplate:
				if h.d.Count("press:e") < 4 {
					return 0.95
				}
			}
			return 0
		}
	}

	h := newHarness(t, nil)
	script(h)
	assert.Equal(t, Continue, h.run(r))
	assert.Zero(t, h.d.Count("press:e"), "only the sweep version sweeps")

	h = newHarness(t, nil)
	h.it.Version = constants.SweepVersion
	script(h)
	assert.Equal(t, Continue, h.run(r))
	// The alert is gone after the fourth cast, seen at the end of the second side.
	assert.Equal(t, 3, h.d.Count("hold:w"))
	assert.Equal(t, 3, h.d.Count("hold:a"))
	assert.Zero(t, h.d.Count("hold:s"))
	assert.Equal(t, 1, h.d.Count("hold:d"))
	assert.Equal(t, 6, h.d.Count("press:e"))
}

func TestRun_SweepGivesUpAfterAMinute(t *testing.T) {
	h := newHarness(t, nil)
	h.it.Version = constants.SweepVersion
	h.v.Set(constants.MainInterfaceTemplate, 0.99)
	h.v.Set(constants.DoubtTemplate, 0.95)
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a", "map": [{"await": 0.5}]}`)
	start := h.clock.Now()

	assert.Equal(t, Continue, h.run(r))
	// Each full round takes about half a minute, so two rounds run.
	assert.Equal(t, 2*constants.SweepStepsPerSide, h.d.Count("hold:w"))
	assert.Equal(t, 2*constants.SweepStepsPerSide, h.d.Count("hold:d"))
	assert.Less(t, h.clock.Now().Sub(start), 90*time.Second)
}

func TestRun_LastTechniqueAwaitsCombat(t *testing.T) {
	r := parse(t, "map_1-1_1", `{"name": "1-1_1", "author": "a", "map": [{"e": 0.1}]}`)
	script := func(h *harness) {
		// On the main interface for the cast, then in combat until the fifth look.
		h.v.Confidence = func(path string, _ bool) float64 {
			if path != constants.MainInterfaceTemplate {
				return 0
			}
			if n := len(h.v.ProbesOf(constants.MainInterfaceTemplate)); n == 0 || n >= 5 {
				return 0.99
			}
			return 0
		}
	}

	h := newHarness(t, nil)
	script(h)
	assert.Equal(t, Continue, h.run(r))
	assert.Zero(t, h.sess.Stats.CombatCount)

	h = newHarness(t, nil)
	h.it.Version = constants.SweepVersion
	script(h)
	assert.Equal(t, Continue, h.run(r))
	assert.Equal(t, 1, h.sess.Stats.CombatCount)
}

func TestAlignCamera(t *testing.T) {
	h := newHarness(t, nil)
	h.v.Set(constants.MainInterfaceTemplate, 0.99)
	h.it.AlignCamera(context.Background())
	assert.Equal(t, []string{"move:0,-400"}, h.d.Actions())

	h = newHarness(t, map[string]any{config.KeyAngleSet: true, config.KeyAngle: "1.0"})
	h.v.Set(constants.MainInterfaceTemplate, 0.99)
	h.it.AlignCamera(context.Background())
	assert.Len(t, h.d.Actions(), 1, "an uncalibrated ratio is aligned again")

	h = newHarness(t, map[string]any{config.KeyAngleSet: true, config.KeyAngle: "1.2"})
	h.it.AlignCamera(context.Background())
	assert.Empty(t, h.d.Actions())
}

func TestClassify(t *testing.T) {
	cases := map[string]kind{
		"drag":                          kindFlag,
		"check":                         kindCheck,
		"need_allow_snack_buy":          kindNeedAllow,
		"F4":                            kindPress,
		"w":                             kindMove,
		"fighting":                      kindFight,
		"view_reset":                    kindLook,
		"picture/3floor.png":            kindFloor,
		"picture/fanhui_2.png":          kindBack,
		"picture/orientation_5.png":     kindPlanet,
		"picture/orientation_1.png":     kindOrientation,
		"picture/check_4-1_point_3.png": kindCheckpoint,
		"picture/map_4-1_point_2.png":   kindAnchor41,
		"picture/map_4-3_point_7.png":   kindAnchor43,
		"picture/max.png":               kindPurchase,
		"picture/transfer.png":          kindTransfer,
		"picture/map_3-2_point_1.png":   kindVisual,
		"jump":                          kindUnknown,
	}
	for key, want := range cases {
		assert.Equal(t, want, classify(key), key)
	}
}

type panRecorder struct {
	*enginetest.Dispatcher
	panned *bool
}

func (p *panRecorder) Drag(x0, y0, x1, y1 int) {
	*p.panned = true
	p.Dispatcher.Drag(x0, y0, x1, y1)
}
