package handle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine/enginetest"
	"github.com/ConserveLee/route-idle/internal/logger"
	"github.com/ConserveLee/route-idle/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandle() (*Handle, *enginetest.Vision, *enginetest.Dispatcher, *enginetest.Clock) {
	clock := enginetest.NewClock(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	v := enginetest.NewVision(clock)
	d := enginetest.NewDispatcher(clock)
	return New(v, d, logger.Discard(), clock.Now), v, d, clock
}

func TestMove_SprintSavesTime(t *testing.T) {
	h, _, d, _ := newHandle()
	var st state.Stats

	require.NoError(t, h.Move(context.Background(), &st, "w", 2.5, false, ""))
	assert.Equal(t, []string{"hold:w", "press:shift", "release:w"}, d.Actions())
	assert.Equal(t, 2*time.Second, d.Slept())
	assert.Equal(t, 500*time.Millisecond, st.SprintSaved)
	assert.Zero(t, st.TimeDesyncs)
}

func TestMove_NormalRunAndShortMovesWalk(t *testing.T) {
	h, _, d, _ := newHandle()
	var st state.Stats

	require.NoError(t, h.Move(context.Background(), &st, "a", 2, true, ""))
	require.NoError(t, h.Move(context.Background(), &st, "d", 0.5, false, ""))
	assert.Zero(t, d.Count("press:shift"))
	assert.Equal(t, 2500*time.Millisecond, d.Slept())
	assert.Zero(t, st.SprintSaved)
}

func TestMove_SameDirectionKeepsSprint(t *testing.T) {
	h, _, d, _ := newHandle()
	var st state.Stats
	require.NoError(t, h.Move(context.Background(), &st, "w", 2.5, false, "w"))
	assert.Zero(t, d.Count("press:shift"))
}

func TestMove_CountsTimeDesync(t *testing.T) {
	h, _, d, clock := newHandle()
	d.OnSleep = func(time.Duration) { clock.Advance(time.Second) }
	var st state.Stats

	require.NoError(t, h.Move(context.Background(), &st, "s", 0.5, false, ""))
	assert.Equal(t, 1, st.TimeDesyncs)
}

func TestPress_FailureSetsKeyError(t *testing.T) {
	h, _, d, _ := newHandle()
	d.Fail = map[string]error{"F4": errors.New("no such key")}

	assert.Error(t, h.Press(context.Background(), "F4", 1))
	assert.True(t, h.KeyError())
	h.ResetKeyError()
	assert.False(t, h.KeyError())

	require.NoError(t, h.Press(context.Background(), "space", 1))
	assert.False(t, h.KeyError())
}

func TestInteract_PromptGone(t *testing.T) {
	h, _, d, _ := newHandle()
	require.NoError(t, h.Interact(context.Background(), 1))
	assert.Equal(t, 1, d.Count("press:f"))
	assert.False(t, h.KeyError())
}

func TestInteract_PromptPersistsIsKeyError(t *testing.T) {
	h, v, d, _ := newHandle()
	v.Set(constants.InteractPromptTemplate, 0.99)

	assert.Error(t, h.Interact(context.Background(), 1))
	assert.Equal(t, constants.InteractRetries, d.Count("press:f"))
	assert.True(t, h.KeyError())
}

func TestFight_CountsCombat(t *testing.T) {
	h, v, _, clock := newHandle()
	combatEnds := clock.Now().Add(20 * time.Second)
	v.Confidence = func(path string, _ bool) float64 {
		if path != constants.MainInterfaceTemplate {
			return 0
		}
		if clock.Now().Before(combatEnds) {
			return 0.1
		}
		return 0.99
	}
	var st state.Stats

	h.Fight(context.Background(), &st, 1)
	assert.Equal(t, 1, st.CombatCount)
	assert.Zero(t, st.AnomalousCombat)
	assert.InDelta(t, 20*time.Second, st.CombatTime, float64(time.Second))
}

func TestFight_NoCombatAndAnomalous(t *testing.T) {
	h, v, _, clock := newHandle()
	v.Set(constants.MainInterfaceTemplate, 0.99)
	var st state.Stats

	h.Fight(context.Background(), &st, 0)
	assert.Equal(t, 1, st.NoCombatCount)
	assert.Zero(t, st.CombatCount)

	shortEnds := clock.Now().Add(2 * time.Second)
	v.Confidence = func(path string, _ bool) float64 {
		if path == constants.MainInterfaceTemplate && !clock.Now().Before(shortEnds) {
			return 0.99
		}
		return 0
	}
	h.Fight(context.Background(), &st, 0)
	assert.Equal(t, 1, st.CombatCount)
	assert.Equal(t, 1, st.AnomalousCombat)
}

func TestTechnique_UsesSnack(t *testing.T) {
	h, v, d, _ := newHandle()
	v.Set(constants.MainInterfaceTemplate, 0.99)
	v.Set(constants.SnackPromptTemplate, 0.97)
	var st state.Stats

	require.NoError(t, h.Technique(context.Background(), &st, 0.5))
	assert.Equal(t, 1, st.ConsumablesUsed)
	assert.Equal(t, 2, d.Count("press:e"))
	assert.Equal(t, 1, d.Count("click:"))
}

func TestLook_Actions(t *testing.T) {
	h, _, d, _ := newHandle()
	ctx := context.Background()

	require.NoError(t, h.Look(ctx, "mouse_move", 120))
	require.NoError(t, h.Look(ctx, "view_rotate", 90))
	require.NoError(t, h.Look(ctx, "view_set", 0.1))
	require.NoError(t, h.Look(ctx, "view_reset", 0.1))
	require.NoError(t, h.Look(ctx, "scroll", -3))
	assert.Error(t, h.Look(ctx, "tilt", 1))

	assert.Equal(t, []string{"move:120,0", "move:270,0", "move:0,400", "move:0,-400", "scroll:-3"}, d.Actions())
}

func TestBackToMain_PressesEscUntilVisible(t *testing.T) {
	h, v, d, _ := newHandle()
	presses := 0
	d.OnSleep = func(time.Duration) {
		presses = d.Count("press:esc")
	}
	v.Confidence = func(path string, _ bool) float64 {
		if path == constants.MainInterfaceTemplate && presses >= 2 {
			return 0.99
		}
		return 0
	}

	assert.True(t, h.BackToMain(context.Background()))
	assert.Equal(t, 2, d.Count("press:esc"))
}

func TestOpenMap_MinimisesOnce(t *testing.T) {
	h, v, d, _ := newHandle()
	v.Set(constants.MapOpenedTemplate, 0.99)

	assert.True(t, h.OpenMap(context.Background()))
	assert.Equal(t, []string{"press:m", "click:105,205*10"}, d.Actions())
	assert.GreaterOrEqual(t, d.Slept(), constants.MapRecognitionDelay)

	assert.True(t, h.OpenMap(context.Background()))
	assert.Equal(t, 1, d.Count("click:"), "already minimised")
	assert.Equal(t, 2, d.Count("press:m"))
}

func TestOpenMap_HoldsSWhileMainInterfaceLingers(t *testing.T) {
	h, v, d, _ := newHandle()
	h.mapMinimised = true
	v.Confidence = func(path string, _ bool) float64 {
		switch path {
		case constants.MainInterfaceTemplate:
			if d.Count("press:m") < 3 {
				return 0.99
			}
		case constants.MapOpenedTemplate:
			return 0.99
		}
		return 0
	}

	assert.True(t, h.OpenMap(context.Background()))
	assert.Equal(t, []string{"press:m", "hold:s", "press:m", "press:m", "release:s"}, d.Actions())
}

func TestOpenMap_LeavesSubMap(t *testing.T) {
	h, v, d, _ := newHandle()
	h.mapMinimised = true
	v.Confidence = func(path string, _ bool) float64 {
		switch path {
		case constants.MapOpenedTemplate:
			return 0.99
		case constants.MapBackTemplate:
			if d.Count("click:") < 2 {
				return 0.995
			}
		}
		return 0
	}

	assert.True(t, h.OpenMap(context.Background()))
	assert.Equal(t, 2, d.Count("click:105,205*1"))

	// A return button that never goes away is clicked a bounded number of times.
	h, v, d, _ = newHandle()
	h.mapMinimised = true
	v.Set(constants.MapOpenedTemplate, 0.99)
	v.Set(constants.MapBackTemplate, 0.995)
	assert.True(t, h.OpenMap(context.Background()))
	assert.Equal(t, constants.MapBackAttempts, d.Count("click:"))
}

func TestOpenMap_GivesUp(t *testing.T) {
	h, v, d, _ := newHandle()
	v.Set(constants.MainInterfaceTemplate, 0.99)
	v.Set(constants.MapOpenedTemplate, 0.96)

	assert.False(t, h.OpenMap(context.Background()))
	assert.Zero(t, d.Count("click:"))
	assert.Equal(t, d.Count("hold:s"), d.Count("release:s"))
}

func TestAlignCamera(t *testing.T) {
	h, v, d, _ := newHandle()
	v.Set(constants.MainInterfaceTemplate, 0.99)

	h.AlignCamera(context.Background())
	assert.Equal(t, []string{"move:0,-400"}, d.Actions())
	assert.GreaterOrEqual(t, d.Slept(), constants.AlignSettleWait)
}

func TestAwaitCombat(t *testing.T) {
	h, v, _, clock := newHandle()
	combatEnds := clock.Now().Add(8 * time.Second)
	v.Confidence = func(path string, _ bool) float64 {
		if path == constants.MainInterfaceTemplate && !clock.Now().Before(combatEnds) {
			return 0.99
		}
		return 0
	}
	var st state.Stats

	assert.True(t, h.AwaitCombat(context.Background(), &st))
	assert.Equal(t, 1, st.CombatCount)

	// Back on the main interface with nothing starting.
	assert.False(t, h.AwaitCombat(context.Background(), &st))
	assert.Equal(t, 1, st.NoCombatCount)
}

func TestWaitSceneLoad(t *testing.T) {
	h, v, _, clock := newHandle()
	loaded := clock.Now().Add(3 * time.Second)
	v.Black = func() bool { return clock.Now().Before(loaded) }
	v.Set(constants.MainInterfaceTemplate, 0.99)
	assert.True(t, h.WaitSceneLoad(context.Background()))

	v.Black = func() bool { return true }
	assert.False(t, h.WaitSceneLoad(context.Background()))
}
