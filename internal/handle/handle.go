// Package handle performs the primitive in-game actions a route step names:
// key presses, movement, interaction, combat and camera control.
package handle

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine"
	"github.com/ConserveLee/route-idle/internal/state"
)

// attackPoint is where the overworld attack click lands.
var attackPoint = image.Point{X: 960, Y: 540}

// Handle wraps the dispatcher with the timing and bookkeeping of each action.
// It remembers whether an input failed since the last reset; the interpreter
// abandons the route when it did.
type Handle struct {
	vision engine.Vision
	input  engine.Dispatcher
	log    *slog.Logger
	now    func() time.Time

	keyError     bool
	mapMinimised bool
}

// New creates a handle.
func New(vision engine.Vision, input engine.Dispatcher, log *slog.Logger, now func() time.Time) *Handle {
	if now == nil {
		now = time.Now
	}
	return &Handle{vision: vision, input: input, log: log, now: now}
}

// KeyError reports whether an input failed since the last reset.
func (h *Handle) KeyError() bool { return h.keyError }

// ResetKeyError clears the key error flag.
func (h *Handle) ResetKeyError() { h.keyError = false }

func (h *Handle) fail(ctx context.Context, err error) error {
	h.keyError = true
	h.log.ErrorContext(ctx, "input failed", "error", err)
	return err
}

func seconds(v float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}

// Press taps key and waits value seconds.
func (h *Handle) Press(ctx context.Context, key string, value float64) error {
	if err := h.input.PressKey(key); err != nil {
		return h.fail(ctx, err)
	}
	h.input.Sleep(seconds(value))
	return nil
}

// Await waits value seconds.
func (h *Handle) Await(value float64) {
	h.input.Sleep(seconds(value))
}

// Move holds key for value seconds. Long moves sprint unless normalRun is
// set, finishing in 1/SprintFactor of the time; the saving is added to the
// stats. A sleep that overruns by more than the tolerance counts as a time
// desync.
func (h *Handle) Move(ctx context.Context, st *state.Stats, key string, value float64, normalRun bool, lastKey string) error {
	want := seconds(value)
	if err := h.input.HoldKey(key); err != nil {
		return h.fail(ctx, err)
	}

	dur := want
	if !normalRun && want >= constants.SprintMinDuration {
		// Sprint carries over from a previous move in the same direction.
		if lastKey != key {
			if err := h.input.PressKey("shift"); err != nil {
				_ = h.input.ReleaseKey(key)
				return h.fail(ctx, err)
			}
		}
		dur = time.Duration(float64(want) / constants.SprintFactor)
		st.SprintSaved += want - dur
	}

	start := h.now()
	h.input.Sleep(dur)
	if over := h.now().Sub(start) - dur; over > constants.TimeDesyncTolerance {
		st.TimeDesyncs++
		h.log.WarnContext(ctx, "time desync while moving", "key", key, "overrun", over)
	}

	if err := h.input.ReleaseKey(key); err != nil {
		return h.fail(ctx, err)
	}
	return nil
}

// Interact presses f until the interaction prompt is gone. A prompt that
// survives every attempt is a key error.
func (h *Handle) Interact(ctx context.Context, value float64) error {
	for i := 0; i < constants.InteractRetries; i++ {
		if err := h.input.PressKey("f"); err != nil {
			return h.fail(ctx, err)
		}
		h.input.Sleep(constants.InteractWait)
		if !engine.Visible(h.vision, constants.InteractPromptTemplate, engine.Region{}, constants.ClickThreshold) {
			h.input.Sleep(seconds(value))
			return nil
		}
		h.log.DebugContext(ctx, "interaction prompt still visible", "attempt", i+1)
	}
	return h.fail(ctx, fmt.Errorf("f key had no effect after %d attempts", constants.InteractRetries))
}

// Fight attacks and waits for the combat to finish.
func (h *Handle) Fight(ctx context.Context, st *state.Stats, value float64) {
	h.input.Click(attackPoint, 1, constants.ClickInterval)
	h.awaitCombat(ctx, st, "fight")
	h.input.Sleep(seconds(value))
}

// Technique casts the character technique, confirming the snack prompt when
// the technique points are empty, and waits for any combat it starts.
func (h *Handle) Technique(ctx context.Context, st *state.Stats, value float64) error {
	if err := h.input.PressKey("e"); err != nil {
		return h.fail(ctx, err)
	}
	h.input.Sleep(constants.InteractWait)

	tpl, err := h.vision.Template(constants.SnackPromptTemplate)
	if err == nil {
		m, err := h.vision.MatchBestOf([]image.Image{tpl}, engine.Region{})
		if err == nil && m.Confidence >= constants.ClickThreshold {
			h.input.Click(m.Center(), 1, constants.ClickInterval)
			st.ConsumablesUsed++
			h.log.InfoContext(ctx, "used a consumable for the technique", "total", st.ConsumablesUsed)
			h.input.Sleep(constants.InteractWait)
			if err := h.input.PressKey("e"); err != nil {
				return h.fail(ctx, err)
			}
		}
	}

	h.input.Sleep(seconds(value))
	if !h.onMain() {
		h.awaitCombat(ctx, st, "technique")
	}
	return nil
}

// AwaitCombat waits for a combat that a previous action may have started and
// reports whether one took place.
func (h *Handle) AwaitCombat(ctx context.Context, st *state.Stats) bool {
	before := st.CombatCount
	h.awaitCombat(ctx, st, "last technique")
	return st.CombatCount > before
}

// awaitCombat waits for the main interface to disappear (combat started)
// and come back (combat over), accounting the result.
func (h *Handle) awaitCombat(ctx context.Context, st *state.Stats, cause string) {
	enter := h.now().Add(constants.CombatEnterTimeout)
	for h.onMain() {
		if ctx.Err() != nil || !h.now().Before(enter) {
			st.NoCombatCount++
			h.log.InfoContext(ctx, "no combat", "cause", cause, "count", st.NoCombatCount)
			return
		}
		h.input.Sleep(constants.CombatPollInterval)
	}

	start := h.now()
	limit := start.Add(constants.CombatTimeout)
	for !h.onMain() {
		if ctx.Err() != nil || !h.now().Before(limit) {
			h.log.WarnContext(ctx, "combat did not finish in time", "cause", cause)
			break
		}
		h.input.Sleep(constants.CombatPollInterval)
	}

	elapsed := h.now().Sub(start)
	st.CombatTime += elapsed
	st.CombatCount++
	if elapsed < constants.AnomalousCombatLimit {
		st.AnomalousCombat++
		h.log.WarnContext(ctx, "anomalous short combat", "elapsed", elapsed)
	}
	h.log.InfoContext(ctx, "combat finished", "cause", cause, "elapsed", elapsed.Round(time.Millisecond))
}

func (h *Handle) onMain() bool {
	return engine.Visible(h.vision, constants.MainInterfaceTemplate, engine.Region{}, constants.ClickThreshold)
}

// Look runs a camera or mouse action: mouse_move and view_rotate turn the
// camera, view_set and view_reset change its pitch, scroll zooms.
func (h *Handle) Look(ctx context.Context, action string, value float64) error {
	switch action {
	case "mouse_move":
		h.input.Move(int(value), 0)
	case "view_rotate":
		h.input.Move(int(value*constants.RotatePixelsPerDegree), 0)
	case "view_set":
		h.input.Move(0, constants.ViewPitchPixels)
		h.input.Sleep(seconds(value))
	case "view_reset":
		h.input.Move(0, -constants.ViewPitchPixels)
		h.input.Sleep(seconds(value))
	case "scroll":
		h.input.Scroll(int(value))
	default:
		return fmt.Errorf("unknown camera action %q", action)
	}
	h.input.Sleep(constants.ClickInterval)
	return nil
}

// BackToMain presses esc until the main interface shows.
func (h *Handle) BackToMain(ctx context.Context) bool {
	for i := 0; i < constants.BackToMainAttempts; i++ {
		if h.onMain() {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if err := h.input.PressKey("esc"); err != nil {
			h.fail(ctx, err)
			return false
		}
		h.input.Sleep(time.Second)
	}
	ok := h.onMain()
	if !ok {
		h.log.WarnContext(ctx, "main interface not reached")
	}
	return ok
}

// Star map areas, as insets from the 1920x1080 client edges.
var (
	mapOpenedRegion = engine.Region{Left: 530, Top: 960, Right: -1050, Bottom: -50}
	mapBackRegion   = engine.Region{Left: 1830, Top: 0, Right: 0, Bottom: -975}
)

// OpenMap opens the star map, going back to the main interface between
// attempts. The first time the map shows in a session it is minimised, and
// a stuck sub-map is closed with its return button.
func (h *Handle) OpenMap(ctx context.Context) bool {
	start := h.now()
	for i := 0; i < constants.OpenMapAttempts; i++ {
		h.log.InfoContext(ctx, "opening map", "attempt", i+1, "max", constants.OpenMapAttempts)
		if err := h.input.PressKey("m"); err != nil {
			h.fail(ctx, err)
			return false
		}
		h.input.Sleep(constants.MapKeyWait)
		h.quickOpen(ctx, i == 0, start)

		h.input.Sleep(constants.MapRecognitionDelay)
		if h.mapOpened(ctx) {
			h.closeSubMap(ctx)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		h.BackToMain(ctx)
	}
	h.log.ErrorContext(ctx, "map did not open")
	return false
}

// quickOpen keeps pressing the map key while the main interface lingers,
// holding s to break out of a technique stance. Only the first attempt
// does so.
func (h *Handle) quickOpen(ctx context.Context, first bool, start time.Time) {
	held := false
	for h.onMain() {
		if !first || ctx.Err() != nil || h.now().Sub(start) > constants.QuickOpenWindow {
			break
		}
		if !held {
			h.log.InfoContext(ctx, "holding s to break the technique stance")
			if err := h.input.HoldKey("s"); err != nil {
				h.fail(ctx, err)
				return
			}
			held = true
		}
		if err := h.input.PressKey("m"); err != nil {
			h.fail(ctx, err)
			break
		}
		h.input.Sleep(constants.MapKeyWait)
	}
	if held {
		_ = h.input.ReleaseKey("s")
	}
}

// mapOpened reports whether the map shows, minimising it the first time.
func (h *Handle) mapOpened(ctx context.Context) bool {
	tpl, err := h.vision.Template(constants.MapOpenedTemplate)
	if err != nil {
		h.log.WarnContext(ctx, "map template unavailable", "error", err)
		return false
	}
	m, err := h.vision.MatchBestOf([]image.Image{tpl}, mapOpenedRegion)
	if err != nil || m.Confidence < constants.MapOpenedThreshold {
		return false
	}
	if !h.mapMinimised {
		h.log.InfoContext(ctx, "minimising map", "confidence", m.Confidence)
		h.input.Click(m.Center(), constants.MapMinimiseClicks, constants.ClickInterval)
		h.mapMinimised = true
	}
	return true
}

// closeSubMap clicks the map return button while it shows. The map key does
// not close a sub-map.
func (h *Handle) closeSubMap(ctx context.Context) {
	tpl, err := h.vision.Template(constants.MapBackTemplate)
	if err != nil {
		return
	}
	for i := 0; i < constants.MapBackAttempts; i++ {
		m, err := h.vision.MatchBestOf([]image.Image{tpl}, mapBackRegion)
		if err != nil || m.Confidence < constants.MapBackThreshold {
			return
		}
		h.log.InfoContext(ctx, "leaving sub-map")
		h.input.Click(m.Center(), 1, constants.ClickInterval)
	}
}

// AlignCamera returns to the main interface and levels the camera pitch.
func (h *Handle) AlignCamera(ctx context.Context) {
	h.BackToMain(ctx)
	h.input.Sleep(constants.AlignSettleWait)
	if err := h.Look(ctx, "view_reset", 0); err != nil {
		h.log.WarnContext(ctx, "camera not aligned", "error", err)
	}
}

// WaitSceneLoad waits for the loading screen after a teleport to finish.
func (h *Handle) WaitSceneLoad(ctx context.Context) bool {
	deadline := h.now().Add(constants.SceneLoadTimeout)
	for h.vision.BlackScreen() || !h.onMain() {
		if ctx.Err() != nil || !h.now().Before(deadline) {
			h.log.WarnContext(ctx, "scene load not detected in time")
			return false
		}
		h.input.Sleep(constants.CombatPollInterval)
	}
	return true
}
