package interpreter

import (
	"context"
	"time"

	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine"
	"github.com/ConserveLee/route-idle/internal/state"
)

var sweepDirections = []string{"w", "a", "s", "d"}

// doubtRegion is the top left corner where the alert marker shows.
var doubtRegion = engine.Region{Left: 0, Top: 0, Right: -1630, Bottom: -800}

// sweep runs after the map steps of a sweep-version route. While an enemy
// alert is showing it steps around in every direction casting the technique,
// for at most a minute. A route ending on the technique key then waits out
// the combat it may have started.
func (it *Interpreter) sweep(ctx context.Context, sess *state.Session, rc *routeContext) {
	if it.alerted() {
		it.Log.WarnContext(ctx, "enemy alert showing, an enemy may be left, sweeping")
		start := it.Now()
		for alert := true; alert && it.Now().Sub(start) < constants.SweepTimeout; {
			for _, dir := range sweepDirections {
				if ctx.Err() != nil {
					return
				}
				it.Log.InfoContext(ctx, "sweeping", "direction", dir)
				for i := 0; i < constants.SweepStepsPerSide; i++ {
					if err := it.Actions.Move(ctx, &sess.Stats, dir, constants.SweepStepMove, false, ""); err != nil {
						it.Log.WarnContext(ctx, "sweep step failed", "error", err)
					}
					if err := it.Actions.Technique(ctx, &sess.Stats, constants.SweepTechnique); err != nil {
						it.Log.WarnContext(ctx, "sweep technique failed", "error", err)
					}
				}
				if alert = it.alerted(); !alert {
					break
				}
			}
		}
	}

	if rc.lastKey != "e" || it.onMainWithin(constants.LastStrikeWindow) {
		return
	}
	if !it.Actions.AwaitCombat(ctx, &sess.Stats) {
		it.Log.InfoContext(ctx, "no combat entered after the last technique")
	}
}

func (it *Interpreter) alerted() bool {
	return it.visible(constants.DoubtTemplate, doubtRegion, constants.DoubtThreshold)
}

// onMainWithin probes the main interface until it shows or the window ends.
func (it *Interpreter) onMainWithin(window time.Duration) bool {
	deadline := it.Now().Add(window)
	for {
		if it.visible(constants.MainInterfaceTemplate, engine.Region{}, constants.ClickThreshold) {
			return true
		}
		if !it.Now().Before(deadline) {
			return false
		}
		it.Input.Sleep(constants.ProbeInterval)
	}
}
