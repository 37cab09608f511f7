package interpreter

import (
	"context"
	"time"

	"github.com/ConserveLee/route-idle/internal/clicker"
	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine"
	"github.com/ConserveLee/route-idle/internal/navigate"
)

// Screen areas, as insets from the 1920x1080 client edges.
var (
	floorRegion   = engine.Region{Left: 30, Top: 740, Right: -1820, Bottom: -70}
	backRegion    = engine.Region{Left: 1660, Top: 100, Right: -40, Bottom: -910}
	starMapRegion = engine.Region{Left: 1580, Top: 0, Right: 0, Bottom: -910}
)

// onStarMap reports whether the star chart overview is showing.
func (it *Interpreter) onStarMap() bool {
	return it.visible(constants.StarMapTemplate, starMapRegion, constants.StarMapThreshold)
}

// visual is the generic template step: optional map and scene searches,
// then a click. The main interface captures the cursor, so the click holds
// alt while it is showing. A target that was not clicked skips the route
// unless the miss was close enough to retry.
func (it *Interpreter) visual(ctx context.Context, s *step) Outcome {
	key := s.entry.Key
	if s.flags.DragMap || s.rc.forceDrag || s.rc.retryDrag {
		it.Navigator.Locate(ctx, key, navigate.Options{
			Threshold: constants.MapSearchThreshold,
			Offset:    s.flags.DragExact,
		})
	}
	if s.flags.DragScene {
		it.Navigator.Scene(ctx, key, navigate.Options{Threshold: constants.SceneSearchThreshold})
	}

	opts := clicker.Options{Threshold: constants.ClickThreshold, Clicks: s.flags.Clicks}
	if it.visible(constants.MainInterfaceTemplate, engine.Region{}, constants.ClickThreshold) {
		it.Log.InfoContext(ctx, "main interface showing, clicking with alt")
		opts.Alt = true
	} else {
		opts.RetryInMap = s.flags.RetryInMap
	}
	clicked := it.click(ctx, s.sess, s.rc, key, opts)
	s.sess.Progress.LastTeleport = key
	if !clicked && !s.rc.retryEligible {
		it.Log.WarnContext(ctx, "target not found, skipping route", "target", key)
		return SkipRoute
	}
	return Continue
}

// floor clicks a floor selector unless that floor is already selected.
func (it *Interpreter) floor(ctx context.Context, s *step) Outcome {
	if !it.visible(s.entry.Key, floorRegion, constants.ClickThreshold) {
		it.Log.InfoContext(ctx, "already on the floor, skipping selection", "floor", s.entry.Key)
		return Continue
	}
	it.click(ctx, s.sess, s.rc, s.entry.Key, clicker.Options{
		Threshold: constants.ClickThreshold,
		Region:    floorRegion,
	})
	return Continue
}

// back clicks the top right return button, unless the star chart is
// already showing.
func (it *Interpreter) back(ctx context.Context, s *step) Outcome {
	if it.onStarMap() {
		it.Log.InfoContext(ctx, "star chart showing, not clicking back")
		return Continue
	}
	it.click(ctx, s.sess, s.rc, s.entry.Key, clicker.Options{
		Threshold: constants.BackButtonThreshold,
		Timeout:   constants.BackButtonTimeout,
		Region:    backRegion,
	})
	return Continue
}

// planet selects a planet on the star chart, retrying while the chart stays
// up. The planet is remembered so later routes skip the selection.
func (it *Interpreter) planet(ctx context.Context, s *step) Outcome {
	key := s.entry.Key
	p := &s.sess.Progress
	if p.Planet == key {
		it.Log.InfoContext(ctx, "same planet, skipping selection", "planet", key)
		return Continue
	}

	it.Navigator.Locate(ctx, key, navigate.Options{Threshold: constants.MapSearchThreshold})
	opts := clicker.Options{Threshold: constants.ClickThreshold, Delay: 100 * time.Millisecond}
	if it.click(ctx, s.sess, s.rc, key, opts) {
		for attempt := 0; ; attempt++ {
			it.Input.Sleep(constants.PlanetSettleWait)
			if !it.onStarMap() {
				p.Planet = key
				break
			}
			if it.Vision.BlackScreen() {
				p.Planet = key
				break
			}
			if attempt+1 >= constants.PlanetRetryAttempts || ctx.Err() != nil {
				it.Log.WarnContext(ctx, "planet selection not confirmed", "planet", key)
				break
			}
			opts.Delay += 100 * time.Millisecond
			if opts.Delay < time.Second {
				opts.Delay = time.Second
			}
			it.Log.InfoContext(ctx, "planet click did not land, retrying", "delay", opts.Delay)
			it.click(ctx, s.sess, s.rc, key, opts)
		}
	}
	it.Input.Sleep(constants.PostPlanetWait)
	return Continue
}

// routePlanet is the planet the route's start entries select, if any.
func routePlanet(s *step) string {
	for _, e := range s.rc.route.Start {
		if planetKeys[e.Key] {
			return e.Key
		}
	}
	return ""
}

// orientation opens the star chart unless the route stays on the current
// planet. A black frame after the click is a client glitch: esc out and
// click again, waiting a little longer each time.
func (it *Interpreter) orientation(ctx context.Context, s *step) Outcome {
	if planet := routePlanet(s); planet != "" && planet == s.sess.Progress.Planet {
		it.Log.InfoContext(ctx, "same planet, skipping star chart", "planet", planet)
		return Continue
	}

	delay := 2 * time.Second
	for attempt := 0; attempt < constants.OrientationAttempts; attempt++ {
		it.click(ctx, s.sess, s.rc, s.entry.Key, clicker.Options{
			Threshold:  constants.OrientationClick,
			RetryInMap: s.flags.RetryInMap,
		})
		if delay > constants.OrientationMaxDelay {
			delay = constants.OrientationMaxDelay
		}
		it.Input.Sleep(delay)
		if !it.Vision.BlackScreen() {
			return Continue
		}
		it.Log.WarnContext(ctx, "black screen after opening the star chart, retrying", "attempt", attempt+1)
		if err := it.Actions.Press(ctx, "esc", 2); err != nil {
			it.Log.DebugContext(ctx, "esc failed", "error", err)
		}
		delay += 500 * time.Millisecond
	}
	it.Log.ErrorContext(ctx, "star chart kept showing a black screen")
	return Continue
}

// checkpoint verifies a mechanism position by an almost exact match. A
// failure is remembered for the summary but does not stop the route.
func (it *Interpreter) checkpoint(ctx context.Context, s *step) Outcome {
	key := s.entry.Key
	it.Navigator.Locate(ctx, key, navigate.Options{Threshold: constants.CheckpointThreshold})
	if it.click(ctx, s.sess, s.rc, key, clicker.Options{Threshold: constants.CheckpointThreshold}) {
		it.Log.InfoContext(ctx, "checkpoint verified", "checkpoint", key)
	} else {
		it.Log.WarnContext(ctx, "checkpoint verification failed, adjust the mechanism", "checkpoint", key)
		s.sess.Progress.CheckpointFailed = true
	}
	it.Input.Sleep(constants.CheckpointSettle)
	return Continue
}

func (it *Interpreter) anchor41(ctx context.Context, s *step) Outcome {
	key := s.entry.Key
	it.Navigator.Locate(ctx, key, navigate.Options{Threshold: constants.MapSearchThreshold})
	it.click(ctx, s.sess, s.rc, key, clicker.Options{Threshold: constants.AnchorClick41})
	s.sess.Progress.LastTeleport = key
	return Continue
}

func (it *Interpreter) anchor43(ctx context.Context, s *step) Outcome {
	key := s.entry.Key
	it.Navigator.Locate(ctx, key, navigate.Options{Threshold: constants.MapSearchThreshold})
	it.click(ctx, s.sess, s.rc, key, clicker.Options{Threshold: constants.ClickThreshold})
	s.sess.Progress.LastTeleport = key
	it.Input.Sleep(constants.PostAnchorWait)
	return Continue
}

// purchase buys only when the max-quantity button shows the item is
// available; otherwise the route is skipped.
func (it *Interpreter) purchase(ctx context.Context, s *step) Outcome {
	if !it.visible(s.entry.Key, engine.Region{}, constants.ClickThreshold) {
		it.Log.InfoContext(ctx, "item cannot be bought, skipping route")
		return SkipRoute
	}
	it.click(ctx, s.sess, s.rc, s.entry.Key, clicker.Options{Threshold: constants.ClickThreshold})
	return Continue
}

// transfer presses the teleport button and waits for the new scene. A
// missing button skips the route.
func (it *Interpreter) transfer(ctx context.Context, s *step) Outcome {
	it.Input.Sleep(constants.TransferPreWait)
	if !it.click(ctx, s.sess, s.rc, s.entry.Key, clicker.Options{Threshold: constants.ClickThreshold}) {
		it.Log.WarnContext(ctx, "transfer button not found, skipping route")
		return SkipRoute
	}
	it.Actions.WaitSceneLoad(ctx)
	if last := s.sess.Progress.LastTeleport; last != "" {
		it.Log.InfoContext(ctx, "teleported", "from_point", last)
	}
	return Continue
}
