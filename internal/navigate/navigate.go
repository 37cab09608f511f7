// Package navigate pans the star map or the scene list until a target
// template comes into view, relaxing the match threshold as it goes.
package navigate

import (
	"context"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine"
)

// pan is one drag gesture across the map.
type pan struct {
	name           string
	x0, y0, x1, y1 int
}

var (
	panDown  = pan{"down", 250, 900, 250, 300}
	panLeft  = pan{"left", 250, 900, 850, 900}
	panUp    = pan{"up", 1330, 200, 1330, 800}
	panRight = pan{"right", 1330, 200, 730, 200}

	mapCycle = []pan{panDown, panLeft, panUp, panRight}

	sceneCycle = []pan{
		{"scene down", 1700, 900, 1700, 300},
		{"scene up", 1700, 300, 1700, 900},
	}
)

// Options bound one search.
type Options struct {
	Threshold    float64
	MinThreshold float64       // Defaults to constants.SearchMinThreshold
	Timeout      time.Duration // Defaults to constants.SearchTimeout
	// Offset switches to the offset variant: Offset[0] pans of left+up,
	// Offset[1] pans right and Offset[2] pans down.
	Offset *[3]int
}

func (o Options) withDefaults() Options {
	if o.MinThreshold == 0 {
		o.MinThreshold = constants.SearchMinThreshold
	}
	if o.Timeout == 0 {
		o.Timeout = constants.SearchTimeout
	}
	if o.Threshold < o.MinThreshold {
		o.Threshold = o.MinThreshold
	}
	return o
}

// Assist runs the map and scene searches.
type Assist struct {
	vision engine.Vision
	input  engine.Dispatcher
	log    *slog.Logger
	now    func() time.Time
}

// New creates a navigation assist. now is the wall clock used for timeouts.
func New(vision engine.Vision, input engine.Dispatcher, log *slog.Logger, now func() time.Time) *Assist {
	if now == nil {
		now = time.Now
	}
	return &Assist{vision: vision, input: input, log: log, now: now}
}

// search tracks the threshold and deadline of one call.
type search struct {
	a         *Assist
	ctx       context.Context
	templates []image.Image
	threshold float64
	min       float64
	step      float64
	deadline  time.Time
}

func (s *search) found() bool {
	return s.a.vision.IsVisible(s.templates, engine.Region{}, s.threshold)
}

func (s *search) expired() bool {
	return s.ctx.Err() != nil || !s.a.now().Before(s.deadline)
}

// relax lowers the threshold by one step. It reports false, leaving the
// threshold untouched, when that would cross the minimum.
func (s *search) relax() bool {
	next := round3(s.threshold - s.step)
	if next < s.min-1e-9 {
		return false
	}
	s.threshold = next
	return true
}

func (s *search) drag(p pan) {
	s.a.input.Drag(p.x0, p.y0, p.x1, p.y1)
}

// Locate pans the star map until path is visible. It returns false when the
// threshold cannot relax further or the timeout elapses; panning already done
// is not undone.
func (a *Assist) Locate(ctx context.Context, path string, opts Options) bool {
	tpl, err := a.vision.Template(path)
	if err != nil {
		a.log.ErrorContext(ctx, "map search template", "path", path, "error", err)
		return false
	}
	opts = opts.withDefaults()
	s := &search{
		a:         a,
		ctx:       ctx,
		templates: []image.Image{tpl},
		threshold: opts.Threshold,
		min:       opts.MinThreshold,
		step:      constants.MapThresholdStep,
		deadline:  a.now().Add(opts.Timeout),
	}

	var ok bool
	if opts.Offset != nil {
		ok = a.locateOffset(s, *opts.Offset)
	} else {
		ok = a.locateSearch(s)
	}
	if ok {
		a.log.InfoContext(ctx, "transfer point found", "path", path, "threshold", s.threshold)
	} else {
		a.log.ErrorContext(ctx, "transfer point search failed: timeout or minimum threshold reached",
			"path", path, "threshold", s.threshold)
	}
	return ok
}

// locateOffset pans by the given counts once, then re-probes with a
// relaxing threshold.
func (a *Assist) locateOffset(s *search, offset [3]int) bool {
	if s.found() {
		return true
	}
	for i := 0; i < offset[0]; i++ {
		s.drag(panLeft)
		s.drag(panUp)
	}
	for i := 0; i < offset[1]; i++ {
		s.drag(panRight)
	}
	for i := 0; i < offset[2]; i++ {
		s.drag(panDown)
	}
	for {
		if s.found() {
			return true
		}
		if s.expired() || !s.relax() {
			return false
		}
		a.input.Sleep(constants.ProbeInterval)
	}
}

// locateSearch cycles the four pan directions, probing before every pan.
func (a *Assist) locateSearch(s *search) bool {
	for {
		if s.found() {
			return true
		}
		for _, p := range mapCycle {
			a.log.DebugContext(s.ctx, "panning map", "direction", p.name, "threshold", s.threshold)
			for i := 0; i < constants.PansPerDirection; i++ {
				if s.expired() {
					return false
				}
				if s.found() {
					return true
				}
				s.drag(p)
			}
		}
		if s.expired() || !s.relax() {
			return false
		}
	}
}

// Scene pans the right-hand scene list vertically until path, or its
// inverted variant, is visible.
func (a *Assist) Scene(ctx context.Context, path string, opts Options) bool {
	tpl, err := a.vision.Template(path)
	if err != nil {
		a.log.ErrorContext(ctx, "scene search template", "path", path, "error", err)
		return false
	}
	inv, err := a.vision.InvertedTemplate(path)
	if err != nil {
		a.log.ErrorContext(ctx, "scene search template", "path", path, "error", err)
		return false
	}
	opts = opts.withDefaults()
	s := &search{
		a:         a,
		ctx:       ctx,
		templates: []image.Image{tpl, inv},
		threshold: opts.Threshold,
		min:       opts.MinThreshold,
		step:      constants.SceneThresholdStep,
		deadline:  a.now().Add(opts.Timeout),
	}

	for {
		if s.found() {
			a.log.InfoContext(ctx, "scene found", "path", path, "threshold", s.threshold)
			return true
		}
		for _, p := range sceneCycle {
			a.log.DebugContext(ctx, "panning scene", "direction", p.name, "threshold", s.threshold)
			for i := 0; i < constants.ScenePansPerDirection; i++ {
				if s.expired() {
					return a.sceneFailed(ctx, path, s)
				}
				if s.found() {
					a.log.InfoContext(ctx, "scene found", "path", path, "threshold", s.threshold)
					return true
				}
				s.drag(p)
			}
		}
		if s.expired() || !s.relax() {
			return a.sceneFailed(ctx, path, s)
		}
	}
}

func (a *Assist) sceneFailed(ctx context.Context, path string, s *search) bool {
	a.log.ErrorContext(ctx, "scene search failed: timeout or minimum threshold reached",
		"path", path, "threshold", s.threshold)
	return false
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
