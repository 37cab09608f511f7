// Package enginetest provides scripted Vision and Dispatcher fakes sharing a
// fake clock, for testing the route engine without a screen.
package enginetest

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/ConserveLee/route-idle/internal/engine"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Template is the image handed out by Vision. It only carries its path.
type Template struct {
	image.Image
	Path     string
	Inverted bool
}

// Probe is one recorded IsVisible or MatchBestOf call.
type Probe struct {
	Paths     []string
	Threshold float64 // Zero for MatchBestOf
}

// Vision answers probes from a confidence function.
type Vision struct {
	Clock     *Clock
	ProbeCost time.Duration // Clock advance per probe

	// Confidence returns the match for one template; nil means 0 everywhere.
	Confidence func(path string, inverted bool) float64
	// Black answers BlackScreen; nil means never black.
	Black func() bool
	// Missing templates fail to load.
	Missing map[string]bool

	mu     sync.Mutex
	probes []Probe
}

var _ engine.Vision = (*Vision)(nil)

// NewVision returns a vision fake driven by clock.
func NewVision(clock *Clock) *Vision {
	return &Vision{Clock: clock}
}

// Set makes every probe of path return the given confidence, leaving other
// templates at their previous answer.
func (v *Vision) Set(path string, confidence float64) {
	prev := v.Confidence
	v.Confidence = func(p string, inverted bool) float64 {
		if p == path {
			return confidence
		}
		if prev != nil {
			return prev(p, inverted)
		}
		return 0
	}
}

func (v *Vision) Template(path string) (image.Image, error) {
	if v.Missing[path] {
		return nil, fmt.Errorf("template %s: %w", path, errors.New("not found"))
	}
	return Template{Image: image.NewRGBA(image.Rect(0, 0, 10, 10)), Path: path}, nil
}

func (v *Vision) InvertedTemplate(path string) (image.Image, error) {
	if v.Missing[path] {
		return nil, fmt.Errorf("template %s: %w", path, errors.New("not found"))
	}
	return Template{Image: image.NewRGBA(image.Rect(0, 0, 10, 10)), Path: path, Inverted: true}, nil
}

func (v *Vision) MatchBestOf(templates []image.Image, _ engine.Region) (engine.Match, error) {
	m := v.best(templates)
	v.record(templates, 0)
	return m, nil
}

func (v *Vision) IsVisible(templates []image.Image, _ engine.Region, threshold float64) bool {
	m := v.best(templates)
	v.record(templates, threshold)
	return m.Confidence >= threshold
}

func (v *Vision) BlackScreen() bool {
	if v.Black == nil {
		return false
	}
	return v.Black()
}

func (v *Vision) best(templates []image.Image) engine.Match {
	best := engine.Match{Location: image.Point{X: 100, Y: 200}, Size: image.Point{X: 10, Y: 10}}
	if v.Confidence == nil {
		return best
	}
	for _, t := range templates {
		tpl, ok := t.(Template)
		if !ok {
			continue
		}
		if c := v.Confidence(tpl.Path, tpl.Inverted); c > best.Confidence {
			best.Confidence = c
		}
	}
	return best
}

func (v *Vision) record(templates []image.Image, threshold float64) {
	p := Probe{Threshold: threshold}
	for _, t := range templates {
		if tpl, ok := t.(Template); ok {
			p.Paths = append(p.Paths, tpl.Path)
		}
	}
	v.mu.Lock()
	v.probes = append(v.probes, p)
	v.mu.Unlock()
	if v.Clock != nil && v.ProbeCost > 0 {
		v.Clock.Advance(v.ProbeCost)
	}
}

// Probes returns the recorded probes.
func (v *Vision) Probes() []Probe {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Probe(nil), v.probes...)
}

// ProbesOf returns the recorded probes whose first template is path.
func (v *Vision) ProbesOf(path string) []Probe {
	var out []Probe
	for _, p := range v.Probes() {
		if len(p.Paths) > 0 && p.Paths[0] == path {
			out = append(out, p)
		}
	}
	return out
}

// Dispatcher records input as short strings and advances the clock on Sleep.
type Dispatcher struct {
	Clock    *Clock
	DragCost time.Duration
	// Fail makes PressKey/HoldKey fail for the named keys.
	Fail map[string]error
	// OnSleep runs after every sleep, letting tests change the scene over time.
	OnSleep func(d time.Duration)

	mu      sync.Mutex
	actions []string
	slept   time.Duration
}

var _ engine.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher returns a dispatcher fake driven by clock.
func NewDispatcher(clock *Clock) *Dispatcher {
	return &Dispatcher{Clock: clock}
}

func (d *Dispatcher) add(format string, args ...any) {
	d.mu.Lock()
	d.actions = append(d.actions, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

func (d *Dispatcher) PressKey(key string) error {
	if err := d.Fail[key]; err != nil {
		return err
	}
	d.add("press:%s", key)
	return nil
}

func (d *Dispatcher) HoldKey(key string) error {
	if err := d.Fail[key]; err != nil {
		return err
	}
	d.add("hold:%s", key)
	return nil
}

func (d *Dispatcher) ReleaseKey(key string) error {
	d.add("release:%s", key)
	return nil
}

func (d *Dispatcher) Click(p image.Point, count int, _ time.Duration) {
	d.add("click:%d,%d*%d", p.X, p.Y, count)
}

func (d *Dispatcher) Drag(x0, y0, x1, y1 int) {
	d.add("drag:%d,%d,%d,%d", x0, y0, x1, y1)
	if d.DragCost > 0 && d.Clock != nil {
		d.Clock.Advance(d.DragCost)
	}
}

func (d *Dispatcher) Move(dx, dy int) {
	d.add("move:%d,%d", dx, dy)
}

func (d *Dispatcher) Scroll(n int) {
	d.add("scroll:%d", n)
}

func (d *Dispatcher) Sleep(dur time.Duration) {
	d.mu.Lock()
	d.slept += dur
	d.mu.Unlock()
	if d.Clock != nil {
		d.Clock.Advance(dur)
	}
	if d.OnSleep != nil {
		d.OnSleep(dur)
	}
}

// Actions returns the recorded inputs in order.
func (d *Dispatcher) Actions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.actions...)
}

// Count returns how many recorded actions have the given prefix.
func (d *Dispatcher) Count(prefix string) int {
	n := 0
	for _, a := range d.Actions() {
		if len(a) >= len(prefix) && a[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// Slept returns the total time passed to Sleep.
func (d *Dispatcher) Slept() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.slept
}
