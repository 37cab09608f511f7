package engine

import (
	"image"
	"time"
)

// Region narrows the capture area. Left/Top move the origin inwards and
// Right/Bottom are added to the far edges, so they are usually negative.
// The zero Region is the whole screen.
type Region struct {
	Left, Top, Right, Bottom int
}

// Rect applies the region to the given screen bounds.
func (r Region) Rect(bounds image.Rectangle) image.Rectangle {
	if r == (Region{}) {
		return bounds
	}
	rect := image.Rect(
		bounds.Min.X+r.Left,
		bounds.Min.Y+r.Top,
		bounds.Max.X+r.Right,
		bounds.Max.Y+r.Bottom,
	)
	return rect.Intersect(bounds)
}

// Match is the best location of a template on screen
type Match struct {
	Confidence float64     // Share of template pixels that matched, 0..1
	Location   image.Point // Top-left position on screen
	Size       image.Point // Template dimensions (for center calculation)
}

// Center returns the center point of the match for clicking
func (m Match) Center() image.Point {
	return image.Point{
		X: m.Location.X + m.Size.X/2,
		Y: m.Location.Y + m.Size.Y/2,
	}
}

// Vision locates templates on the live screen.
type Vision interface {
	// Template loads (and caches) a template by its asset path.
	Template(path string) (image.Image, error)
	// InvertedTemplate returns the color-inverted variant of a template.
	InvertedTemplate(path string) (image.Image, error)
	// MatchBestOf captures the screen once and returns the best match among templates.
	MatchBestOf(templates []image.Image, region Region) (Match, error)
	// IsVisible reports whether any template reaches threshold.
	IsVisible(templates []image.Image, region Region, threshold float64) bool
	// BlackScreen reports whether the client is showing a (near) black frame.
	BlackScreen() bool
}

// Dispatcher injects synthetic input. All waits go through Sleep so that
// timing can be observed (and faked) in one place.
type Dispatcher interface {
	PressKey(key string) error
	HoldKey(key string) error
	ReleaseKey(key string) error
	Click(p image.Point, count int, interval time.Duration)
	Drag(x0, y0, x1, y1 int)
	Move(dx, dy int)
	Scroll(n int)
	Sleep(d time.Duration)
}

// Visible loads the template at path and probes it once.
// A template that cannot be loaded is never visible.
func Visible(v Vision, path string, region Region, threshold float64) bool {
	tpl, err := v.Template(path)
	if err != nil {
		return false
	}
	return v.IsVisible([]image.Image{tpl}, region, threshold)
}
