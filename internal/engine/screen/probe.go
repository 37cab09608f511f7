package screen

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine"
)

// Probe answers template queries against the live screen.
// Templates are loaded from assetsDir and scaled to the display width.
type Probe struct {
	searcher  *Searcher
	assetsDir string
	log       *slog.Logger

	mu    sync.Mutex
	cache map[string]image.Image
	scale float64
}

var _ engine.Vision = (*Probe)(nil)

// NewProbe creates a probe over the given searcher
func NewProbe(searcher *Searcher, assetsDir string, log *slog.Logger) *Probe {
	p := &Probe{
		searcher:  searcher,
		assetsDir: assetsDir,
		log:       log,
		cache:     make(map[string]image.Image),
	}
	p.scale = p.displayScale()
	return p
}

// SetDisplayID switches the captured display and drops cached templates,
// since their scale depends on the display width.
func (p *Probe) SetDisplayID(id int) {
	p.searcher.SetDisplayID(id)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]image.Image)
	p.scale = p.displayScale()
}

func (p *Probe) displayScale() float64 {
	width := p.searcher.DisplayBounds().Dx()
	if width <= 0 {
		return 1
	}
	return float64(width) / constants.ReferenceWidth
}

// Template loads a template by asset path
func (p *Probe) Template(path string) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if img, ok := p.cache[path]; ok {
		return img, nil
	}
	img, err := p.searcher.LoadImage(filepath.Join(p.assetsDir, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", path, err)
	}
	img = ToRGBA(Scale(img, p.scale))
	p.cache[path] = img
	return img, nil
}

// InvertedTemplate returns the inverted copy of a template, cached under a
// separate key.
func (p *Probe) InvertedTemplate(path string) (image.Image, error) {
	key := "!" + path
	p.mu.Lock()
	if img, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return img, nil
	}
	p.mu.Unlock()

	tpl, err := p.Template(path)
	if err != nil {
		return nil, err
	}
	inv := Invert(tpl)

	p.mu.Lock()
	p.cache[key] = inv
	p.mu.Unlock()
	return inv, nil
}

// MatchBestOf captures once and returns the best match over all templates
func (p *Probe) MatchBestOf(templates []image.Image, region engine.Region) (engine.Match, error) {
	screenImg, err := p.searcher.CaptureScreen()
	if err != nil {
		return engine.Match{}, err
	}
	roi := region.Rect(screenImg.Bounds())

	var best engine.Match
	for _, tpl := range templates {
		m := p.searcher.MatchBest(screenImg, tpl, roi)
		if m.Confidence > best.Confidence || best.Size == (image.Point{}) {
			best = m
		}
	}

	if constants.DebugDump && best.Confidence < constants.LowConfidenceMark {
		if err := p.searcher.SaveDebugScreenshot("debug_probe_screen.png"); err == nil {
			p.log.Debug("saved low confidence screen", "confidence", best.Confidence)
		}
	}
	return best, nil
}

// IsVisible reports whether any template reaches threshold
func (p *Probe) IsVisible(templates []image.Image, region engine.Region, threshold float64) bool {
	m, err := p.MatchBestOf(templates, region)
	if err != nil {
		p.log.Debug("probe failed", "error", err)
		return false
	}
	return m.Confidence >= threshold
}

// BlackScreen reports whether the client shows a black loading frame
func (p *Probe) BlackScreen() bool {
	screenImg, err := p.searcher.CaptureScreen()
	if err != nil {
		p.log.Debug("black screen probe failed", "error", err)
		return false
	}
	return IsMostlyBlack(screenImg, constants.BlackPixelLimit, constants.BlackScreenRatio)
}
