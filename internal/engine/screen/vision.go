package screen

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/png" // Register PNG decoder for image.Decode
	"sync"

	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine"
	"github.com/kbinani/screenshot"
	"github.com/nfnt/resize"
	"github.com/vcaesar/imgo"
)

// Searcher handles screen capturing and template matching
type Searcher struct {
	DisplayIndex int
	Tolerance    float64 // Max RGB distance for a pixel to count as matching

	mu   sync.Mutex
	last *image.RGBA // Last capture, kept for debug dumps
}

// NewSearcher creates a new instance
func NewSearcher() *Searcher {
	return &Searcher{
		DisplayIndex: 0, // Default to main display
		Tolerance:    constants.DefaultTolerance,
	}
}

// SetDisplayID sets the target display index for capturing
func (s *Searcher) SetDisplayID(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DisplayIndex = index
}

// DisplayBounds returns the bounds of the selected display
func (s *Searcher) DisplayBounds() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return screenshot.GetDisplayBounds(s.DisplayIndex)
}

// LoadImage loads an image from the filesystem
func (s *Searcher) LoadImage(path string) (image.Image, error) {
	return imgo.Read(path)
}

// CaptureScreen returns the current screen image
func (s *Searcher) CaptureScreen() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// kbinani/screenshot handles multi-monitor bounds correctly
	bounds := screenshot.GetDisplayBounds(s.DisplayIndex)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen %d: %w", s.DisplayIndex, err)
	}

	// Work in display-local coordinates; the dispatcher adds the display offset
	local := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(local, local.Bounds(), img, img.Bounds().Min, draw.Src)
	s.last = local
	return local, nil
}

// SaveDebugScreenshot writes the last capture to path
func (s *Searcher) SaveDebugScreenshot(path string) error {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return errors.New("no screen captured yet")
	}
	return imgo.Save(path, last)
}

// MatchBest slides the template over screenImg (limited to roi when it is not
// empty) and returns the position with the highest share of matching pixels.
// Transparent template pixels act as wildcards.
func (s *Searcher) MatchBest(screenImg, templateImg image.Image, roi image.Rectangle) engine.Match {
	scr := ToRGBA(screenImg)
	tpl := ToRGBA(templateImg)

	tBounds := tpl.Bounds()
	tWidth, tHeight := tBounds.Dx(), tBounds.Dy()
	best := engine.Match{Size: image.Point{X: tWidth, Y: tHeight}}

	searchArea := scr.Bounds()
	if !roi.Empty() {
		searchArea = roi.Intersect(searchArea)
	}
	if tWidth == 0 || tHeight == 0 || searchArea.Dx() < tWidth || searchArea.Dy() < tHeight {
		return best
	}

	type samplePixel struct {
		dx, dy  int
		r, g, b int
	}
	var sample []samplePixel
	for ty := 0; ty < tHeight; ty++ {
		for tx := 0; tx < tWidth; tx++ {
			i := tpl.PixOffset(tBounds.Min.X+tx, tBounds.Min.Y+ty)
			if tpl.Pix[i+3] == 0 {
				continue
			}
			sample = append(sample, samplePixel{
				dx: tx, dy: ty,
				r: int(tpl.Pix[i]), g: int(tpl.Pix[i+1]), b: int(tpl.Pix[i+2]),
			})
		}
	}
	if len(sample) == 0 {
		return best
	}

	total := len(sample)
	for y := searchArea.Min.Y; y <= searchArea.Max.Y-tHeight; y++ {
		for x := searchArea.Min.X; x <= searchArea.Max.X-tWidth; x++ {
			// Abandon a position as soon as it can no longer beat the best one
			allowed := total - int(best.Confidence*float64(total))
			failed := 0
			for _, p := range sample {
				i := scr.PixOffset(x+p.dx, y+p.dy)
				if !colorSimilar(int(scr.Pix[i]), int(scr.Pix[i+1]), int(scr.Pix[i+2]), p.r, p.g, p.b, s.Tolerance) {
					failed++
					if failed > allowed {
						break
					}
				}
			}
			if failed > allowed {
				continue
			}

			confidence := float64(total-failed) / float64(total)
			if confidence > best.Confidence {
				best.Confidence = confidence
				best.Location = image.Point{X: x, Y: y}
				if failed == 0 {
					return best
				}
			}
		}
	}

	return best
}

func colorSimilar(r1, g1, b1, r2, g2, b2 int, tolerance float64) bool {
	// Euclidean distance in RGB space, compared squared
	dr, dg, db := r1-r2, g1-g2, b1-b2
	return float64(dr*dr+dg*dg+db*db) <= tolerance*tolerance
}

// ToRGBA returns img as *image.RGBA, converting only when needed
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// Invert returns a color-inverted copy; alpha is preserved.
// Some UI panels render the same icon with inverted colors.
func Invert(img image.Image) *image.RGBA {
	src := ToRGBA(img)
	out := image.NewRGBA(src.Bounds())
	for i := 0; i+3 < len(src.Pix); i += 4 {
		out.Pix[i] = 255 - src.Pix[i]
		out.Pix[i+1] = 255 - src.Pix[i+1]
		out.Pix[i+2] = 255 - src.Pix[i+2]
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

// Scale resizes img by factor. A factor of 1 returns img unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1 {
		return img
	}
	width := uint(float64(img.Bounds().Dx())*factor + 0.5)
	if width == 0 {
		width = 1
	}
	return resize.Resize(width, 0, img, resize.Bilinear)
}

// IsMostlyBlack reports whether at least ratio of the pixels have a luminance
// at or below limit.
func IsMostlyBlack(img image.Image, limit int, ratio float64) bool {
	rgba := ToRGBA(img)
	pixels := len(rgba.Pix) / 4
	if pixels == 0 {
		return false
	}
	dark := 0
	for i := 0; i+3 < len(rgba.Pix); i += 4 {
		lum := (299*int(rgba.Pix[i]) + 587*int(rgba.Pix[i+1]) + 114*int(rgba.Pix[i+2])) / 1000
		if lum <= limit {
			dark++
		}
	}
	return float64(dark)/float64(pixels) >= ratio
}
