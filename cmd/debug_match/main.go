// Command debug_match prints how well templates match a screenshot, the way
// the route runner scores them. It helps pick thresholds for new templates.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine"
	"github.com/ConserveLee/route-idle/internal/engine/screen"
)

func main() {
	screenPath := flag.String("screen", "debug_screen.png", "screenshot to match against")
	live := flag.Bool("live", false, "capture the display instead of reading -screen")
	display := flag.Int("display", 0, "display to capture with -live")
	assets := flag.String("assets", ".", "directory template paths are relative to")
	threshold := flag.Float64("threshold", constants.ClickThreshold, "confidence a click needs")
	tolerance := flag.Float64("tolerance", constants.DefaultTolerance, "max RGB distance per pixel")
	var region engine.Region
	flag.IntVar(&region.Left, "left", 0, "region inset from the left edge")
	flag.IntVar(&region.Top, "top", 0, "region inset from the top edge")
	flag.IntVar(&region.Right, "right", 0, "region offset of the right edge (usually negative)")
	flag.IntVar(&region.Bottom, "bottom", 0, "region offset of the bottom edge (usually negative)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: debug_match [flags] picture/transfer.png ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	searcher := screen.NewSearcher()
	searcher.Tolerance = *tolerance
	screenImg, err := loadScreen(searcher, *screenPath, *live, *display)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load screen: %v\n", err)
		os.Exit(1)
	}
	bounds := screenImg.Bounds()
	scale := float64(bounds.Dx()) / constants.ReferenceWidth
	roi := region.Rect(bounds)
	fmt.Printf("Screen size: %dx%d, template scale %.3f, region %v\n", bounds.Dx(), bounds.Dy(), scale, roi)

	for _, rel := range flag.Args() {
		tpl, err := searcher.LoadImage(filepath.Join(*assets, filepath.FromSlash(rel)))
		if err != nil {
			fmt.Printf("\n%s: failed to load: %v\n", rel, err)
			continue
		}
		tpl = screen.Scale(tpl, scale)

		m := searcher.MatchBest(screenImg, tpl, roi)
		inv := searcher.MatchBest(screenImg, screen.Invert(tpl), roi)

		fmt.Printf("\n=== %s (%dx%d) ===\n", rel, tpl.Bounds().Dx(), tpl.Bounds().Dy())
		fmt.Printf("  match    %.4f at %v center %v %s\n", m.Confidence, m.Location, m.Center(), verdict(m, *threshold))
		fmt.Printf("  inverted %.4f at %v center %v %s\n", inv.Confidence, inv.Location, inv.Center(), verdict(inv, *threshold))
	}
}

func loadScreen(s *screen.Searcher, path string, live bool, display int) (image.Image, error) {
	if !live {
		return s.LoadImage(path)
	}
	s.SetDisplayID(display)
	img, err := s.CaptureScreen()
	if err != nil {
		return nil, err
	}
	return img, nil
}

func verdict(m engine.Match, threshold float64) string {
	switch {
	case m.Confidence >= threshold:
		return "CLICK"
	case m.Confidence >= constants.RetryEligibleFloor:
		return "near miss (retry in map)"
	default:
		return "miss"
	}
}
