// Package clicker waits for a template to appear and clicks its center.
package clicker

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/engine"
)

// Options tune one click.
type Options struct {
	Threshold float64
	Timeout   time.Duration // Defaults to constants.ClickTimeout
	Region    engine.Region
	Clicks    int           // Defaults to 1
	Interval  time.Duration // Between repeated clicks
	Delay     time.Duration // Wait between the match and the click
	// RetryInMap allows a near miss to be reported as retry eligible.
	RetryInMap bool
	// Alt holds the alt key during the click, for when the main interface
	// captures the cursor.
	Alt bool
}

// Result describes how a click went.
type Result struct {
	Clicked    bool
	Confidence float64 // Best confidence seen
	// RetryEligible is set on a miss that was close enough to try the step
	// again after re-centering the map.
	RetryEligible bool
}

// Clicker probes for templates until they match or time runs out.
type Clicker struct {
	vision engine.Vision
	input  engine.Dispatcher
	log    *slog.Logger
	now    func() time.Time
}

// New creates a clicker.
func New(vision engine.Vision, input engine.Dispatcher, log *slog.Logger, now func() time.Time) *Clicker {
	if now == nil {
		now = time.Now
	}
	return &Clicker{vision: vision, input: input, log: log, now: now}
}

// Click waits for path to reach the threshold and clicks it.
func (c *Clicker) Click(ctx context.Context, path string, opts Options) Result {
	if opts.Timeout == 0 {
		opts.Timeout = constants.ClickTimeout
	}
	if opts.Clicks < 1 {
		opts.Clicks = 1
	}
	if opts.Interval == 0 {
		opts.Interval = constants.ClickInterval
	}

	tpl, err := c.vision.Template(path)
	if err != nil {
		c.log.ErrorContext(ctx, "click template", "path", path, "error", err)
		return Result{}
	}
	templates := []image.Image{tpl}

	var res Result
	deadline := c.now().Add(opts.Timeout)
	for {
		m, err := c.vision.MatchBestOf(templates, opts.Region)
		if err != nil {
			c.log.DebugContext(ctx, "click probe failed", "path", path, "error", err)
		} else if m.Confidence > res.Confidence {
			res.Confidence = m.Confidence
		}

		if err == nil && m.Confidence >= opts.Threshold {
			if opts.Delay > 0 {
				c.input.Sleep(opts.Delay)
			}
			c.press(ctx, m.Center(), opts)
			res.Clicked = true
			c.log.DebugContext(ctx, "clicked target", "path", path,
				"confidence", m.Confidence, "x", m.Center().X, "y", m.Center().Y, "clicks", opts.Clicks)
			return res
		}

		if ctx.Err() != nil || !c.now().Before(deadline) {
			break
		}
		c.input.Sleep(constants.ProbeInterval)
	}

	res.RetryEligible = opts.RetryInMap &&
		res.Confidence >= constants.RetryEligibleFloor &&
		res.Confidence < opts.Threshold
	c.log.InfoContext(ctx, "target not matched", "path", path,
		"best", res.Confidence, "threshold", opts.Threshold, "retry", res.RetryEligible)
	return res
}

func (c *Clicker) press(ctx context.Context, p image.Point, opts Options) {
	if !opts.Alt {
		c.input.Click(p, opts.Clicks, opts.Interval)
		return
	}
	if err := c.input.HoldKey("alt"); err != nil {
		c.log.WarnContext(ctx, "hold alt failed", "error", err)
	}
	c.input.Sleep(constants.ClickInterval)
	c.input.Click(p, opts.Clicks, opts.Interval)
	if err := c.input.ReleaseKey("alt"); err != nil {
		c.log.WarnContext(ctx, "release alt failed", "error", err)
	}
}
