package interpreter

import (
	"context"
	"errors"
	"fmt"

	"github.com/ConserveLee/route-idle/internal/route"
)

// apply sets the flag named key from v.
func (f *Flags) apply(key string, v route.Value) error {
	switch key {
	case "drag":
		f.DragMap = v.Bool()
	case "drag_exact":
		ints, err := v.Ints()
		if err != nil {
			return fmt.Errorf("drag_exact: %w", err)
		}
		if len(ints) != 3 {
			return fmt.Errorf("drag_exact needs 3 counts, got %d", len(ints))
		}
		for _, n := range ints {
			if n < 0 {
				return errors.New("drag_exact counts must not be negative")
			}
		}
		f.DragExact = &[3]int{ints[0], ints[1], ints[2]}
		f.DragMap = true
	case "scene":
		f.DragScene = v.Bool()
	case "clicks":
		f.Clicks = v.Int(1)
		if f.Clicks < 1 {
			f.Clicks = 1
		}
	case "forbid_retry":
		f.RetryInMap = !v.Bool()
	}
	return nil
}

// applyAttrs returns base overridden by the flag attributes of e. Other
// attributes are ignored.
func applyAttrs(base Flags, e route.Entry) (Flags, error) {
	var errs []error
	for name, v := range e.Attrs {
		if !flagKeys[name] {
			continue
		}
		if err := base.apply(name, v); err != nil {
			errs = append(errs, err)
		}
	}
	return base, errors.Join(errs...)
}

// setFlag handles a flag directive, which holds for the rest of the route.
func (it *Interpreter) setFlag(ctx context.Context, s *step) Outcome {
	if err := s.rc.flags.apply(s.entry.Key, s.entry.Value); err != nil {
		it.Log.WarnContext(ctx, "bad flag ignored", "key", s.entry.Key, "error", err)
		return Continue
	}
	// Attributes on the directive itself also stick.
	flags, _ := applyAttrs(s.rc.flags, s.entry)
	s.rc.flags = flags
	it.Log.DebugContext(ctx, "route flags", "drag", flags.DragMap, "scene", flags.DragScene,
		"clicks", flags.Clicks, "retry", flags.RetryInMap)
	return Continue
}

// normalRun forbids sprinting for the route.
func (it *Interpreter) normalRun(ctx context.Context, s *step) Outcome {
	s.sess.Progress.NormalRun = true
	it.Log.InfoContext(ctx, "sprint disabled for this route")
	return Continue
}
