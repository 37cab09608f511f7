package interpreter

import "context"

// blackscreen forces a scene load check.
func (it *Interpreter) blackscreen(ctx context.Context, _ *step) Outcome {
	it.Actions.WaitSceneLoad(ctx)
	return Continue
}

// openMap opens the star map.
func (it *Interpreter) openMap(ctx context.Context, _ *step) Outcome {
	if !it.Actions.OpenMap(ctx) {
		it.Log.WarnContext(ctx, "star map did not open, continuing")
	}
	return Continue
}

func (it *Interpreter) press(ctx context.Context, s *step) Outcome {
	if err := it.Actions.Press(ctx, s.entry.Key, s.value()); err != nil {
		it.Log.DebugContext(ctx, "press failed", "key", s.entry.Key, "error", err)
	}
	return Continue
}

func (it *Interpreter) move(ctx context.Context, s *step) Outcome {
	lastKey := ""
	if s.phase == phaseMap {
		lastKey = s.rc.lastKey
	}
	if err := it.Actions.Move(ctx, &s.sess.Stats, s.entry.Key, s.value(), s.sess.Progress.NormalRun, lastKey); err != nil {
		it.Log.DebugContext(ctx, "move failed", "key", s.entry.Key, "error", err)
	}
	return Continue
}

func (it *Interpreter) interact(ctx context.Context, s *step) Outcome {
	if err := it.Actions.Interact(ctx, s.value()); err != nil {
		it.Log.DebugContext(ctx, "interaction failed", "error", err)
	}
	return Continue
}

func (it *Interpreter) fight(ctx context.Context, s *step) Outcome {
	it.Actions.Fight(ctx, &s.sess.Stats, s.value())
	return Continue
}

func (it *Interpreter) technique(ctx context.Context, s *step) Outcome {
	if err := it.Actions.Technique(ctx, &s.sess.Stats, s.value()); err != nil {
		it.Log.DebugContext(ctx, "technique failed", "error", err)
	}
	return Continue
}

func (it *Interpreter) look(ctx context.Context, s *step) Outcome {
	if err := it.Actions.Look(ctx, s.entry.Key, s.value()); err != nil {
		it.Log.WarnContext(ctx, "camera action ignored", "error", err)
	}
	return Continue
}

// main returns to the main interface and waits. The start phase always
// waits at least two seconds for the interface to settle.
func (it *Interpreter) main(ctx context.Context, s *step) Outcome {
	it.Actions.BackToMain(ctx)
	wait := s.value()
	if s.phase == phaseSetup && wait < 2 {
		wait = 2
	}
	it.Actions.Await(wait)
	return Continue
}

func (it *Interpreter) await(_ context.Context, s *step) Outcome {
	it.Actions.Await(s.value())
	return Continue
}

// shutdown asks the session to stop once this route is done.
func (it *Interpreter) shutdown(ctx context.Context, s *step) Outcome {
	s.sess.Progress.StopRequested = true
	it.Log.InfoContext(ctx, "stop requested after this route")
	return Continue
}
