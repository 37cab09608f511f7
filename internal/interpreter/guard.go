package interpreter

import (
	"context"
	"fmt"
	"sync"

	"github.com/ConserveLee/route-idle/internal/calendar"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// guardCache keeps compiled require expressions.
type guardCache struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

func newGuardCache() *guardCache {
	return &guardCache{cache: make(map[string]*vm.Program)}
}

// eval compiles (once) and runs a boolean expression over env.
func (g *guardCache) eval(expression string, env map[string]any) (bool, error) {
	g.mu.Lock()
	prg, ok := g.cache[expression]
	if !ok {
		var err error
		prg, err = expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			g.mu.Unlock()
			return false, fmt.Errorf("compile %q: %w", expression, err)
		}
		g.cache[expression] = prg
	}
	g.mu.Unlock()

	out, err := expr.Run(prg, env)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, want bool", expression, out)
	}
	return b, nil
}

// checkDay skips the route unless today is one of the listed weekdays.
// A bare 1 means every day.
func (it *Interpreter) checkDay(ctx context.Context, s *step) Outcome {
	codes, err := s.entry.Value.Ints()
	if err != nil {
		it.Log.WarnContext(ctx, "bad day list, skipping route", "value", s.entry.Value.Text(), "error", err)
		return SkipRoute
	}
	if s.entry.Value.IsNumber() && len(codes) == 1 && codes[0] == 1 {
		codes = calendar.EveryDay
	}

	now := it.Now()
	ok, err := it.Days.Eligible(now, codes)
	if err != nil {
		it.Log.WarnContext(ctx, "bad day list, skipping route", "error", err)
		return SkipRoute
	}
	if !ok {
		it.Log.InfoContext(ctx, "not a listed day, skipping", "weekday", now.Weekday().String(), "days", codes)
		return SkipRoute
	}
	it.Log.InfoContext(ctx, "listed day, continuing", "weekday", now.Weekday().String())
	return Continue
}

// needAllow skips the route unless the matching permission is enabled.
func (it *Interpreter) needAllow(ctx context.Context, s *step) Outcome {
	key := needAllowKeys[s.entry.Key]
	if it.Config.Bool(key) {
		return Continue
	}
	it.Log.InfoContext(ctx, "permission disabled in config, skipping route", "key", key, "route", s.rc.route.Name)
	return SkipRoute
}

// require skips the route unless the expression holds. The expression sees
// every config key plus weekday, hour, planet and route.
func (it *Interpreter) require(ctx context.Context, s *step) Outcome {
	expression := s.entry.Value.Text()
	now := it.Now()

	env := it.Config.Values()
	if env == nil {
		env = make(map[string]any)
	}
	env["weekday"] = it.Days.Today(now)
	env["hour"] = now.Hour()
	env["planet"] = s.sess.Progress.Planet
	env["route"] = s.rc.route.Name

	ok, err := it.guards.eval(expression, env)
	if err != nil {
		it.Log.WarnContext(ctx, "require expression failed, skipping route", "error", err)
		return SkipRoute
	}
	if !ok {
		it.Log.InfoContext(ctx, "requirement not met, skipping route", "require", expression)
		return SkipRoute
	}
	return Continue
}
