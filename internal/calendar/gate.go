// Package calendar answers whether the current game day is one of a set of
// weekdays. A game day starts at the daily reset hour, not at midnight.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Weekday codes run Monday=0 to Sunday=6.
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// EveryDay lists all weekday codes.
var EveryDay = []int{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Gate evaluates weekday guards against the game day.
type Gate struct {
	resetHour int
	parser    cron.Parser
}

// NewGate returns a gate whose days roll over at resetHour local time.
func NewGate(resetHour int) *Gate {
	return &Gate{
		resetHour: resetHour,
		parser:    cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// Eligible reports whether the game day containing now is one of codes.
// Out of range codes are an error.
func (g *Gate) Eligible(now time.Time, codes []int) (bool, error) {
	if len(codes) == 0 {
		return false, nil
	}
	sched, err := g.schedule(codes)
	if err != nil {
		return false, err
	}
	// The game day is eligible when one of its resets happened in the last 24h.
	return !sched.Next(now.Add(-24 * time.Hour)).After(now), nil
}

// Today returns the weekday code of the game day containing now.
func (g *Gate) Today(now time.Time) int {
	day := now
	if now.Hour() < g.resetHour {
		day = now.AddDate(0, 0, -1)
	}
	return (int(day.Weekday()) + 6) % 7
}

func (g *Gate) schedule(codes []int) (cron.Schedule, error) {
	dows := make([]string, 0, len(codes))
	for _, c := range codes {
		if c < Monday || c > Sunday {
			return nil, fmt.Errorf("weekday code %d out of range 0-6", c)
		}
		dows = append(dows, strconv.Itoa((c+1)%7))
	}
	spec := fmt.Sprintf("0 %d * * %s", g.resetHour, strings.Join(dows, ","))
	sched, err := g.parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse day schedule %q: %w", spec, err)
	}
	return sched, nil
}
