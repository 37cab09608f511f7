// Package state holds the records shared by the session controller and the
// route interpreter. They are owned by the single execution goroutine and are
// never locked.
package state

import (
	"sort"
	"time"
)

// Stats are the session counters reported in the end-of-session summary.
type Stats struct {
	TotalElapsed    time.Duration
	RouteTime       time.Duration // Sum of timed route interpretations
	CombatTime      time.Duration
	CombatCount     int
	NoCombatCount   int
	AnomalousCombat int // Combats shorter than the anomaly limit
	SprintSaved     time.Duration
	TeleportClicks  int
	TimeDesyncs     int
	ConsumablesUsed int
	KeyErrorRoutes  []string // Display names of routes abandoned on a key error
}

// ResetRound clears the per-round counters at session start.
func (s *Stats) ResetRound() {
	*s = Stats{}
}

// Progress is the route progress state. Planet and CheckpointFailed survive
// route boundaries; ResetRoute clears the rest.
type Progress struct {
	SkipRoute          bool
	NextRouteForceDrag bool
	LastTeleport       string
	Planet             string
	CheckpointFailed   bool
	NormalRun          bool
	TeleportClicks     int // Teleport clicks in the current route
	FirstRoute         string
	LastRoute          string
	StopRequested      bool
}

// ResetRoute clears the fields scoped to a single route.
func (p *Progress) ResetRoute() {
	p.SkipRoute = false
	p.LastTeleport = ""
	p.NormalRun = false
	p.TeleportClicks = 0
}

// MatchLog keeps the lowest confidence seen per template when a click went
// through below the "clean match" mark.
type MatchLog map[string]float64

// Record keeps the lowest confidence seen for path.
func (m MatchLog) Record(path string, confidence float64) {
	if prev, ok := m[path]; !ok || confidence < prev {
		m[path] = confidence
	}
}

// Paths returns the recorded template paths in sorted order.
func (m MatchLog) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Session is the explicit session context passed to the interpreter.
type Session struct {
	ID            string
	Dev           bool
	AllowlistMode bool // Sticky once enabled within a session
	Stats         Stats
	Progress      Progress
	Matches       MatchLog
}

// NewSession returns a session with empty counters.
func NewSession(id string, dev bool) *Session {
	return &Session{
		ID:      id,
		Dev:     dev,
		Matches: make(MatchLog),
	}
}
