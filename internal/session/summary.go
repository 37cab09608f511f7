package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/ConserveLee/route-idle/internal/constants"
	"github.com/ConserveLee/route-idle/internal/state"
)

// Summary is the end-of-session report.
type Summary struct {
	SessionID        string
	Total            time.Duration
	RouteTime        time.Duration
	CombatTime       time.Duration
	SprintSaved      time.Duration
	CombatCount      int
	NoCombatCount    int
	AnomalousCombat  int
	TimeDesyncs      int
	ConsumablesUsed  int
	TeleportClicks   int
	CheckpointFailed bool
	FirstRoute       string
	LastRoute        string
	KeyErrorRoutes   []string
	LowConfidence    state.MatchLog // Lowest confidence per template below the clean mark
}

// Summarize builds the report of a finished session.
func Summarize(sess *state.Session) Summary {
	st := sess.Stats
	return Summary{
		SessionID:        sess.ID,
		Total:            st.TotalElapsed,
		RouteTime:        st.RouteTime,
		CombatTime:       st.CombatTime,
		SprintSaved:      st.SprintSaved,
		CombatCount:      st.CombatCount,
		NoCombatCount:    st.NoCombatCount,
		AnomalousCombat:  st.AnomalousCombat,
		TimeDesyncs:      st.TimeDesyncs,
		ConsumablesUsed:  st.ConsumablesUsed,
		TeleportClicks:   st.TeleportClicks,
		CheckpointFailed: sess.Progress.CheckpointFailed,
		FirstRoute:       sess.Progress.FirstRoute,
		LastRoute:        sess.Progress.LastRoute,
		KeyErrorRoutes:   append([]string(nil), st.KeyErrorRoutes...),
		LowConfidence:    sess.Matches,
	}
}

// LogValue groups the summary for structured logging.
func (s Summary) LogValue() slog.Value {
	low := make([]slog.Attr, 0, len(s.LowConfidence))
	for _, p := range s.LowConfidence.Paths() {
		low = append(low, slog.Float64(p, s.LowConfidence[p]))
	}
	return slog.GroupValue(
		slog.Duration("total", s.Total.Round(time.Second)),
		slog.Duration("route_time", s.RouteTime.Round(time.Second)),
		slog.Duration("combat_time", s.CombatTime.Round(time.Second)),
		slog.Duration("sprint_saved", s.SprintSaved.Round(time.Second)),
		slog.Int("combats", s.CombatCount),
		slog.Int("no_combat", s.NoCombatCount),
		slog.Int("anomalous_combats", s.AnomalousCombat),
		slog.Int("time_desyncs", s.TimeDesyncs),
		slog.Int("consumables", s.ConsumablesUsed),
		slog.Int("teleport_clicks", s.TeleportClicks),
		slog.String("first_route", s.FirstRoute),
		slog.String("last_route", s.LastRoute),
		slog.Any("key_error_routes", s.KeyErrorRoutes),
		slog.Attr{Key: "low_confidence", Value: slog.GroupValue(low...)},
	)
}

func (c *Controller) report(ctx context.Context, sess *state.Session) {
	s := Summarize(sess)
	c.log.InfoContext(ctx, "session finished", "summary", s)
	c.log.InfoContext(ctx, "anomalous combats", "count", s.AnomalousCombat,
		"below", constants.AnomalousCombatLimit)
	if s.CheckpointFailed {
		c.log.WarnContext(ctx, "checkpoint verification failed, adjust the mechanism to the right position")
	}
	if len(s.KeyErrorRoutes) > 0 {
		c.log.WarnContext(ctx, "routes abandoned on a key error", "routes", s.KeyErrorRoutes)
	}
	if len(s.LowConfidence) > 0 {
		c.log.DebugContext(ctx, "templates matched below the clean mark", "count", len(s.LowConfidence))
	}
}
