package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RiskScorer estimates the probability that the assigned guard will not show up.
type RiskScorer interface {
	Score(ctx context.Context, guardID uuid.UUID, confirmed bool) (float64, error)
}

type guardStatsReader interface {
	GuardStats(ctx context.Context, guardID uuid.UUID, since time.Time) (GuardStats, error)
}

const (
	defaultRiskWindow    = 90 * 24 * time.Hour
	unconfirmedPenalty   = 0.4
	noTrackRecordPenalty = 0.2
	trackRecordMinimum   = 3
)

// HistoryRiskScorer scores guards from their workflow history. The base is
// the share of their bookings that ended in an issue, then penalties are
// added for an unconfirmed booking and for a thin track record.
type HistoryRiskScorer struct {
	stats  guardStatsReader
	window time.Duration
	now    func() time.Time
}

// NewHistoryRiskScorer builds a scorer looking back over window. A zero
// window uses 90 days.
func NewHistoryRiskScorer(stats guardStatsReader, window time.Duration) *HistoryRiskScorer {
	if window <= 0 {
		window = defaultRiskWindow
	}
	return &HistoryRiskScorer{stats: stats, window: window, now: time.Now}
}

func (s *HistoryRiskScorer) Score(ctx context.Context, guardID uuid.UUID, confirmed bool) (float64, error) {
	stats, err := s.stats.GuardStats(ctx, guardID, s.now().UTC().Add(-s.window))
	if err != nil {
		return 0, err
	}
	return scoreFromStats(stats, confirmed), nil
}

func scoreFromStats(stats GuardStats, confirmed bool) float64 {
	var score float64
	if stats.Assigned > 0 {
		score = float64(stats.Issues) / float64(stats.Assigned)
	}
	if !confirmed {
		score += unconfirmedPenalty
	}
	if stats.Completed < trackRecordMinimum {
		score += noTrackRecordPenalty
	}
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
