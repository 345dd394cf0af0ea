package service

import (
	"context"
	"time"

	"github.com/gleamverse/readsync/internal/domain"
)

// StreakService derives reading streaks from history timestamps.
// Streaks are never stored: they are recomputed on demand so a missed
// day shows up immediately.
type StreakService struct {
	history *HistoryService
	loc     *time.Location
}

// NewStreakService creates a streak calculator using the local time
// zone for day boundaries.
func NewStreakService(history *HistoryService) *StreakService {
	return &StreakService{
		history: history,
		loc:     time.Local,
	}
}

// Current returns the owner's streak as of now.
func (s *StreakService) Current(ctx context.Context, ownerID string) (domain.StreakData, error) {
	times, err := s.history.ReadTimes(ctx, ownerID)
	if err != nil {
		return domain.StreakData{}, err
	}
	return domain.ComputeStreak(times, time.Now(), s.loc), nil
}
