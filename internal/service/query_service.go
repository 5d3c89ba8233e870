package service

import (
	"context"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	"github.com/vhvplatform/go-mindtrain-service/internal/metrics"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

// QueryService answers the read-side questions the external dispatcher
// polls for: who is in a notification window right now, and who is due
// for a background sync check. Read-only and eventually consistent with
// respect to concurrent writers.
type QueryService struct {
	store QueryStore
	log   *logger.Logger
}

// NewQueryService creates a new query service
func NewQueryService(store QueryStore, log *logger.Logger) *QueryService {
	return &QueryService{store: store, log: log}
}

// FindUsersNeedingSync returns up to limit users that have an active
// profile whose nextSyncCheckTime has passed
func (s *QueryService) FindUsersNeedingSync(ctx context.Context, now time.Time, limit int) ([]*domain.MindTrainUser, error) {
	if limit <= 0 {
		return nil, apperrors.NewValidationError("limit must be positive", nil)
	}

	timer := time.Now()
	users, err := s.store.FindUsersNeedingSync(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	metrics.QueryDuration.WithLabelValues("needing_sync").Observe(time.Since(timer).Seconds())
	return users, nil
}

// GetUsersForNotification returns users whose enabled schedule puts the
// morning or evening notification inside the trailing window
// [now-windowMinutes, now]. The stored time is matched against now's
// wall clock.
// TODO: apply the schedule's stored timezone when matching, instead of
// the server's wall clock.
func (s *QueryService) GetUsersForNotification(ctx context.Context, kind domain.NotificationKind, now time.Time, windowMinutes int) ([]*domain.MindTrainUser, error) {
	if kind != domain.NotificationKindMorning && kind != domain.NotificationKindEvening {
		return nil, apperrors.NewValidationError("kind must be morning or evening", nil)
	}
	if windowMinutes <= 0 {
		return nil, apperrors.NewValidationError("windowMinutes must be positive", nil)
	}

	window := domain.WindowFrom(now, windowMinutes)

	timer := time.Now()
	users, err := s.store.FindUsersInWindow(ctx, kind, window)
	if err != nil {
		return nil, err
	}
	metrics.QueryDuration.WithLabelValues("notification_window").Observe(time.Since(timer).Seconds())

	if len(users) == 0 {
		return []*domain.MindTrainUser{}, nil
	}
	return users, nil
}
