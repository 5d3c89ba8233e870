package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

// ScheduleService maintains the per-user FCM schedule sub-document
type ScheduleService struct {
	store AggregateStore
	log   *logger.Logger
}

// NewScheduleService creates a new schedule service
func NewScheduleService(store AggregateStore, log *logger.Logger) *ScheduleService {
	return &ScheduleService{store: store, log: log}
}

// GetSchedule returns the user's schedule
func (s *ScheduleService) GetSchedule(ctx context.Context, userID string) (*domain.Schedule, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	user, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user.FCMSchedule, nil
}

// UpsertSchedule merges partial schedule fields, creating the aggregate
// with schedule defaults when the user has no document yet. Notification
// times must be HH:mm; the timezone is stored as given, since format
// validation is the downstream consumer's concern.
func (s *ScheduleService) UpsertSchedule(ctx context.Context, userID string, update *domain.ScheduleUpdate) (*domain.Schedule, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	if update.MorningNotificationTime != nil && !domain.ValidClockTime(*update.MorningNotificationTime) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid morning time %q, expected HH:mm", *update.MorningNotificationTime), nil)
	}
	if update.EveningNotificationTime != nil && !domain.ValidClockTime(*update.EveningNotificationTime) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid evening time %q, expected HH:mm", *update.EveningNotificationTime), nil)
	}

	user, err := s.store.UpsertScheduleFields(ctx, userID, update, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.log.Info("Upserted schedule", "user_id", userID, "enabled", user.FCMSchedule.IsEnabled)
	return &user.FCMSchedule, nil
}
