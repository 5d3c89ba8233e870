package service

import (
	"context"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	"github.com/vhvplatform/go-mindtrain-service/internal/metrics"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

// LogService appends to the two rotating logs and applies delivery
// outcomes reported back by the external dispatcher. Appends are single
// atomic document updates; rotation happens in the same update.
type LogService struct {
	store  AggregateStore
	limits LimitsConfig
	log    *logger.Logger
}

// NewLogService creates a new log service
func NewLogService(store AggregateStore, limits LimitsConfig, log *logger.Logger) *LogService {
	return &LogService{store: store, limits: limits, log: log}
}

// AppendNotificationLog records one notification handed to the
// dispatcher. Re-sending the same notificationId is refused with
// VALIDATION_ERROR, which makes the append idempotent for retrying
// producers.
func (s *LogService) AppendNotificationLog(ctx context.Context, userID string, req *domain.AppendNotificationLogRequest) (*domain.NotificationLog, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	if req.NotificationID == "" {
		return nil, apperrors.NewValidationError("notificationId is required", nil)
	}

	if _, err := s.store.CreateIfAbsent(ctx, userID); err != nil {
		return nil, err
	}

	entry := req.Entry(time.Now().UTC())
	user, err := s.store.PushNotificationLog(ctx, userID, entry, s.limits.MaxNotificationLogs)
	if err != nil {
		return nil, err
	}

	s.refreshMetadata(ctx, user)
	metrics.LogAppends.WithLabelValues("notification").Inc()
	return entry, nil
}

// AppendSyncHealthLog records one device health report. reportedAt
// defaults to now when the device omits it.
func (s *LogService) AppendSyncHealthLog(ctx context.Context, userID string, req *domain.AppendSyncHealthLogRequest) (*domain.SyncHealthLog, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	if req.DeviceID == "" {
		return nil, apperrors.NewValidationError("deviceId is required", nil)
	}
	if req.HealthScore < 0 || req.HealthScore > 100 {
		return nil, apperrors.NewValidationError("healthScore must be between 0 and 100", nil)
	}

	if _, err := s.store.CreateIfAbsent(ctx, userID); err != nil {
		return nil, err
	}

	entry := req.Entry(time.Now().UTC())
	if _, err := s.store.PushSyncHealthLog(ctx, userID, entry, s.limits.MaxSyncHealthLogs); err != nil {
		return nil, err
	}

	metrics.LogAppends.WithLabelValues("sync_health").Inc()
	return entry, nil
}

// UpdateNotificationLog merges a delivery outcome into the entry with
// the given notificationId, wherever it lives. The dispatcher does not
// know the owning user, so the lookup is cross-user. A missing entry is
// reported as found=false, not as an error: outcomes can arrive after
// their entry rotated out.
func (s *LogService) UpdateNotificationLog(ctx context.Context, notificationID string, update *domain.NotificationLogUpdate) (*domain.NotificationLog, bool, error) {
	if notificationID == "" {
		return nil, false, apperrors.NewValidationError("notificationId is required", nil)
	}

	user, err := s.store.UpdateNotificationLogFields(ctx, notificationID, update)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		s.log.Debug("Delivery outcome for unknown notification", "notification_id", notificationID)
		return nil, false, nil
	}

	for i := range user.NotificationLogs {
		if user.NotificationLogs[i].NotificationID == notificationID {
			if update.Status != nil {
				metrics.DeliveryOutcomes.WithLabelValues(string(*update.Status)).Inc()
			}
			return &user.NotificationLogs[i], true, nil
		}
	}
	return nil, false, nil
}

// GetFailedNotifications returns the user's failed notification entries
// created within the last hoursBack hours
func (s *LogService) GetFailedNotifications(ctx context.Context, userID string, hoursBack int) ([]domain.NotificationLog, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	if hoursBack <= 0 {
		return nil, apperrors.NewValidationError("hoursBack must be positive", nil)
	}

	user, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-time.Duration(hoursBack) * time.Hour)
	return domain.FilterFailedNotifications(user.NotificationLogs, cutoff), nil
}

func (s *LogService) refreshMetadata(ctx context.Context, user *domain.MindTrainUser) {
	meta := domain.RecomputeMetadata(user)
	if err := s.store.SetMetadata(ctx, user.UserID, meta); err != nil {
		s.log.Warn("Failed to save derived metadata", "user_id", user.UserID, "error", err)
	}
}
