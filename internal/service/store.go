package service

import (
	"context"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
)

// AggregateStore is the persistence contract the services write through.
// Single-method calls are atomic at the document level; operations that
// cross more than one invariant compose store calls inside
// WithTransaction. The mongo repository is the production
// implementation; tests use an in-memory fake.
type AggregateStore interface {
	Get(ctx context.Context, userID string) (*domain.MindTrainUser, error)
	CreateIfAbsent(ctx context.Context, userID string) (*domain.MindTrainUser, error)

	InsertProfile(ctx context.Context, userID string, profile *domain.AlarmProfile, maxProfiles int) (*domain.MindTrainUser, error)
	UpdateProfileFields(ctx context.Context, userID, profileID string, update *domain.ProfileUpdate, now time.Time) (*domain.MindTrainUser, error)
	DeactivateAllProfiles(ctx context.Context, userID string, now time.Time) error
	SetProfileActive(ctx context.Context, userID, profileID string, now time.Time) error
	SetScheduleActiveProfile(ctx context.Context, userID string, profileID *string, now time.Time) error
	RemoveProfile(ctx context.Context, userID, profileID string) (*domain.MindTrainUser, error)
	RemoveNotificationLogsByProfile(ctx context.Context, userID, profileID string) (int, error)

	UpsertScheduleFields(ctx context.Context, userID string, update *domain.ScheduleUpdate, now time.Time) (*domain.MindTrainUser, error)

	PushNotificationLog(ctx context.Context, userID string, entry *domain.NotificationLog, max int) (*domain.MindTrainUser, error)
	PushSyncHealthLog(ctx context.Context, userID string, entry *domain.SyncHealthLog, max int) (*domain.MindTrainUser, error)
	UpdateNotificationLogFields(ctx context.Context, notificationID string, update *domain.NotificationLogUpdate) (*domain.MindTrainUser, error)

	SetMetadata(ctx context.Context, userID string, meta domain.Metadata) error

	// WithTransaction runs fn atomically with respect to other writers of
	// the same user document. Conflicts surface as CONCURRENCY_ERROR.
	WithTransaction(ctx context.Context, userID string, fn func(ctx context.Context) error) error
}

// QueryStore is the read-only contract behind the sync-window queries
type QueryStore interface {
	Get(ctx context.Context, userID string) (*domain.MindTrainUser, error)
	FindUsersNeedingSync(ctx context.Context, now time.Time, limit int) ([]*domain.MindTrainUser, error)
	FindUsersInWindow(ctx context.Context, kind domain.NotificationKind, window domain.ClockWindow) ([]*domain.MindTrainUser, error)
}
