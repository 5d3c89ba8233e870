package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	"github.com/vhvplatform/go-mindtrain-service/internal/metrics"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

// LimitsConfig caps per-user document growth
type LimitsConfig struct {
	MaxAlarmProfiles    int
	MaxNotificationLogs int
	MaxSyncHealthLogs   int
}

// ProfileService owns the alarmProfiles sub-collection: create, partial
// update, activation, and cascading deletion. Activation and deletion
// are the two operations that touch more than one invariant, so they run
// inside store transactions.
type ProfileService struct {
	store  AggregateStore
	limits LimitsConfig
	log    *logger.Logger
}

// DeleteResult reports what a cascading profile deletion removed
type DeleteResult struct {
	DeletedLogs       int  `json:"deletedLogs"`
	RemainingProfiles int  `json:"remainingProfiles"`
	WasActive         bool `json:"wasActive"`
}

// NewProfileService creates a new profile service
func NewProfileService(store AggregateStore, limits LimitsConfig, log *logger.Logger) *ProfileService {
	return &ProfileService{store: store, limits: limits, log: log}
}

// EnsureUser lazily creates the aggregate for userID. Idempotent: a
// second call returns the existing document unchanged.
func (s *ProfileService) EnsureUser(ctx context.Context, userID string) (*domain.MindTrainUser, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	return s.store.CreateIfAbsent(ctx, userID)
}

// GetUser returns the full aggregate
func (s *ProfileService) GetUser(ctx context.Context, userID string) (*domain.MindTrainUser, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	return s.store.Get(ctx, userID)
}

// ListProfiles returns the user's profiles in insertion order
func (s *ProfileService) ListProfiles(ctx context.Context, userID string) ([]domain.AlarmProfile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.AlarmProfiles, nil
}

// GetProfile returns a single profile
func (s *ProfileService) GetProfile(ctx context.Context, userID, profileID string) (*domain.AlarmProfile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Profile(profileID)
	if profile == nil {
		return nil, apperrors.NewProfileNotFoundError(userID, profileID)
	}
	return profile, nil
}

// AddProfile appends a new, inactive profile. Duplicate ids and the
// profile cap are refused with VALIDATION_ERROR; the rejected write
// leaves the existing profiles untouched.
func (s *ProfileService) AddProfile(ctx context.Context, userID string, req *domain.CreateProfileRequest) (*domain.AlarmProfile, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	if req.ID == "" {
		return nil, apperrors.NewValidationError("profile id is required", nil)
	}
	if err := validateProfileTimes(req.StartTime, req.EndTime, req.FixedTime); err != nil {
		return nil, err
	}

	if _, err := s.store.CreateIfAbsent(ctx, userID); err != nil {
		return nil, err
	}

	profile := req.Profile(time.Now().UTC())
	user, err := s.store.InsertProfile(ctx, userID, profile, s.limits.MaxAlarmProfiles)
	if err != nil {
		metrics.ProfileOperations.WithLabelValues("add", "error").Inc()
		return nil, err
	}

	s.refreshMetadata(ctx, user)
	metrics.ProfileOperations.WithLabelValues("add", "ok").Inc()
	s.log.Info("Added alarm profile", "user_id", userID, "profile_id", profile.ID)
	return profile, nil
}

// UpdateProfile merges partial fields into one profile. Immutable fields
// are not representable in ProfileUpdate, so they are dropped before
// the request reaches this method; updatedAt is always refreshed.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID, profileID string, update *domain.ProfileUpdate) (*domain.AlarmProfile, error) {
	if userID == "" || profileID == "" {
		return nil, apperrors.NewValidationError("userId and profileId are required", nil)
	}
	if err := validateProfileUpdateTimes(update); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateProfileFields(ctx, userID, profileID, update, time.Now().UTC())
	if err != nil {
		metrics.ProfileOperations.WithLabelValues("update", "error").Inc()
		return nil, err
	}

	s.refreshMetadata(ctx, user)
	metrics.ProfileOperations.WithLabelValues("update", "ok").Inc()
	return user.Profile(profileID), nil
}

// ActivateProfile makes profileID the single active profile. The
// deactivate-all, activate-one, point-schedule sequence is indivisible:
// concurrent readers never observe two active profiles or a schedule
// pointer that disagrees with the active profile.
func (s *ProfileService) ActivateProfile(ctx context.Context, userID, profileID string) (*domain.MindTrainUser, error) {
	if userID == "" || profileID == "" {
		return nil, apperrors.NewValidationError("userId and profileId are required", nil)
	}

	user, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Profile(profileID) == nil {
		return nil, apperrors.NewProfileNotFoundError(userID, profileID)
	}

	now := time.Now().UTC()
	err = s.store.WithTransaction(ctx, userID, func(txCtx context.Context) error {
		if err := s.store.DeactivateAllProfiles(txCtx, userID, now); err != nil {
			return err
		}
		if err := s.store.SetProfileActive(txCtx, userID, profileID, now); err != nil {
			return err
		}
		if err := s.store.SetScheduleActiveProfile(txCtx, userID, &profileID, now); err != nil {
			return err
		}

		current, err := s.store.Get(txCtx, userID)
		if err != nil {
			return err
		}
		return s.store.SetMetadata(txCtx, userID, domain.RecomputeMetadata(current))
	})
	if err != nil {
		if apperrors.Code(err) == apperrors.CodeConcurrency {
			metrics.TransactionConflicts.Inc()
		}
		metrics.ProfileOperations.WithLabelValues("activate", "error").Inc()
		return nil, err
	}

	metrics.ProfileOperations.WithLabelValues("activate", "ok").Inc()
	s.log.Info("Activated alarm profile", "user_id", userID, "profile_id", profileID)
	return s.store.Get(ctx, userID)
}

// DeleteProfile removes a profile and its dependent state in one
// transaction: the profile itself, notification logs referencing it, and
// the schedule pointer when the deleted profile was the active one.
// Deletion never promotes a replacement; re-activation is an explicit
// client action. Any failure rolls back completely.
func (s *ProfileService) DeleteProfile(ctx context.Context, userID, profileID string) (*DeleteResult, error) {
	if userID == "" || profileID == "" {
		return nil, apperrors.NewValidationError("userId and profileId are required", nil)
	}

	now := time.Now().UTC()
	result := &DeleteResult{}

	err := s.store.WithTransaction(ctx, userID, func(txCtx context.Context) error {
		user, err := s.store.Get(txCtx, userID)
		if err != nil {
			return err
		}
		target := user.Profile(profileID)
		if target == nil {
			return apperrors.NewProfileNotFoundError(userID, profileID)
		}
		result.WasActive = target.IsActive

		deletedLogs, err := s.store.RemoveNotificationLogsByProfile(txCtx, userID, profileID)
		if err != nil {
			return err
		}
		result.DeletedLogs = deletedLogs

		after, err := s.store.RemoveProfile(txCtx, userID, profileID)
		if err != nil {
			return err
		}
		result.RemainingProfiles = len(after.AlarmProfiles)

		if result.WasActive {
			if err := s.store.SetScheduleActiveProfile(txCtx, userID, nil, now); err != nil {
				return err
			}
		}

		current, err := s.store.Get(txCtx, userID)
		if err != nil {
			return err
		}
		return s.store.SetMetadata(txCtx, userID, domain.RecomputeMetadata(current))
	})
	if err != nil {
		if apperrors.Code(err) == apperrors.CodeConcurrency {
			metrics.TransactionConflicts.Inc()
		}
		metrics.ProfileOperations.WithLabelValues("delete", "error").Inc()
		return nil, err
	}

	metrics.ProfileOperations.WithLabelValues("delete", "ok").Inc()
	s.log.Info("Deleted alarm profile", "user_id", userID, "profile_id", profileID,
		"deleted_logs", result.DeletedLogs, "remaining_profiles", result.RemainingProfiles)
	return result, nil
}

// refreshMetadata persists recomputed counters after a single-document
// mutation. The save is derived state only, so a failure is logged and
// swallowed rather than failing the committed operation.
func (s *ProfileService) refreshMetadata(ctx context.Context, user *domain.MindTrainUser) {
	meta := domain.RecomputeMetadata(user)
	if err := s.store.SetMetadata(ctx, user.UserID, meta); err != nil {
		s.log.Warn("Failed to save derived metadata", "user_id", user.UserID, "error", err)
	}
}

func validateProfileTimes(times ...string) error {
	for _, t := range times {
		if t != "" && !domain.ValidClockTime(t) {
			return apperrors.NewValidationError(fmt.Sprintf("invalid time %q, expected HH:mm", t), nil)
		}
	}
	return nil
}

func validateProfileUpdateTimes(update *domain.ProfileUpdate) error {
	var times []string
	if update.StartTime != nil {
		times = append(times, *update.StartTime)
	}
	if update.EndTime != nil {
		times = append(times, *update.EndTime)
	}
	if update.FixedTime != nil {
		times = append(times, *update.FixedTime)
	}
	return validateProfileTimes(times...)
}
