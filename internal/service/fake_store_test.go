package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
)

// fakeStore is an in-memory AggregateStore/QueryStore with the same
// semantics as the mongo repository: single-call atomicity under a
// store lock, per-user serialization of transactions, and full rollback
// when a transaction callback fails.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*domain.MindTrainUser
	txmu   map[string]*sync.Mutex
	txmuMu sync.Mutex
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*domain.MindTrainUser),
		txmu:  make(map[string]*sync.Mutex),
	}
}

func cloneUser(u *domain.MindTrainUser) *domain.MindTrainUser {
	raw, err := json.Marshal(u)
	if err != nil {
		panic(err)
	}
	var c domain.MindTrainUser
	if err := json.Unmarshal(raw, &c); err != nil {
		panic(err)
	}
	return &c
}

func (f *fakeStore) userLock(userID string) *sync.Mutex {
	f.txmuMu.Lock()
	defer f.txmuMu.Unlock()
	if _, ok := f.txmu[userID]; !ok {
		f.txmu[userID] = &sync.Mutex{}
	}
	return f.txmu[userID]
}

func (f *fakeStore) Get(_ context.Context, userID string) (*domain.MindTrainUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	return cloneUser(u), nil
}

func (f *fakeStore) CreateIfAbsent(_ context.Context, userID string) (*domain.MindTrainUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		return cloneUser(u), nil
	}
	u := domain.NewMindTrainUser(userID, time.Now().UTC())
	f.users[userID] = u
	return cloneUser(u), nil
}

func (f *fakeStore) InsertProfile(_ context.Context, userID string, profile *domain.AlarmProfile, maxProfiles int) (*domain.MindTrainUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if u.Profile(profile.ID) != nil {
		return nil, apperrors.NewValidationError("profile already exists", nil)
	}
	if len(u.AlarmProfiles) >= maxProfiles {
		return nil, apperrors.NewValidationError("profile limit reached", nil)
	}
	u.AlarmProfiles = append(u.AlarmProfiles, *profile)
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (f *fakeStore) UpdateProfileFields(_ context.Context, userID, profileID string, update *domain.ProfileUpdate, now time.Time) (*domain.MindTrainUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	p := u.Profile(profileID)
	if p == nil {
		return nil, apperrors.NewProfileNotFoundError(userID, profileID)
	}
	update.Apply(p)
	p.UpdatedAt = now
	u.UpdatedAt = now
	return cloneUser(u), nil
}

func (f *fakeStore) DeactivateAllProfiles(_ context.Context, userID string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperrors.NewUserNotFoundError(userID)
	}
	for i := range u.AlarmProfiles {
		u.AlarmProfiles[i].IsActive = false
	}
	u.UpdatedAt = now
	return nil
}

func (f *fakeStore) SetProfileActive(_ context.Context, userID, profileID string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperrors.NewUserNotFoundError(userID)
	}
	p := u.Profile(profileID)
	if p == nil {
		return apperrors.NewProfileNotFoundError(userID, profileID)
	}
	p.IsActive = true
	p.UpdatedAt = now
	u.UpdatedAt = now
	return nil
}

func (f *fakeStore) SetScheduleActiveProfile(_ context.Context, userID string, profileID *string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperrors.NewUserNotFoundError(userID)
	}
	u.FCMSchedule.ActiveProfileID = profileID
	u.FCMSchedule.UpdatedAt = now
	u.UpdatedAt = now
	return nil
}

func (f *fakeStore) RemoveProfile(_ context.Context, userID, profileID string) (*domain.MindTrainUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	for i := range u.AlarmProfiles {
		if u.AlarmProfiles[i].ID == profileID {
			u.AlarmProfiles = append(u.AlarmProfiles[:i], u.AlarmProfiles[i+1:]...)
			u.UpdatedAt = time.Now().UTC()
			return cloneUser(u), nil
		}
	}
	return nil, apperrors.NewProfileNotFoundError(userID, profileID)
}

func (f *fakeStore) RemoveNotificationLogsByProfile(_ context.Context, userID, profileID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return 0, apperrors.NewUserNotFoundError(userID)
	}
	kept := u.NotificationLogs[:0]
	removed := 0
	for _, l := range u.NotificationLogs {
		if l.ProfileID == profileID {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	u.NotificationLogs = kept
	return removed, nil
}

func (f *fakeStore) UpsertScheduleFields(ctx context.Context, userID string, update *domain.ScheduleUpdate, now time.Time) (*domain.MindTrainUser, error) {
	if _, err := f.CreateIfAbsent(ctx, userID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[userID]
	update.Apply(&u.FCMSchedule)
	u.FCMSchedule.UpdatedAt = now
	u.UpdatedAt = now
	return cloneUser(u), nil
}

func (f *fakeStore) PushNotificationLog(_ context.Context, userID string, entry *domain.NotificationLog, max int) (*domain.MindTrainUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if u.HasNotificationLog(entry.NotificationID) {
		return nil, apperrors.NewValidationError("notification already logged", nil)
	}
	u.NotificationLogs = domain.TrimNotificationLogs(append(u.NotificationLogs, *entry), max)
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (f *fakeStore) PushSyncHealthLog(_ context.Context, userID string, entry *domain.SyncHealthLog, max int) (*domain.MindTrainUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	u.SyncHealthLogs = domain.TrimSyncHealthLogs(append(u.SyncHealthLogs, *entry), max)
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (f *fakeStore) UpdateNotificationLogFields(_ context.Context, notificationID string, update *domain.NotificationLogUpdate) (*domain.MindTrainUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		for i := range u.NotificationLogs {
			if u.NotificationLogs[i].NotificationID == notificationID {
				update.Apply(&u.NotificationLogs[i])
				return cloneUser(u), nil
			}
		}
	}
	return nil, nil
}

func (f *fakeStore) SetMetadata(_ context.Context, userID string, meta domain.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperrors.NewUserNotFoundError(userID)
	}
	u.Metadata = meta
	return nil
}

// WithTransaction serializes transactions per user and restores the
// pre-transaction document when fn fails, mirroring mongo's rollback.
func (f *fakeStore) WithTransaction(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	lock := f.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	f.mu.Lock()
	var snapshot *domain.MindTrainUser
	if u, ok := f.users[userID]; ok {
		snapshot = cloneUser(u)
	}
	f.mu.Unlock()

	if err := fn(ctx); err != nil {
		f.mu.Lock()
		if snapshot != nil {
			f.users[userID] = snapshot
		} else {
			delete(f.users, userID)
		}
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) FindUsersNeedingSync(_ context.Context, now time.Time, limit int) ([]*domain.MindTrainUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.MindTrainUser
	for _, u := range f.users {
		for i := range u.AlarmProfiles {
			p := &u.AlarmProfiles[i]
			if p.IsActive && p.NextSyncCheckTime != nil && !p.NextSyncCheckTime.After(now) {
				out = append(out, cloneUser(u))
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) FindUsersInWindow(_ context.Context, kind domain.NotificationKind, window domain.ClockWindow) ([]*domain.MindTrainUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.MindTrainUser
	for _, u := range f.users {
		sched := u.FCMSchedule
		if !sched.IsEnabled || sched.ActiveProfileID == nil || u.ActiveProfile() == nil {
			continue
		}
		at := sched.MorningNotificationTime
		if kind == domain.NotificationKindEvening {
			at = sched.EveningNotificationTime
		}
		if window.Contains(at) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}
