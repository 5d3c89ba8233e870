package service

import (
	"context"
	"testing"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

type queryFixture struct {
	store    *fakeStore
	profiles *ProfileService
	schedule *ScheduleService
	queries  *QueryService
}

func newQueryFixture() *queryFixture {
	store := newFakeStore()
	log := logger.NewLogger()
	return &queryFixture{
		store:    store,
		profiles: NewProfileService(store, testLimits(), log),
		schedule: NewScheduleService(store, log),
		queries:  NewQueryService(store, log),
	}
}

// seedUser gives userID an active profile and an enabled schedule with
// the given morning notification time.
func (f *queryFixture) seedUser(t *testing.T, userID, morningTime string, enabled bool) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.profiles.AddProfile(ctx, userID, profileReq("p1")); err != nil {
		t.Fatalf("seed AddProfile(%s) failed: %v", userID, err)
	}
	if _, err := f.profiles.ActivateProfile(ctx, userID, "p1"); err != nil {
		t.Fatalf("seed ActivateProfile(%s) failed: %v", userID, err)
	}
	if _, err := f.schedule.UpsertSchedule(ctx, userID, &domain.ScheduleUpdate{
		MorningNotificationTime: &morningTime,
		IsEnabled:               &enabled,
	}); err != nil {
		t.Fatalf("seed UpsertSchedule(%s) failed: %v", userID, err)
	}
}

// Scenario: polling at 08:05 with a 15-minute window picks up the user
// whose morning time of 08:00 came due since the previous poll, and
// skips disabled schedules.
func TestGetUsersForNotification_MorningWindow(t *testing.T) {
	f := newQueryFixture()
	ctx := context.Background()

	f.seedUser(t, "due", "08:00", true)
	f.seedUser(t, "disabled", "08:00", false)
	f.seedUser(t, "later", "09:00", true)

	now := time.Date(2026, 3, 1, 8, 5, 0, 0, time.UTC)
	users, err := f.queries.GetUsersForNotification(ctx, domain.NotificationKindMorning, now, 15)
	if err != nil {
		t.Fatalf("GetUsersForNotification failed: %v", err)
	}

	if len(users) != 1 {
		t.Fatalf("matched %d users, want 1", len(users))
	}
	if users[0].UserID != "due" {
		t.Errorf("matched %s, want due", users[0].UserID)
	}
}

// A user with profiles but no active one never appears in a window,
// regardless of the schedule.
func TestGetUsersForNotification_RequiresActiveProfile(t *testing.T) {
	f := newQueryFixture()
	ctx := context.Background()

	morning := "08:00"
	enabled := true
	if _, err := f.profiles.AddProfile(ctx, "u1", profileReq("p1")); err != nil {
		t.Fatalf("AddProfile failed: %v", err)
	}
	if _, err := f.schedule.UpsertSchedule(ctx, "u1", &domain.ScheduleUpdate{
		MorningNotificationTime: &morning,
		IsEnabled:               &enabled,
	}); err != nil {
		t.Fatalf("UpsertSchedule failed: %v", err)
	}

	now := time.Date(2026, 3, 1, 8, 5, 0, 0, time.UTC)
	users, err := f.queries.GetUsersForNotification(ctx, domain.NotificationKindMorning, now, 15)
	if err != nil {
		t.Fatalf("GetUsersForNotification failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("matched %d users, want 0", len(users))
	}
}

func TestGetUsersForNotification_EmptyIsNotAnError(t *testing.T) {
	f := newQueryFixture()

	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	users, err := f.queries.GetUsersForNotification(context.Background(), domain.NotificationKindEvening, now, 15)
	if err != nil {
		t.Fatalf("GetUsersForNotification failed: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Errorf("result = %v, want empty non-nil slice", users)
	}
}

func TestGetUsersForNotification_Validation(t *testing.T) {
	f := newQueryFixture()
	ctx := context.Background()
	now := time.Now()

	if _, err := f.queries.GetUsersForNotification(ctx, "afternoon", now, 15); !apperrors.IsValidation(err) {
		t.Errorf("bad kind error = %v, want validation", err)
	}
	if _, err := f.queries.GetUsersForNotification(ctx, domain.NotificationKindMorning, now, 0); !apperrors.IsValidation(err) {
		t.Errorf("zero window error = %v, want validation", err)
	}
}

func TestFindUsersNeedingSync(t *testing.T) {
	f := newQueryFixture()
	ctx := context.Background()

	f.seedUser(t, "overdue", "08:00", true)
	f.seedUser(t, "future", "08:00", true)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	if _, err := f.profiles.UpdateProfile(ctx, "overdue", "p1", &domain.ProfileUpdate{NextSyncCheckTime: &past}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if _, err := f.profiles.UpdateProfile(ctx, "future", "p1", &domain.ProfileUpdate{NextSyncCheckTime: &future}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	users, err := f.queries.FindUsersNeedingSync(ctx, now, 10)
	if err != nil {
		t.Fatalf("FindUsersNeedingSync failed: %v", err)
	}
	if len(users) != 1 || users[0].UserID != "overdue" {
		t.Errorf("matched %+v, want only overdue", userIDs(users))
	}

	if _, err := f.queries.FindUsersNeedingSync(ctx, now, 0); !apperrors.IsValidation(err) {
		t.Errorf("zero limit error = %v, want validation", err)
	}
}

func userIDs(users []*domain.MindTrainUser) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.UserID
	}
	return ids
}
