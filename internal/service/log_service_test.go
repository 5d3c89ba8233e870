package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

func newTestLogService(limits LimitsConfig) (*LogService, *fakeStore) {
	store := newFakeStore()
	return NewLogService(store, limits, logger.NewLogger()), store
}

func notifReq(id string) *domain.AppendNotificationLogRequest {
	return &domain.AppendNotificationLogRequest{
		NotificationID: id,
		Type:           domain.NotificationKindMorning,
		Title:          "Morning reminder",
	}
}

func TestAppendNotificationLog_CreatesUserAndDefaults(t *testing.T) {
	svc, store := newTestLogService(testLimits())
	ctx := context.Background()

	entry, err := svc.AppendNotificationLog(ctx, "u1", notifReq("n1"))
	if err != nil {
		t.Fatalf("AppendNotificationLog failed: %v", err)
	}
	if entry.Status != domain.NotificationStatusPending {
		t.Errorf("default status = %s, want pending", entry.Status)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("createdAt not set")
	}

	user, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("user was not lazily created: %v", err)
	}
	if user.Metadata.TotalNotifications != 1 {
		t.Errorf("metadata total = %d, want 1", user.Metadata.TotalNotifications)
	}
}

func TestAppendNotificationLog_DuplicateID(t *testing.T) {
	svc, _ := newTestLogService(testLimits())
	ctx := context.Background()

	if _, err := svc.AppendNotificationLog(ctx, "u1", notifReq("n1")); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	_, err := svc.AppendNotificationLog(ctx, "u1", notifReq("n1"))
	if !apperrors.IsValidation(err) {
		t.Errorf("duplicate append error = %v, want validation", err)
	}
}

func TestAppendNotificationLog_MissingID(t *testing.T) {
	svc, _ := newTestLogService(testLimits())

	_, err := svc.AppendNotificationLog(context.Background(), "u1", notifReq(""))
	if !apperrors.IsValidation(err) {
		t.Errorf("error = %v, want validation", err)
	}
}

// Rotation evicts the oldest entries so the log never exceeds its cap.
func TestAppendNotificationLog_Rotation(t *testing.T) {
	limits := testLimits()
	limits.MaxNotificationLogs = 100
	svc, store := newTestLogService(limits)
	ctx := context.Background()

	for i := 0; i < 105; i++ {
		if _, err := svc.AppendNotificationLog(ctx, "u1", notifReq(fmt.Sprintf("n%03d", i))); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	user, _ := store.Get(ctx, "u1")
	if len(user.NotificationLogs) != 100 {
		t.Fatalf("log length = %d, want 100", len(user.NotificationLogs))
	}
	if user.NotificationLogs[0].NotificationID != "n005" {
		t.Errorf("oldest surviving entry = %s, want n005", user.NotificationLogs[0].NotificationID)
	}
	if last := user.NotificationLogs[99].NotificationID; last != "n104" {
		t.Errorf("newest entry = %s, want n104", last)
	}
}

func TestAppendSyncHealthLog_Validation(t *testing.T) {
	svc, _ := newTestLogService(testLimits())
	ctx := context.Background()

	_, err := svc.AppendSyncHealthLog(ctx, "u1", &domain.AppendSyncHealthLogRequest{HealthScore: 80})
	if !apperrors.IsValidation(err) {
		t.Errorf("missing deviceId error = %v, want validation", err)
	}

	_, err = svc.AppendSyncHealthLog(ctx, "u1", &domain.AppendSyncHealthLogRequest{DeviceID: "d1", HealthScore: 101})
	if !apperrors.IsValidation(err) {
		t.Errorf("out-of-range healthScore error = %v, want validation", err)
	}
}

func TestAppendSyncHealthLog_DefaultsReportedAt(t *testing.T) {
	svc, store := newTestLogService(testLimits())
	ctx := context.Background()

	before := time.Now().UTC()
	entry, err := svc.AppendSyncHealthLog(ctx, "u1", &domain.AppendSyncHealthLogRequest{
		DeviceID:    "d1",
		HealthScore: 90,
	})
	if err != nil {
		t.Fatalf("AppendSyncHealthLog failed: %v", err)
	}
	if entry.ReportedAt.Before(before) {
		t.Errorf("reportedAt = %v, want defaulted to now", entry.ReportedAt)
	}

	user, _ := store.Get(ctx, "u1")
	if len(user.SyncHealthLogs) != 1 {
		t.Fatalf("sync health log length = %d, want 1", len(user.SyncHealthLogs))
	}
}

func TestAppendSyncHealthLog_Rotation(t *testing.T) {
	limits := testLimits()
	limits.MaxSyncHealthLogs = 3
	svc, store := newTestLogService(limits)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		req := &domain.AppendSyncHealthLogRequest{
			DeviceID:    fmt.Sprintf("d%d", i),
			HealthScore: 100,
		}
		if _, err := svc.AppendSyncHealthLog(ctx, "u1", req); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	user, _ := store.Get(ctx, "u1")
	if len(user.SyncHealthLogs) != 3 {
		t.Fatalf("log length = %d, want 3", len(user.SyncHealthLogs))
	}
	if user.SyncHealthLogs[0].DeviceID != "d2" {
		t.Errorf("oldest surviving entry = %s, want d2", user.SyncHealthLogs[0].DeviceID)
	}
}

func TestUpdateNotificationLog_Found(t *testing.T) {
	svc, _ := newTestLogService(testLimits())
	ctx := context.Background()

	if _, err := svc.AppendNotificationLog(ctx, "u1", notifReq("n1")); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	status := domain.NotificationStatusDelivered
	deliveredAt := time.Now().UTC()
	entry, found, err := svc.UpdateNotificationLog(ctx, "n1", &domain.NotificationLogUpdate{
		Status:      &status,
		DeliveredAt: &deliveredAt,
	})
	if err != nil {
		t.Fatalf("UpdateNotificationLog failed: %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if entry.Status != domain.NotificationStatusDelivered {
		t.Errorf("status = %s, want delivered", entry.Status)
	}
	if entry.DeliveredAt == nil || !entry.DeliveredAt.Equal(deliveredAt) {
		t.Errorf("deliveredAt = %v, want %v", entry.DeliveredAt, deliveredAt)
	}
	if entry.Title != "Morning reminder" {
		t.Error("untouched field changed during outcome merge")
	}
}

// Outcomes for entries that already rotated out are not errors.
func TestUpdateNotificationLog_NotFound(t *testing.T) {
	svc, _ := newTestLogService(testLimits())

	status := domain.NotificationStatusSent
	entry, found, err := svc.UpdateNotificationLog(context.Background(), "ghost", &domain.NotificationLogUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateNotificationLog errored on missing entry: %v", err)
	}
	if found || entry != nil {
		t.Errorf("found = %v entry = %v, want false/nil", found, entry)
	}
}

func TestGetFailedNotifications(t *testing.T) {
	svc, _ := newTestLogService(testLimits())
	ctx := context.Background()

	failed := notifReq("n1")
	failed.Status = domain.NotificationStatusFailed
	if _, err := svc.AppendNotificationLog(ctx, "u1", failed); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := svc.AppendNotificationLog(ctx, "u1", notifReq("n2")); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	got, err := svc.GetFailedNotifications(ctx, "u1", 24)
	if err != nil {
		t.Fatalf("GetFailedNotifications failed: %v", err)
	}
	if len(got) != 1 || got[0].NotificationID != "n1" {
		t.Errorf("failed entries = %+v, want only n1", got)
	}

	if _, err := svc.GetFailedNotifications(ctx, "u1", 0); !apperrors.IsValidation(err) {
		t.Errorf("hoursBack=0 error = %v, want validation", err)
	}
}
