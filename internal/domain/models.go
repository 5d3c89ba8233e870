package domain

import (
	"time"
)

// NotificationKind selects which daily notification window a query targets
type NotificationKind string

const (
	NotificationKindMorning NotificationKind = "morning"
	NotificationKindEvening NotificationKind = "evening"
)

// NotificationStatus represents the delivery state of a notification log entry
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusDelivered NotificationStatus = "delivered"
	NotificationStatusOpened    NotificationStatus = "opened"
	NotificationStatusFailed    NotificationStatus = "failed"
)

// SyncStatus represents the outcome of a background sync attempt
type SyncStatus string

const (
	SyncStatusOK      SyncStatus = "ok"
	SyncStatusStale   SyncStatus = "stale"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusUnknown SyncStatus = "unknown"
)

// Default schedule values applied when an aggregate is created lazily
const (
	DefaultMorningTime = "08:00"
	DefaultEveningTime = "20:00"
	DefaultTimezone    = "UTC"
)

// MindTrainUser is the per-user aggregate document. It is the unit of
// contention: every operation in this subsystem reads or mutates exactly
// one of these, and cross-field consistency is maintained per document.
type MindTrainUser struct {
	UserID           string            `json:"userId" bson:"userId"`
	AlarmProfiles    []AlarmProfile    `json:"alarmProfiles" bson:"alarmProfiles"`
	FCMSchedule      Schedule          `json:"fcmSchedule" bson:"fcmSchedule"`
	NotificationLogs []NotificationLog `json:"notificationLogs" bson:"notificationLogs"`
	SyncHealthLogs   []SyncHealthLog   `json:"syncHealthLogs" bson:"syncHealthLogs"`
	Metadata         Metadata          `json:"metadata" bson:"metadata"`
	CreatedAt        time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// AlarmProfile is one alarm-training configuration. At most one profile
// per user is active at any time; profile activation is the only write
// path allowed to flip IsActive.
type AlarmProfile struct {
	ID                  string                     `json:"id" bson:"id"`
	YoutubeURL          string                     `json:"youtubeUrl" bson:"youtubeUrl"`
	Title               string                     `json:"title" bson:"title"`
	Description         string                     `json:"description,omitempty" bson:"description,omitempty"`
	AlarmsPerDay        int                        `json:"alarmsPerDay" bson:"alarmsPerDay"`
	SelectedDaysPerWeek []string                   `json:"selectedDaysPerWeek,omitempty" bson:"selectedDaysPerWeek,omitempty"`
	StartTime           string                     `json:"startTime,omitempty" bson:"startTime,omitempty"`
	EndTime             string                     `json:"endTime,omitempty" bson:"endTime,omitempty"`
	IsFixedTime         bool                       `json:"isFixedTime" bson:"isFixedTime"`
	FixedTime           string                     `json:"fixedTime,omitempty" bson:"fixedTime,omitempty"`
	SpecificDates       []string                   `json:"specificDates,omitempty" bson:"specificDates,omitempty"`
	IsActive            bool                       `json:"isActive" bson:"isActive"`
	LastSyncTimestamp   *time.Time                 `json:"lastSyncTimestamp,omitempty" bson:"lastSyncTimestamp,omitempty"`
	LastSyncSource      string                     `json:"lastSyncSource,omitempty" bson:"lastSyncSource,omitempty"`
	SyncHealthScore     int                        `json:"syncHealthScore" bson:"syncHealthScore"`
	LastSyncStatus      SyncStatus                 `json:"lastSyncStatus,omitempty" bson:"lastSyncStatus,omitempty"`
	NextSyncCheckTime   *time.Time                 `json:"nextSyncCheckTime,omitempty" bson:"nextSyncCheckTime,omitempty"`
	DeviceSyncStatus    map[string]DeviceSyncState `json:"deviceSyncStatus,omitempty" bson:"deviceSyncStatus,omitempty"`
	CreatedAt           time.Time                  `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time                  `json:"updatedAt" bson:"updatedAt"`
}

// DeviceSyncState tracks per-device sync state for a profile
type DeviceSyncState struct {
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty" bson:"lastSyncAt,omitempty"`
	Status     SyncStatus `json:"status,omitempty" bson:"status,omitempty"`
	AppVersion string     `json:"appVersion,omitempty" bson:"appVersion,omitempty"`
}

// Schedule is the single FCM schedule sub-document per user.
// ActiveProfileID is a weak pointer: it must reference the id of the
// user's single active profile, or be nil when no profile is active.
type Schedule struct {
	ActiveProfileID         *string    `json:"activeProfileId" bson:"activeProfileId"`
	MorningNotificationTime string     `json:"morningNotificationTime" bson:"morningNotificationTime"`
	EveningNotificationTime string     `json:"eveningNotificationTime" bson:"eveningNotificationTime"`
	Timezone                string     `json:"timezone" bson:"timezone"`
	IsEnabled               bool       `json:"isEnabled" bson:"isEnabled"`
	LastSentAt              *time.Time `json:"lastSentAt,omitempty" bson:"lastSentAt,omitempty"`
	DeliveryRetries         int        `json:"deliveryRetries" bson:"deliveryRetries"`
	FailureReason           string     `json:"failureReason,omitempty" bson:"failureReason,omitempty"`
	CreatedAt               time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// NotificationLog records one push notification handed to the dispatcher
type NotificationLog struct {
	NotificationID  string             `json:"notificationId" bson:"notificationId"`
	Type            NotificationKind   `json:"type" bson:"type"`
	ProfileID       string             `json:"profileId,omitempty" bson:"profileId,omitempty"`
	Title           string             `json:"title,omitempty" bson:"title,omitempty"`
	Body            string             `json:"body,omitempty" bson:"body,omitempty"`
	ScheduledFor    *time.Time         `json:"scheduledFor,omitempty" bson:"scheduledFor,omitempty"`
	SentAt          *time.Time         `json:"sentAt,omitempty" bson:"sentAt,omitempty"`
	DeliveredAt     *time.Time         `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	OpenedAt        *time.Time         `json:"openedAt,omitempty" bson:"openedAt,omitempty"`
	Status          NotificationStatus `json:"status" bson:"status"`
	DeliveryError   string             `json:"deliveryError,omitempty" bson:"deliveryError,omitempty"`
	DeliveryRetries int                `json:"deliveryRetries" bson:"deliveryRetries"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}

// SyncHealthLog records one device health report
type SyncHealthLog struct {
	DeviceID            string    `json:"deviceId" bson:"deviceId"`
	ReportedAt          time.Time `json:"reportedAt" bson:"reportedAt"`
	WorkSchedulerOK     bool      `json:"workSchedulerOk" bson:"workSchedulerOk"`
	PushDeliveryOK      bool      `json:"pushDeliveryOk" bson:"pushDeliveryOk"`
	MissedAlarmsCount   int       `json:"missedAlarmsCount" bson:"missedAlarmsCount"`
	HealthScore         int       `json:"healthScore" bson:"healthScore"`
	BatteryOptimization bool      `json:"batteryOptimization" bson:"batteryOptimization"`
	NetworkType         string    `json:"networkType,omitempty" bson:"networkType,omitempty"`
	AppVersion          string    `json:"appVersion,omitempty" bson:"appVersion,omitempty"`
	OSVersion           string    `json:"osVersion,omitempty" bson:"osVersion,omitempty"`
	CreatedAt           time.Time `json:"createdAt" bson:"createdAt"`
}

// Metadata carries derived counters. It is a cache over the live
// sub-collections and is recomputed on every mutation, never incremented
// in place.
type Metadata struct {
	TotalAlarmProfiles  int        `json:"totalAlarmProfiles" bson:"totalAlarmProfiles"`
	ActiveAlarmProfiles int        `json:"activeAlarmProfiles" bson:"activeAlarmProfiles"`
	TotalNotifications  int        `json:"totalNotifications" bson:"totalNotifications"`
	LastProfileUpdateAt *time.Time `json:"lastProfileUpdateAt,omitempty" bson:"lastProfileUpdateAt,omitempty"`
}

// NewMindTrainUser builds an empty aggregate with a default-disabled schedule
func NewMindTrainUser(userID string, now time.Time) *MindTrainUser {
	return &MindTrainUser{
		UserID:           userID,
		AlarmProfiles:    []AlarmProfile{},
		NotificationLogs: []NotificationLog{},
		SyncHealthLogs:   []SyncHealthLog{},
		FCMSchedule: Schedule{
			ActiveProfileID:         nil,
			MorningNotificationTime: DefaultMorningTime,
			EveningNotificationTime: DefaultEveningTime,
			Timezone:                DefaultTimezone,
			IsEnabled:               false,
			CreatedAt:               now,
			UpdatedAt:               now,
		},
		Metadata:  Metadata{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Profile returns the profile with the given id, or nil
func (u *MindTrainUser) Profile(profileID string) *AlarmProfile {
	for i := range u.AlarmProfiles {
		if u.AlarmProfiles[i].ID == profileID {
			return &u.AlarmProfiles[i]
		}
	}
	return nil
}

// ActiveProfile returns the currently active profile, or nil
func (u *MindTrainUser) ActiveProfile() *AlarmProfile {
	for i := range u.AlarmProfiles {
		if u.AlarmProfiles[i].IsActive {
			return &u.AlarmProfiles[i]
		}
	}
	return nil
}

// HasNotificationLog reports whether a log entry with the id exists
func (u *MindTrainUser) HasNotificationLog(notificationID string) bool {
	for i := range u.NotificationLogs {
		if u.NotificationLogs[i].NotificationID == notificationID {
			return true
		}
	}
	return false
}
