package domain

import "time"

// CreateProfileRequest represents a request to add an alarm profile.
// The id is caller-supplied and must be unique within the user's set;
// new profiles always start inactive.
type CreateProfileRequest struct {
	ID                  string   `json:"id" binding:"required"`
	YoutubeURL          string   `json:"youtubeUrl" binding:"required"`
	Title               string   `json:"title" binding:"required"`
	Description         string   `json:"description"`
	AlarmsPerDay        int      `json:"alarmsPerDay" binding:"required,min=1"`
	SelectedDaysPerWeek []string `json:"selectedDaysPerWeek"`
	StartTime           string   `json:"startTime"`
	EndTime             string   `json:"endTime"`
	IsFixedTime         bool     `json:"isFixedTime"`
	FixedTime           string   `json:"fixedTime"`
	SpecificDates       []string `json:"specificDates"`
}

// Profile builds the AlarmProfile the request describes
func (r *CreateProfileRequest) Profile(now time.Time) *AlarmProfile {
	return &AlarmProfile{
		ID:                  r.ID,
		YoutubeURL:          r.YoutubeURL,
		Title:               r.Title,
		Description:         r.Description,
		AlarmsPerDay:        r.AlarmsPerDay,
		SelectedDaysPerWeek: r.SelectedDaysPerWeek,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		IsFixedTime:         r.IsFixedTime,
		FixedTime:           r.FixedTime,
		SpecificDates:       r.SpecificDates,
		IsActive:            false,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// AppendNotificationLogRequest represents a request to record a notification
type AppendNotificationLogRequest struct {
	NotificationID string             `json:"notificationId" binding:"required"`
	Type           NotificationKind   `json:"type" binding:"required,oneof=morning evening"`
	ProfileID      string             `json:"profileId"`
	Title          string             `json:"title"`
	Body           string             `json:"body"`
	ScheduledFor   *time.Time         `json:"scheduledFor"`
	Status         NotificationStatus `json:"status"`
}

// Entry builds the NotificationLog the request describes
func (r *AppendNotificationLogRequest) Entry(now time.Time) *NotificationLog {
	status := r.Status
	if status == "" {
		status = NotificationStatusPending
	}
	return &NotificationLog{
		NotificationID: r.NotificationID,
		Type:           r.Type,
		ProfileID:      r.ProfileID,
		Title:          r.Title,
		Body:           r.Body,
		ScheduledFor:   r.ScheduledFor,
		Status:         status,
		CreatedAt:      now,
	}
}

// AppendSyncHealthLogRequest represents a device health report
type AppendSyncHealthLogRequest struct {
	DeviceID            string     `json:"deviceId" binding:"required"`
	ReportedAt          *time.Time `json:"reportedAt"`
	WorkSchedulerOK     bool       `json:"workSchedulerOk"`
	PushDeliveryOK      bool       `json:"pushDeliveryOk"`
	MissedAlarmsCount   int        `json:"missedAlarmsCount"`
	HealthScore         int        `json:"healthScore" binding:"min=0,max=100"`
	BatteryOptimization bool       `json:"batteryOptimization"`
	NetworkType         string     `json:"networkType"`
	AppVersion          string     `json:"appVersion"`
	OSVersion           string     `json:"osVersion"`
}

// Entry builds the SyncHealthLog the request describes. A missing
// reportedAt defaults to now.
func (r *AppendSyncHealthLogRequest) Entry(now time.Time) *SyncHealthLog {
	reported := now
	if r.ReportedAt != nil {
		reported = *r.ReportedAt
	}
	return &SyncHealthLog{
		DeviceID:            r.DeviceID,
		ReportedAt:          reported,
		WorkSchedulerOK:     r.WorkSchedulerOK,
		PushDeliveryOK:      r.PushDeliveryOK,
		MissedAlarmsCount:   r.MissedAlarmsCount,
		HealthScore:         r.HealthScore,
		BatteryOptimization: r.BatteryOptimization,
		NetworkType:         r.NetworkType,
		AppVersion:          r.AppVersion,
		OSVersion:           r.OSVersion,
		CreatedAt:           now,
	}
}

// DispatchJob is published to the dispatcher exchange when a user falls
// inside a notification window or is due for a sync check.
type DispatchJob struct {
	JobID        string           `json:"jobId"`
	UserID       string           `json:"userId"`
	Kind         NotificationKind `json:"kind,omitempty"`
	ProfileID    string           `json:"profileId,omitempty"`
	ScheduledFor time.Time        `json:"scheduledFor"`
	Timezone     string           `json:"timezone,omitempty"`
}

// DeliveryOutcomeEvent is reported back by the external dispatcher after
// it attempts delivery of a previously logged notification.
type DeliveryOutcomeEvent struct {
	EventID        string             `json:"eventId"`
	NotificationID string             `json:"notificationId"`
	Status         NotificationStatus `json:"status"`
	SentAt         *time.Time         `json:"sentAt,omitempty"`
	DeliveredAt    *time.Time         `json:"deliveredAt,omitempty"`
	OpenedAt       *time.Time         `json:"openedAt,omitempty"`
	Error          string             `json:"error,omitempty"`
	Retries        int                `json:"retries"`
	Timestamp      time.Time          `json:"timestamp"`
}
