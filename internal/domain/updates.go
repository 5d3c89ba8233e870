package domain

import "time"

// ProfileUpdate is a partial update to an AlarmProfile. Nil fields are
// left untouched. The profile id, createdAt, and isActive are not
// representable here: id and createdAt are immutable, and isActive only
// changes through activation.
type ProfileUpdate struct {
	YoutubeURL          *string                     `json:"youtubeUrl,omitempty"`
	Title               *string                     `json:"title,omitempty"`
	Description         *string                     `json:"description,omitempty"`
	AlarmsPerDay        *int                        `json:"alarmsPerDay,omitempty"`
	SelectedDaysPerWeek *[]string                   `json:"selectedDaysPerWeek,omitempty"`
	StartTime           *string                     `json:"startTime,omitempty"`
	EndTime             *string                     `json:"endTime,omitempty"`
	IsFixedTime         *bool                       `json:"isFixedTime,omitempty"`
	FixedTime           *string                     `json:"fixedTime,omitempty"`
	SpecificDates       *[]string                   `json:"specificDates,omitempty"`
	LastSyncTimestamp   *time.Time                  `json:"lastSyncTimestamp,omitempty"`
	LastSyncSource      *string                     `json:"lastSyncSource,omitempty"`
	SyncHealthScore     *int                        `json:"syncHealthScore,omitempty"`
	LastSyncStatus      *SyncStatus                 `json:"lastSyncStatus,omitempty"`
	NextSyncCheckTime   *time.Time                  `json:"nextSyncCheckTime,omitempty"`
	DeviceSyncStatus    *map[string]DeviceSyncState `json:"deviceSyncStatus,omitempty"`
}

// IsEmpty reports whether the update carries no fields
func (u *ProfileUpdate) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// Fields returns the non-nil fields as a name -> value map, using the
// document field names. The store prefixes these with the positional
// array path when building the update.
func (u *ProfileUpdate) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if u.YoutubeURL != nil {
		fields["youtubeUrl"] = *u.YoutubeURL
	}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.AlarmsPerDay != nil {
		fields["alarmsPerDay"] = *u.AlarmsPerDay
	}
	if u.SelectedDaysPerWeek != nil {
		fields["selectedDaysPerWeek"] = *u.SelectedDaysPerWeek
	}
	if u.StartTime != nil {
		fields["startTime"] = *u.StartTime
	}
	if u.EndTime != nil {
		fields["endTime"] = *u.EndTime
	}
	if u.IsFixedTime != nil {
		fields["isFixedTime"] = *u.IsFixedTime
	}
	if u.FixedTime != nil {
		fields["fixedTime"] = *u.FixedTime
	}
	if u.SpecificDates != nil {
		fields["specificDates"] = *u.SpecificDates
	}
	if u.LastSyncTimestamp != nil {
		fields["lastSyncTimestamp"] = *u.LastSyncTimestamp
	}
	if u.LastSyncSource != nil {
		fields["lastSyncSource"] = *u.LastSyncSource
	}
	if u.SyncHealthScore != nil {
		fields["syncHealthScore"] = *u.SyncHealthScore
	}
	if u.LastSyncStatus != nil {
		fields["lastSyncStatus"] = *u.LastSyncStatus
	}
	if u.NextSyncCheckTime != nil {
		fields["nextSyncCheckTime"] = *u.NextSyncCheckTime
	}
	if u.DeviceSyncStatus != nil {
		fields["deviceSyncStatus"] = *u.DeviceSyncStatus
	}
	return fields
}

// Apply merges the update into a profile in place
func (u *ProfileUpdate) Apply(p *AlarmProfile) {
	if u.YoutubeURL != nil {
		p.YoutubeURL = *u.YoutubeURL
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.AlarmsPerDay != nil {
		p.AlarmsPerDay = *u.AlarmsPerDay
	}
	if u.SelectedDaysPerWeek != nil {
		p.SelectedDaysPerWeek = *u.SelectedDaysPerWeek
	}
	if u.StartTime != nil {
		p.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		p.EndTime = *u.EndTime
	}
	if u.IsFixedTime != nil {
		p.IsFixedTime = *u.IsFixedTime
	}
	if u.FixedTime != nil {
		p.FixedTime = *u.FixedTime
	}
	if u.SpecificDates != nil {
		p.SpecificDates = *u.SpecificDates
	}
	if u.LastSyncTimestamp != nil {
		p.LastSyncTimestamp = u.LastSyncTimestamp
	}
	if u.LastSyncSource != nil {
		p.LastSyncSource = *u.LastSyncSource
	}
	if u.SyncHealthScore != nil {
		p.SyncHealthScore = *u.SyncHealthScore
	}
	if u.LastSyncStatus != nil {
		p.LastSyncStatus = *u.LastSyncStatus
	}
	if u.NextSyncCheckTime != nil {
		p.NextSyncCheckTime = u.NextSyncCheckTime
	}
	if u.DeviceSyncStatus != nil {
		p.DeviceSyncStatus = *u.DeviceSyncStatus
	}
}

// ScheduleUpdate is a partial update to the FCM schedule. createdAt is
// immutable and not representable.
type ScheduleUpdate struct {
	MorningNotificationTime *string    `json:"morningNotificationTime,omitempty"`
	EveningNotificationTime *string    `json:"eveningNotificationTime,omitempty"`
	Timezone                *string    `json:"timezone,omitempty"`
	IsEnabled               *bool      `json:"isEnabled,omitempty"`
	LastSentAt              *time.Time `json:"lastSentAt,omitempty"`
	DeliveryRetries         *int       `json:"deliveryRetries,omitempty"`
	FailureReason           *string    `json:"failureReason,omitempty"`
}

// Fields returns the non-nil fields as a name -> value map
func (u *ScheduleUpdate) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if u.MorningNotificationTime != nil {
		fields["morningNotificationTime"] = *u.MorningNotificationTime
	}
	if u.EveningNotificationTime != nil {
		fields["eveningNotificationTime"] = *u.EveningNotificationTime
	}
	if u.Timezone != nil {
		fields["timezone"] = *u.Timezone
	}
	if u.IsEnabled != nil {
		fields["isEnabled"] = *u.IsEnabled
	}
	if u.LastSentAt != nil {
		fields["lastSentAt"] = *u.LastSentAt
	}
	if u.DeliveryRetries != nil {
		fields["deliveryRetries"] = *u.DeliveryRetries
	}
	if u.FailureReason != nil {
		fields["failureReason"] = *u.FailureReason
	}
	return fields
}

// Apply merges the update into a schedule in place
func (u *ScheduleUpdate) Apply(s *Schedule) {
	if u.MorningNotificationTime != nil {
		s.MorningNotificationTime = *u.MorningNotificationTime
	}
	if u.EveningNotificationTime != nil {
		s.EveningNotificationTime = *u.EveningNotificationTime
	}
	if u.Timezone != nil {
		s.Timezone = *u.Timezone
	}
	if u.IsEnabled != nil {
		s.IsEnabled = *u.IsEnabled
	}
	if u.LastSentAt != nil {
		s.LastSentAt = u.LastSentAt
	}
	if u.DeliveryRetries != nil {
		s.DeliveryRetries = *u.DeliveryRetries
	}
	if u.FailureReason != nil {
		s.FailureReason = *u.FailureReason
	}
}

// NotificationLogUpdate is a partial update to a notification log entry,
// applied when the external dispatcher reports a delivery outcome.
type NotificationLogUpdate struct {
	Status          *NotificationStatus `json:"status,omitempty"`
	SentAt          *time.Time          `json:"sentAt,omitempty"`
	DeliveredAt     *time.Time          `json:"deliveredAt,omitempty"`
	OpenedAt        *time.Time          `json:"openedAt,omitempty"`
	DeliveryError   *string             `json:"deliveryError,omitempty"`
	DeliveryRetries *int                `json:"deliveryRetries,omitempty"`
}

// Fields returns the non-nil fields as a name -> value map
func (u *NotificationLogUpdate) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if u.Status != nil {
		fields["status"] = *u.Status
	}
	if u.SentAt != nil {
		fields["sentAt"] = *u.SentAt
	}
	if u.DeliveredAt != nil {
		fields["deliveredAt"] = *u.DeliveredAt
	}
	if u.OpenedAt != nil {
		fields["openedAt"] = *u.OpenedAt
	}
	if u.DeliveryError != nil {
		fields["deliveryError"] = *u.DeliveryError
	}
	if u.DeliveryRetries != nil {
		fields["deliveryRetries"] = *u.DeliveryRetries
	}
	return fields
}

// Apply merges the update into a log entry in place
func (u *NotificationLogUpdate) Apply(entry *NotificationLog) {
	if u.Status != nil {
		entry.Status = *u.Status
	}
	if u.SentAt != nil {
		entry.SentAt = u.SentAt
	}
	if u.DeliveredAt != nil {
		entry.DeliveredAt = u.DeliveredAt
	}
	if u.OpenedAt != nil {
		entry.OpenedAt = u.OpenedAt
	}
	if u.DeliveryError != nil {
		entry.DeliveryError = *u.DeliveryError
	}
	if u.DeliveryRetries != nil {
		entry.DeliveryRetries = *u.DeliveryRetries
	}
}
