package domain

// RecomputeMetadata derives the metadata counters from the live
// sub-collections. Counters are never trusted incrementally; every write
// path calls this with the post-mutation state.
func RecomputeMetadata(u *MindTrainUser) Metadata {
	meta := Metadata{
		TotalAlarmProfiles: len(u.AlarmProfiles),
		TotalNotifications: len(u.NotificationLogs),
	}

	for i := range u.AlarmProfiles {
		p := &u.AlarmProfiles[i]
		if p.IsActive {
			meta.ActiveAlarmProfiles++
		}
		if meta.LastProfileUpdateAt == nil || p.UpdatedAt.After(*meta.LastProfileUpdateAt) {
			t := p.UpdatedAt
			meta.LastProfileUpdateAt = &t
		}
	}

	return meta
}

// CheckInvariants verifies the aggregate's cross-field invariants and
// returns a description of the first violation, or "" when consistent.
// Production writes uphold these by construction; tests assert them
// after every scenario.
func CheckInvariants(u *MindTrainUser) string {
	seen := make(map[string]bool, len(u.AlarmProfiles))
	active := 0
	var activeID string
	for i := range u.AlarmProfiles {
		p := &u.AlarmProfiles[i]
		if seen[p.ID] {
			return "duplicate profile id " + p.ID
		}
		seen[p.ID] = true
		if p.IsActive {
			active++
			activeID = p.ID
		}
	}

	if active > 1 {
		return "more than one active profile"
	}

	ref := u.FCMSchedule.ActiveProfileID
	if active == 1 {
		if ref == nil || *ref != activeID {
			return "schedule activeProfileId does not reference the active profile"
		}
	} else if ref != nil {
		return "schedule activeProfileId set but no profile is active"
	}

	if u.Metadata.TotalAlarmProfiles != len(u.AlarmProfiles) {
		return "metadata totalAlarmProfiles out of sync"
	}
	if u.Metadata.ActiveAlarmProfiles != active {
		return "metadata activeAlarmProfiles out of sync"
	}
	if u.Metadata.TotalNotifications != len(u.NotificationLogs) {
		return "metadata totalNotifications out of sync"
	}

	return ""
}
