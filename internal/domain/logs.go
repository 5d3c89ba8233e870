package domain

import (
	"sort"
	"time"
)

// TrimNotificationLogs returns the logs reduced to at most max entries,
// keeping the most recently created ones. Eviction is FIFO by createdAt;
// relative order of the survivors is preserved. Decoupled from the
// append path so retention can be tested on its own.
func TrimNotificationLogs(logs []NotificationLog, max int) []NotificationLog {
	if max <= 0 || len(logs) <= max {
		return logs
	}

	idx := make([]int, len(logs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return logs[idx[a]].CreatedAt.Before(logs[idx[b]].CreatedAt)
	})

	evict := make(map[int]bool, len(logs)-max)
	for _, i := range idx[:len(logs)-max] {
		evict[i] = true
	}

	kept := make([]NotificationLog, 0, max)
	for i := range logs {
		if !evict[i] {
			kept = append(kept, logs[i])
		}
	}
	return kept
}

// TrimSyncHealthLogs is TrimNotificationLogs for the health log, keyed
// by createdAt as well.
func TrimSyncHealthLogs(logs []SyncHealthLog, max int) []SyncHealthLog {
	if max <= 0 || len(logs) <= max {
		return logs
	}

	idx := make([]int, len(logs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return logs[idx[a]].CreatedAt.Before(logs[idx[b]].CreatedAt)
	})

	evict := make(map[int]bool, len(logs)-max)
	for _, i := range idx[:len(logs)-max] {
		evict[i] = true
	}

	kept := make([]SyncHealthLog, 0, max)
	for i := range logs {
		if !evict[i] {
			kept = append(kept, logs[i])
		}
	}
	return kept
}

// FilterFailedNotifications returns log entries with failed status created
// at or after cutoff, in stored order.
func FilterFailedNotifications(logs []NotificationLog, cutoff time.Time) []NotificationLog {
	failed := []NotificationLog{}
	for i := range logs {
		if logs[i].Status == NotificationStatusFailed && !logs[i].CreatedAt.Before(cutoff) {
			failed = append(failed, logs[i])
		}
	}
	return failed
}
