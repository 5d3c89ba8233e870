package domain

import (
	"fmt"
	"time"
)

// ValidClockTime reports whether s is a wall-clock time in HH:mm form
// with hours 00-23 and minutes 00-59.
func ValidClockTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h, m := s[:2], s[3:]
	for _, c := range h + m {
		if c < '0' || c > '9' {
			return false
		}
	}
	hour := int(h[0]-'0')*10 + int(h[1]-'0')
	min := int(m[0]-'0')*10 + int(m[1]-'0')
	return hour <= 23 && min <= 59
}

// ClockWindow is a closed wall-clock interval [From, To] in HH:mm form.
// When the window crosses midnight it is matched as two ranges.
type ClockWindow struct {
	From  string
	To    string
	Wraps bool
}

// WindowFrom builds the window [now-minutes, now] using now's wall-clock
// time. The window looks backward so a poller running at 08:05 with a
// 15-minute window still picks up a time of 08:00 that came due between
// polls. Stored notification times are compared lexicographically, which
// is order-preserving for zero-padded HH:mm strings.
func WindowFrom(now time.Time, minutes int) ClockWindow {
	from := now.Add(-time.Duration(minutes) * time.Minute)

	w := ClockWindow{
		From: fmt.Sprintf("%02d:%02d", from.Hour(), from.Minute()),
		To:   fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute()),
	}
	w.Wraps = w.To < w.From
	return w
}

// Contains reports whether the HH:mm time t falls inside the window
func (w ClockWindow) Contains(t string) bool {
	if !ValidClockTime(t) {
		return false
	}
	if w.Wraps {
		return t >= w.From || t <= w.To
	}
	return t >= w.From && t <= w.To
}
