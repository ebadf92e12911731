// Package settlement implements the agent portal's timing rules: the monthly
// settlement cutoff, its urgency tier, and the fee-change cooldown.
//
// Every function takes an explicit now; nothing reads the wall clock.
package settlement

import (
	"math"
	"time"
)

// CutoffHour is the local hour on the month's last day when settlement is due.
const CutoffHour = 17

// Urgency classifies how close a settlement deadline is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Deadline returns the next settlement cutoff: the last day of now's month at
// 17:00 in now's location, or the last day of the following month when now is
// already past this month's cutoff.
func Deadline(now time.Time) time.Time {
	d := monthCutoff(now.Year(), now.Month(), now.Location())
	if now.After(d) {
		d = monthCutoff(now.Year(), now.Month()+1, now.Location())
	}
	return d
}

// monthCutoff returns 17:00 on the last day of the given month. Day 0 of the
// next month normalizes to the last day of this one; month overflow rolls the
// year.
func monthCutoff(year int, month time.Month, loc *time.Location) time.Time {
	return time.Date(year, month+1, 0, CutoffHour, 0, 0, 0, loc)
}

// DaysUntil returns ceil((deadline - now) / 24h).
func DaysUntil(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// ComputeUrgency maps the days left until deadline to a tier: two days or
// fewer is high, five or fewer is medium, anything else is low.
func ComputeUrgency(deadline, now time.Time) Urgency {
	switch days := DaysUntil(deadline, now); {
	case days <= 2:
		return UrgencyHigh
	case days <= 5:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
