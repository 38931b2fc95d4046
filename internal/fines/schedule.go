// Package fines computes overdue charges for returned loans.
package fines

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// Schedule charges PerDay for every started day past the due date, capped at Max.
// A zero Max disables the cap.
type Schedule struct {
	PerDay float64
	Max    float64
}

// DefaultSchedule returns the schedule used when nothing is configured.
func DefaultSchedule() Schedule {
	return Schedule{PerDay: 0.50, Max: 20.00}
}

// OverdueDays counts started days between due and returned. Returns on or before due are 0.
func OverdueDays(due, returned time.Time) int {
	overdue := returned.Sub(due)
	if overdue <= 0 {
		return 0
	}
	days := int(overdue / day)
	if overdue%day > 0 {
		days++
	}
	return days
}

// Compute returns the fine owed for a loan due at due and returned at returned,
// rounded to whole pence.
func (s Schedule) Compute(due, returned time.Time) float64 {
	days := OverdueDays(due, returned)
	if days == 0 || s.PerDay <= 0 {
		return 0
	}
	fine := float64(days) * s.PerDay
	if s.Max > 0 && fine > s.Max {
		fine = s.Max
	}
	return math.Round(fine*100) / 100
}

// Rules bundles the schedule with the outstanding balance above which borrowing stops.
type Rules struct {
	Schedule       Schedule
	MaxOutstanding float64
}

func DefaultRules() Rules {
	return Rules{Schedule: DefaultSchedule(), MaxOutstanding: 10.00}
}
