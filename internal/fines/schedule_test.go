package fines

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestOverdueDays(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("returned early", func(t *testing.T) {
		assert.Equal(t, 0, OverdueDays(due, due.AddDate(0, 0, -5)))
	})

	t.Run("returned exactly on due date", func(t *testing.T) {
		assert.Equal(t, 0, OverdueDays(due, due))
	})

	t.Run("one minute late counts as a day", func(t *testing.T) {
		assert.Equal(t, 1, OverdueDays(due, due.Add(time.Minute)))
	})

	t.Run("three whole days late", func(t *testing.T) {
		assert.Equal(t, 3, OverdueDays(due, due.Add(72*time.Hour)))
	})
}

func TestSchedule_Compute(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	schedule := DefaultSchedule()

	t.Run("three days overdue is charged", func(t *testing.T) {
		fine := schedule.Compute(now.AddDate(0, 0, -3), now)
		assert.Greater(t, fine, 0.0)
		assert.InDelta(t, 1.50, fine, 0.001)
	})

	t.Run("due in five days is free", func(t *testing.T) {
		assert.Equal(t, 0.0, schedule.Compute(now.AddDate(0, 0, 5), now))
	})

	t.Run("cap applies", func(t *testing.T) {
		fine := schedule.Compute(now.AddDate(0, 0, -365), now)
		assert.Equal(t, schedule.Max, fine)
	})

	t.Run("zero max means uncapped", func(t *testing.T) {
		uncapped := Schedule{PerDay: 1}
		assert.Equal(t, 100.0, uncapped.Compute(now.AddDate(0, 0, -100), now))
	})

	t.Run("zero rate never charges", func(t *testing.T) {
		assert.Equal(t, 0.0, Schedule{}.Compute(now.AddDate(0, 0, -10), now))
	})
}

func TestSchedule_Properties(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		schedule := Schedule{
			PerDay: float64(rapid.IntRange(1, 500).Draw(t, "perDayPence")) / 100,
			Max:    float64(rapid.IntRange(0, 10000).Draw(t, "maxPence")) / 100,
		}
		due := base.Add(time.Duration(rapid.Int64Range(0, 1000*int64(time.Hour)).Draw(t, "due")))
		returned := due.Add(time.Duration(rapid.Int64Range(-500*int64(time.Hour), 500*int64(time.Hour)).Draw(t, "offset")))
		later := returned.Add(time.Duration(rapid.Int64Range(0, 500*int64(time.Hour)).Draw(t, "delay")))

		fine := schedule.Compute(due, returned)
		if fine < 0 {
			t.Fatalf("negative fine %v", fine)
		}
		if !returned.After(due) && fine != 0 {
			t.Fatalf("fine %v charged for on-time return", fine)
		}
		if schedule.Max > 0 && fine > schedule.Max {
			t.Fatalf("fine %v exceeds cap %v", fine, schedule.Max)
		}
		if schedule.Compute(due, later) < fine {
			t.Fatalf("fine decreased when returned later")
		}
	})
}
