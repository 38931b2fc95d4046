package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// OverdueMarker flips active loans past their due date to overdue.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// SweepRecorder is told about every finished sweep.
type SweepRecorder interface {
	LogOverdueSweep(marked int64, err error)
}

// MarkOverdueLoansTask marks loans overdue as of the time the task runs.
type MarkOverdueLoansTask struct {
	// Trigger names what enqueued the sweep (cron, cli, admin).
	Trigger string `json:"trigger"`
}

// Config returns the queue configuration for overdue sweeps.
func (t MarkOverdueLoansTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "mark_overdue_loans",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// MarkOverdueLoansProcessor creates a processor function for MarkOverdueLoansTask.
// recorder may be nil.
func MarkOverdueLoansProcessor(marker OverdueMarker, recorder SweepRecorder, now func() time.Time) backlite.QueueProcessor[MarkOverdueLoansTask] {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, task MarkOverdueLoansTask) error {
		if marker == nil {
			return fmt.Errorf("overdue marker not configured")
		}

		marked, err := marker.MarkOverdue(ctx, now())
		if recorder != nil {
			recorder.LogOverdueSweep(marked, err)
		}
		if err != nil {
			return fmt.Errorf("mark overdue loans: %w", err)
		}

		if marked > 0 {
			log.Printf("[TASK] Marked %d loans overdue (trigger: %s)", marked, task.Trigger)
		}
		return nil
	}
}

// NewMarkOverdueLoansQueue creates a backlite queue for overdue sweeps.
func NewMarkOverdueLoansQueue(marker OverdueMarker, recorder SweepRecorder) backlite.Queue {
	return backlite.NewQueue(MarkOverdueLoansProcessor(marker, recorder, nil))
}
