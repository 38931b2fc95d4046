package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// DescribeSchedule returns a human-readable description of a cron schedule
func DescribeSchedule(schedule string) string {
	switch schedule {
	case "*/5 * * * *":
		return "Every 5 minutes"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 0 * * *":
		return "Daily at midnight"
	case "30 3 * * *":
		return "Daily at 03:30"
	default:
		return "Custom schedule: " + schedule
	}
}

// NextRunTime calculates when a schedule fires next after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}
