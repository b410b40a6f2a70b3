package utils

import (
	"time"

	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/models"
)

// StepDays returns how many days separate two reminders for freq. The
// second value is false when repeat_every is not recognised, in which case
// the step falls back to a single day.
func StepDays(freq models.Frequency) (int, bool) {
	switch freq.RepeatEvery {
	case models.RepeatDay:
		return 1, true
	case models.RepeatWeek:
		times := freq.Times
		if times < 1 {
			times = 1
		}
		step := 7 / times
		if step < 1 {
			step = 1
		}
		return step, true
	default:
		return 1, false
	}
}

// NextTrigger returns the earliest instant at or after now that falls on
// timeOfDay and is reachable from today by whole steps of the frequency.
func NextTrigger(timeOfDay string, freq models.Frequency, now time.Time) (time.Time, error) {
	candidate, err := AtTimeOfDay(now, timeOfDay)
	if err != nil {
		return time.Time{}, err
	}

	step, known := StepDays(freq)
	if !known {
		logger.Warn("unrecognised repeat_every, falling back to daily",
			"repeat_every", string(freq.RepeatEvery), "times", freq.Times)
	}

	for candidate.Before(now) {
		candidate = candidate.AddDate(0, 0, step)
	}
	return candidate, nil
}
