// Package scheduler turns a saved plant's watering time and frequency into
// device reminders and keeps at most one live reminder per plant.
package scheduler

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/models"
	"github.com/julianstephens/plantmanager/internal/session"
	"github.com/julianstephens/plantmanager/internal/utils"
)

// Device is the notification service reminders are handed to.
type Device interface {
	Schedule(ctx context.Context, req models.NotificationRequest) (string, error)
	Cancel(ctx context.Context, handle string) error
}

type Scheduler struct {
	device Device
	sess   *session.Session
}

func New(device Device, sess *session.Session) *Scheduler {
	return &Scheduler{device: device, sess: sess}
}

// Request builds the notification request for plant as of now.
func Request(plant models.SavedPlant, now time.Time) (models.NotificationRequest, error) {
	fireAt, err := utils.NextTrigger(plant.DateTimeNotification, plant.Frequency, now)
	if err != nil {
		return models.NotificationRequest{}, apperrors.InvalidInput("notification time %q: %v", plant.DateTimeNotification, err)
	}
	step, _ := utils.StepDays(plant.Frequency)

	return models.NotificationRequest{
		Trigger: models.Trigger{
			TimeOfDay:    plant.DateTimeNotification,
			Repeat:       plant.Frequency.RepeatEvery,
			IntervalDays: step,
			FireAt:       fireAt,
		},
		Payload: models.Payload{
			PlantID:   plant.ID,
			PlantName: plant.Name,
		},
	}, nil
}

// Schedule hands a reminder for plant to the device and returns its handle.
func (s *Scheduler) Schedule(ctx context.Context, plant models.SavedPlant) (string, error) {
	req, err := Request(plant, s.sess.Now())
	if err != nil {
		return "", err
	}
	handle, err := s.device.Schedule(ctx, req)
	if err != nil {
		return "", err
	}
	logger.Info("Scheduled watering reminder", "plant", plant.ID, "handle", handle, "fire_at", req.Trigger.FireAt)
	return handle, nil
}

// Cancel removes the reminder behind handle. An empty handle and an
// already cancelled one are both no-ops. A malformed handle is logged and
// returned as ErrInvalidHandle.
func (s *Scheduler) Cancel(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	err := s.device.Cancel(ctx, handle)
	if errors.Is(err, apperrors.ErrInvalidHandle) {
		logger.Warn("Ignoring malformed notification handle", "handle", handle)
	}
	return err
}

// Reschedule cancels plant's current reminder and schedules a new one at
// newTime. The old reminder is gone before the new one exists, so the
// plant never has two live reminders. The returned handle belongs to the
// new reminder; plant itself is not modified.
//
// On error the returned handle is whatever reminder is live for plant
// afterwards: the untouched old one when cancelling failed, a replacement
// at the old time when the new one could not be scheduled, or "" when
// neither could be.
func (s *Scheduler) Reschedule(ctx context.Context, plant models.SavedPlant, newTime string) (string, error) {
	if !utils.ValidateTimeFormat(newTime) {
		return plant.NotificationHandle, apperrors.InvalidInput("notification time %q must be HH:MM", newTime)
	}

	wasLive := plant.NotificationHandle != ""
	if err := s.Cancel(ctx, plant.NotificationHandle); err != nil {
		if !errors.Is(err, apperrors.ErrInvalidHandle) {
			return plant.NotificationHandle, err
		}
		wasLive = false
	}

	previous := plant
	plant.DateTimeNotification = newTime
	plant.NotificationHandle = ""
	handle, err := s.Schedule(ctx, plant)
	if err == nil {
		return handle, nil
	}
	if !wasLive {
		return "", err
	}

	restored, rerr := s.Schedule(ctx, previous)
	if rerr != nil {
		logger.Error("Failed to restore reminder after reschedule failure", "plant", plant.ID, "error", rerr)
		return "", err
	}
	logger.Warn("Restored reminder at previous time", "plant", plant.ID, "time", previous.DateTimeNotification, "handle", restored)
	return restored, err
}
