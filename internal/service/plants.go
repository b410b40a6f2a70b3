// Package service composes the repository and the reminder scheduler into
// the operations the CLI and TUI expose.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/models"
	"github.com/julianstephens/plantmanager/internal/repository"
	"github.com/julianstephens/plantmanager/internal/scheduler"
	"github.com/julianstephens/plantmanager/internal/session"
	"github.com/julianstephens/plantmanager/internal/utils"
	"github.com/julianstephens/plantmanager/internal/validation"
)

const noPlantsSpotlight = "You have no plants to water yet"

type PlantService struct {
	repo      *repository.Repository
	scheduler *scheduler.Scheduler
	sess      *session.Session
	validate  *validation.Validator
}

func NewPlantService(repo *repository.Repository, sched *scheduler.Scheduler, sess *session.Session) *PlantService {
	return &PlantService{
		repo:      repo,
		scheduler: sched,
		sess:      sess,
		validate:  validation.New(),
	}
}

// Adopt saves a copy of species with a daily watering time and schedules
// its first reminder. The reminder is withdrawn if the save fails.
func (s *PlantService) Adopt(ctx context.Context, species models.PlantSpecies, timeOfDay string) (models.SavedPlant, error) {
	if err := s.validate.Validate(species); err != nil {
		return models.SavedPlant{}, err
	}
	if !utils.ValidateTimeFormat(timeOfDay) {
		return models.SavedPlant{}, apperrors.InvalidInput("notification time %q must be HH:MM", timeOfDay)
	}

	exists, err := s.repo.Exists(ctx, species.ID.String())
	if err != nil {
		return models.SavedPlant{}, err
	}
	if exists {
		return models.SavedPlant{}, apperrors.DuplicateID(species.ID.String())
	}

	plant := models.NewSavedPlant(species, timeOfDay, s.sess.Now())
	handle, err := s.scheduler.Schedule(ctx, plant)
	if err != nil {
		return models.SavedPlant{}, err
	}
	plant.NotificationHandle = handle

	saved, err := s.repo.Save(ctx, plant)
	if err != nil {
		if cerr := s.scheduler.Cancel(ctx, handle); cerr != nil {
			logger.Error("Failed to withdraw reminder after save failure", "handle", handle, "error", cerr)
		}
		return models.SavedPlant{}, err
	}
	return saved, nil
}

// MyPlants lists saved plants soonest reminder first.
func (s *PlantService) MyPlants(ctx context.Context) ([]repository.Entry, error) {
	return s.repo.LoadEntries(ctx, s.sess.Now())
}

func (s *PlantService) Get(ctx context.Context, id string) (models.SavedPlant, error) {
	return s.repo.Get(ctx, id)
}

// Remove cancels the plant's reminder and then deletes it. If the
// reminder cannot be cancelled the plant is kept.
func (s *PlantService) Remove(ctx context.Context, id string) error {
	plant, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.scheduler.Cancel(ctx, plant.NotificationHandle); err != nil && !errors.Is(err, apperrors.ErrInvalidHandle) {
		return fmt.Errorf("cancel reminder for %s: %w", id, err)
	}
	return s.repo.Remove(ctx, id)
}

// Reschedule moves the plant's reminder to newTime and stores the new handle.
func (s *PlantService) Reschedule(ctx context.Context, id, newTime string) (models.SavedPlant, error) {
	plant, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.SavedPlant{}, err
	}

	handle, err := s.scheduler.Reschedule(ctx, plant, newTime)
	if err != nil {
		if handle != plant.NotificationHandle {
			// The old reminder is gone. Record what replaced it, if anything.
			plant.NotificationHandle = handle
			s.persistHandle(ctx, plant)
		}
		return models.SavedPlant{}, err
	}
	previous := plant.NotificationHandle
	plant.DateTimeNotification = newTime
	plant.NotificationHandle = handle

	if err := s.repo.Update(ctx, plant); err != nil {
		if cerr := s.scheduler.Cancel(ctx, handle); cerr != nil {
			logger.Error("Failed to withdraw reminder after update failure", "handle", handle, "error", cerr)
		}
		if previous != "" {
			plant.NotificationHandle = ""
			s.persistHandle(ctx, plant)
		}
		return models.SavedPlant{}, err
	}
	return plant, nil
}

// persistHandle stores plant's handle on a best-effort basis after a failed
// reschedule, so the record never names a reminder that no longer exists.
func (s *PlantService) persistHandle(ctx context.Context, plant models.SavedPlant) {
	stored, err := s.repo.Get(ctx, plant.ID)
	if err != nil {
		logger.Error("Failed to reload plant after reschedule failure", "plant", plant.ID, "error", err)
		return
	}
	stored.NotificationHandle = plant.NotificationHandle
	if err := s.repo.Update(ctx, stored); err != nil {
		logger.Error("Failed to record reminder handle", "plant", plant.ID, "handle", plant.NotificationHandle, "error", err)
	}
}

// Spotlight is the one-line hint shown above the plant list.
func (s *PlantService) Spotlight(ctx context.Context) (string, error) {
	entries, err := s.MyPlants(ctx)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 || entries[0].NextTrigger.IsZero() {
		return noPlantsSpotlight, nil
	}
	return spotlightText(entries[0], s.sess.Now()), nil
}

func spotlightText(e repository.Entry, now time.Time) string {
	if e.NextTrigger.Sub(now) < time.Minute {
		return fmt.Sprintf("Water your %s now", e.Plant.Name)
	}
	rel := strings.TrimSpace(humanize.RelTime(now, e.NextTrigger, "", ""))
	return fmt.Sprintf("Water your %s in %s", e.Plant.Name, rel)
}
