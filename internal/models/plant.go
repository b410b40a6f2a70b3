package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type RepeatEvery string

const (
	RepeatDay  RepeatEvery = "day"
	RepeatWeek RepeatEvery = "week"
)

// ID accepts both JSON strings and numbers. The catalog service is a
// json-server instance whose ids are usually numeric.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Frequency struct {
	Times       int         `json:"times" validate:"gt=0"`
	RepeatEvery RepeatEvery `json:"repeat_every" validate:"required"`
}

func (f Frequency) String() string {
	switch f.RepeatEvery {
	case RepeatWeek:
		if f.Times == 1 {
			return "once a week"
		}
		return fmt.Sprintf("%d times a week", f.Times)
	case RepeatDay:
		if f.Times == 1 {
			return "once a day"
		}
		return fmt.Sprintf("%d times a day", f.Times)
	default:
		return fmt.Sprintf("%d times every %s", f.Times, f.RepeatEvery)
	}
}

// PlantSpecies is a catalog entry. Values are immutable once fetched.
type PlantSpecies struct {
	ID           ID        `json:"id" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	About        string    `json:"about"`
	WaterTips    string    `json:"water_tips"`
	Photo        string    `json:"photo"`
	Environments []string  `json:"environments"`
	Frequency    Frequency `json:"frequency"`
}

// HasEnvironment reports whether the species is tagged with key.
func (p PlantSpecies) HasEnvironment(key string) bool {
	for _, env := range p.Environments {
		if strings.EqualFold(env, key) {
			return true
		}
	}
	return false
}

type Environment struct {
	Key   string `json:"key" validate:"required"`
	Title string `json:"title" validate:"required"`
}

// SavedPlant is a user's adopted copy of a species. Species attributes are
// copied at adoption time so later catalog changes never reach it.
type SavedPlant struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	About                string    `json:"about"`
	WaterTips            string    `json:"water_tips"`
	Photo                string    `json:"photo"`
	Environments         []string  `json:"environments,omitempty"`
	Frequency            Frequency `json:"frequency"`
	DateTimeNotification string    `json:"dateTimeNotification"`         // HH:MM format
	NotificationHandle   string    `json:"notificationHandle,omitempty"` // empty while no reminder is active
	AdoptedAt            time.Time `json:"adoptedAt"`
}

// NewSavedPlant copies the species attributes into a new record.
func NewSavedPlant(species PlantSpecies, timeOfDay string, adoptedAt time.Time) SavedPlant {
	envs := make([]string, len(species.Environments))
	copy(envs, species.Environments)
	return SavedPlant{
		ID:                   species.ID.String(),
		Name:                 species.Name,
		About:                species.About,
		WaterTips:            species.WaterTips,
		Photo:                species.Photo,
		Environments:         envs,
		Frequency:            species.Frequency,
		DateTimeNotification: timeOfDay,
		AdoptedAt:            adoptedAt.UTC(),
	}
}

func (p *SavedPlant) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("plant id cannot be empty")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("plant name cannot be empty")
	}
	if _, err := time.Parse("15:04", p.DateTimeNotification); err != nil {
		return fmt.Errorf("invalid notification time (expected HH:MM): %w", err)
	}
	return nil
}

// HasReminder reports whether a notification handle is attached.
func (p *SavedPlant) HasReminder() bool {
	return p.NotificationHandle != ""
}
