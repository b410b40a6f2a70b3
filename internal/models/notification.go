package models

import "time"

// Payload travels with a scheduled reminder and comes back on the
// received event when it fires.
type Payload struct {
	PlantID   string `json:"plantId"`
	PlantName string `json:"plantName"`
}

// Trigger describes when a reminder fires: FireAt is the first instant,
// after which the device re-arms every IntervalDays at TimeOfDay.
type Trigger struct {
	TimeOfDay    string      `json:"timeOfDay"` // HH:MM format
	Repeat       RepeatEvery `json:"repeat"`
	IntervalDays int         `json:"intervalDays"`
	FireAt       time.Time   `json:"fireAt"`
}

type NotificationRequest struct {
	Trigger Trigger `json:"trigger"`
	Payload Payload `json:"payload"`
}

type ScheduledNotification struct {
	Handle    string              `json:"handle"`
	Request   NotificationRequest `json:"request"`
	CreatedAt time.Time           `json:"createdAt"`
	LastFired *time.Time          `json:"lastFired,omitempty"`

	// ClaimedBy and ClaimedAt mark a delivery in flight. A claim older than
	// the dispatch lease is treated as abandoned.
	ClaimedBy string     `json:"claimedBy,omitempty"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`
}

// NextFire returns the instant this notification is due.
func (n *ScheduledNotification) NextFire() time.Time {
	return n.Request.Trigger.FireAt
}

// Claimed reports whether another dispatcher holds a live claim at now.
func (n *ScheduledNotification) Claimed(now time.Time, lease time.Duration) bool {
	return n.ClaimedBy != "" && n.ClaimedAt != nil && now.Sub(*n.ClaimedAt) < lease
}

// Received is emitted when a scheduled reminder fires.
type Received struct {
	Handle  string    `json:"handle"`
	Payload Payload   `json:"payload"`
	FiredAt time.Time `json:"firedAt"`
	Late    bool      `json:"late,omitempty"`
}
