// Package notifier is the local notification device: it persists scheduled
// reminders, fires them when due and re-arms repeating ones.
package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/plantmanager/internal/constants"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/id"
	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/models"
	"github.com/julianstephens/plantmanager/internal/storage"
	"github.com/julianstephens/plantmanager/internal/utils"
)

const eventBuffer = 16

// Device stores reminders under their own key in the local store. Every
// change goes through a store transaction, so several devices (one per
// process) can share a store without losing each other's writes.
type Device struct {
	store  *storage.Local
	sender Sender
	grace  time.Duration
	lease  time.Duration
	loc    *time.Location
	now    func() time.Time

	subMu sync.Mutex
	subs  map[int]chan models.Received
	next  int
}

type Option func(*Device)

// WithGracePeriod sets how late a reminder may still be delivered.
// Older ones are re-armed silently.
func WithGracePeriod(d time.Duration) Option {
	return func(dev *Device) { dev.grace = d }
}

// WithClock overrides the time used to stamp new reminders.
func WithClock(now func() time.Time) Option {
	return func(dev *Device) { dev.now = now }
}

// WithLocation sets the zone repeating reminders are re-armed in, so the
// wall-clock time of day survives DST changes. Without it the zone stored
// on the trigger is used.
func WithLocation(loc *time.Location) Option {
	return func(dev *Device) { dev.loc = loc }
}

// WithLease sets how long a dispatcher's claim on a due reminder holds
// before another dispatcher may take it over.
func WithLease(d time.Duration) Option {
	return func(dev *Device) { dev.lease = d }
}

func NewDevice(store *storage.Local, sender Sender, opts ...Option) *Device {
	d := &Device{
		store:  store,
		sender: sender,
		grace:  constants.DefaultNotificationGrace,
		lease:  constants.DefaultDispatchLease,
		now:    time.Now,
		subs:   make(map[int]chan models.Received),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) load(ctx context.Context) ([]models.ScheduledNotification, error) {
	var pending []models.ScheduledNotification
	if _, err := d.store.GetJSON(ctx, constants.NotificationsKey, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// mutate rewrites the stored reminders with fn inside one transaction.
func (d *Device) mutate(ctx context.Context, fn func([]models.ScheduledNotification) ([]models.ScheduledNotification, error)) error {
	return storage.UpdateJSON(ctx, d.store, constants.NotificationsKey,
		func(pending []models.ScheduledNotification) ([]models.ScheduledNotification, error) {
			next, err := fn(pending)
			if next == nil {
				next = []models.ScheduledNotification{}
			}
			return next, err
		})
}

// Schedule registers req and returns its handle.
func (d *Device) Schedule(ctx context.Context, req models.NotificationRequest) (string, error) {
	if req.Trigger.FireAt.IsZero() {
		return "", apperrors.InvalidInput("notification trigger has no fire time")
	}
	if req.Trigger.IntervalDays < 0 {
		return "", apperrors.InvalidInput("notification interval must not be negative")
	}

	handle, err := id.Generate(constants.HandlePrefix)
	if err != nil {
		return "", fmt.Errorf("failed to allocate notification handle: %w", err)
	}

	n := models.ScheduledNotification{
		Handle:    handle,
		Request:   req,
		CreatedAt: d.now().UTC(),
	}
	err = d.mutate(ctx, func(pending []models.ScheduledNotification) ([]models.ScheduledNotification, error) {
		return append(pending, n), nil
	})
	if err != nil {
		return "", err
	}

	scheduledTotal.Inc()
	logger.Debug("Scheduled reminder", "handle", handle, "plant", req.Payload.PlantID, "fire_at", req.Trigger.FireAt)
	return handle, nil
}

// Cancel removes handle. Cancelling an unknown but well-formed handle is a
// no-op; a malformed handle returns ErrInvalidHandle.
func (d *Device) Cancel(ctx context.Context, handle string) error {
	if !id.Valid(constants.HandlePrefix, handle) {
		return apperrors.InvalidHandle(handle)
	}

	found := false
	err := d.mutate(ctx, func(pending []models.ScheduledNotification) ([]models.ScheduledNotification, error) {
		found = false
		kept := pending[:0]
		for _, n := range pending {
			if n.Handle == handle {
				found = true
				continue
			}
			kept = append(kept, n)
		}
		return kept, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	cancelledTotal.Inc()
	logger.Debug("Cancelled reminder", "handle", handle)
	return nil
}

// Pending returns live reminders ordered by next fire time.
func (d *Device) Pending(ctx context.Context) ([]models.ScheduledNotification, error) {
	pending, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].NextFire().Before(pending[j].NextFire())
	})
	return pending, nil
}

// Lookup returns the reminder for handle, if live.
func (d *Device) Lookup(ctx context.Context, handle string) (models.ScheduledNotification, bool, error) {
	pending, err := d.Pending(ctx)
	if err != nil {
		return models.ScheduledNotification{}, false, err
	}
	for _, n := range pending {
		if n.Handle == handle {
			return n, true, nil
		}
	}
	return models.ScheduledNotification{}, false, nil
}

// Dispatch fires every reminder due at now. Delivered reminders are
// published to subscribers and re-armed at their next occurrence. A
// reminder whose send fails stays due and is retried on the next call
// until it falls outside the grace period, at which point it is re-armed
// without being sent.
//
// Due reminders are claimed in one transaction, sent with no transaction
// open, and settled in a second one. Settling only touches reminders that
// still carry this call's claim, so a reminder cancelled while its message
// was in flight stays cancelled, and a concurrent dispatcher skips reminders
// claimed here until the lease runs out.
func (d *Device) Dispatch(ctx context.Context, now time.Time) ([]models.Received, error) {
	token, err := id.Generate(constants.ClaimPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate dispatch claim: %w", err)
	}

	var due, stale []models.ScheduledNotification
	err = d.mutate(ctx, func(pending []models.ScheduledNotification) ([]models.ScheduledNotification, error) {
		due, stale = nil, nil
		kept := pending[:0]
		for _, n := range pending {
			fireAt := n.NextFire()
			if fireAt.After(now) || n.Claimed(now, d.lease) {
				kept = append(kept, n)
				continue
			}
			if now.Sub(fireAt) > d.grace {
				stale = append(stale, n)
				n.ClaimedBy, n.ClaimedAt = "", nil
				if n.Request.Trigger.IntervalDays == 0 {
					continue
				}
				n.Request.Trigger.FireAt = d.rearm(n.Request.Trigger, now)
				kept = append(kept, n)
				continue
			}
			claimedAt := now
			n.ClaimedBy, n.ClaimedAt = token, &claimedAt
			due = append(due, n)
			kept = append(kept, n)
		}
		return kept, nil
	})
	if err != nil {
		return nil, err
	}

	for _, n := range stale {
		firedTotal.WithLabelValues("skipped").Inc()
		logger.Info("Skipping stale reminder", "handle", n.Handle, "plant", n.Request.Payload.PlantID, "due", n.NextFire())
	}
	if len(due) == 0 {
		return nil, nil
	}

	var fired []models.Received
	sent := make(map[string]bool, len(due))
	for _, n := range due {
		fireAt := n.NextFire()
		msg := Message{
			Title: fmt.Sprintf("Hey, time to water your %s", n.Request.Payload.PlantName),
			Body:  "Your plant needs your attention",
		}
		if err := d.sender.Send(ctx, msg); err != nil {
			firedTotal.WithLabelValues("failed").Inc()
			logger.Warn("Failed to deliver reminder", "handle", n.Handle, "error", err)
			continue
		}
		firedTotal.WithLabelValues("sent").Inc()
		sent[n.Handle] = true

		event := models.Received{
			Handle:  n.Handle,
			Payload: n.Request.Payload,
			FiredAt: now,
			Late:    now.Sub(fireAt) > time.Minute,
		}
		fired = append(fired, event)
		d.publish(event)
	}

	err = d.mutate(ctx, func(pending []models.ScheduledNotification) ([]models.ScheduledNotification, error) {
		kept := pending[:0]
		for _, n := range pending {
			if n.ClaimedBy != token {
				kept = append(kept, n)
				continue
			}
			n.ClaimedBy, n.ClaimedAt = "", nil
			if !sent[n.Handle] {
				kept = append(kept, n)
				continue
			}
			firedAt := now
			n.LastFired = &firedAt
			if n.Request.Trigger.IntervalDays == 0 {
				continue
			}
			n.Request.Trigger.FireAt = d.rearm(n.Request.Trigger, now)
			kept = append(kept, n)
		}
		return kept, nil
	})
	return fired, err
}

// rearm moves t forward by whole intervals until it is after now. Each step
// lands on the trigger's time of day in the device location, so the local
// time stays put across DST changes.
func (d *Device) rearm(t models.Trigger, now time.Time) time.Time {
	next := t.FireAt
	if d.loc != nil {
		next = next.In(d.loc)
	}
	for !next.After(now) {
		day := next.AddDate(0, 0, t.IntervalDays)
		at, err := utils.AtTimeOfDay(day, t.TimeOfDay)
		if err != nil || !at.After(next) {
			at = day
		}
		next = at
	}
	return next
}

// Subscribe returns a channel of fired reminders and a func that
// unsubscribes and closes it. Events are dropped for subscribers that
// fall behind.
func (d *Device) Subscribe() (<-chan models.Received, func()) {
	ch := make(chan models.Received, eventBuffer)

	d.subMu.Lock()
	key := d.next
	d.next++
	d.subs[key] = ch
	d.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.subMu.Lock()
			delete(d.subs, key)
			d.subMu.Unlock()
			close(ch)
		})
	}
}

func (d *Device) publish(event models.Received) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, ch := range d.subs {
		select {
		case ch <- event:
		default:
			logger.Warn("Dropping reminder event for slow subscriber", "handle", event.Handle)
		}
	}
}

// Run dispatches on every tick until ctx is done.
func (d *Device) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := d.Dispatch(ctx, d.now()); err != nil {
			logger.Error("Reminder dispatch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
