// Package session carries the per-run context that would otherwise be
// global: who the user is, their time zone, and the clock.
package session

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so trigger computations are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

type Session struct {
	UserName string
	Location *time.Location
	Clock    Clock
}

// New returns a session for user in loc. A nil loc means time.Local and a
// nil clock means the wall clock.
func New(user string, loc *time.Location, clock Clock) *Session {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Session{UserName: user, Location: loc, Clock: clock}
}

// Now returns the clock's current time in the session's location.
func (s *Session) Now() time.Time {
	if s == nil {
		return time.Now()
	}
	now := s.Clock.Now()
	if s.Location != nil {
		now = now.In(s.Location)
	}
	return now
}

// FakeClock is a settable Clock for tests and dry runs.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
