package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionNowUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := New("Ana", loc, NewFakeClock(base))

	now := s.Now()
	assert.Equal(t, loc, now.Location())
	assert.True(t, now.Equal(base))
	assert.Equal(t, 9, now.Hour())
}

func TestSessionDefaults(t *testing.T) {
	s := New("", nil, nil)
	assert.Equal(t, time.Local, s.Location)
	assert.WithinDuration(t, time.Now(), s.Now(), time.Second)
}

func TestFakeClockAdvance(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewFakeClock(base)
	c.Advance(90 * time.Minute)
	assert.Equal(t, base.Add(90*time.Minute), c.Now())

	c.Set(base)
	assert.Equal(t, base, c.Now())
}
