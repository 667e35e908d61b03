package lockout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("locks after threshold failures", func(t *testing.T) {
		tr := New(WithClock(clock), WithThreshold(3))
		tr.RecordFailure("owner@bakery.test")
		tr.RecordFailure("owner@bakery.test")
		locked, _ := tr.Locked("owner@bakery.test")
		assert.False(t, locked)

		tr.RecordFailure("owner@bakery.test")
		locked, until := tr.Locked("owner@bakery.test")
		assert.True(t, locked)
		assert.Equal(t, now.Add(defaultLockFor), until)
	})

	t.Run("lock expires", func(t *testing.T) {
		current := now
		tr := New(WithClock(func() time.Time { return current }), WithThreshold(1))
		tr.RecordFailure("owner@bakery.test")

		locked, _ := tr.Locked("owner@bakery.test")
		assert.True(t, locked)

		current = now.Add(defaultLockFor + time.Second)
		locked, _ = tr.Locked("owner@bakery.test")
		assert.False(t, locked)
	})

	t.Run("identifiers are case-insensitive", func(t *testing.T) {
		tr := New(WithClock(clock), WithThreshold(1))
		tr.RecordFailure("Owner@Bakery.Test")
		locked, _ := tr.Locked("owner@bakery.test")
		assert.True(t, locked)
	})

	t.Run("clear forgets failures", func(t *testing.T) {
		tr := New(WithClock(clock), WithThreshold(2))
		tr.RecordFailure("owner@bakery.test")
		tr.Clear("owner@bakery.test")
		tr.RecordFailure("owner@bakery.test")
		locked, _ := tr.Locked("owner@bakery.test")
		assert.False(t, locked)
	})
}
