package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessProfileLocksOnThirdFailure(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := NewAccessProfile("corp", AccessVPN)

	assert.False(t, p.RecordFailure(now))
	assert.False(t, p.RecordFailure(now))
	assert.True(t, p.RecordFailure(now))

	assert.True(t, p.IsLocked(now.Add(time.Minute)))
	assert.Equal(t, now.Add(LockoutDuration), p.LockExpiry)
	assert.ErrorIs(t, p.LockedError(), ErrAccessLocked)
	assert.Contains(t, p.LockedError().Error(), "10:15")
}

func TestAccessProfileLockExpires(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := NewAccessProfile("corp", AccessVPN)
	for i := 0; i < MaxFailedAttempts; i++ {
		p.RecordFailure(now)
	}

	assert.False(t, p.IsLocked(now.Add(LockoutDuration)))
	assert.Equal(t, MaxFailedAttempts, p.FailedAttempts)

	p.RecordSuccess()
	assert.Zero(t, p.FailedAttempts)
	assert.False(t, p.Locked)
}
