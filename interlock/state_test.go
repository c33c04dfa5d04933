package interlock

import (
	"testing"

	"github.com/farmbot-labs/csvm/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnsOrUnownedWithNoOwner(t *testing.T) {
	var s State
	assert.True(t, s.OwnsOrUnowned(proc.NewRef(1)))
}

func TestAcquireAndOwnsOrUnowned(t *testing.T) {
	var s State
	ref := proc.NewRef(1)
	other := proc.NewRef(2)
	s.AcquireFirmware(ref)

	assert.True(t, s.HasOwner())
	assert.True(t, s.OwnsOrUnowned(ref))
	assert.False(t, s.OwnsOrUnowned(other))

	owner, ok := s.Owner()
	require.True(t, ok)
	assert.True(t, owner.Equal(ref))
}

func TestReleaseFirmwareOnlyClearsMatchingOwner(t *testing.T) {
	var s State
	ref := proc.NewRef(1)
	other := proc.NewRef(2)
	s.AcquireFirmware(ref)

	s.ReleaseFirmware(other)
	assert.True(t, s.HasOwner())

	s.ReleaseFirmware(ref)
	assert.False(t, s.HasOwner())
}

func TestLockUnlockDoesNotAlterFirmware(t *testing.T) {
	var s State
	ref := proc.NewRef(1)
	s.AcquireFirmware(ref)

	s.Lock()
	assert.True(t, s.Locked())
	assert.True(t, s.HasOwner())

	s.Unlock()
	assert.False(t, s.Locked())
	assert.True(t, s.HasOwner())
}
