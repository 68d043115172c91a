package confirm

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDeliveryConfirmerTwoTapsCommit(t *testing.T) {
	c := NewDeliveryConfirmer(time.Second)
	id := uuid.New()

	require.False(t, c.Confirm(id), "first tap must only arm")

	armed, ok := c.Armed()
	require.True(t, ok)
	require.Equal(t, id, armed)

	require.True(t, c.Confirm(id), "second tap within the window commits")

	_, ok = c.Armed()
	require.False(t, ok, "commit must disarm")
}

func TestDeliveryConfirmerDifferentIDRearms(t *testing.T) {
	c := NewDeliveryConfirmer(time.Second)
	a, b := uuid.New(), uuid.New()

	require.False(t, c.Confirm(a))
	require.False(t, c.Confirm(b), "tapping another order must arm it, not commit")

	armed, ok := c.Armed()
	require.True(t, ok)
	require.Equal(t, b, armed)

	// The first order lost its armed state entirely.
	require.False(t, c.Confirm(a))
}

func TestDeliveryConfirmerArmExpires(t *testing.T) {
	c := NewDeliveryConfirmer(30 * time.Millisecond)
	id := uuid.New()

	require.False(t, c.Confirm(id))
	time.Sleep(80 * time.Millisecond)

	_, ok := c.Armed()
	require.False(t, ok, "arm must expire on its own")

	// After expiry the next tap behaves as a first tap again.
	require.False(t, c.Confirm(id))
	require.True(t, c.Confirm(id))
}

func TestDeliveryConfirmerCancel(t *testing.T) {
	c := NewDeliveryConfirmer(time.Second)
	id := uuid.New()

	require.False(t, c.Confirm(id))
	c.Cancel()
	require.False(t, c.Confirm(id), "cancel must reset to the unarmed state")
}

func TestDeliveryConfirmerIgnoresNilID(t *testing.T) {
	c := NewDeliveryConfirmer(time.Second)

	require.False(t, c.Confirm(uuid.Nil))
	require.False(t, c.Confirm(uuid.Nil))
	_, ok := c.Armed()
	require.False(t, ok)
}

func TestDeleteConfirmerHasNoExpiry(t *testing.T) {
	c := NewDeleteConfirmer()
	id := uuid.New()

	c.Request(id)
	time.Sleep(50 * time.Millisecond)

	armed, ok := c.Armed()
	require.True(t, ok, "delete intent must survive until confirmed or cancelled")
	require.Equal(t, id, armed)

	require.True(t, c.Confirm(id))
	require.False(t, c.Confirm(id), "confirming twice must fail")
}

func TestDeleteConfirmerRequiresMatchingID(t *testing.T) {
	c := NewDeleteConfirmer()
	a, b := uuid.New(), uuid.New()

	c.Request(a)
	require.False(t, c.Confirm(b))

	// Requesting another target replaces the previous one.
	c.Request(b)
	require.False(t, c.Confirm(a))
	require.True(t, c.Confirm(b))
}

func TestDeleteConfirmerCancel(t *testing.T) {
	c := NewDeleteConfirmer()
	id := uuid.New()

	c.Request(id)
	c.Cancel()
	require.False(t, c.Confirm(id))
}
