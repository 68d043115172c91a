// Package confirm implements the two-tap confirmation pattern used for
// delivering and deleting orders: the first action arms an intent against a
// single target ID, the second one commits it. Arming a different ID drops
// the previous intent, so at most one order is armed at any time.
package confirm

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultArmWindow is how long a delivery confirmation stays armed before it
// resets on its own.
const DefaultArmWindow = 3 * time.Second

// DeliveryConfirmer guards the pending->delivered transition against a
// single accidental tap. It mutates nothing itself; Confirm only tells the
// caller whether the transition may be committed now.
type DeliveryConfirmer struct {
	mu     sync.Mutex
	window time.Duration
	armed  uuid.UUID
	timer  *time.Timer
}

// NewDeliveryConfirmer creates a confirmer. A non-positive window falls back
// to DefaultArmWindow.
func NewDeliveryConfirmer(window time.Duration) *DeliveryConfirmer {
	if window <= 0 {
		window = DefaultArmWindow
	}
	return &DeliveryConfirmer{window: window}
}

// Confirm registers a tap on the given order. The first tap arms the order
// and returns false; a second tap on the same order within the arm window
// returns true and disarms. Tapping a different order re-arms onto it.
func (c *DeliveryConfirmer) Confirm(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == uuid.Nil {
		return false
	}

	if c.armed == id {
		c.disarmLocked()
		return true
	}

	c.disarmLocked()
	c.armed = id
	c.timer = time.AfterFunc(c.window, func() { c.expire(id) })
	return false
}

// Armed returns the currently armed order, if any.
func (c *DeliveryConfirmer) Armed() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed, c.armed != uuid.Nil
}

// Cancel drops any armed intent.
func (c *DeliveryConfirmer) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarmLocked()
}

func (c *DeliveryConfirmer) expire(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// The intent may already have been committed or re-armed elsewhere.
	if c.armed == id {
		c.disarmLocked()
	}
}

func (c *DeliveryConfirmer) disarmLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.armed = uuid.Nil
}

// DeleteConfirmer is the deletion counterpart: same arm-then-confirm shape,
// but the intent has no expiry and is only dropped by confirming or by an
// explicit cancel.
type DeleteConfirmer struct {
	mu    sync.Mutex
	armed uuid.UUID
}

// NewDeleteConfirmer creates an empty delete confirmer.
func NewDeleteConfirmer() *DeleteConfirmer {
	return &DeleteConfirmer{}
}

// Request arms deletion of the given order, replacing any previous target.
func (c *DeleteConfirmer) Request(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = id
}

// Confirm reports whether deletion of the given order was armed, disarming
// it if so.
func (c *DeleteConfirmer) Confirm(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == uuid.Nil || c.armed != id {
		return false
	}
	c.armed = uuid.Nil
	return true
}

// Armed returns the order currently pending deletion, if any.
func (c *DeleteConfirmer) Armed() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed, c.armed != uuid.Nil
}

// Cancel drops the pending deletion.
func (c *DeleteConfirmer) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = uuid.Nil
}
