package repositories

import (
	"context"
	"sync"
	"time"

	"example.com/bakehouse/services/orders/internal/models"

	"github.com/rs/zerolog/log"
)

// Lister loads the complete order set in delivery order.
type Lister interface {
	List(ctx context.Context) ([]models.Order, error)
}

// OrderWatcher is the live subscription over the order store. Subscribers
// always receive the full, correctly ordered set after every change, never
// incremental diffs. Local mutations poke it through Notify; a poll interval
// catches writes made elsewhere.
type OrderWatcher struct {
	lister   Lister
	interval time.Duration
	notify   chan struct{}

	mu          sync.Mutex
	subscribers []func([]models.Order)
}

// NewOrderWatcher creates a watcher polling at the given interval. A
// non-positive interval disables polling; only Notify triggers loads then.
func NewOrderWatcher(lister Lister, interval time.Duration) *OrderWatcher {
	return &OrderWatcher{
		lister:   lister,
		interval: interval,
		notify:   make(chan struct{}, 1),
	}
}

// Subscribe registers a callback for full order-set snapshots. The delivered
// slice must be treated as read-only.
func (w *OrderWatcher) Subscribe(fn func([]models.Order)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribers = append(w.subscribers, fn)
}

// Notify requests a reload. It never blocks; coalescing concurrent pokes
// into one load is fine because every load delivers the complete set.
func (w *OrderWatcher) Notify() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Run drives the subscription until the context is cancelled. It pushes one
// initial snapshot so subscribers start from the current state.
func (w *OrderWatcher) Run(ctx context.Context) error {
	w.deliver(ctx)

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.notify:
			w.deliver(ctx)
		case <-tick:
			w.deliver(ctx)
		}
	}
}

func (w *OrderWatcher) deliver(ctx context.Context) {
	orders, err := w.lister.List(ctx)
	if err != nil {
		// A failed load is transient; the next poke or tick retries.
		log.Warn().Err(err).Msg("Failed to load order set for subscribers")
		return
	}

	w.mu.Lock()
	subscribers := make([]func([]models.Order), len(w.subscribers))
	copy(subscribers, w.subscribers)
	w.mu.Unlock()

	for _, fn := range subscribers {
		fn(orders)
	}
}
