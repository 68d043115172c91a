package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"example.com/bakehouse/services/orders/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu     sync.Mutex
	orders []models.Order
	calls  int
}

func (f *fakeLister) List(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.orders, nil
}

func TestOrderWatcherDeliversFullSnapshots(t *testing.T) {
	lister := &fakeLister{orders: []models.Order{
		{Client: "a"}, {Client: "b"},
	}}
	watcher := NewOrderWatcher(lister, 0)

	snapshots := make(chan []models.Order, 4)
	watcher.Subscribe(func(orders []models.Order) {
		snapshots <- orders
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = watcher.Run(ctx)
		close(done)
	}()

	// Initial snapshot on startup.
	select {
	case got := <-snapshots:
		require.Len(t, got, 2)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	// A local mutation pokes the watcher and yields a fresh full set.
	lister.mu.Lock()
	lister.orders = append(lister.orders, models.Order{Client: "c"})
	lister.mu.Unlock()
	watcher.Notify()

	select {
	case got := <-snapshots:
		require.Len(t, got, 3)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after notify")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

func TestOrderWatcherNotifyNeverBlocks(t *testing.T) {
	watcher := NewOrderWatcher(&fakeLister{}, 0)

	// No Run loop draining; repeated pokes must still return immediately.
	for i := 0; i < 10; i++ {
		watcher.Notify()
	}
}

func TestOrderWatcherPollsOnInterval(t *testing.T) {
	lister := &fakeLister{}
	watcher := NewOrderWatcher(lister, 10*time.Millisecond)
	watcher.Subscribe(func([]models.Order) {})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_ = watcher.Run(ctx)

	lister.mu.Lock()
	calls := lister.calls
	lister.mu.Unlock()
	require.GreaterOrEqual(t, calls, 2, "expected the initial load plus at least one poll")
}
