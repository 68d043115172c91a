package views

import (
	"testing"
	"time"

	"example.com/bakehouse/services/orders/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func order(client string, date models.Date, status models.DeliveryStatus, price, deposit float64) models.Order {
	return models.Order{
		ID:             uuid.New(),
		Client:         client,
		Flavor:         "vanilla",
		DeliveryDate:   date,
		TotalPrice:     price,
		DepositAmount:  deposit,
		DeliveryStatus: status,
	}
}

func TestDeriveEmptySet(t *testing.T) {
	v := Derive(nil, Filter{MonthBucket: "2025-06"})

	require.Empty(t, v.Pending)
	require.Empty(t, v.Delivered)
	require.Empty(t, v.Visible)
	require.Zero(t, v.MonthlyRevenue)
	require.Zero(t, v.OutstandingDeposits)
}

func TestDerivePartitionIsCompleteAndDisjoint(t *testing.T) {
	orders := []models.Order{
		order("a", models.NewDate(2025, time.June, 1), models.DeliveryPending, 100, 0),
		order("b", models.NewDate(2025, time.June, 2), models.DeliveryDelivered, 200, 0),
		order("c", models.NewDate(2025, time.June, 3), models.DeliveryPending, 300, 0),
		order("d", models.NewDate(2025, time.June, 4), models.DeliveryDelivered, 400, 0),
	}

	v := Derive(orders, Filter{})

	require.Equal(t, len(orders), len(v.Pending)+len(v.Delivered))

	seen := make(map[uuid.UUID]bool)
	for _, o := range append(v.Pending, v.Delivered...) {
		require.False(t, seen[o.ID], "order appears in both partitions")
		seen[o.ID] = true
	}
}

func TestDeriveMonthlyRevenue(t *testing.T) {
	orders := []models.Order{
		order("a", models.NewDate(2025, time.June, 1), models.DeliveryDelivered, 800, 0),
		order("b", models.NewDate(2025, time.June, 15), models.DeliveryDelivered, 1200, 0),
		order("c", models.NewDate(2025, time.July, 1), models.DeliveryDelivered, 300, 0),
	}

	v := Derive(orders, Filter{MonthBucket: "2025-06", ShowDelivered: true})
	require.Equal(t, 2000.0, v.MonthlyRevenue)
	require.Len(t, v.Visible, 2)

	// A bucket with no matching orders aggregates to zero.
	v = Derive(orders, Filter{MonthBucket: "2024-01", ShowDelivered: true})
	require.Zero(t, v.MonthlyRevenue)
	require.Empty(t, v.Visible)
}

func TestDeriveMonthlyRevenueIgnoresNameQuery(t *testing.T) {
	orders := []models.Order{
		order("Ana", models.NewDate(2025, time.June, 1), models.DeliveryDelivered, 800, 0),
		order("Bea", models.NewDate(2025, time.June, 2), models.DeliveryDelivered, 1200, 0),
	}

	v := Derive(orders, Filter{MonthBucket: "2025-06", NameQuery: "ana", ShowDelivered: true})
	require.Equal(t, 2000.0, v.MonthlyRevenue)
	require.Len(t, v.Visible, 1)
}

func TestDeriveOutstandingDeposits(t *testing.T) {
	orders := []models.Order{
		order("a", models.NewDate(2025, time.June, 1), models.DeliveryPending, 500, 100),
		order("b", models.NewDate(2025, time.July, 1), models.DeliveryPending, 800, 250),
		order("c", models.NewDate(2025, time.June, 2), models.DeliveryDelivered, 900, 400),
	}

	// Deposits sum over all pending orders, regardless of month filter.
	v := Derive(orders, Filter{MonthBucket: "2025-06"})
	require.Equal(t, 350.0, v.OutstandingDeposits)
}

func TestDeriveNameQueryIsCaseInsensitiveSubstring(t *testing.T) {
	orders := []models.Order{
		order("Ximena Zapata", models.NewDate(2025, time.June, 1), models.DeliveryPending, 100, 0),
		order("Pedro", models.NewDate(2025, time.June, 2), models.DeliveryPending, 100, 0),
	}

	v := Derive(orders, Filter{NameQuery: "xim"})
	require.Len(t, v.Visible, 1)
	require.Equal(t, "Ximena Zapata", v.Visible[0].Client)

	// Empty query matches everything.
	v = Derive(orders, Filter{})
	require.Len(t, v.Visible, 2)
}

func TestDerivePendingPartitionIsNeverMonthFiltered(t *testing.T) {
	orders := []models.Order{
		order("a", models.NewDate(2025, time.June, 1), models.DeliveryPending, 100, 0),
		order("b", models.NewDate(2025, time.July, 1), models.DeliveryPending, 100, 0),
	}

	v := Derive(orders, Filter{MonthBucket: "2025-06"})
	require.Len(t, v.Visible, 2)
}

func TestDeriveVisibleSortedWithStableTies(t *testing.T) {
	sameDay := models.NewDate(2025, time.June, 10)
	first := order("first created", sameDay, models.DeliveryPending, 100, 0)
	second := order("second created", sameDay, models.DeliveryPending, 100, 0)
	earlier := order("earlier date", models.NewDate(2025, time.June, 1), models.DeliveryPending, 100, 0)

	// Input slice carries creation order: first, second, earlier.
	v := Derive([]models.Order{first, second, earlier}, Filter{})

	require.Len(t, v.Visible, 3)
	require.Equal(t, "earlier date", v.Visible[0].Client)
	require.Equal(t, "first created", v.Visible[1].Client)
	require.Equal(t, "second created", v.Visible[2].Client)
}

func TestDeriveIsIdempotent(t *testing.T) {
	orders := []models.Order{
		order("a", models.NewDate(2025, time.June, 1), models.DeliveryPending, 500, 100),
		order("b", models.NewDate(2025, time.June, 2), models.DeliveryDelivered, 800, 0),
	}
	f := Filter{NameQuery: "a", MonthBucket: "2025-06"}

	require.Equal(t, Derive(orders, f), Derive(orders, f))
}

func TestDueOn(t *testing.T) {
	day := models.NewDate(2025, time.June, 10)
	orders := []models.Order{
		order("a", day, models.DeliveryPending, 100, 0),
		order("b", models.NewDate(2025, time.June, 11), models.DeliveryPending, 100, 0),
		order("c", day, models.DeliveryDelivered, 100, 0),
	}

	due := DueOn(orders, day)
	require.Len(t, due, 2)
	require.Equal(t, "a", due[0].Client)
	require.Equal(t, "c", due[1].Client)

	require.Empty(t, DueOn(orders, models.NewDate(2030, time.January, 1)))
}

func TestDeliveryDays(t *testing.T) {
	day := models.NewDate(2025, time.June, 10)
	orders := []models.Order{
		order("a", day, models.DeliveryPending, 100, 0),
		order("b", day, models.DeliveryPending, 100, 0),
		order("c", models.NewDate(2025, time.June, 11), models.DeliveryPending, 100, 0),
	}

	days := DeliveryDays(orders)
	require.Equal(t, 2, days["2025-06-10"])
	require.Equal(t, 1, days["2025-06-11"])
	require.Len(t, days, 2)
}
