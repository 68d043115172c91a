// Package views computes the filtered, partitioned and aggregated projection
// of the full order set for display. Everything here is a pure function of
// its inputs: the store owns the data, views only recompute.
package views

import (
	"sort"
	"strings"

	"example.com/bakehouse/services/orders/internal/models"
)

// Filter narrows the derived view.
type Filter struct {
	// NameQuery keeps orders whose client name contains the query,
	// case-insensitively. Empty matches everything.
	NameQuery string `json:"name_query"`
	// MonthBucket ("2006-01") scopes the delivered partition and the
	// monthly revenue aggregate. Pending orders are never month-filtered.
	MonthBucket string `json:"month_bucket"`
	// ShowDelivered selects the delivered partition for Visible instead of
	// the pending one.
	ShowDelivered bool `json:"show_delivered"`
}

// View is the derived projection of the order set under a filter.
type View struct {
	Pending             []models.Order `json:"pending"`
	Delivered           []models.Order `json:"delivered"`
	Visible             []models.Order `json:"visible"`
	MonthlyRevenue      float64        `json:"monthly_revenue"`
	OutstandingDeposits float64        `json:"outstanding_deposits"`
}

// Derive recomputes the view from the complete order set. It is idempotent
// and keeps no history: the caller re-runs it on every order-set or filter
// change.
func Derive(orders []models.Order, f Filter) View {
	v := View{
		Pending:   []models.Order{},
		Delivered: []models.Order{},
		Visible:   []models.Order{},
	}

	for _, o := range orders {
		if o.DeliveryStatus == models.DeliveryDelivered {
			v.Delivered = append(v.Delivered, o)
		} else {
			v.Pending = append(v.Pending, o)
		}
	}

	// Ascending by delivery date; ties keep the input (creation) order.
	sortByDeliveryDate(v.Pending)
	sortByDeliveryDate(v.Delivered)

	for _, o := range v.Delivered {
		if f.MonthBucket != "" && o.DeliveryDate.MonthBucket() == f.MonthBucket {
			v.MonthlyRevenue += o.TotalPrice
		}
	}
	for _, o := range v.Pending {
		v.OutstandingDeposits += o.DepositAmount
	}

	source := v.Pending
	if f.ShowDelivered {
		source = v.Delivered
	}
	query := strings.ToLower(strings.TrimSpace(f.NameQuery))
	for _, o := range source {
		if query != "" && !strings.Contains(strings.ToLower(o.Client), query) {
			continue
		}
		if f.ShowDelivered && f.MonthBucket != "" && o.DeliveryDate.MonthBucket() != f.MonthBucket {
			continue
		}
		v.Visible = append(v.Visible, o)
	}

	return v
}

func sortByDeliveryDate(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].DeliveryDate.Before(orders[j].DeliveryDate)
	})
}
