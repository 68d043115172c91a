package views

import (
	"example.com/bakehouse/services/orders/internal/models"
)

// DueOn returns the orders scheduled for a given day, in input order.
func DueOn(orders []models.Order, day models.Date) []models.Order {
	due := []models.Order{}
	for _, o := range orders {
		if o.DeliveryDate.Equal(day) {
			due = append(due, o)
		}
	}
	return due
}

// DeliveryDays maps each date that has at least one order to its order
// count. The calendar uses it to mark busy days.
func DeliveryDays(orders []models.Order) map[string]int {
	days := make(map[string]int)
	for _, o := range orders {
		if o.DeliveryDate.IsZero() {
			continue
		}
		days[o.DeliveryDate.String()]++
	}
	return days
}
