// Package validation holds the pure pre-submission checks an order must pass
// before any store call is issued.
package validation

import (
	"strings"

	"example.com/bakehouse/services/orders/internal/models"
)

// Error is a hard validation failure. It blocks the mutation locally and
// never reaches the store.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func fail(reason string) error {
	return &Error{Reason: reason}
}

// Validate runs the ordered checks on a candidate order, short-circuiting on
// the first hard failure. Warnings are advisory: the caller must get an
// explicit confirmation from the user before proceeding past them.
func Validate(o models.Order) (warnings []string, err error) {
	if strings.TrimSpace(o.Client) == "" {
		return nil, fail("client name is required")
	}
	if strings.TrimSpace(o.Flavor) == "" {
		return nil, fail("flavor is required")
	}
	if o.DeliveryDate.IsZero() {
		return nil, fail("delivery date is required")
	}
	if o.TotalPrice < 0 {
		return nil, fail("total price cannot be negative")
	}
	if o.DepositAmount < 0 {
		return nil, fail("deposit amount cannot be negative")
	}

	if o.DepositAmount > 0 && o.PaymentStatus == models.PaymentUnpaid {
		return nil, fail("deposit present but payment status is unpaid; upgrade the status")
	}
	if o.PaymentStatus == models.PaymentDeposit && o.DepositAmount <= 0 {
		return nil, fail("deposit_paid status requires a positive deposit amount")
	}
	if o.DepositAmount > o.TotalPrice {
		return nil, fail("deposit cannot exceed total price")
	}

	if o.PaymentStatus == models.PaymentPaidInFull && o.DepositAmount < o.TotalPrice {
		warnings = append(warnings, "order is marked paid in full but the recorded deposit is below the total price")
	}

	return warnings, nil
}
