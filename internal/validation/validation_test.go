package validation

import (
	"testing"
	"time"

	"example.com/bakehouse/services/orders/internal/models"

	"github.com/stretchr/testify/require"
)

func validOrder() models.Order {
	return models.Order{
		Client:        "Ximena Zapata",
		Flavor:        "Chocolate con fresas",
		DeliveryDate:  models.NewDate(2025, time.June, 15),
		TotalPrice:    500,
		DepositAmount: 100,
		PaymentStatus: models.PaymentDeposit,
	}
}

func TestValidateAcceptsWellFormedOrder(t *testing.T) {
	warnings, err := Validate(validOrder())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsDepositWhileUnpaid(t *testing.T) {
	o := validOrder()
	o.TotalPrice = 500
	o.DepositAmount = 100
	o.PaymentStatus = models.PaymentUnpaid

	_, err := Validate(o)
	require.Error(t, err)
	require.IsType(t, &Error{}, err)
	require.Contains(t, err.Error(), "unpaid")
}

func TestValidateRejectsDepositPaidWithoutDeposit(t *testing.T) {
	o := validOrder()
	o.DepositAmount = 0
	o.PaymentStatus = models.PaymentDeposit

	_, err := Validate(o)
	require.Error(t, err)
	require.Contains(t, err.Error(), "positive deposit")
}

func TestValidateRejectsDepositAboveTotal(t *testing.T) {
	o := validOrder()
	o.TotalPrice = 100
	o.DepositAmount = 150

	_, err := Validate(o)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceed total")
}

func TestValidateCheckOrderShortCircuits(t *testing.T) {
	// Both the unpaid-with-deposit and deposit-above-total rules are broken;
	// the first check in the sequence wins.
	o := validOrder()
	o.TotalPrice = 100
	o.DepositAmount = 150
	o.PaymentStatus = models.PaymentUnpaid

	_, err := Validate(o)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unpaid")
}

func TestValidatePaidInFullBelowTotalIsAdvisory(t *testing.T) {
	o := validOrder()
	o.TotalPrice = 500
	o.DepositAmount = 200
	o.PaymentStatus = models.PaymentPaidInFull

	warnings, err := Validate(o)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
}

func TestValidateRequiredFields(t *testing.T) {
	o := validOrder()
	o.Client = "  "
	_, err := Validate(o)
	require.Error(t, err)

	o = validOrder()
	o.Flavor = ""
	_, err = Validate(o)
	require.Error(t, err)

	o = validOrder()
	o.DeliveryDate = models.Date{}
	_, err = Validate(o)
	require.Error(t, err)
}

func TestValidateRejectsNegativeAmounts(t *testing.T) {
	o := validOrder()
	o.TotalPrice = -1
	_, err := Validate(o)
	require.Error(t, err)

	o = validOrder()
	o.DepositAmount = -1
	_, err = Validate(o)
	require.Error(t, err)
}
