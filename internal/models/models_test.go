package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-15")
	require.NoError(t, err)
	require.Equal(t, "2025-06-15", d.String())
	require.Equal(t, "2025-06", d.MonthBucket())

	_, err = ParseDate("15/06/2025")
	require.Error(t, err)

	_, err = ParseDate("")
	require.Error(t, err)
}

func TestDateOrdering(t *testing.T) {
	early := NewDate(2025, time.June, 1)
	late := NewDate(2025, time.July, 1)

	require.True(t, early.Before(late))
	require.False(t, late.Before(early))
	require.True(t, early.Equal(NewDate(2025, time.June, 1)))
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, time.June, 15)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"2025-06-15"`, string(b))

	var decoded Date
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.True(t, d.Equal(decoded))

	var zero Date
	require.NoError(t, json.Unmarshal([]byte(`""`), &zero))
	require.True(t, zero.IsZero())
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, time.June, 15, 13, 45, 0, 0, time.UTC)))
	require.Equal(t, "2025-06-15", d.String())

	require.NoError(t, d.Scan("2025-07-01"))
	require.Equal(t, "2025-07", d.MonthBucket())

	require.Error(t, d.Scan(42))
}

func TestParsePaymentStatus(t *testing.T) {
	status, err := ParsePaymentStatus("")
	require.NoError(t, err)
	require.Equal(t, PaymentUnpaid, status)

	status, err = ParsePaymentStatus("deposit_paid")
	require.NoError(t, err)
	require.Equal(t, PaymentDeposit, status)

	_, err = ParsePaymentStatus("partial")
	require.Error(t, err)
}
