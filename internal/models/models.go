package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PaymentStatus tracks how much of an order has been paid for.
type PaymentStatus string

const (
	PaymentUnpaid     PaymentStatus = "unpaid"
	PaymentDeposit    PaymentStatus = "deposit_paid"
	PaymentPaidInFull PaymentStatus = "paid_in_full"
)

// ParsePaymentStatus maps a wire value onto a PaymentStatus. An empty value
// means the order has not been paid for yet.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case "":
		return PaymentUnpaid, nil
	case PaymentUnpaid, PaymentDeposit, PaymentPaidInFull:
		return PaymentStatus(s), nil
	default:
		return "", errors.Errorf("unknown payment status %q", s)
	}
}

// DeliveryStatus tracks whether an order has been handed to the client.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// Order is one bakery commission record.
type Order struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Client         string         `gorm:"not null" json:"client"`
	Flavor         string         `gorm:"not null" json:"flavor"`
	DeliveryDate   Date           `gorm:"type:date;not null;index" json:"delivery_date"`
	TotalPrice     float64        `gorm:"type:decimal(12,2);not null;default:0" json:"total_price"`
	DepositAmount  float64        `gorm:"type:decimal(12,2);not null;default:0" json:"deposit_amount"`
	PaymentStatus  PaymentStatus  `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	Notes          string         `gorm:"type:text" json:"notes,omitempty"`
	PhotoURL       string         `json:"photo_url,omitempty"`
	DeliveryStatus DeliveryStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"delivery_status"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Order{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}
	return nil
}
