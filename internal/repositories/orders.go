package repositories

import (
	"context"

	"example.com/bakehouse/services/orders/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// OrderRepository provides access to order data. Deletes are soft: the
// service never hard-removes a record on its own.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists a new order. The store assigns the ID and every order
// starts out pending delivery.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.DeliveryStatus = models.DeliveryPending

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return errors.Wrap(err, "failed to create order")
	}
	return nil
}

// mutable names the columns an edit overwrites. ID, creation time and
// delivery status deliberately stay out: delivery state only moves through
// UpdateDeliveryStatus.
var mutable = []string{
	"client", "flavor", "delivery_date", "total_price",
	"deposit_amount", "payment_status", "notes", "photo_url",
}

// Update overwrites the mutable fields of an existing order, including
// zero-valued ones (edits are whole-record, not sparse patches).
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Select(mutable).
		Updates(order)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update order")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateDeliveryStatus moves an order between pending and delivered.
func (r *OrderRepository) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status models.DeliveryStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("delivery_status", status)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update delivery status")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft-deletes an order.
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete order")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetByID fetches a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to get order by ID")
	}
	return &order, nil
}

// List returns the complete order set in delivery order: ascending delivery
// date, creation order breaking ties.
func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Order("delivery_date asc, created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}
	return orders, nil
}
