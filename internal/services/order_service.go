package services

import (
	"context"
	"time"

	"example.com/bakehouse/services/orders/internal/cache"
	"example.com/bakehouse/services/orders/internal/confirm"
	"example.com/bakehouse/services/orders/internal/messaging"
	"example.com/bakehouse/services/orders/internal/metrics"
	"example.com/bakehouse/services/orders/internal/models"
	"example.com/bakehouse/services/orders/internal/tracing"
	"example.com/bakehouse/services/orders/internal/uploader"
	"example.com/bakehouse/services/orders/internal/validation"
	"example.com/bakehouse/services/orders/internal/views"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// OrderStore is the persistence collaborator. The repository implements it
// against Postgres; tests mock it.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status models.DeliveryStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
}

// OrderSearcher keeps the delivered history searchable.
type OrderSearcher interface {
	IndexOrder(ctx context.Context, order *models.Order) error
	RemoveOrder(ctx context.Context, id string) error
	SearchOrders(ctx context.Context, query string, size int) ([]map[string]interface{}, error)
}

// Notifier pokes the live order feed after a local mutation.
type Notifier interface {
	Notify()
}

// ViewCache shares the latest derived snapshot between processes. Redis
// implements it in production.
type ViewCache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// ConfirmationRequiredError signals advisory validation warnings the user
// has not acknowledged yet. The mutation is not performed.
type ConfirmationRequiredError struct {
	Warnings []string
}

func (e *ConfirmationRequiredError) Error() string {
	return "order has validation warnings that require confirmation"
}

// ErrDeleteNotArmed is returned when a delete is confirmed without having
// been requested first.
var ErrDeleteNotArmed = errors.New("delete confirmation is not armed for this order")

// ErrSearchUnavailable is returned when no search backend is configured.
var ErrSearchUnavailable = errors.New("order search is unavailable")

// PhotoAttachment is an optional reference photo submitted with an order.
type PhotoAttachment struct {
	Name string
	Data []byte
}

// CalendarDay is the agenda projection for one day.
type CalendarDay struct {
	Date models.Date    `json:"date"`
	Due  []models.Order `json:"due"`
	Days map[string]int `json:"days"`
}

// OrderService handles the order lifecycle: validation-gated mutations, the
// two-tap delivery and delete confirmations, derived views and the search
// index plumbing.
type OrderService struct {
	store      OrderStore
	publisher  messaging.EventPublisher
	uploads    uploader.Client
	searcher   OrderSearcher
	cache      ViewCache
	metrics    *metrics.Metrics
	tracer     tracing.Tracer
	feed       Notifier
	deliveries *confirm.DeliveryConfirmer
	deletions  *confirm.DeleteConfirmer
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	publisher messaging.EventPublisher,
	uploads uploader.Client,
	searcher OrderSearcher,
	viewCache ViewCache,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
	feed Notifier,
	armWindow time.Duration,
) *OrderService {
	return &OrderService{
		store:      store,
		publisher:  publisher,
		uploads:    uploads,
		searcher:   searcher,
		cache:      viewCache,
		metrics:    metricsCollector,
		tracer:     tracer,
		feed:       feed,
		deliveries: confirm.NewDeliveryConfirmer(armWindow),
		deletions:  confirm.NewDeleteConfirmer(),
	}
}

// CreateOrder validates a candidate, optionally uploads its reference photo
// and persists it. Advisory warnings block the create until the caller
// acknowledges them; a failed photo upload does not block it at all.
func (s *OrderService) CreateOrder(ctx context.Context, order models.Order, photo *PhotoAttachment, acknowledged bool) (*models.Order, []string, error) {
	txn := s.startTransaction("create-order")
	defer s.endTransaction(txn)

	warnings, err := validation.Validate(order)
	if err != nil {
		s.recordError("order_validation", txn, err)
		return nil, nil, err
	}
	if len(warnings) > 0 && !acknowledged {
		return nil, warnings, &ConfirmationRequiredError{Warnings: warnings}
	}

	warnings = append(warnings, s.attachPhoto(ctx, &order, photo)...)

	if err := s.store.Create(ctx, &order); err != nil {
		s.recordError("order_create", txn, err)
		return nil, warnings, errors.Wrap(err, "failed to create order")
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("client", order.Client).
		Str("delivery_date", order.DeliveryDate.String()).
		Msg("Order created")

	s.changed(ctx, messaging.EventOrderCreated, order.ID, &order)
	return &order, warnings, nil
}

// UpdateOrder overwrites every mutable field of an existing order after the
// same validation gate as creation. Without a new photo the stored photo URL
// is kept.
func (s *OrderService) UpdateOrder(ctx context.Context, id uuid.UUID, order models.Order, photo *PhotoAttachment, acknowledged bool) (*models.Order, []string, error) {
	txn := s.startTransaction("update-order")
	defer s.endTransaction(txn)

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	order.ID = id
	if photo == nil && order.PhotoURL == "" {
		order.PhotoURL = existing.PhotoURL
	}

	warnings, err := validation.Validate(order)
	if err != nil {
		s.recordError("order_validation", txn, err)
		return nil, nil, err
	}
	if len(warnings) > 0 && !acknowledged {
		return nil, warnings, &ConfirmationRequiredError{Warnings: warnings}
	}

	warnings = append(warnings, s.attachPhoto(ctx, &order, photo)...)

	if err := s.store.Update(ctx, &order); err != nil {
		s.recordError("order_update", txn, err)
		return nil, warnings, err
	}

	order.DeliveryStatus = existing.DeliveryStatus
	order.CreatedAt = existing.CreatedAt

	s.changed(ctx, messaging.EventOrderUpdated, id, &order)
	return &order, warnings, nil
}

// ConfirmDelivery registers one tap on the deliver button. The first tap
// arms the order and changes nothing; the second tap within the arm window
// commits the pending->delivered transition and issues the store update.
func (s *OrderService) ConfirmDelivery(ctx context.Context, id uuid.UUID) (bool, error) {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	if !s.deliveries.Confirm(id) {
		return false, nil
	}

	if err := s.store.UpdateDeliveryStatus(ctx, id, models.DeliveryDelivered); err != nil {
		s.recordError("order_deliver", nil, err)
		return false, err
	}

	order.DeliveryStatus = models.DeliveryDelivered
	log.Info().Str("order_id", id.String()).Msg("Order marked delivered")
	s.changed(ctx, messaging.EventOrderDelivered, id, order)
	return true, nil
}

// UndoDelivery moves a delivered order back to pending. It is deliberately
// a single unconfirmed step.
func (s *OrderService) UndoDelivery(ctx context.Context, id uuid.UUID) error {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.UpdateDeliveryStatus(ctx, id, models.DeliveryPending); err != nil {
		s.recordError("order_undo", nil, err)
		return err
	}

	order.DeliveryStatus = models.DeliveryPending
	s.changed(ctx, messaging.EventOrderReverted, id, order)
	return nil
}

// RequestDelete arms deletion of an order. The intent holds until it is
// confirmed or explicitly cancelled.
func (s *OrderService) RequestDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}
	s.deletions.Request(id)
	return nil
}

// ConfirmDelete performs a previously armed deletion.
func (s *OrderService) ConfirmDelete(ctx context.Context, id uuid.UUID) error {
	if !s.deletions.Confirm(id) {
		return ErrDeleteNotArmed
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.recordError("order_delete", nil, err)
		return err
	}

	log.Info().Str("order_id", id.String()).Msg("Order deleted")
	s.changed(ctx, messaging.EventOrderDeleted, id, nil)
	return nil
}

// CancelDelete drops any armed deletion.
func (s *OrderService) CancelDelete() {
	s.deletions.Cancel()
}

// ArmedDelete returns the order currently pending deletion, if any.
func (s *OrderService) ArmedDelete() (uuid.UUID, bool) {
	return s.deletions.Armed()
}

// View recomputes the derived view from the complete order set.
func (s *OrderService) View(ctx context.Context, f views.Filter) (views.View, error) {
	txn := s.startTransaction("derive-view")
	defer s.endTransaction(txn)

	orders, err := s.store.List(ctx)
	if err != nil {
		s.recordError("order_list", txn, err)
		// The unfiltered view can be served from the last shared snapshot
		// while the store is unreachable. Filtered views cannot: the
		// snapshot was derived without their filter.
		if f == (views.Filter{}) && s.cache != nil {
			var cached views.View
			if cerr := s.cache.Get(ctx, cache.ViewSnapshotKey(), &cached); cerr == nil {
				log.Warn().Err(err).Msg("Order store unavailable, serving cached view snapshot")
				return cached, nil
			}
		}
		return views.View{}, err
	}

	v := views.Derive(orders, f)

	if s.metrics != nil {
		s.metrics.SetGauge("orders_pending", int64(len(v.Pending)))
		s.metrics.SetGauge("orders_delivered", int64(len(v.Delivered)))
	}
	return v, nil
}

// Calendar returns the agenda for one day plus the per-day order counts the
// calendar uses for its markers.
func (s *OrderService) Calendar(ctx context.Context, day models.Date) (CalendarDay, error) {
	orders, err := s.store.List(ctx)
	if err != nil {
		return CalendarDay{}, err
	}

	return CalendarDay{
		Date: day,
		Due:  views.DueOn(orders, day),
		Days: views.DeliveryDays(orders),
	}, nil
}

// Search runs a free-text query over the indexed order history.
func (s *OrderService) Search(ctx context.Context, query string, size int) ([]map[string]interface{}, error) {
	if s.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	return s.searcher.SearchOrders(ctx, query, size)
}

// HandleOrderEvent processes one order lifecycle event off the queue,
// keeping the search index in step with the store.
func (s *OrderService) HandleOrderEvent(ctx context.Context, event messaging.OrderEvent) error {
	if s.searcher == nil {
		return nil
	}

	switch event.Type {
	case messaging.EventOrderDeleted:
		return s.searcher.RemoveOrder(ctx, event.OrderID.String())
	default:
		if event.Order == nil {
			return nil
		}
		return s.searcher.IndexOrder(ctx, event.Order)
	}
}

// Reconcile re-derives the snapshot view and re-indexes the order set from
// the store. The worker runs it periodically to catch anything a lost event
// missed.
func (s *OrderService) Reconcile(ctx context.Context) error {
	orders, err := s.store.List(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SetHealth("order_store", false)
		}
		return errors.Wrap(err, "failed to load order set for reconciliation")
	}
	if s.metrics != nil {
		s.metrics.SetHealth("order_store", true)
	}

	s.cacheSnapshot(ctx, orders)

	if s.searcher == nil {
		return nil
	}
	for i := range orders {
		if err := s.searcher.IndexOrder(ctx, &orders[i]); err != nil {
			log.Warn().Err(err).
				Str("order_id", orders[i].ID.String()).
				Msg("Failed to re-index order during reconciliation")
		}
	}
	return nil
}

// RefreshSnapshot is the live-feed subscriber: it receives every full order
// set and refreshes the cached unfiltered view.
func (s *OrderService) RefreshSnapshot(orders []models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.cacheSnapshot(ctx, orders)
}

func (s *OrderService) cacheSnapshot(ctx context.Context, orders []models.Order) {
	if s.cache == nil {
		return
	}

	v := views.Derive(orders, views.Filter{})
	if err := s.cache.Set(ctx, cache.ViewSnapshotKey(), v, time.Hour); err != nil {
		log.Debug().Err(err).Msg("Failed to cache view snapshot")
	}

	bucket := models.DateOf(time.Now()).MonthBucket()
	monthly := views.Derive(orders, views.Filter{MonthBucket: bucket})
	if err := s.cache.Set(ctx, cache.MonthlyRevenueKey(bucket), monthly.MonthlyRevenue, time.Hour); err != nil {
		log.Debug().Err(err).Msg("Failed to cache monthly revenue")
	}

	if s.metrics != nil {
		s.metrics.SetGauge("orders_pending", int64(len(v.Pending)))
		s.metrics.SetGauge("orders_delivered", int64(len(v.Delivered)))
	}
}

// attachPhoto uploads the reference photo when one is attached. Failure
// degrades to a warning; the order is saved without the photo.
func (s *OrderService) attachPhoto(ctx context.Context, order *models.Order, photo *PhotoAttachment) []string {
	if photo == nil || s.uploads == nil {
		return nil
	}

	url, err := s.uploads.Upload(ctx, photo.Name, photo.Data)
	if err != nil {
		log.Warn().Err(err).Str("client", order.Client).Msg("Photo upload failed, saving order without photo")
		if s.metrics != nil {
			s.metrics.RecordError("photo_upload")
		}
		return []string{"photo upload failed; the order was saved without it"}
	}

	if s.metrics != nil {
		s.metrics.RecordSuccess("photo_upload")
	}
	order.PhotoURL = url
	return nil
}

// changed fans a committed store mutation out: poke the live feed, publish
// the lifecycle event, bump counters. All of it is best effort; the store
// write has already succeeded.
func (s *OrderService) changed(ctx context.Context, eventType string, id uuid.UUID, order *models.Order) {
	if s.feed != nil {
		s.feed.Notify()
	}

	if s.publisher != nil {
		event := messaging.OrderEvent{
			Type:    eventType,
			OrderID: id,
			Order:   order,
			At:      time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("type", eventType).Msg("Failed to publish order event")
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementCounter("order_events_" + eventType)
	}
}

func (s *OrderService) startTransaction(name string) *newrelic.Transaction {
	if s.tracer == nil {
		return nil
	}
	return s.tracer.StartTransaction(name)
}

func (s *OrderService) endTransaction(txn *newrelic.Transaction) {
	if s.tracer != nil {
		s.tracer.EndTransaction(txn)
	}
}

func (s *OrderService) recordError(name string, txn *newrelic.Transaction, err error) {
	if s.metrics != nil {
		s.metrics.RecordError(name)
	}
	if s.tracer != nil && txn != nil {
		s.tracer.RecordError(txn, err)
	}
}
