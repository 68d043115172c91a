package handlers

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"example.com/bakehouse/services/orders/internal/models"
	"example.com/bakehouse/services/orders/internal/services"
	"example.com/bakehouse/services/orders/internal/tracing"
	"example.com/bakehouse/services/orders/internal/validation"
	"example.com/bakehouse/services/orders/internal/views"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// OrdersHandler handles order-related HTTP requests
type OrdersHandler struct {
	orderService *services.OrderService
	tracer       tracing.Tracer
}

// NewOrdersHandler creates a new orders handler
func NewOrdersHandler(orderService *services.OrderService, tracer tracing.Tracer) *OrdersHandler {
	return &OrdersHandler{
		orderService: orderService,
		tracer:       tracer,
	}
}

// OrderRequest is the payload for creating or editing an order. The legacy
// "pastel" key is accepted as an alias for flavor; old clients still send it.
type OrderRequest struct {
	Client        string  `json:"client"`
	Flavor        string  `json:"flavor"`
	Pastel        string  `json:"pastel"`
	DeliveryDate  string  `json:"delivery_date"`
	TotalPrice    float64 `json:"total_price"`
	DepositAmount float64 `json:"deposit_amount"`
	PaymentStatus string  `json:"payment_status"`
	Notes         string  `json:"notes"`
	PhotoURL      string  `json:"photo_url"`
	PhotoName     string  `json:"photo_name"`
	PhotoBase64   string  `json:"photo_base64"`
	Confirm       bool    `json:"confirm"`
}

// OrderResponse wraps a persisted order plus any advisory warnings that were
// acknowledged or appended along the way.
type OrderResponse struct {
	Order    *models.Order `json:"order"`
	Warnings []string      `json:"warnings,omitempty"`
}

// RegisterRoutes registers the order routes behind the allow-list middleware.
func (h *OrdersHandler) RegisterRoutes(router *gin.Engine, authn gin.HandlerFunc) {
	orders := router.Group("/orders", authn)
	orders.GET("/view", h.GetView)
	orders.GET("/calendar", h.GetCalendar)
	orders.GET("/search", h.Search)
	orders.POST("", h.CreateOrder)
	orders.POST("/delete/cancel", h.CancelDelete)
	orders.PUT("/:id", h.UpdateOrder)
	orders.POST("/:id/deliver", h.ConfirmDelivery)
	orders.POST("/:id/undo-delivery", h.UndoDelivery)
	orders.DELETE("/:id", h.DeleteOrder)
}

// GetView returns the derived view for the requested filter.
func (h *OrdersHandler) GetView(c *gin.Context) {
	showDelivered := false
	if raw := c.Query("delivered"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			showDelivered = v
		}
	}

	filter := views.Filter{
		NameQuery:     c.Query("name"),
		MonthBucket:   c.Query("month"),
		ShowDelivered: showDelivered,
	}

	view, err := h.orderService.View(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetCalendar returns the agenda for one day, defaulting to today.
func (h *OrdersHandler) GetCalendar(c *gin.Context) {
	day := models.DateOf(time.Now())
	if raw := c.Query("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as 2006-01-02"})
			return
		}
		day = parsed
	}

	calendar, err := h.orderService.Calendar(c.Request.Context(), day)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, calendar)
}

// CreateOrder creates a new order.
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-order")
	defer h.tracer.EndTransaction(txn)

	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	order, photo, err := h.buildOrder(req)
	if err != nil {
		h.respondError(c, err)
		h.tracer.RecordError(txn, err)
		return
	}

	h.tracer.AddAttribute(txn, "client", order.Client)
	h.tracer.AddAttribute(txn, "delivery_date", order.DeliveryDate.String())

	created, warnings, err := h.orderService.CreateOrder(c.Request.Context(), order, photo, req.Confirm)
	if err != nil {
		h.respondError(c, err)
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusCreated, OrderResponse{Order: created, Warnings: warnings})
}

// UpdateOrder overwrites an existing order.
func (h *OrdersHandler) UpdateOrder(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-update-order")
	defer h.tracer.EndTransaction(txn)

	id, ok := h.orderID(c)
	if !ok {
		return
	}

	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	order, photo, err := h.buildOrder(req)
	if err != nil {
		h.respondError(c, err)
		h.tracer.RecordError(txn, err)
		return
	}

	updated, warnings, err := h.orderService.UpdateOrder(c.Request.Context(), id, order, photo, req.Confirm)
	if err != nil {
		h.respondError(c, err)
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, OrderResponse{Order: updated, Warnings: warnings})
}

// ConfirmDelivery is one tap on the deliver button. The first tap arms, the
// second tap within the window commits.
func (h *OrdersHandler) ConfirmDelivery(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	committed, err := h.orderService.ConfirmDelivery(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if !committed {
		c.JSON(http.StatusOK, gin.H{"armed": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivered": true})
}

// UndoDelivery moves a delivered order back to pending.
func (h *OrdersHandler) UndoDelivery(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	if err := h.orderService.UndoDelivery(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"delivery_status": models.DeliveryPending})
}

// DeleteOrder arms deletion of an order; with confirm=1 it commits an armed
// deletion instead.
func (h *OrdersHandler) DeleteOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	if c.Query("confirm") != "1" {
		if err := h.orderService.RequestDelete(c.Request.Context(), id); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"armed": true})
		return
	}

	if err := h.orderService.ConfirmDelete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// CancelDelete drops any armed deletion.
func (h *OrdersHandler) CancelDelete(c *gin.Context) {
	h.orderService.CancelDelete()
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

// Search queries the delivered-order history.
func (h *OrdersHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	size := 25
	if raw := c.Query("size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			size = v
		}
	}

	results, err := h.orderService.Search(c.Request.Context(), query, size)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (h *OrdersHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrdersHandler) buildOrder(req OrderRequest) (models.Order, *services.PhotoAttachment, error) {
	flavor := req.Flavor
	if flavor == "" {
		flavor = req.Pastel
	}

	var deliveryDate models.Date
	if req.DeliveryDate != "" {
		parsed, err := models.ParseDate(req.DeliveryDate)
		if err != nil {
			return models.Order{}, nil, &validation.Error{Reason: "delivery date must be formatted as 2006-01-02"}
		}
		deliveryDate = parsed
	}

	status, err := models.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return models.Order{}, nil, &validation.Error{Reason: err.Error()}
	}

	order := models.Order{
		Client:        req.Client,
		Flavor:        flavor,
		DeliveryDate:  deliveryDate,
		TotalPrice:    req.TotalPrice,
		DepositAmount: req.DepositAmount,
		PaymentStatus: status,
		Notes:         req.Notes,
		PhotoURL:      req.PhotoURL,
	}

	var photo *services.PhotoAttachment
	if req.PhotoBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.PhotoBase64)
		if err != nil {
			return models.Order{}, nil, &validation.Error{Reason: "photo_base64 is not valid base64"}
		}
		name := req.PhotoName
		if name == "" {
			name = "order-photo"
		}
		photo = &services.PhotoAttachment{Name: name, Data: data}
	}

	return order, photo, nil
}

func (h *OrdersHandler) respondError(c *gin.Context, err error) {
	var confirmErr *services.ConfirmationRequiredError
	var verr *validation.Error

	switch {
	case errors.As(err, &confirmErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":            confirmErr.Error(),
			"warnings":         confirmErr.Warnings,
			"confirm_required": true,
		})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Reason})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, services.ErrDeleteNotArmed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSearchUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is temporarily unavailable, try again later"})
	default:
		log.Error().Err(err).Msg("Request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "a backend error occurred, please try again"})
	}
}
