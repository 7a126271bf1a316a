package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/plateful/plateful/internal/domain"
	"github.com/plateful/plateful/internal/messaging"
)

var meter = otel.Meter("orders/handler")

// Store is the slice of the repository the HTTP layer needs.
type Store interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	SetStatus(ctx context.Context, id string, status domain.OrderStatus) (customerID string, err error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
}

type Handler struct {
	store         Store
	created       *messaging.Producer
	statusChanged *messaging.Producer
	logger        *slog.Logger

	ordersCreated metric.Int64Counter
	statusUpdates metric.Int64Counter
}

func NewHandler(store Store, created, statusChanged *messaging.Producer, logger *slog.Logger) (*Handler, error) {
	ordersCreated, err := meter.Int64Counter("plateful.orders.created",
		metric.WithDescription("Number of orders placed."),
	)
	if err != nil {
		return nil, err
	}

	statusUpdates, err := meter.Int64Counter("plateful.orders.status_updates",
		metric.WithDescription("Number of order status updates applied."),
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:         store,
		created:       created,
		statusChanged: statusChanged,
		logger:        logger,
		ordersCreated: ordersCreated,
		statusUpdates: statusUpdates,
	}, nil
}

type createOrderRequest struct {
	CustomerID      string             `json:"customer_id"`
	RestaurantID    string             `json:"restaurant_id"`
	Items           []domain.OrderLine `json:"items"`
	TotalCents      int64              `json:"total_cents"`
	DeliveryAddress string             `json:"delivery_address"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.store.Create(r.Context(), CreateOrderInput{
		CustomerID:      req.CustomerID,
		RestaurantID:    req.RestaurantID,
		Items:           req.Items,
		TotalCents:      req.TotalCents,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		h.respondError(w, err, "failed to create order")
		return
	}

	h.ordersCreated.Add(r.Context(), 1)

	if h.created != nil {
		event := domain.OrderCreatedEvent{
			OrderID:      order.ID,
			CustomerID:   order.CustomerID,
			RestaurantID: order.RestaurantID,
			Items:        order.Items,
			TotalCents:   order.TotalCents,
			Timestamp:    order.CreatedAt,
		}
		if err := h.created.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order created", "order_id", order.ID, "customer_id", order.CustomerID, "total_cents", order.TotalCents)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "failed to get order")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		h.respondError(w, err, "invalid order status")
		return
	}

	customerID, err := h.store.SetStatus(r.Context(), id, status)
	if err != nil {
		h.respondError(w, err, "failed to update order status")
		return
	}

	h.statusUpdates.Add(r.Context(), 1)

	if h.statusChanged != nil {
		event := domain.OrderStatusChangedEvent{
			OrderID:    id,
			CustomerID: customerID,
			Status:     status,
			Timestamp:  time.Now().UTC(),
		}
		if err := h.statusChanged.Publish(r.Context(), id, event); err != nil {
			h.logger.Error("failed to publish status changed event", "error", err, "order_id", id)
		}
	}

	h.logger.Info("order status updated", "order_id", id, "status", status)
	h.writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(status)})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.List(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to list orders")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("id")
	if customerID == "" {
		h.writeError(w, http.StatusBadRequest, "missing customer id")
		return
	}

	orders, err := h.store.ListByCustomer(r.Context(), customerID)
	if err != nil {
		h.respondError(w, err, "failed to list customer orders")
		return
	}

	h.logger.Info("customer orders listed", "customer_id", customerID, "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

// respondError maps the domain error taxonomy onto HTTP status codes.
// Validation and not-found failures carry their reason; everything else is
// a generic server fault so transaction internals never leak.
func (h *Handler) respondError(w http.ResponseWriter, err error, logMsg string) {
	var verr *domain.ValidationError
	var cerr *domain.ConstraintError

	switch {
	case errors.As(err, &verr):
		h.writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.As(err, &cerr):
		h.writeError(w, http.StatusConflict, cerr.Error())
	default:
		h.logger.Error(logMsg, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
