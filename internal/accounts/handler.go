package accounts

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

var meter = otel.Meter("accounts/handler")

type Store interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, userID string) (*DeletionSummary, error)
}

type Handler struct {
	store   Store
	deleted *messaging.Producer
	logger  *slog.Logger

	accountsDeleted metric.Int64Counter
}

func NewHandler(store Store, deleted *messaging.Producer, logger *slog.Logger) (*Handler, error) {
	accountsDeleted, err := meter.Int64Counter("plateful.accounts.deleted",
		metric.WithDescription("Number of user accounts removed."),
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:           store,
		deleted:         deleted,
		logger:          logger,
		accountsDeleted: accountsDeleted,
	}, nil
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	user, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "failed to get user")
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	summary, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "failed to delete user")
		return
	}

	h.accountsDeleted.Add(r.Context(), 1)

	if h.deleted != nil {
		event := domain.UserDeletedEvent{UserID: id, Timestamp: time.Now().UTC()}
		if err := h.deleted.Publish(r.Context(), id, event); err != nil {
			h.logger.Error("failed to publish user deleted event", "error", err, "user_id", id)
		}
	}

	h.logger.Info("user deleted", "user_id", id,
		"orders", summary.Orders, "order_items", summary.OrderItems,
		"reviews", summary.Reviews, "contact_messages", summary.ContactMessages)
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, logMsg string) {
	var verr *domain.ValidationError
	var cerr *domain.ConstraintError

	switch {
	case errors.As(err, &verr):
		h.writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "user not found")
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
