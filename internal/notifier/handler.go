// Package notifier turns order lifecycle events into customer emails.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/plateful/plateful/internal/domain"
)

type Handler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

// HandleOrderCreated sends the order confirmation email.
func (h *Handler) HandleOrderCreated(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID, "customer_id", event.CustomerID)

	email := emailRequest{
		To:      event.CustomerID,
		Subject: "Your order has been placed",
		Body: fmt.Sprintf("We received your order %s with %d items, %d.%02d total. The restaurant is on it.",
			event.OrderID, len(event.Items), event.TotalCents/100, event.TotalCents%100),
	}
	if err := h.sendEmail(ctx, email); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("confirmation email sent", "order_id", event.OrderID)
	return nil
}

// HandleStatusChanged sends a progress update for every status the order
// moves through.
func (h *Handler) HandleStatusChanged(ctx context.Context, payload []byte) error {
	var event domain.OrderStatusChangedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal status changed event: %w", err)
	}

	email := emailRequest{
		To:      event.CustomerID,
		Subject: "Order update",
		Body:    statusMessage(event),
	}
	if err := h.sendEmail(ctx, email); err != nil {
		return fmt.Errorf("send status email: %w", err)
	}

	h.logger.Info("status email sent", "order_id", event.OrderID, "status", event.Status)
	return nil
}

func statusMessage(event domain.OrderStatusChangedEvent) string {
	switch event.Status {
	case domain.OrderStatusPreparing:
		return fmt.Sprintf("The kitchen started preparing order %s.", event.OrderID)
	case domain.OrderStatusOutForDelivery:
		return fmt.Sprintf("Order %s is out for delivery.", event.OrderID)
	case domain.OrderStatusDelivered:
		return fmt.Sprintf("Order %s was delivered. Enjoy your meal!", event.OrderID)
	case domain.OrderStatusCancelled:
		return fmt.Sprintf("Order %s was cancelled.", event.OrderID)
	}
	return fmt.Sprintf("Order %s is now %s.", event.OrderID, event.Status)
}

type emailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h *Handler) sendEmail(ctx context.Context, email emailRequest) error {
	data, err := json.Marshal(email)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
