package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// ParseOrderStatus maps a wire value onto the closed status set.
// "processing" is a historical alias some clients still send for
// "preparing"; matching is otherwise exact, so case variants are rejected.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch s {
	case "pending":
		return OrderStatusPending, nil
	case "preparing", "processing":
		return OrderStatusPreparing, nil
	case "out_for_delivery":
		return OrderStatusOutForDelivery, nil
	case "delivered":
		return OrderStatusDelivered, nil
	case "cancelled":
		return OrderStatusCancelled, nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
}

// OrderLine records the quantity and the unit price at the time the order
// was placed; later menu price changes never touch it.
type OrderLine struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name,omitempty"`
	Category   string `json:"category,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customer_id"`
	CustomerName    string      `json:"customer_name,omitempty"`
	CustomerEmail   string      `json:"customer_email,omitempty"`
	CustomerPhone   string      `json:"customer_phone,omitempty"`
	RestaurantID    string      `json:"restaurant_id"`
	RestaurantName  string      `json:"restaurant_name,omitempty"`
	Items           []OrderLine `json:"items"`
	TotalCents      int64       `json:"total_cents"`
	Status          OrderStatus `json:"status"`
	DeliveryAddress string      `json:"delivery_address"`
	CreatedAt       time.Time   `json:"created_at"`
}

// LineTotal is the sum of quantity x unit price over all lines.
func LineTotal(items []OrderLine) int64 {
	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.PriceCents
	}
	return total
}
