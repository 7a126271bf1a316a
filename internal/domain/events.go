package domain

import "time"

type OrderCreatedEvent struct {
	OrderID      string      `json:"order_id"`
	CustomerID   string      `json:"customer_id"`
	RestaurantID string      `json:"restaurant_id"`
	Items        []OrderLine `json:"items"`
	TotalCents   int64       `json:"total_cents"`
	Timestamp    time.Time   `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	OrderID    string      `json:"order_id"`
	CustomerID string      `json:"customer_id"`
	Status     OrderStatus `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
}

type UserDeletedEvent struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}
