package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/plateful/plateful/internal/database"
	"github.com/plateful/plateful/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateOrderInput is what the checkout flow hands over: unit prices are
// snapshots supplied by the caller, the store never recomputes them.
type CreateOrderInput struct {
	CustomerID      string
	RestaurantID    string
	Items           []domain.OrderLine
	TotalCents      int64
	DeliveryAddress string
}

// Validate rejects malformed input without any database round trip.
func (in *CreateOrderInput) Validate() error {
	if in.CustomerID == "" {
		return &domain.ValidationError{Field: "customer_id", Reason: "required"}
	}
	if in.RestaurantID == "" {
		return &domain.ValidationError{Field: "restaurant_id", Reason: "required"}
	}
	if len(in.Items) == 0 {
		return &domain.ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	for i, item := range in.Items {
		if item.MenuItemID == "" {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].menu_item_id", i), Reason: "required"}
		}
		if item.Quantity <= 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be positive"}
		}
		if item.PriceCents < 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].price_cents", i), Reason: "must not be negative"}
		}
	}
	if in.DeliveryAddress == "" {
		return &domain.ValidationError{Field: "delivery_address", Reason: "required"}
	}
	if in.TotalCents <= 0 {
		return &domain.ValidationError{Field: "total_cents", Reason: "must be positive"}
	}
	// Fees may push the total above the line sum, never below it.
	if lineTotal := domain.LineTotal(in.Items); in.TotalCents < lineTotal {
		return &domain.ValidationError{
			Field:  "total_cents",
			Reason: fmt.Sprintf("total %d is below the line item sum %d", in.TotalCents, lineTotal),
		}
	}
	return nil
}

// Create inserts the order header and all of its lines in one transaction.
// Either the order and every line exist afterwards, or none of them do.
func (r *Repository) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:              uuid.New().String(),
		CustomerID:      in.CustomerID,
		RestaurantID:    in.RestaurantID,
		Items:           in.Items,
		TotalCents:      in.TotalCents,
		Status:          domain.OrderStatusPending,
		DeliveryAddress: in.DeliveryAddress,
		CreatedAt:       time.Now().UTC(),
	}

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, customer_id, restaurant_id, status, total_cents, delivery_address, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		`, order.ID, order.CustomerID, order.RestaurantID, order.Status, order.TotalCents, order.DeliveryAddress, order.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range order.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, menu_item_id, quantity, price_cents)
				VALUES ($1, $2, $3, $4, $5)
			`, uuid.New().String(), order.ID, item.MenuItemID, item.Quantity, item.PriceCents)
			if err != nil {
				return fmt.Errorf("insert order item %s: %w", item.MenuItemID, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, database.MapError(err)
	}

	return order, nil
}

// SetStatus performs the single-row status update and reports the customer
// the order belongs to, so callers can notify them. The status value must
// already be a member of the closed set; no matching row means the order
// does not exist.
func (r *Repository) SetStatus(ctx context.Context, id string, status domain.OrderStatus) (string, error) {
	var customerID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING customer_id
	`, status, id).Scan(&customerID)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return customerID.String, nil
}

// GetByID returns one order with its lines, enriched with customer and
// restaurant reference data.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	orders, err := r.list(ctx, `WHERE o.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrNotFound
	}
	return &orders[0], nil
}

// List returns every order, newest first, each with its lines attached.
func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, "")
}

// ListByCustomer returns the given customer's orders, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.list(ctx, `WHERE o.customer_id = $1`, customerID)
}

// flatLine is one row of the batched lines query before grouping.
type flatLine struct {
	OrderID string
	Line    domain.OrderLine
}

// groupLines groups the flat result set of the lines query by order id.
func groupLines(lines []flatLine) map[string][]domain.OrderLine {
	grouped := make(map[string][]domain.OrderLine, len(lines))
	for _, l := range lines {
		grouped[l.OrderID] = append(grouped[l.OrderID], l.Line)
	}
	return grouped
}

func (r *Repository) list(ctx context.Context, where string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.customer_id, u.name, u.email, u.phone,
		       o.restaurant_id, res.name,
		       o.status, o.total_cents, o.delivery_address, o.created_at
		FROM orders o
		LEFT JOIN users u ON u.id = o.customer_id
		LEFT JOIN restaurants res ON res.id = o.restaurant_id
		`+where+`
		ORDER BY o.created_at DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var orders []domain.Order
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		var customerID, customerName, customerEmail, customerPhone sql.NullString
		var restaurantID, restaurantName sql.NullString
		err := rows.Scan(&order.ID, &customerID, &customerName, &customerEmail, &customerPhone,
			&restaurantID, &restaurantName,
			&order.Status, &order.TotalCents, &order.DeliveryAddress, &order.CreatedAt)
		if err != nil {
			return nil, err
		}
		order.CustomerID = customerID.String
		order.CustomerName = customerName.String
		order.CustomerEmail = customerEmail.String
		order.CustomerPhone = customerPhone.String
		order.RestaurantID = restaurantID.String
		order.RestaurantName = restaurantName.String
		order.Items = []domain.OrderLine{}
		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	lines, err := r.fetchLines(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	grouped := groupLines(lines)
	for i := range orders {
		if items, ok := grouped[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}

	return orders, nil
}

func (r *Repository) fetchLines(ctx context.Context, orderIDs []string) ([]flatLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.menu_item_id, m.name, m.category, m.image_url,
		       oi.quantity, oi.price_cents
		FROM order_items oi
		LEFT JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE oi.order_id = ANY($1::uuid[])
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []flatLine
	for rows.Next() {
		var l flatLine
		var name, category, imageURL sql.NullString
		if err := rows.Scan(&l.OrderID, &l.Line.MenuItemID, &name, &category, &imageURL,
			&l.Line.Quantity, &l.Line.PriceCents); err != nil {
			return nil, err
		}
		l.Line.Name = name.String
		l.Line.Category = category.String
		l.Line.ImageURL = imageURL.String
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
