// Package accounts owns user rows and the cleanup of everything that hangs
// off them.
package accounts

import (
	"context"
	"database/sql"
	"fmt"

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

// DeletionSummary reports how many dependent rows went down with the user.
type DeletionSummary struct {
	Orders          int64 `json:"orders"`
	OrderItems      int64 `json:"order_items"`
	Reviews         int64 `json:"reviews"`
	ContactMessages int64 `json:"contact_messages"`
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user := &domain.User{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), role, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// Delete removes a user and every row that references the user directly or
// through the user's orders, inside one transaction. Children go first so
// nothing dangles if the engine enforces the foreign keys strictly; the
// final user delete reports not-found on zero affected rows, which also
// resolves two concurrent deletions of the same user into one success and
// one not-found.
func (r *Repository) Delete(ctx context.Context, userID string) (*DeletionSummary, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "user_id", Reason: "required"}
	}

	summary := &DeletionSummary{}

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		orderIDs, err := userOrderIDs(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("look up user orders: %w", err)
		}

		if len(orderIDs) > 0 {
			summary.OrderItems, err = execCount(ctx, tx, `
				DELETE FROM order_items WHERE order_id = ANY($1::uuid[])
			`, pq.Array(orderIDs))
			if err != nil {
				return fmt.Errorf("delete order items: %w", err)
			}

			summary.Reviews, err = execCount(ctx, tx, `
				DELETE FROM reviews WHERE order_id = ANY($1::uuid[]) OR user_id = $2
			`, pq.Array(orderIDs), userID)
			if err != nil {
				return fmt.Errorf("delete reviews: %w", err)
			}

			summary.Orders, err = execCount(ctx, tx, `
				DELETE FROM orders WHERE id = ANY($1::uuid[])
			`, pq.Array(orderIDs))
			if err != nil {
				return fmt.Errorf("delete orders: %w", err)
			}
		} else {
			summary.Reviews, err = execCount(ctx, tx, `
				DELETE FROM reviews WHERE user_id = $1
			`, userID)
			if err != nil {
				return fmt.Errorf("delete reviews: %w", err)
			}
		}

		summary.ContactMessages, err = execCount(ctx, tx, `
			DELETE FROM contact_messages WHERE user_id = $1
		`, userID)
		if err != nil {
			return fmt.Errorf("delete contact messages: %w", err)
		}

		deleted, err := execCount(ctx, tx, `
			DELETE FROM users WHERE id = $1
		`, userID)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if deleted == 0 {
			return domain.ErrNotFound
		}

		return nil
	})
	if err != nil {
		return nil, database.MapError(err)
	}

	return summary, nil
}

func userOrderIDs(ctx context.Context, tx *sql.Tx, userID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM orders WHERE customer_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
