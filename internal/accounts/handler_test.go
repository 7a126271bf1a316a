package accounts

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plateful/plateful/internal/domain"
)

type stubStore struct {
	getFn    func(ctx context.Context, id string) (*domain.User, error)
	deleteFn func(ctx context.Context, userID string) (*DeletionSummary, error)
}

func (s *stubStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubStore) Delete(ctx context.Context, userID string) (*DeletionSummary, error) {
	return s.deleteFn(ctx, userID)
}

func newTestHandler(t *testing.T, store Store) *Handler {
	t.Helper()
	h, err := NewHandler(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	return h
}

func newMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{id}", h.HandleGet)
	mux.HandleFunc("DELETE /users/{id}", h.HandleDelete)
	return mux
}

func TestHandler_HandleDelete(t *testing.T) {
	t.Run("returns the deletion summary", func(t *testing.T) {
		store := &stubStore{
			deleteFn: func(_ context.Context, userID string) (*DeletionSummary, error) {
				if userID != "user-5" {
					t.Errorf("expected user 'user-5', got %q", userID)
				}
				return &DeletionSummary{Orders: 2, OrderItems: 3, Reviews: 1}, nil
			},
		}

		req := httptest.NewRequest(http.MethodDelete, "/users/user-5", nil)
		rec := httptest.NewRecorder()

		newMux(newTestHandler(t, store)).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var summary DeletionSummary
		if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if summary.Orders != 2 || summary.OrderItems != 3 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("returns 404 for an unknown user", func(t *testing.T) {
		store := &stubStore{
			deleteFn: func(_ context.Context, _ string) (*DeletionSummary, error) {
				return nil, domain.ErrNotFound
			},
		}

		req := httptest.NewRequest(http.MethodDelete, "/users/nope", nil)
		rec := httptest.NewRecorder()

		newMux(newTestHandler(t, store)).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on a constraint violation", func(t *testing.T) {
		store := &stubStore{
			deleteFn: func(_ context.Context, _ string) (*DeletionSummary, error) {
				return nil, &domain.ConstraintError{Constraint: "orders_customer_id_fkey", Err: context.DeadlineExceeded}
			},
		}

		req := httptest.NewRequest(http.MethodDelete, "/users/user-5", nil)
		rec := httptest.NewRecorder()

		newMux(newTestHandler(t, store)).ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", rec.Code)
		}
	})

	t.Run("returns 500 on a transaction failure", func(t *testing.T) {
		store := &stubStore{
			deleteFn: func(_ context.Context, _ string) (*DeletionSummary, error) {
				return nil, context.DeadlineExceeded
			},
		}

		req := httptest.NewRequest(http.MethodDelete, "/users/user-5", nil)
		rec := httptest.NewRecorder()

		newMux(newTestHandler(t, store)).ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleGet(t *testing.T) {
	t.Run("returns the user", func(t *testing.T) {
		store := &stubStore{
			getFn: func(_ context.Context, id string) (*domain.User, error) {
				return &domain.User{ID: id, Name: "Ana", Email: "ana@example.com", Role: domain.UserRoleCustomer}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/users/user-1", nil)
		rec := httptest.NewRecorder()

		newMux(newTestHandler(t, store)).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var user domain.User
		if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if user.ID != "user-1" || user.Email != "ana@example.com" {
			t.Errorf("unexpected user: %+v", user)
		}
	})

	t.Run("returns 404 when absent", func(t *testing.T) {
		store := &stubStore{
			getFn: func(_ context.Context, _ string) (*domain.User, error) {
				return nil, domain.ErrNotFound
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/users/nope", nil)
		rec := httptest.NewRecorder()

		newMux(newTestHandler(t, store)).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}
