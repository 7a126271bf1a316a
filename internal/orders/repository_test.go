package orders

import (
	"errors"
	"testing"

	"github.com/plateful/plateful/internal/domain"
)

func validInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerID:   "cust-1",
		RestaurantID: "rest-1",
		Items: []domain.OrderLine{
			{MenuItemID: "item-1", Quantity: 2, PriceCents: 1299},
		},
		TotalCents:      2598,
		DeliveryAddress: "123 Main St",
	}
}

func TestCreateOrderInput_Validate(t *testing.T) {
	t.Run("accepts a complete input", func(t *testing.T) {
		in := validInput()
		if err := in.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("accepts a total above the line sum", func(t *testing.T) {
		in := validInput()
		in.TotalCents = 2598 + 499 // delivery fee
		if err := in.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*CreateOrderInput)
		field  string
	}{
		{"missing customer", func(in *CreateOrderInput) { in.CustomerID = "" }, "customer_id"},
		{"missing restaurant", func(in *CreateOrderInput) { in.RestaurantID = "" }, "restaurant_id"},
		{"empty items", func(in *CreateOrderInput) { in.Items = nil }, "items"},
		{"missing menu item id", func(in *CreateOrderInput) { in.Items[0].MenuItemID = "" }, "items[0].menu_item_id"},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = -1 }, "items[0].quantity"},
		{"negative price", func(in *CreateOrderInput) { in.Items[0].PriceCents = -1 }, "items[0].price_cents"},
		{"missing address", func(in *CreateOrderInput) { in.DeliveryAddress = "" }, "delivery_address"},
		{"zero total", func(in *CreateOrderInput) { in.TotalCents = 0 }, "total_cents"},
		{"negative total", func(in *CreateOrderInput) { in.TotalCents = -5 }, "total_cents"},
		{"total below line sum", func(in *CreateOrderInput) { in.TotalCents = 100 }, "total_cents"},
	}

	for _, tc := range cases {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			err := in.Validate()
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, verr.Field)
			}
		})
	}
}

func TestGroupLines(t *testing.T) {
	t.Run("groups by order id preserving row order", func(t *testing.T) {
		lines := []flatLine{
			{OrderID: "o1", Line: domain.OrderLine{MenuItemID: "a", Quantity: 1, PriceCents: 100}},
			{OrderID: "o2", Line: domain.OrderLine{MenuItemID: "b", Quantity: 2, PriceCents: 200}},
			{OrderID: "o1", Line: domain.OrderLine{MenuItemID: "c", Quantity: 3, PriceCents: 300}},
		}

		grouped := groupLines(lines)

		if len(grouped) != 2 {
			t.Fatalf("expected 2 groups, got %d", len(grouped))
		}
		if len(grouped["o1"]) != 2 {
			t.Fatalf("expected 2 lines for o1, got %d", len(grouped["o1"]))
		}
		if grouped["o1"][0].MenuItemID != "a" || grouped["o1"][1].MenuItemID != "c" {
			t.Errorf("o1 lines out of order: %+v", grouped["o1"])
		}
		if len(grouped["o2"]) != 1 {
			t.Fatalf("expected 1 line for o2, got %d", len(grouped["o2"]))
		}
	})

	t.Run("empty input yields empty map", func(t *testing.T) {
		if grouped := groupLines(nil); len(grouped) != 0 {
			t.Errorf("expected empty map, got %v", grouped)
		}
	})
}
