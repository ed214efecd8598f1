// Package storagetest provides a conformance suite every storefront store
// implementation runs against.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
)

// OpenFunc returns an empty store. The suite closes it.
type OpenFunc func(t *testing.T) storage.Store

// RunConformance exercises the storage contracts against open.
func RunConformance(t *testing.T, open OpenFunc) {
	t.Helper()

	cases := []struct {
		name string
		run  func(t *testing.T, store storage.Store)
	}{
		{"order round trip", testOrderRoundTrip},
		{"order duplicate id", testOrderDuplicate},
		{"order missing", testOrderMissing},
		{"order listing filters by user", testListOrders},
		{"order completion is one-way", testCompleteOrder},
		{"order completion transitions once under contention", testCompleteOrderConcurrent},
		{"custom request round trip", testCustomRequests},
		{"contact message round trip", testContactMessages},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := open(t)
			t.Cleanup(func() {
				if err := store.Close(); err != nil {
					t.Errorf("close store: %v", err)
				}
			})
			tc.run(t, store)
		})
	}
}

var base = time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC)

// Order returns a pending order fixture created offset minutes after the
// suite's base time.
func Order(id string, offset int) domain.Order {
	createdAt := base.Add(time.Duration(offset) * time.Minute)
	return domain.Order{
		ID:             id,
		TemplateID:     "developer-pro",
		Status:         domain.OrderStatusPending,
		Amount:         950,
		Currency:       "INR",
		CustomerEmail:  "ada@example.com",
		CustomerName:   "Ada Lovelace",
		GatewayOrderID: "order_" + id,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func testOrderRoundTrip(t *testing.T, store storage.Store) {
	ctx := context.Background()
	input := Order("ord-1", 0)
	input.UserID = "user-1"
	if err := store.CreateOrder(ctx, input); err != nil {
		t.Fatalf("create order: %v", err)
	}

	got, err := store.GetOrder(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.ID != input.ID || got.UserID != input.UserID || got.TemplateID != input.TemplateID {
		t.Fatalf("order ids = %+v, want %+v", got, input)
	}
	if got.Status != domain.OrderStatusPending {
		t.Fatalf("status = %q, want pending", got.Status)
	}
	if got.Amount != 950 || got.Currency != "INR" {
		t.Fatalf("amount = %d %s, want 950 INR", got.Amount, got.Currency)
	}
	if got.CustomerEmail != input.CustomerEmail || got.CustomerName != input.CustomerName {
		t.Fatalf("customer = %q <%s>", got.CustomerName, got.CustomerEmail)
	}
	if got.GatewayOrderID != "order_ord-1" {
		t.Fatalf("gateway order id = %q", got.GatewayOrderID)
	}
	if !got.CreatedAt.Equal(input.CreatedAt) || !got.UpdatedAt.Equal(input.UpdatedAt) {
		t.Fatalf("timestamps = %v/%v, want %v", got.CreatedAt, got.UpdatedAt, input.CreatedAt)
	}
	if got.CompletedAt != nil {
		t.Fatalf("completed at = %v, want nil", got.CompletedAt)
	}
}

func testOrderDuplicate(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.CreateOrder(ctx, Order("ord-dup", 0)); err != nil {
		t.Fatalf("create order: %v", err)
	}
	err := store.CreateOrder(ctx, Order("ord-dup", 1))
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func testOrderMissing(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if _, err := store.GetOrder(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing order error = %v, want %v", err, storage.ErrNotFound)
	}
	_, err := store.CompleteOrder(ctx, "nope", storage.PaymentConfirmation{PaymentID: "pay_1", CompletedAt: base})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("complete missing order error = %v, want %v", err, storage.ErrNotFound)
	}
}

func testListOrders(t *testing.T, store storage.Store) {
	ctx := context.Background()
	first := Order("ord-a", 0)
	first.UserID = "user-1"
	second := Order("ord-b", 1)
	second.UserID = "user-2"
	third := Order("ord-c", 2)
	third.UserID = "user-1"
	for _, order := range []domain.Order{first, second, third} {
		if err := store.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order %s: %v", order.ID, err)
		}
	}

	all, err := store.ListOrders(ctx, storage.OrderFilter{})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if got := orderIDs(all); !equalStrings(got, []string{"ord-a", "ord-b", "ord-c"}) {
		t.Fatalf("all orders = %v", got)
	}

	mine, err := store.ListOrders(ctx, storage.OrderFilter{UserID: "user-1"})
	if err != nil {
		t.Fatalf("list user orders: %v", err)
	}
	if got := orderIDs(mine); !equalStrings(got, []string{"ord-a", "ord-c"}) {
		t.Fatalf("user orders = %v", got)
	}
}

func testCompleteOrder(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.CreateOrder(ctx, Order("ord-pay", 0)); err != nil {
		t.Fatalf("create order: %v", err)
	}
	completedAt := base.Add(time.Hour)
	completed, err := store.CompleteOrder(ctx, "ord-pay", storage.PaymentConfirmation{
		PaymentID:   "pay_1",
		Signature:   "abc123",
		CompletedAt: completedAt,
	})
	if err != nil {
		t.Fatalf("complete order: %v", err)
	}
	if completed.Status != domain.OrderStatusCompleted {
		t.Fatalf("status = %q, want completed", completed.Status)
	}
	if completed.GatewayPaymentID != "pay_1" || completed.Signature != "abc123" {
		t.Fatalf("payment = %q/%q", completed.GatewayPaymentID, completed.Signature)
	}
	if completed.CompletedAt == nil || !completed.CompletedAt.Equal(completedAt) {
		t.Fatalf("completed at = %v, want %v", completed.CompletedAt, completedAt)
	}
	if !completed.UpdatedAt.Equal(completedAt) {
		t.Fatalf("updated at = %v, want %v", completed.UpdatedAt, completedAt)
	}

	_, err = store.CompleteOrder(ctx, "ord-pay", storage.PaymentConfirmation{PaymentID: "pay_2", CompletedAt: completedAt})
	if !errors.Is(err, storage.ErrOrderNotPending) {
		t.Fatalf("second completion error = %v, want %v", err, storage.ErrOrderNotPending)
	}
	stored, err := store.GetOrder(ctx, "ord-pay")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.GatewayPaymentID != "pay_1" {
		t.Fatalf("payment id = %q, want first payment kept", stored.GatewayPaymentID)
	}
}

func testCompleteOrderConcurrent(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.CreateOrder(ctx, Order("ord-race", 0)); err != nil {
		t.Fatalf("create order: %v", err)
	}

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CompleteOrder(ctx, "ord-race", storage.PaymentConfirmation{PaymentID: "pay_race", CompletedAt: base})
			switch {
			case err == nil:
				mu.Lock()
				successes++
				mu.Unlock()
			case errors.Is(err, storage.ErrOrderNotPending):
			default:
				t.Errorf("complete order: %v", err)
			}
		}()
	}
	wg.Wait()
	if successes != 1 {
		t.Fatalf("successful completions = %d, want 1", successes)
	}
}

func testCustomRequests(t *testing.T, store storage.Store) {
	ctx := context.Background()
	first := domain.CustomRequest{
		ID:          "req-1",
		Name:        "Grace Hopper",
		Email:       "grace@example.com",
		Phone:       "+1 555 0100",
		Budget:      "$500-$1000",
		Timeline:    "2 weeks",
		Description: "A portfolio for a compiler engineer with a blog.",
		Profession:  "Engineer",
		Status:      domain.CustomRequestStatusPending,
		CreatedAt:   base,
	}
	second := first
	second.ID = "req-2"
	second.Phone = ""
	second.CreatedAt = base.Add(time.Minute)
	for _, request := range []domain.CustomRequest{first, second} {
		if err := store.CreateCustomRequest(ctx, request); err != nil {
			t.Fatalf("create custom request %s: %v", request.ID, err)
		}
	}
	if err := store.CreateCustomRequest(ctx, first); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate custom request error = %v, want %v", err, storage.ErrAlreadyExists)
	}

	got, err := store.GetCustomRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("get custom request: %v", err)
	}
	if got.Name != first.Name || got.Phone != first.Phone || got.Profession != first.Profession {
		t.Fatalf("custom request = %+v, want %+v", got, first)
	}
	if got.Status != domain.CustomRequestStatusPending {
		t.Fatalf("status = %q, want pending", got.Status)
	}
	if !got.CreatedAt.Equal(base) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, base)
	}
	if _, err := store.GetCustomRequest(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing custom request error = %v, want %v", err, storage.ErrNotFound)
	}

	listed, err := store.ListCustomRequests(ctx)
	if err != nil {
		t.Fatalf("list custom requests: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "req-1" || listed[1].ID != "req-2" {
		t.Fatalf("custom requests = %+v", listed)
	}
	if listed[1].Phone != "" {
		t.Fatalf("phone = %q, want empty", listed[1].Phone)
	}
}

func testContactMessages(t *testing.T, store storage.Store) {
	ctx := context.Background()
	message := domain.ContactMessage{
		ID:        "msg-1",
		Name:      "Alan Turing",
		Email:     "alan@example.com",
		Subject:   "Booking a call",
		Message:   "I would like to book a consultation next week.",
		Status:    domain.ContactMessageStatusUnread,
		CreatedAt: base,
	}
	if err := store.CreateContactMessage(ctx, message); err != nil {
		t.Fatalf("create contact message: %v", err)
	}
	if err := store.CreateContactMessage(ctx, message); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate contact message error = %v, want %v", err, storage.ErrAlreadyExists)
	}

	listed, err := store.ListContactMessages(ctx)
	if err != nil {
		t.Fatalf("list contact messages: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("contact messages = %d, want 1", len(listed))
	}
	got := listed[0]
	if got.Subject != message.Subject || got.Message != message.Message || got.Status != domain.ContactMessageStatusUnread {
		t.Fatalf("contact message = %+v, want %+v", got, message)
	}
}

func orderIDs(orders []domain.Order) []string {
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
