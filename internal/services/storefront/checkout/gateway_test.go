package checkout

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRazorpayOrders struct {
	data  map[string]interface{}
	body  map[string]interface{}
	err   error
	delay time.Duration
}

func (f *fakeRazorpayOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.data = data
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.body, f.err
}

func TestRazorpayGatewayCreateOrder(t *testing.T) {
	t.Parallel()

	orders := &fakeRazorpayOrders{body: map[string]interface{}{"id": "order_Abc123", "status": "created"}}
	gateway := &RazorpayGateway{keyID: "rzp_test_key", orders: orders}

	order, err := gateway.CreateOrder(context.Background(), GatewayOrderRequest{AmountMinor: 95000, Currency: "INR", Receipt: "ord-1"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "order_Abc123" {
		t.Fatalf("order id = %q", order.ID)
	}
	if orders.data["amount"] != int64(95000) || orders.data["currency"] != "INR" || orders.data["receipt"] != "ord-1" {
		t.Fatalf("request = %v", orders.data)
	}
	if gateway.KeyID() != "rzp_test_key" {
		t.Fatalf("key id = %q", gateway.KeyID())
	}
}

func TestRazorpayGatewayErrors(t *testing.T) {
	t.Parallel()

	gateway := &RazorpayGateway{orders: &fakeRazorpayOrders{err: errors.New("Authentication failed")}}
	if _, err := gateway.CreateOrder(context.Background(), GatewayOrderRequest{}); err == nil {
		t.Fatal("expected sdk error")
	}
	gateway = &RazorpayGateway{orders: &fakeRazorpayOrders{body: map[string]interface{}{}}}
	if _, err := gateway.CreateOrder(context.Background(), GatewayOrderRequest{}); err == nil {
		t.Fatal("expected missing id error")
	}
}

func TestRazorpayGatewayHonoursContextDeadline(t *testing.T) {
	t.Parallel()

	gateway := &RazorpayGateway{orders: &fakeRazorpayOrders{delay: time.Second, body: map[string]interface{}{"id": "late"}}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := gateway.CreateOrder(ctx, GatewayOrderRequest{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestNewRazorpayGatewayRequiresKeys(t *testing.T) {
	t.Parallel()

	if _, err := NewRazorpayGateway("rzp_test_key", ""); err == nil {
		t.Fatal("expected missing secret error")
	}
	gateway, err := NewRazorpayGateway("rzp_test_key", "secret")
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	if gateway.KeyID() != "rzp_test_key" {
		t.Fatalf("key id = %q", gateway.KeyID())
	}
}
