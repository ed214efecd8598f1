package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/razorpay/razorpay-go"
)

// GatewayOrderRequest asks the gateway to open a payment session.
type GatewayOrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
}

// GatewayOrder is the gateway's reference for one payment session.
type GatewayOrder struct {
	ID string
}

// Gateway opens payment sessions with the external processor.
type Gateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (GatewayOrder, error)
	// KeyID is the public key handed to the browser checkout.
	KeyID() string
}

type razorpayOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway opens orders through the Razorpay API.
type RazorpayGateway struct {
	keyID  string
	orders razorpayOrders
}

// NewRazorpayGateway builds a gateway client for the given key pair.
func NewRazorpayGateway(keyID, keySecret string) (*RazorpayGateway, error) {
	keyID = strings.TrimSpace(keyID)
	if keyID == "" || strings.TrimSpace(keySecret) == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	client := razorpay.NewClient(keyID, keySecret)
	return &RazorpayGateway{keyID: keyID, orders: client.Order}, nil
}

// KeyID returns the public key id.
func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// CreateOrder opens a Razorpay order. The SDK has no context support, so the
// call runs in a goroutine and ctx only bounds how long the caller waits.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (GatewayOrder, error) {
	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := g.orders.Create(map[string]interface{}{
			"amount":   req.AmountMinor,
			"currency": req.Currency,
			"receipt":  req.Receipt,
		}, nil)
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return GatewayOrder{}, fmt.Errorf("razorpay create order: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return GatewayOrder{}, fmt.Errorf("razorpay create order: %w", res.err)
		}
		id, _ := res.body["id"].(string)
		if strings.TrimSpace(id) == "" {
			return GatewayOrder{}, errors.New("razorpay create order: response has no id")
		}
		return GatewayOrder{ID: id}, nil
	}
}
