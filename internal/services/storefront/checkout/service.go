// Package checkout implements the order and payment flow: gateway order
// creation, signature verification, and the pending to completed transition.
package checkout

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/paidportfolio/internal/platform/errors"
	"github.com/louisbranch/paidportfolio/internal/platform/id"
	platformotel "github.com/louisbranch/paidportfolio/internal/platform/otel"
	"github.com/louisbranch/paidportfolio/internal/platform/timeouts"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/events"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/notify/render"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
)

// Currency is the single currency orders are charged in.
const Currency = "INR"

// ErrStoreNotConfigured indicates the service is missing persistence wiring.
var ErrStoreNotConfigured = errors.New("order store is not configured")

// TemplateLookup resolves template references.
type TemplateLookup interface {
	Get(ctx context.Context, id string) (domain.Template, error)
}

// Notifier delivers operator email.
type Notifier interface {
	SendOperator(ctx context.Context, subject, html string) bool
}

// Deps wires a Service. Gateway and KeySecret may be empty; the affected
// operations then fail with a configuration error.
type Deps struct {
	Store     storage.OrderStore
	Templates TemplateLookup
	Gateway   Gateway
	KeySecret string
	Notifier  Notifier
	Renderer  *render.Renderer
	Events    events.Publisher
	Clock     func() time.Time
	NewID     func() (string, error)
}

// Service runs the order and payment flow.
type Service struct {
	store     storage.OrderStore
	templates TemplateLookup
	gateway   Gateway
	secret    string
	notifier  Notifier
	renderer  *render.Renderer
	events    events.Publisher
	clock     func() time.Time
	newID     func() (string, error)
	tracer    trace.Tracer
}

// NewService constructs checkout use-cases.
func NewService(deps Deps) *Service {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = id.NewID
	}
	if deps.Renderer == nil {
		deps.Renderer = render.New(nil)
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	return &Service{
		store:     deps.Store,
		templates: deps.Templates,
		gateway:   deps.Gateway,
		secret:    deps.KeySecret,
		notifier:  deps.Notifier,
		renderer:  deps.Renderer,
		events:    deps.Events,
		clock:     deps.Clock,
		newID:     deps.NewID,
		tracer:    platformotel.Tracer("checkout"),
	}
}

// CreateOrderInput is the buyer's checkout request.
type CreateOrderInput struct {
	Amount        int64  `json:"amount"`
	TemplateID    string `json:"templateId"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	UserID        string `json:"userId"`
}

// CreateOrderResult hands the browser what it needs to open the gateway
// checkout.
type CreateOrderResult struct {
	Order          domain.Order `json:"order"`
	GatewayOrderID string       `json:"gatewayOrderId"`
	PublicKey      string       `json:"publicKey"`
}

// CreateOrder validates input, opens a gateway order for amount*100 minor
// units, and persists a pending order. Nothing is persisted when the gateway
// call fails.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (CreateOrderResult, error) {
	if s == nil || s.store == nil {
		return CreateOrderResult{}, ErrStoreNotConfigured
	}
	ctx, span := s.tracer.Start(ctx, "checkout.create_order")
	defer span.End()

	input.TemplateID = strings.TrimSpace(input.TemplateID)
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.CustomerEmail = strings.TrimSpace(input.CustomerEmail)
	input.UserID = strings.TrimSpace(input.UserID)

	var v apperrors.Validator
	v.Check(input.Amount >= 1, "amount", "amount must be at least 1")
	v.Check(input.Amount <= domain.MaxOrderAmount, "amount", "amount is too large")
	v.MinLength("customerName", input.CustomerName, 2)
	v.Email("customerEmail", input.CustomerEmail)
	var template domain.Template
	if input.TemplateID != "" && s.templates != nil {
		found, err := s.templates.Get(ctx, input.TemplateID)
		switch {
		case err == nil:
			template = found
		case errors.Is(err, storage.ErrNotFound):
			v.Add("templateId", "templateId does not match a template")
		default:
			return CreateOrderResult{}, apperrors.Wrap(apperrors.KindUnknown, "lookup template", err)
		}
	}
	if err := v.Err("Invalid order data"); err != nil {
		return CreateOrderResult{}, err
	}
	if s.gateway == nil {
		return CreateOrderResult{}, apperrors.Configuration("payment gateway credentials are not configured")
	}

	orderID, err := s.newID()
	if err != nil {
		return CreateOrderResult{}, apperrors.Wrap(apperrors.KindUnknown, "generate order id", err)
	}
	span.SetAttributes(attribute.String("order.id", orderID), attribute.Int64("order.amount", input.Amount))

	now := s.clock().UTC()
	order := domain.Order{
		ID:            orderID,
		UserID:        input.UserID,
		TemplateID:    template.ID,
		Status:        domain.OrderStatusPending,
		Amount:        input.Amount,
		Currency:      Currency,
		CustomerEmail: input.CustomerEmail,
		CustomerName:  input.CustomerName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, timeouts.GatewayRequest)
	gatewayOrder, err := s.gateway.CreateOrder(gatewayCtx, GatewayOrderRequest{
		AmountMinor: order.MinorUnits(),
		Currency:    Currency,
		Receipt:     orderID,
	})
	cancel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway create order failed")
		return CreateOrderResult{}, apperrors.Wrap(apperrors.KindExternalService, "create gateway order", err)
	}
	order.GatewayOrderID = gatewayOrder.ID

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return CreateOrderResult{}, apperrors.Wrap(apperrors.KindUnknown, "persist order", err)
	}
	log.Printf("order created id=%s gateway_order=%s amount=%d template=%s", order.ID, order.GatewayOrderID, order.Amount, order.TemplateID)

	s.events.Publish(ctx, events.Event{
		Type:       events.TypeOrderCreated,
		EntityID:   order.ID,
		OccurredAt: now,
		Data:       order,
	})
	return CreateOrderResult{
		Order:          order,
		GatewayOrderID: gatewayOrder.ID,
		PublicKey:      s.gateway.KeyID(),
	}, nil
}

// VerifyPaymentInput is the gateway callback relayed by the browser.
type VerifyPaymentInput struct {
	OrderID          string `json:"orderId"`
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

// VerifyPaymentResult reports the verified order.
type VerifyPaymentResult struct {
	Success   bool         `json:"success"`
	Order     domain.Order `json:"order"`
	EmailSent bool         `json:"emailSent"`
}

// VerifyPayment checks the callback signature and completes the order. The
// signature is the only authorization check. A mismatch mutates nothing. An
// order that is already completed is returned unchanged without a second
// notification.
func (s *Service) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (VerifyPaymentResult, error) {
	if s == nil || s.store == nil {
		return VerifyPaymentResult{}, ErrStoreNotConfigured
	}
	ctx, span := s.tracer.Start(ctx, "checkout.verify_payment")
	defer span.End()

	var v apperrors.Validator
	v.Required("orderId", input.OrderID)
	v.Required("gatewayOrderId", input.GatewayOrderID)
	v.Required("gatewayPaymentId", input.GatewayPaymentID)
	v.Required("signature", input.Signature)
	if err := v.Err("Invalid payment data"); err != nil {
		return VerifyPaymentResult{}, err
	}
	if strings.TrimSpace(s.secret) == "" {
		return VerifyPaymentResult{}, apperrors.Configuration("payment gateway secret is not configured")
	}
	span.SetAttributes(attribute.String("order.id", input.OrderID))

	if !VerifySignature(s.secret, input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		log.Printf("payment signature mismatch order=%s gateway_order=%s", input.OrderID, input.GatewayOrderID)
		span.SetStatus(codes.Error, "signature mismatch")
		return VerifyPaymentResult{}, apperrors.New(apperrors.KindAuthorization, "payment signature mismatch")
	}

	completed, err := s.store.CompleteOrder(ctx, input.OrderID, storage.PaymentConfirmation{
		PaymentID:   input.GatewayPaymentID,
		Signature:   input.Signature,
		CompletedAt: s.clock().UTC(),
	})
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		return VerifyPaymentResult{}, apperrors.NotFound("order not found")
	case errors.Is(err, storage.ErrOrderNotPending):
		existing, getErr := s.store.GetOrder(ctx, input.OrderID)
		if getErr != nil {
			return VerifyPaymentResult{}, apperrors.Wrap(apperrors.KindUnknown, "load completed order", getErr)
		}
		log.Printf("payment already verified order=%s", existing.ID)
		return VerifyPaymentResult{Success: true, Order: existing}, nil
	default:
		return VerifyPaymentResult{}, apperrors.Wrap(apperrors.KindUnknown, "complete order", err)
	}
	log.Printf("payment verified order=%s payment=%s", completed.ID, completed.GatewayPaymentID)

	emailSent := s.notifyCompleted(ctx, completed)
	s.events.Publish(ctx, events.Event{
		Type:       events.TypeOrderCompleted,
		EntityID:   completed.ID,
		OccurredAt: completed.UpdatedAt,
		Data:       completed,
	})
	return VerifyPaymentResult{Success: true, Order: completed, EmailSent: emailSent}, nil
}

func (s *Service) notifyCompleted(ctx context.Context, order domain.Order) bool {
	if s.notifier == nil {
		return false
	}
	templateName := ""
	if order.TemplateID != "" && s.templates != nil {
		if template, err := s.templates.Get(ctx, order.TemplateID); err == nil {
			templateName = template.Name
		}
	}
	email := s.renderer.OrderCompleted(order, templateName)
	return s.notifier.SendOperator(ctx, email.Subject, email.HTML)
}

// GetOrder returns one order.
func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s == nil || s.store == nil {
		return domain.Order{}, ErrStoreNotConfigured
	}
	order, err := s.store.GetOrder(ctx, strings.TrimSpace(orderID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Order{}, apperrors.NotFound("order not found")
		}
		return domain.Order{}, apperrors.Wrap(apperrors.KindUnknown, "get order", err)
	}
	return order, nil
}

// ListOrders returns orders, optionally for one user.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	orders, err := s.store.ListOrders(ctx, storage.OrderFilter{UserID: userID})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list orders", err)
	}
	return orders, nil
}
