package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/paidportfolio/internal/platform/errors"
	"github.com/louisbranch/paidportfolio/internal/platform/id"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/catalog"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/events"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage/memory"
)

const testSecret = "s3cret"

type fakeGateway struct {
	mu       sync.Mutex
	requests []GatewayOrderRequest
	orderID  string
	err      error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req GatewayOrderRequest) (GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return GatewayOrder{}, g.err
	}
	return GatewayOrder{ID: g.orderID}, nil
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type fakeNotifier struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
	deliver  bool
}

func (n *fakeNotifier) SendOperator(_ context.Context, subject, html string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	n.bodies = append(n.bodies, html)
	return n.deliver
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

type fixture struct {
	service   *Service
	store     *memory.Store
	gateway   *fakeGateway
	notifier  *fakeNotifier
	publisher *fakePublisher
}

var fixedNow = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) fixture {
	t.Helper()
	c, err := catalog.LoadDefault()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	f := fixture{
		store:     memory.New(),
		gateway:   &fakeGateway{orderID: "order_1"},
		notifier:  &fakeNotifier{deliver: true},
		publisher: &fakePublisher{},
	}
	f.service = NewService(Deps{
		Store:     f.store,
		Templates: c,
		Gateway:   f.gateway,
		KeySecret: testSecret,
		Notifier:  f.notifier,
		Events:    f.publisher,
		Clock:     func() time.Time { return fixedNow },
		NewID:     id.Sequence("ord-1", "ord-2", "ord-3"),
	})
	return f
}

func validOrderInput() CreateOrderInput {
	return CreateOrderInput{
		Amount:        950,
		TemplateID:    "developer-pro",
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
	}
}

func TestCreateOrderOpensGatewayOrderAndPersistsPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	result, err := f.service.CreateOrder(context.Background(), validOrderInput())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if len(f.gateway.requests) != 1 {
		t.Fatalf("gateway calls = %d, want 1", len(f.gateway.requests))
	}
	req := f.gateway.requests[0]
	if req.AmountMinor != 95000 || req.Currency != "INR" || req.Receipt != "ord-1" {
		t.Fatalf("gateway request = %+v", req)
	}
	if result.GatewayOrderID != "order_1" || result.PublicKey != "rzp_test_key" {
		t.Fatalf("result = %+v", result)
	}
	if result.Order.Status != domain.OrderStatusPending || result.Order.GatewayOrderID != "order_1" {
		t.Fatalf("order = %+v", result.Order)
	}

	stored, err := f.store.GetOrder(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("get stored order: %v", err)
	}
	if stored.TemplateID != "developer-pro" || stored.Amount != 950 || !stored.CreatedAt.Equal(fixedNow) {
		t.Fatalf("stored = %+v", stored)
	}
	if got := f.publisher.types(); len(got) != 1 || got[0] != events.TypeOrderCreated {
		t.Fatalf("events = %v", got)
	}
}

func TestCreateOrderAllowsMissingTemplate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := validOrderInput()
	input.TemplateID = ""
	result, err := f.service.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if result.Order.TemplateID != "" {
		t.Fatalf("template id = %q, want empty", result.Order.TemplateID)
	}
}

func TestCreateOrderValidationListsEveryField(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		Amount:        0,
		TemplateID:    "nope",
		CustomerName:  "A",
		CustomerEmail: "not-an-email",
	})
	if apperrors.KindOf(err) != apperrors.KindInvalidInput {
		t.Fatalf("kind = %s, want invalid_input (err=%v)", apperrors.KindOf(err), err)
	}
	fields := map[string]bool{}
	for _, field := range apperrors.FieldsOf(err) {
		fields[field.Field] = true
	}
	for _, want := range []string{"amount", "customerName", "customerEmail", "templateId"} {
		if !fields[want] {
			t.Fatalf("fields = %v, missing %s", fields, want)
		}
	}
	if len(f.gateway.requests) != 0 {
		t.Fatal("gateway called for invalid input")
	}
}

func TestCreateOrderRejectsAmountBeyondMinorUnitRange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := validOrderInput()
	input.Amount = domain.MaxOrderAmount + 1
	_, err := f.service.CreateOrder(context.Background(), input)
	if apperrors.KindOf(err) != apperrors.KindInvalidInput {
		t.Fatalf("kind = %s, want invalid_input (err=%v)", apperrors.KindOf(err), err)
	}
	if fields := apperrors.FieldsOf(err); len(fields) != 1 || fields[0].Field != "amount" {
		t.Fatalf("fields = %+v, want only amount", fields)
	}
	if len(f.gateway.requests) != 0 {
		t.Fatal("gateway called for oversized amount")
	}

	input.Amount = domain.MaxOrderAmount
	result, err := f.service.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("create order at max amount: %v", err)
	}
	if got := f.gateway.requests[0].AmountMinor; got != domain.MaxOrderAmount*100 || got <= 0 {
		t.Fatalf("gateway amount = %d, want %d", got, domain.MaxOrderAmount*100)
	}
	if result.Order.Amount != domain.MaxOrderAmount {
		t.Fatalf("order amount = %d", result.Order.Amount)
	}
}

func TestCreateOrderWithoutGatewayIsConfigurationError(t *testing.T) {
	t.Parallel()

	service := NewService(Deps{Store: memory.New()})
	_, err := service.CreateOrder(context.Background(), validOrderInput())
	if apperrors.KindOf(err) != apperrors.KindConfiguration {
		t.Fatalf("kind = %s, want configuration", apperrors.KindOf(err))
	}
}

func TestCreateOrderGatewayFailurePersistsNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gateway.err = errors.New("BAD_REQUEST_ERROR")
	_, err := f.service.CreateOrder(context.Background(), validOrderInput())
	if apperrors.KindOf(err) != apperrors.KindExternalService {
		t.Fatalf("kind = %s, want external_service", apperrors.KindOf(err))
	}
	orders, err := f.store.ListOrders(context.Background(), storage.OrderFilter{})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("orders = %d, want 0", len(orders))
	}
	if len(f.publisher.types()) != 0 {
		t.Fatal("event published for failed order")
	}
}

func TestVerifyPaymentCompletesOrderOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.CreateOrder(ctx, validOrderInput()); err != nil {
		t.Fatalf("create order: %v", err)
	}
	input := VerifyPaymentInput{
		OrderID:          "ord-1",
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		Signature:        Sign(testSecret, "order_1", "pay_1"),
	}

	result, err := f.service.VerifyPayment(ctx, input)
	if err != nil {
		t.Fatalf("verify payment: %v", err)
	}
	if !result.Success || !result.EmailSent {
		t.Fatalf("result = %+v", result)
	}
	if result.Order.Status != domain.OrderStatusCompleted || result.Order.GatewayPaymentID != "pay_1" {
		t.Fatalf("order = %+v", result.Order)
	}
	if result.Order.Signature != input.Signature {
		t.Fatalf("signature = %q", result.Order.Signature)
	}
	if len(f.notifier.subjects) != 1 {
		t.Fatalf("notifications = %d, want 1", len(f.notifier.subjects))
	}
	body := f.notifier.bodies[0]
	for _, want := range []string{"ord-1", "Ada Lovelace", "Developer Pro", "INR 950", "pay_1"} {
		if !strings.Contains(body, want) {
			t.Fatalf("notification missing %q: %s", want, body)
		}
	}

	again, err := f.service.VerifyPayment(ctx, input)
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if !again.Success || again.EmailSent || again.Order.Status != domain.OrderStatusCompleted {
		t.Fatalf("second result = %+v", again)
	}
	if len(f.notifier.subjects) != 1 {
		t.Fatalf("notifications after repeat = %d, want 1", len(f.notifier.subjects))
	}
	if got := f.publisher.types(); len(got) != 2 || got[1] != events.TypeOrderCompleted {
		t.Fatalf("events = %v", got)
	}
}

func TestVerifyPaymentMismatchLeavesOrderPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.CreateOrder(ctx, validOrderInput()); err != nil {
		t.Fatalf("create order: %v", err)
	}
	valid := Sign(testSecret, "order_1", "pay_1")
	for _, signature := range []string{"forged", strings.ToUpper(valid), Sign("wrong", "order_1", "pay_1")} {
		_, err := f.service.VerifyPayment(ctx, VerifyPaymentInput{
			OrderID:          "ord-1",
			GatewayOrderID:   "order_1",
			GatewayPaymentID: "pay_1",
			Signature:        signature,
		})
		if apperrors.KindOf(err) != apperrors.KindAuthorization {
			t.Fatalf("signature %q kind = %s, want authorization", signature, apperrors.KindOf(err))
		}
	}

	order, err := f.store.GetOrder(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != domain.OrderStatusPending || order.GatewayPaymentID != "" {
		t.Fatalf("order mutated: %+v", order)
	}
	if len(f.notifier.subjects) != 0 {
		t.Fatal("notification sent for forged signature")
	}
}

func TestVerifyPaymentRequiresFieldsAndSecret(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.service.VerifyPayment(context.Background(), VerifyPaymentInput{})
	if apperrors.KindOf(err) != apperrors.KindInvalidInput {
		t.Fatalf("kind = %s, want invalid_input", apperrors.KindOf(err))
	}
	if got := len(apperrors.FieldsOf(err)); got != 4 {
		t.Fatalf("fields = %d, want 4", got)
	}

	noSecret := NewService(Deps{Store: memory.New()})
	_, err = noSecret.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID: "ord-1", GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: "x",
	})
	if apperrors.KindOf(err) != apperrors.KindConfiguration {
		t.Fatalf("kind = %s, want configuration", apperrors.KindOf(err))
	}
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.service.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID:          "missing",
		GatewayOrderID:   "order_9",
		GatewayPaymentID: "pay_9",
		Signature:        Sign(testSecret, "order_9", "pay_9"),
	})
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Fatalf("kind = %s, want not_found", apperrors.KindOf(err))
	}
}

func TestVerifyPaymentReportsFailedOperatorEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.notifier.deliver = false
	ctx := context.Background()
	if _, err := f.service.CreateOrder(ctx, validOrderInput()); err != nil {
		t.Fatalf("create order: %v", err)
	}
	result, err := f.service.VerifyPayment(ctx, VerifyPaymentInput{
		OrderID:          "ord-1",
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		Signature:        Sign(testSecret, "order_1", "pay_1"),
	})
	if err != nil {
		t.Fatalf("verify payment: %v", err)
	}
	if !result.Success || result.EmailSent {
		t.Fatalf("result = %+v, want success without email", result)
	}
}

func TestGetOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.CreateOrder(ctx, validOrderInput()); err != nil {
		t.Fatalf("create order: %v", err)
	}
	order, err := f.service.GetOrder(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.ID != "ord-1" {
		t.Fatalf("order id = %q", order.ID)
	}
	if _, err := f.service.GetOrder(ctx, "missing"); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Fatalf("missing order kind = %s", apperrors.KindOf(err))
	}
}

func TestListOrdersByUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	first := validOrderInput()
	first.UserID = "user-1"
	second := validOrderInput()
	second.UserID = "user-2"
	for _, input := range []CreateOrderInput{first, second} {
		if _, err := f.service.CreateOrder(ctx, input); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}
	orders, err := f.service.ListOrders(ctx, "user-2")
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "ord-2" {
		t.Fatalf("orders = %+v", orders)
	}
}

func TestNilServiceIsNotConfigured(t *testing.T) {
	t.Parallel()

	var service *Service
	if _, err := service.GetOrder(context.Background(), "ord-1"); !errors.Is(err, ErrStoreNotConfigured) {
		t.Fatalf("err = %v, want %v", err, ErrStoreNotConfigured)
	}
}
