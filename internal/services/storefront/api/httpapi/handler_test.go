package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/paidportfolio/internal/platform/id"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/catalog"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/checkout"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/intake"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/notify"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage/memory"
)

const (
	testSecret      = "s3cret"
	operatorAddress = "ops@example.com"
)

type fakeGateway struct{}

func (fakeGateway) CreateOrder(_ context.Context, req checkout.GatewayOrderRequest) (checkout.GatewayOrder, error) {
	return checkout.GatewayOrder{ID: "order_" + req.Receipt}, nil
}

func (fakeGateway) KeyID() string { return "rzp_test_key" }

type fakeSender struct {
	mu      sync.Mutex
	sent    []notify.Message
	failFor map[string]bool
}

func (f *fakeSender) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return errors.New("recipient refused")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestHandler(t *testing.T, sender *fakeSender) *Handler {
	t.Helper()
	templates, err := catalog.LoadDefault()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store := memory.New()
	dispatcher := notify.NewDispatcher(sender, notify.Config{From: "shop@example.com", Operator: operatorAddress})
	clock := func() time.Time { return time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC) }
	checkoutService := checkout.NewService(checkout.Deps{
		Store:     store,
		Templates: templates,
		Gateway:   fakeGateway{},
		KeySecret: testSecret,
		Notifier:  dispatcher,
		Clock:     clock,
		NewID:     id.Sequence("ord-1", "ord-2", "ord-3"),
	})
	intakeService := intake.NewService(store, dispatcher, nil, nil, clock, nil)
	return NewHandler(templates, checkoutService, intakeService)
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch value := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(value))
	default:
		data, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.Unmarshal(rec.Body.Bytes(), &value); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return value
}

func TestTemplatesRoutes(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeSender{})

	rec := doJSON(t, handler, http.MethodGet, "/api/templates", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if templates := decode[[]domain.Template](t, rec); len(templates) != 9 {
		t.Fatalf("templates = %d, want 9", len(templates))
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/templates/featured", nil)
	featured := decode[[]domain.Template](t, rec)
	if len(featured) != 5 {
		t.Fatalf("featured = %d, want 5", len(featured))
	}
	for _, template := range featured {
		if !template.IsFeatured {
			t.Fatalf("non-featured template %s", template.ID)
		}
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/templates/developer-pro", nil)
	if got := decode[domain.Template](t, rec); got.ID != "developer-pro" {
		t.Fatalf("template = %+v", got)
	}
}

func TestUnknownTemplateIsNotFoundWithoutBody(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeSender{})
	rec := doJSON(t, handler, http.MethodGet, "/api/templates/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["error"] != "Template not found" || len(body) != 1 {
		t.Fatalf("body = %v", body)
	}
}

func TestCatalogIsReadOnly(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeSender{})
	for _, target := range []string{"/api/templates", "/api/templates/developer-pro", "/api/testimonials"} {
		rec := doJSON(t, handler, http.MethodPost, target, map[string]any{"name": "x"})
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("POST %s status = %d, want 405", target, rec.Code)
		}
	}
}

func TestTestimonials(t *testing.T) {
	t.Parallel()

	rec := doJSON(t, newTestHandler(t, &fakeSender{}), http.MethodGet, "/api/testimonials", nil)
	if testimonials := decode[[]domain.Testimonial](t, rec); len(testimonials) != 3 {
		t.Fatalf("testimonials = %d, want 3", len(testimonials))
	}
}

func TestOrderFlow(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	handler := newTestHandler(t, sender)

	rec := doJSON(t, handler, http.MethodPost, "/api/orders", map[string]any{
		"amount":        950,
		"templateId":    "developer-pro",
		"customerName":  "Ada Lovelace",
		"customerEmail": "ada@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	created := decode[checkout.CreateOrderResult](t, rec)
	if created.Order.ID != "ord-1" || created.GatewayOrderID != "order_ord-1" || created.PublicKey != "rzp_test_key" {
		t.Fatalf("created = %+v", created)
	}
	if created.Order.Status != domain.OrderStatusPending {
		t.Fatalf("status = %s, want pending", created.Order.Status)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/verify-payment", map[string]any{
		"orderId":          "ord-1",
		"gatewayOrderId":   created.GatewayOrderID,
		"gatewayPaymentId": "pay_1",
		"signature":        "bad",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad signature status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/verify-payment", map[string]any{
		"orderId":          "ord-1",
		"gatewayOrderId":   created.GatewayOrderID,
		"gatewayPaymentId": "pay_1",
		"signature":        checkout.Sign(testSecret, created.GatewayOrderID, "pay_1"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d body=%s", rec.Code, rec.Body.String())
	}
	verified := decode[checkout.VerifyPaymentResult](t, rec)
	if !verified.Success || !verified.EmailSent || verified.Order.Status != domain.OrderStatusCompleted {
		t.Fatalf("verified = %+v", verified)
	}
	if sender.count() != 1 {
		t.Fatalf("emails = %d, want 1", sender.count())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/orders/ord-1", nil)
	if got := decode[domain.Order](t, rec); got.GatewayPaymentID != "pay_1" {
		t.Fatalf("order = %+v", got)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/orders/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing order status = %d", rec.Code)
	}
	if body := decode[map[string]any](t, rec); body["error"] != "Order not found" {
		t.Fatalf("body = %v", body)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeSender{})
	rec := doJSON(t, handler, http.MethodPost, "/api/orders", map[string]any{
		"amount":        0,
		"customerName":  "A",
		"customerEmail": "not-an-email",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode[struct {
		Error   string `json:"error"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}](t, rec)
	if body.Error != "Invalid order data" || len(body.Details) != 3 {
		t.Fatalf("body = %+v", body)
	}
}

func TestMalformedJSONIsInvalid(t *testing.T) {
	t.Parallel()

	rec := doJSON(t, newTestHandler(t, &fakeSender{}), http.MethodPost, "/api/contact", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decode[map[string]any](t, rec); body["error"] != "Invalid contact data" {
		t.Fatalf("body = %v", body)
	}
}

func TestContactReportsOperatorOutcome(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{failFor: map[string]bool{operatorAddress: true}}
	handler := newTestHandler(t, sender)
	rec := doJSON(t, handler, http.MethodPost, "/api/contact", map[string]any{
		"name":    "Alan Turing",
		"email":   "alan@example.com",
		"subject": "Booking a call",
		"message": "I would like to book a consultation next week.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]any](t, rec)
	if body["emailSent"] != false {
		t.Fatalf("emailSent = %v, want false", body["emailSent"])
	}
	if body["status"] != "unread" || body["subject"] != "Booking a call" || body["id"] == "" {
		t.Fatalf("body = %v", body)
	}
	if sender.count() != 1 {
		t.Fatalf("delivered = %d, want submitter only", sender.count())
	}
}

func TestCustomRequests(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeSender{})
	rec := doJSON(t, handler, http.MethodPost, "/api/custom-requests", map[string]any{
		"name":        "Grace Hopper",
		"email":       "grace@example.com",
		"budget":      "$500-$1000",
		"timeline":    "2 weeks",
		"profession":  "Engineer",
		"description": "A portfolio for a compiler engineer with a blog.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]any](t, rec)
	if created["emailSent"] != true || created["status"] != "pending" {
		t.Fatalf("created = %v", created)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/custom-requests", map[string]any{"name": "G"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/custom-requests", nil)
	if requests := decode[[]domain.CustomRequest](t, rec); len(requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(requests))
	}
}

func TestStaticHandlerFallsBackToIndex(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>shell</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "assets"), 0o755); err != nil {
		t.Fatalf("mkdir assets: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "assets", "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	static, err := NewStaticHandler(root)
	if err != nil {
		t.Fatalf("new static handler: %v", err)
	}

	for target, want := range map[string]string{
		"/":              "shell",
		"/templates/abc": "shell",
		"/assets":        "shell",
		"/assets/app.js": "console.log",
	} {
		rec := httptest.NewRecorder()
		static.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("GET %s = %d %q", target, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	static.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /api/unknown status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	static.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d, want 405", rec.Code)
	}
}

func TestStaticHandlerRequiresIndex(t *testing.T) {
	t.Parallel()

	if _, err := NewStaticHandler(""); err == nil {
		t.Fatal("expected error for empty root")
	}
	if _, err := NewStaticHandler(t.TempDir()); err == nil {
		t.Fatal("expected error for missing index.html")
	}
}
