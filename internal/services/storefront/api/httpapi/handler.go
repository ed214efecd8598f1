// Package httpapi exposes the storefront JSON API over net/http.
package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/louisbranch/paidportfolio/internal/platform/httpx"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/checkout"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/intake"
)

// Catalog serves the read-only template and testimonial data.
type Catalog interface {
	List(ctx context.Context) ([]domain.Template, error)
	ListFeatured(ctx context.Context) ([]domain.Template, error)
	Get(ctx context.Context, id string) (domain.Template, error)
	Testimonials(ctx context.Context) ([]domain.Testimonial, error)
}

// Checkout runs orders and payment verification.
type Checkout interface {
	CreateOrder(ctx context.Context, input checkout.CreateOrderInput) (checkout.CreateOrderResult, error)
	VerifyPayment(ctx context.Context, input checkout.VerifyPaymentInput) (checkout.VerifyPaymentResult, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
}

// Intake accepts visitor submissions.
type Intake interface {
	CreateContactMessage(ctx context.Context, input intake.ContactInput) (intake.ContactResult, error)
	CreateCustomRequest(ctx context.Context, input intake.CustomRequestInput) (intake.CustomRequestResult, error)
	ListCustomRequests(ctx context.Context) ([]domain.CustomRequest, error)
}

// Handler routes /api requests to the storefront services.
type Handler struct {
	catalog  Catalog
	checkout Checkout
	intake   Intake
	mux      *http.ServeMux
}

// NewHandler builds the API handler.
func NewHandler(catalog Catalog, checkout Checkout, intake Intake) *Handler {
	h := &Handler{catalog: catalog, checkout: checkout, intake: intake, mux: http.NewServeMux()}
	h.Register(h.mux)
	return h
}

// Register mounts every API route on mux. Routes carry methods, so an
// unsupported method on a known path answers 405.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/templates", h.listTemplates)
	mux.HandleFunc("GET /api/templates/featured", h.listFeaturedTemplates)
	mux.HandleFunc("GET /api/templates/{id}", h.getTemplate)
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("POST /api/verify-payment", h.verifyPayment)
	mux.HandleFunc("POST /api/custom-requests", h.createCustomRequest)
	mux.HandleFunc("GET /api/custom-requests", h.listCustomRequests)
	mux.HandleFunc("POST /api/contact", h.createContactMessage)
	mux.HandleFunc("GET /api/testimonials", h.listTestimonials)
}

// ServeHTTP serves the API routes without the rest of the server.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.catalog.List(httpx.RequestContext(r))
	if err != nil {
		httpx.WriteError(w, r, err, httpx.ErrorMessages{Failure: "Failed to fetch templates"})
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, templates)
}

func (h *Handler) listFeaturedTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.catalog.ListFeatured(httpx.RequestContext(r))
	if err != nil {
		httpx.WriteError(w, r, err, httpx.ErrorMessages{Failure: "Failed to fetch featured templates"})
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, templates)
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := h.catalog.Get(httpx.RequestContext(r), strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		httpx.WriteError(w, r, err, httpx.ErrorMessages{
			NotFound: "Template not found",
			Failure:  "Failed to fetch template",
		})
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	messages := httpx.ErrorMessages{
		Invalid:  "Invalid order data",
		NotFound: "Template not found",
		Failure:  "Failed to create order",
	}
	var input checkout.CreateOrderInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err, messages)
		return
	}
	result, err := h.checkout.CreateOrder(httpx.RequestContext(r), input)
	if err != nil {
		httpx.WriteError(w, r, err, messages)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.GetOrder(httpx.RequestContext(r), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err, httpx.ErrorMessages{
			NotFound: "Order not found",
			Failure:  "Failed to fetch order",
		})
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	messages := httpx.ErrorMessages{
		Invalid:  "Invalid payment data",
		NotFound: "Order not found",
		Failure:  "Failed to verify payment",
	}
	var input checkout.VerifyPaymentInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err, messages)
		return
	}
	result, err := h.checkout.VerifyPayment(httpx.RequestContext(r), input)
	if err != nil {
		httpx.WriteError(w, r, err, messages)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) createCustomRequest(w http.ResponseWriter, r *http.Request) {
	messages := httpx.ErrorMessages{
		Invalid: "Invalid request data",
		Failure: "Failed to create custom request",
	}
	var input intake.CustomRequestInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err, messages)
		return
	}
	result, err := h.intake.CreateCustomRequest(httpx.RequestContext(r), input)
	if err != nil {
		httpx.WriteError(w, r, err, messages)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) listCustomRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.intake.ListCustomRequests(httpx.RequestContext(r))
	if err != nil {
		httpx.WriteError(w, r, err, httpx.ErrorMessages{Failure: "Failed to fetch custom requests"})
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, requests)
}

func (h *Handler) createContactMessage(w http.ResponseWriter, r *http.Request) {
	messages := httpx.ErrorMessages{
		Invalid: "Invalid contact data",
		Failure: "Failed to send message",
	}
	var input intake.ContactInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err, messages)
		return
	}
	result, err := h.intake.CreateContactMessage(httpx.RequestContext(r), input)
	if err != nil {
		httpx.WriteError(w, r, err, messages)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) listTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.catalog.Testimonials(httpx.RequestContext(r))
	if err != nil {
		httpx.WriteError(w, r, err, httpx.ErrorMessages{Failure: "Failed to fetch testimonials"})
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, testimonials)
}
