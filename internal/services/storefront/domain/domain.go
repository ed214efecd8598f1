// Package domain defines the storefront records shared by catalog, intake,
// checkout, and storage.
package domain

import (
	"math"
	"time"
)

// OrderStatus is the lifecycle state of an order. Orders only move from
// pending to completed.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	return s == OrderStatusPending || s == OrderStatusCompleted
}

// MaxOrderAmount is the largest whole-unit amount whose minor-unit charge
// still fits in an int64.
const MaxOrderAmount int64 = math.MaxInt64 / 100

// Write-once statuses assigned at creation.
const (
	CustomRequestStatusPending = "pending"
	ContactMessageStatusUnread = "unread"
)

// Template is one purchasable portfolio design. Templates are seeded and
// read-only.
type Template struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Price        int      `json:"price" yaml:"price"`
	PriceINR     int      `json:"priceInr" yaml:"priceInr"`
	Category     string   `json:"category" yaml:"category"`
	PreviewImage string   `json:"previewImage" yaml:"previewImage"`
	Features     []string `json:"features" yaml:"features"`
	TechStack    []string `json:"techStack" yaml:"techStack"`
	DemoURL      string   `json:"demoUrl,omitempty" yaml:"demoUrl"`
	IsFeatured   bool     `json:"isFeatured" yaml:"isFeatured"`
	Rating       int      `json:"rating" yaml:"rating"`
	ReviewCount  int      `json:"reviewCount" yaml:"reviewCount"`
}

// Clone returns a copy that shares no slices with t.
func (t Template) Clone() Template {
	t.Features = append([]string(nil), t.Features...)
	t.TechStack = append([]string(nil), t.TechStack...)
	return t
}

// Testimonial is one seeded customer quote.
type Testimonial struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
	Avatar  string `json:"avatar,omitempty" yaml:"avatar"`
	Rating  int    `json:"rating" yaml:"rating"`
}

// Order records one template purchase attempt tied to a gateway order.
type Order struct {
	ID               string      `json:"id"`
	UserID           string      `json:"userId,omitempty"`
	TemplateID       string      `json:"templateId,omitempty"`
	Status           OrderStatus `json:"status"`
	Amount           int64       `json:"amount"`
	Currency         string      `json:"currency"`
	CustomerEmail    string      `json:"customerEmail"`
	CustomerName     string      `json:"customerName"`
	GatewayOrderID   string      `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string      `json:"gatewayPaymentId,omitempty"`
	Signature        string      `json:"-"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	CompletedAt      *time.Time  `json:"completedAt,omitempty"`
}

// MinorUnits returns the amount in the currency's smallest unit, as the
// gateway expects it.
func (o Order) MinorUnits() int64 {
	return o.Amount * 100
}

// CustomRequest is a visitor's request for a bespoke portfolio build.
type CustomRequest struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Budget      string    `json:"budget"`
	Timeline    string    `json:"timeline"`
	Description string    `json:"description"`
	Profession  string    `json:"profession,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ContactMessage is a general inquiry, also used for booking requests.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
