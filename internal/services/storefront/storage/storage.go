// Package storage defines persistence contracts for storefront state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a record with the same id already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrOrderNotPending indicates a completion was attempted on an order that
	// already left the pending state.
	ErrOrderNotPending = errors.New("order is not pending")
)

// PaymentConfirmation carries the verified gateway payment applied to an order.
type PaymentConfirmation struct {
	PaymentID   string
	Signature   string
	CompletedAt time.Time
}

// OrderFilter narrows order listings. Empty fields match everything.
type OrderFilter struct {
	UserID string
}

// OrderStore persists orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	// CompleteOrder moves a pending order to completed. It returns
	// ErrOrderNotPending when the order is already completed, so concurrent
	// verifications transition at most once.
	CompleteOrder(ctx context.Context, id string, confirmation PaymentConfirmation) (domain.Order, error)
}

// CustomRequestStore persists custom portfolio requests.
type CustomRequestStore interface {
	CreateCustomRequest(ctx context.Context, request domain.CustomRequest) error
	GetCustomRequest(ctx context.Context, id string) (domain.CustomRequest, error)
	ListCustomRequests(ctx context.Context) ([]domain.CustomRequest, error)
}

// ContactMessageStore persists contact messages.
type ContactMessageStore interface {
	CreateContactMessage(ctx context.Context, message domain.ContactMessage) error
	ListContactMessages(ctx context.Context) ([]domain.ContactMessage, error)
}

// Store is the full storefront persistence surface.
type Store interface {
	OrderStore
	CustomRequestStore
	ContactMessageStore
	Close() error
}

// Drivers accepted by the store selection.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
