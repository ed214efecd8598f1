// Package memory provides the process-local storefront store. State is lost on
// restart.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
)

// Store keeps storefront records in maps guarded by one RWMutex. Insertion
// order is tracked separately so listings are stable.
type Store struct {
	mu sync.RWMutex

	orders     map[string]domain.Order
	orderIDs   []string
	requests   map[string]domain.CustomRequest
	requestIDs []string
	contacts   map[string]domain.ContactMessage
	contactIDs []string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		orders:   make(map[string]domain.Order),
		requests: make(map[string]domain.CustomRequest),
		contacts: make(map[string]domain.ContactMessage),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// CreateOrder inserts one order.
func (s *Store) CreateOrder(ctx context.Context, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(order.ID) == "" {
		return fmt.Errorf("order id is required")
	}
	if order.Amount < 0 {
		return fmt.Errorf("order amount must not be negative")
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	if !order.Status.Valid() {
		return fmt.Errorf("order status %q is invalid", order.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; ok {
		return storage.ErrAlreadyExists
	}
	s.orders[order.ID] = cloneOrder(order)
	s.orderIDs = append(s.orderIDs, order.ID)
	return nil
}

// GetOrder returns one order by id.
func (s *Store) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, storage.ErrNotFound
	}
	return cloneOrder(order), nil
}

// ListOrders returns orders in creation order.
func (s *Store) ListOrders(ctx context.Context, filter storage.OrderFilter) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(filter.UserID)

	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]domain.Order, 0, len(s.orderIDs))
	for _, id := range s.orderIDs {
		order := s.orders[id]
		if userID != "" && order.UserID != userID {
			continue
		}
		orders = append(orders, cloneOrder(order))
	}
	return orders, nil
}

// CompleteOrder moves a pending order to completed under the write lock.
func (s *Store) CompleteOrder(ctx context.Context, id string, confirmation storage.PaymentConfirmation) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	completedAt := confirmation.CompletedAt.UTC()
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, storage.ErrNotFound
	}
	if order.Status != domain.OrderStatusPending {
		return domain.Order{}, storage.ErrOrderNotPending
	}
	order.Status = domain.OrderStatusCompleted
	order.GatewayPaymentID = confirmation.PaymentID
	order.Signature = confirmation.Signature
	order.UpdatedAt = completedAt
	order.CompletedAt = &completedAt
	s.orders[id] = order
	return cloneOrder(order), nil
}

// CreateCustomRequest inserts one custom request.
func (s *Store) CreateCustomRequest(ctx context.Context, request domain.CustomRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(request.ID) == "" {
		return fmt.Errorf("custom request id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[request.ID]; ok {
		return storage.ErrAlreadyExists
	}
	s.requests[request.ID] = request
	s.requestIDs = append(s.requestIDs, request.ID)
	return nil
}

// GetCustomRequest returns one custom request by id.
func (s *Store) GetCustomRequest(ctx context.Context, id string) (domain.CustomRequest, error) {
	if err := ctx.Err(); err != nil {
		return domain.CustomRequest{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[id]
	if !ok {
		return domain.CustomRequest{}, storage.ErrNotFound
	}
	return request, nil
}

// ListCustomRequests returns custom requests in creation order.
func (s *Store) ListCustomRequests(ctx context.Context) ([]domain.CustomRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	requests := make([]domain.CustomRequest, 0, len(s.requestIDs))
	for _, id := range s.requestIDs {
		requests = append(requests, s.requests[id])
	}
	return requests, nil
}

// CreateContactMessage inserts one contact message.
func (s *Store) CreateContactMessage(ctx context.Context, message domain.ContactMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(message.ID) == "" {
		return fmt.Errorf("contact message id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[message.ID]; ok {
		return storage.ErrAlreadyExists
	}
	s.contacts[message.ID] = message
	s.contactIDs = append(s.contactIDs, message.ID)
	return nil
}

// ListContactMessages returns contact messages in creation order.
func (s *Store) ListContactMessages(ctx context.Context) ([]domain.ContactMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := make([]domain.ContactMessage, 0, len(s.contactIDs))
	for _, id := range s.contactIDs {
		messages = append(messages, s.contacts[id])
	}
	return messages, nil
}

func cloneOrder(order domain.Order) domain.Order {
	if order.CompletedAt != nil {
		completedAt := *order.CompletedAt
		order.CompletedAt = &completedAt
	}
	return order
}

var _ storage.Store = (*Store)(nil)
