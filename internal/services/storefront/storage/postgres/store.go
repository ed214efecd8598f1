// Package postgres provides a PostgreSQL-backed storefront storage
// implementation over pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS storefront_orders (
    seq BIGSERIAL UNIQUE,
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL DEFAULT '',
    template_id TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK (status IN ('pending', 'completed')),
    amount BIGINT NOT NULL CHECK (amount >= 0),
    currency TEXT NOT NULL,
    customer_email TEXT NOT NULL,
    customer_name TEXT NOT NULL,
    gateway_order_id TEXT NOT NULL DEFAULT '',
    gateway_payment_id TEXT NOT NULL DEFAULT '',
    signature TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS storefront_orders_user_idx ON storefront_orders (user_id, created_at);

CREATE TABLE IF NOT EXISTS storefront_custom_requests (
    seq BIGSERIAL UNIQUE,
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    budget TEXT NOT NULL,
    timeline TEXT NOT NULL,
    description TEXT NOT NULL,
    profession TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS storefront_contact_messages (
    seq BIGSERIAL UNIQUE,
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    subject TEXT NOT NULL,
    message TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
`

const uniqueViolation = "23505"

// Store persists storefront state in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and ensures the schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

const orderColumns = `id, user_id, template_id, status, amount, currency,
       customer_email, customer_name, gateway_order_id, gateway_payment_id,
       signature, created_at, updated_at, completed_at`

// CreateOrder inserts one order record.
func (s *Store) CreateOrder(ctx context.Context, order domain.Order) error {
	if err := s.ready(ctx); err != nil {
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
	createdAt := order.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := order.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO storefront_orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		order.ID,
		order.UserID,
		order.TemplateID,
		string(order.Status),
		order.Amount,
		order.Currency,
		order.CustomerEmail,
		order.CustomerName,
		order.GatewayOrderID,
		order.GatewayPaymentID,
		order.Signature,
		createdAt,
		updatedAt,
		order.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// GetOrder returns one order by id.
func (s *Store) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Order{}, err
	}
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM storefront_orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, storage.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders returns orders in creation order, optionally for one user.
func (s *Store) ListOrders(ctx context.Context, filter storage.OrderFilter) ([]domain.Order, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+`
		   FROM storefront_orders
		  WHERE $1 = '' OR user_id = $1
		  ORDER BY created_at ASC, seq ASC`,
		strings.TrimSpace(filter.UserID))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// CompleteOrder moves a pending order to completed with a conditional update.
func (s *Store) CompleteOrder(ctx context.Context, id string, confirmation storage.PaymentConfirmation) (domain.Order, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Order{}, err
	}
	completedAt := confirmation.CompletedAt.UTC()
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE storefront_orders
		    SET status = $1, gateway_payment_id = $2, signature = $3, updated_at = $4, completed_at = $4
		  WHERE id = $5 AND status = $6
		RETURNING `+orderColumns,
		string(domain.OrderStatusCompleted),
		confirmation.PaymentID,
		confirmation.Signature,
		completedAt,
		id,
		string(domain.OrderStatusPending),
	)
	order, err := scanOrder(row)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("complete order: %w", err)
	}
	if _, err := s.GetOrder(ctx, id); err != nil {
		return domain.Order{}, err
	}
	return domain.Order{}, storage.ErrOrderNotPending
}

const customRequestColumns = `id, name, email, phone, budget, timeline, description, profession, status, created_at`

// CreateCustomRequest inserts one custom request.
func (s *Store) CreateCustomRequest(ctx context.Context, request domain.CustomRequest) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(request.ID) == "" {
		return fmt.Errorf("custom request id is required")
	}
	createdAt := request.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO storefront_custom_requests (`+customRequestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		request.ID,
		request.Name,
		request.Email,
		request.Phone,
		request.Budget,
		request.Timeline,
		request.Description,
		request.Profession,
		request.Status,
		createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create custom request: %w", err)
	}
	return nil
}

// GetCustomRequest returns one custom request by id.
func (s *Store) GetCustomRequest(ctx context.Context, id string) (domain.CustomRequest, error) {
	if err := s.ready(ctx); err != nil {
		return domain.CustomRequest{}, err
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+customRequestColumns+` FROM storefront_custom_requests WHERE id = $1`, id)
	request, err := scanCustomRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CustomRequest{}, storage.ErrNotFound
		}
		return domain.CustomRequest{}, fmt.Errorf("get custom request: %w", err)
	}
	return request, nil
}

// ListCustomRequests returns custom requests in creation order.
func (s *Store) ListCustomRequests(ctx context.Context) ([]domain.CustomRequest, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+customRequestColumns+` FROM storefront_custom_requests ORDER BY created_at ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list custom requests: %w", err)
	}
	defer rows.Close()

	requests := []domain.CustomRequest{}
	for rows.Next() {
		request, err := scanCustomRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list custom requests: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list custom requests: %w", err)
	}
	return requests, nil
}

// CreateContactMessage inserts one contact message.
func (s *Store) CreateContactMessage(ctx context.Context, message domain.ContactMessage) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(message.ID) == "" {
		return fmt.Errorf("contact message id is required")
	}
	createdAt := message.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO storefront_contact_messages (id, name, email, subject, message, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		message.ID,
		message.Name,
		message.Email,
		message.Subject,
		message.Message,
		message.Status,
		createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

// ListContactMessages returns contact messages in creation order.
func (s *Store) ListContactMessages(ctx context.Context) ([]domain.ContactMessage, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, subject, message, status, created_at
		   FROM storefront_contact_messages
		  ORDER BY created_at ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ContactMessage{}
	for rows.Next() {
		var message domain.ContactMessage
		if err := rows.Scan(
			&message.ID,
			&message.Name,
			&message.Email,
			&message.Subject,
			&message.Message,
			&message.Status,
			&message.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list contact messages: %w", err)
		}
		message.CreatedAt = message.CreatedAt.UTC()
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return messages, nil
}

// Truncate removes every storefront row. Tests use it to isolate cases that
// share one database.
func (s *Store) Truncate(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`TRUNCATE storefront_orders, storefront_custom_requests, storefront_contact_messages`)
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var order domain.Order
	var status string
	var completedAt *time.Time
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.TemplateID,
		&status,
		&order.Amount,
		&order.Currency,
		&order.CustomerEmail,
		&order.CustomerName,
		&order.GatewayOrderID,
		&order.GatewayPaymentID,
		&order.Signature,
		&order.CreatedAt,
		&order.UpdatedAt,
		&completedAt,
	); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	if completedAt != nil {
		value := completedAt.UTC()
		order.CompletedAt = &value
	}
	return order, nil
}

func scanCustomRequest(row pgx.Row) (domain.CustomRequest, error) {
	var request domain.CustomRequest
	if err := row.Scan(
		&request.ID,
		&request.Name,
		&request.Email,
		&request.Phone,
		&request.Budget,
		&request.Timeline,
		&request.Description,
		&request.Profession,
		&request.Status,
		&request.CreatedAt,
	); err != nil {
		return domain.CustomRequest{}, err
	}
	request.CreatedAt = request.CreatedAt.UTC()
	return request, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ storage.Store = (*Store)(nil)
