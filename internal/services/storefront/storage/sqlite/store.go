// Package sqlite provides a SQLite-backed storefront storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/paidportfolio/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists storefront state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite storefront store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer connection keeps conditional updates serialized.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
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
	createdAt, updatedAt := normalizeTimes(order.CreatedAt, order.UpdatedAt)
	var completedAt sql.NullInt64
	if order.CompletedAt != nil {
		completedAt = sql.NullInt64{Int64: toMillis(*order.CompletedAt), Valid: true}
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
		toMillis(createdAt),
		toMillis(updatedAt),
		completedAt,
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
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	var (
		rows *sql.Rows
		err  error
	)
	userID := strings.TrimSpace(filter.UserID)
	if userID == "" {
		rows, err = s.sqlDB.QueryContext(ctx,
			`SELECT `+orderColumns+` FROM orders ORDER BY created_at ASC, rowid ASC`)
	} else {
		rows, err = s.sqlDB.QueryContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`,
			userID)
	}
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
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE orders
		    SET status = ?, gateway_payment_id = ?, signature = ?, updated_at = ?, completed_at = ?
		  WHERE id = ? AND status = ?`,
		string(domain.OrderStatusCompleted),
		confirmation.PaymentID,
		confirmation.Signature,
		toMillis(completedAt),
		toMillis(completedAt),
		id,
		string(domain.OrderStatusPending),
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("complete order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("complete order: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetOrder(ctx, id); err != nil {
			return domain.Order{}, err
		}
		return domain.Order{}, storage.ErrOrderNotPending
	}
	return s.GetOrder(ctx, id)
}

// CreateCustomRequest inserts one custom request.
func (s *Store) CreateCustomRequest(ctx context.Context, request domain.CustomRequest) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(request.ID) == "" {
		return fmt.Errorf("custom request id is required")
	}
	createdAt, _ := normalizeTimes(request.CreatedAt, time.Time{})
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO custom_requests (
		   id, name, email, phone, budget, timeline, description, profession, status, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.Name,
		request.Email,
		request.Phone,
		request.Budget,
		request.Timeline,
		request.Description,
		request.Profession,
		request.Status,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create custom request: %w", err)
	}
	return nil
}

const customRequestColumns = `id, name, email, phone, budget, timeline, description, profession, status, created_at`

// GetCustomRequest returns one custom request by id.
func (s *Store) GetCustomRequest(ctx context.Context, id string) (domain.CustomRequest, error) {
	if err := s.ready(ctx); err != nil {
		return domain.CustomRequest{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+customRequestColumns+` FROM custom_requests WHERE id = ?`, id)
	request, err := scanCustomRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+customRequestColumns+` FROM custom_requests ORDER BY created_at ASC, rowid ASC`)
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
	createdAt, _ := normalizeTimes(message.CreatedAt, time.Time{})
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO contact_messages (id, name, email, subject, message, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.ID,
		message.Name,
		message.Email,
		message.Subject,
		message.Message,
		message.Status,
		toMillis(createdAt),
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
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, email, subject, message, status, created_at
		   FROM contact_messages
		  ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ContactMessage{}
	for rows.Next() {
		var message domain.ContactMessage
		var createdAt int64
		if err := rows.Scan(
			&message.ID,
			&message.Name,
			&message.Email,
			&message.Subject,
			&message.Message,
			&message.Status,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list contact messages: %w", err)
		}
		message.CreatedAt = fromMillis(createdAt)
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return messages, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	var status string
	var createdAt, updatedAt int64
	var completedAt sql.NullInt64
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
		&createdAt,
		&updatedAt,
		&completedAt,
	); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	order.CreatedAt = fromMillis(createdAt)
	order.UpdatedAt = fromMillis(updatedAt)
	if completedAt.Valid {
		value := fromMillis(completedAt.Int64)
		order.CompletedAt = &value
	}
	return order, nil
}

func scanCustomRequest(row rowScanner) (domain.CustomRequest, error) {
	var request domain.CustomRequest
	var createdAt int64
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
		&createdAt,
	); err != nil {
		return domain.CustomRequest{}, err
	}
	request.CreatedAt = fromMillis(createdAt)
	return request, nil
}

func normalizeTimes(createdAt, updatedAt time.Time) (time.Time, time.Time) {
	createdAt = createdAt.UTC()
	updatedAt = updatedAt.UTC()
	if createdAt.IsZero() && updatedAt.IsZero() {
		createdAt = time.Now().UTC()
		return createdAt, createdAt
	}
	if createdAt.IsZero() {
		createdAt = updatedAt
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return createdAt, updatedAt
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
