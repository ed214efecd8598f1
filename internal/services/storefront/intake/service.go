// Package intake accepts contact messages and custom portfolio requests and
// notifies the operator and the submitter about each one.
package intake

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	apperrors "github.com/louisbranch/paidportfolio/internal/platform/errors"
	"github.com/louisbranch/paidportfolio/internal/platform/id"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/events"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/notify"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/notify/render"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
)

// ErrStoreNotConfigured indicates the service is missing persistence wiring.
var ErrStoreNotConfigured = errors.New("intake store is not configured")

// Store is the persistence surface intake needs.
type Store interface {
	storage.CustomRequestStore
	storage.ContactMessageStore
}

// Notifier sends the paired operator and submitter emails.
type Notifier interface {
	SendPair(ctx context.Context, operator, submitter notify.Mail) notify.Outcome
}

// Service validates, stores, and announces visitor submissions.
type Service struct {
	store    Store
	notifier Notifier
	renderer *render.Renderer
	events   events.Publisher
	clock    func() time.Time
	newID    func() (string, error)
}

// NewService constructs intake use-cases. Nil collaborators fall back to
// defaults; a nil notifier reports every email as not sent.
func NewService(store Store, notifier Notifier, renderer *render.Renderer, publisher events.Publisher, clock func() time.Time, newID func() (string, error)) *Service {
	if renderer == nil {
		renderer = render.New(nil)
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:    store,
		notifier: notifier,
		renderer: renderer,
		events:   publisher,
		clock:    clock,
		newID:    newID,
	}
}

// ContactInput is a visitor's contact or booking message.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactResult is the stored message plus the observed email outcome.
type ContactResult struct {
	domain.ContactMessage
	EmailSent bool `json:"emailSent"`
}

// CustomRequestInput is a visitor's bespoke portfolio request.
type CustomRequestInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Budget      string `json:"budget"`
	Timeline    string `json:"timeline"`
	Description string `json:"description"`
	Profession  string `json:"profession"`
}

// CustomRequestResult is the stored request plus the observed email outcome.
type CustomRequestResult struct {
	domain.CustomRequest
	EmailSent bool `json:"emailSent"`
}

// ValidateContact reports every failing field of input.
func ValidateContact(input ContactInput) error {
	var v apperrors.Validator
	v.MinLength("name", input.Name, 2)
	v.Email("email", input.Email)
	v.MinLength("subject", input.Subject, 5)
	v.MinLength("message", input.Message, 20)
	return v.Err("Invalid contact data")
}

// ValidateCustomRequest reports every failing field of input.
func ValidateCustomRequest(input CustomRequestInput) error {
	var v apperrors.Validator
	v.MinLength("name", input.Name, 2)
	v.Email("email", input.Email)
	v.Required("profession", input.Profession)
	v.Required("budget", input.Budget)
	v.Required("timeline", input.Timeline)
	v.MinLength("description", input.Description, 20)
	return v.Err("Invalid request data")
}

// CreateContactMessage stores a contact message as unread and notifies both
// parties.
func (s *Service) CreateContactMessage(ctx context.Context, input ContactInput) (ContactResult, error) {
	if s == nil || s.store == nil {
		return ContactResult{}, ErrStoreNotConfigured
	}
	input = trimContact(input)
	if err := ValidateContact(input); err != nil {
		return ContactResult{}, err
	}
	messageID, err := s.newID()
	if err != nil {
		return ContactResult{}, apperrors.Wrap(apperrors.KindUnknown, "generate contact message id", err)
	}
	message := domain.ContactMessage{
		ID:        messageID,
		Name:      input.Name,
		Email:     input.Email,
		Subject:   input.Subject,
		Message:   input.Message,
		Status:    domain.ContactMessageStatusUnread,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.store.CreateContactMessage(ctx, message); err != nil {
		return ContactResult{}, apperrors.Wrap(apperrors.KindUnknown, "persist contact message", err)
	}
	log.Printf("contact message stored id=%s", message.ID)

	operatorEmail := s.renderer.ContactOperator(message)
	submitterEmail := s.renderer.ContactConfirmation(message)
	outcome := s.sendPair(ctx,
		notify.Mail{Subject: operatorEmail.Subject, HTML: operatorEmail.HTML},
		notify.Mail{To: message.Email, Subject: submitterEmail.Subject, HTML: submitterEmail.HTML},
	)
	s.events.Publish(ctx, events.Event{
		Type:       events.TypeContactCreated,
		EntityID:   message.ID,
		OccurredAt: message.CreatedAt,
		Data:       message,
	})
	return ContactResult{ContactMessage: message, EmailSent: observedEmailOutcome(outcome)}, nil
}

// CreateCustomRequest stores a custom request as pending and notifies both
// parties.
func (s *Service) CreateCustomRequest(ctx context.Context, input CustomRequestInput) (CustomRequestResult, error) {
	if s == nil || s.store == nil {
		return CustomRequestResult{}, ErrStoreNotConfigured
	}
	input = trimCustomRequest(input)
	if err := ValidateCustomRequest(input); err != nil {
		return CustomRequestResult{}, err
	}
	requestID, err := s.newID()
	if err != nil {
		return CustomRequestResult{}, apperrors.Wrap(apperrors.KindUnknown, "generate custom request id", err)
	}
	request := domain.CustomRequest{
		ID:          requestID,
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Budget:      input.Budget,
		Timeline:    input.Timeline,
		Description: input.Description,
		Profession:  input.Profession,
		Status:      domain.CustomRequestStatusPending,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.store.CreateCustomRequest(ctx, request); err != nil {
		return CustomRequestResult{}, apperrors.Wrap(apperrors.KindUnknown, "persist custom request", err)
	}
	log.Printf("custom request stored id=%s", request.ID)

	operatorEmail := s.renderer.CustomRequestOperator(request)
	submitterEmail := s.renderer.CustomRequestConfirmation(request)
	outcome := s.sendPair(ctx,
		notify.Mail{Subject: operatorEmail.Subject, HTML: operatorEmail.HTML},
		notify.Mail{To: request.Email, Subject: submitterEmail.Subject, HTML: submitterEmail.HTML},
	)
	s.events.Publish(ctx, events.Event{
		Type:       events.TypeCustomRequestCreated,
		EntityID:   request.ID,
		OccurredAt: request.CreatedAt,
		Data:       request,
	})
	return CustomRequestResult{CustomRequest: request, EmailSent: observedEmailOutcome(outcome)}, nil
}

// ListCustomRequests returns every custom request in creation order.
func (s *Service) ListCustomRequests(ctx context.Context) ([]domain.CustomRequest, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	requests, err := s.store.ListCustomRequests(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list custom requests", err)
	}
	return requests, nil
}

// ListContactMessages returns every contact message in creation order.
func (s *Service) ListContactMessages(ctx context.Context) ([]domain.ContactMessage, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	messages, err := s.store.ListContactMessages(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list contact messages", err)
	}
	return messages, nil
}

func (s *Service) sendPair(ctx context.Context, operator, submitter notify.Mail) notify.Outcome {
	if s.notifier == nil {
		return notify.Outcome{}
	}
	return s.notifier.SendPair(ctx, operator, submitter)
}

// observedEmailOutcome is the emailSent value reported to the visitor. It
// reflects operator delivery only; the submitter confirmation is best effort
// and never surfaced.
func observedEmailOutcome(outcome notify.Outcome) bool {
	return outcome.Observed()
}

func trimContact(input ContactInput) ContactInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)
	return input
}

func trimCustomRequest(input CustomRequestInput) CustomRequestInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Budget = strings.TrimSpace(input.Budget)
	input.Timeline = strings.TrimSpace(input.Timeline)
	input.Description = strings.TrimSpace(input.Description)
	input.Profession = strings.TrimSpace(input.Profession)
	return input
}
