package notify

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	platformotel "github.com/louisbranch/paidportfolio/internal/platform/otel"
	"github.com/louisbranch/paidportfolio/internal/platform/requestctx"
	"github.com/louisbranch/paidportfolio/internal/platform/timeouts"
)

// Recipient roles reported to the observer.
const (
	RoleOperator  = "operator"
	RoleSubmitter = "submitter"
	RoleDirect    = "direct"
)

// Observer records send outcomes, typically as metrics.
type Observer interface {
	ObserveEmail(role string, delivered bool)
}

// Config wires a Dispatcher.
type Config struct {
	From     string
	Operator string
	Timeout  time.Duration
	Observer Observer
}

// Mail is one message addressed by the dispatcher. An empty To on an operator
// mail means the configured operator address.
type Mail struct {
	To      string
	Subject string
	HTML    string
}

// Outcome carries both results of a paired operator and submitter send.
type Outcome struct {
	Operator  bool
	Submitter bool
}

// Observed is the result surfaced to callers: only operator delivery counts,
// since providers may refuse unverified visitor addresses.
func (o Outcome) Observed() bool {
	return o.Operator
}

// Dispatcher sends email and converts every failure, including a panicking
// sender, into a false result plus a log line. It never retries.
type Dispatcher struct {
	sender   Sender
	from     string
	operator string
	timeout  time.Duration
	observer Observer
	tracer   trace.Tracer
}

// NewDispatcher returns a dispatcher. A nil sender yields a dispatcher whose
// sends all report false.
func NewDispatcher(sender Sender, cfg Config) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.EmailSend
	}
	return &Dispatcher{
		sender:   sender,
		from:     strings.TrimSpace(cfg.From),
		operator: strings.TrimSpace(cfg.Operator),
		timeout:  timeout,
		observer: cfg.Observer,
		tracer:   platformotel.Tracer("notify"),
	}
}

// Configured reports whether a provider is wired.
func (d *Dispatcher) Configured() bool {
	return d != nil && d.sender != nil
}

// OperatorAddress returns the operator's inbox.
func (d *Dispatcher) OperatorAddress() string {
	if d == nil {
		return ""
	}
	return d.operator
}

// Send delivers one email and reports whether the provider accepted it.
func (d *Dispatcher) Send(ctx context.Context, to, subject, html string) bool {
	return d.send(ctx, RoleDirect, Mail{To: to, Subject: subject, HTML: html})
}

// SendOperator delivers one email to the operator.
func (d *Dispatcher) SendOperator(ctx context.Context, subject, html string) bool {
	return d.send(ctx, RoleOperator, Mail{To: d.OperatorAddress(), Subject: subject, HTML: html})
}

// SendPair delivers the operator and submitter emails as two independent
// sends and waits for both. Neither result affects the other.
func (d *Dispatcher) SendPair(ctx context.Context, operator, submitter Mail) Outcome {
	if strings.TrimSpace(operator.To) == "" {
		operator.To = d.OperatorAddress()
	}
	var (
		wg      sync.WaitGroup
		outcome Outcome
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		outcome.Operator = d.send(ctx, RoleOperator, operator)
	}()
	go func() {
		defer wg.Done()
		outcome.Submitter = d.send(ctx, RoleSubmitter, submitter)
	}()
	wg.Wait()
	return outcome
}

func (d *Dispatcher) send(ctx context.Context, role string, mail Mail) (delivered bool) {
	if d == nil {
		log.Printf("email skipped role=%s reason=no dispatcher", role)
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// Accepted submissions still notify after the client disconnects.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	ctx, span := d.tracer.Start(ctx, "notify.send", trace.WithAttributes(attribute.String("email.role", role)))
	defer func() {
		span.SetAttributes(attribute.Bool("email.delivered", delivered))
		span.End()
		if d.observer != nil {
			d.observer.ObserveEmail(role, delivered)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("email panicked role=%s subject=%q request_id=%s panic=%v", role, mail.Subject, requestctx.RequestIDFromContext(ctx), r)
			span.SetStatus(codes.Error, "sender panicked")
			delivered = false
		}
	}()

	if d.sender == nil {
		log.Printf("email skipped role=%s subject=%q reason=%v", role, mail.Subject, ErrNotConfigured)
		span.SetStatus(codes.Error, ErrNotConfigured.Error())
		return false
	}
	if strings.TrimSpace(mail.To) == "" {
		log.Printf("email skipped role=%s subject=%q reason=missing recipient", role, mail.Subject)
		span.SetStatus(codes.Error, "missing recipient")
		return false
	}

	requestID := requestctx.RequestIDFromContext(ctx)
	err := d.sender.Send(ctx, Message{From: d.from, To: mail.To, Subject: mail.Subject, HTML: mail.HTML})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("email timed out role=%s subject=%q timeout=%s request_id=%s", role, mail.Subject, d.timeout, requestID)
		} else {
			log.Printf("email failed role=%s subject=%q request_id=%s err=%v", role, mail.Subject, requestID, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return false
	}
	log.Printf("email accepted role=%s subject=%q request_id=%s", role, mail.Subject, requestID)
	return true
}
