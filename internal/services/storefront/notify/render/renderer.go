// Package render builds the storefront's transactional email copy.
package render

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
)

const defaultMissingValue = "N/A"

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Email is one rendered message ready for the dispatcher.
type Email struct {
	Subject string
	HTML    string
}

// Renderer renders localized email copy. Visitor input is escaped by
// html/template.
type Renderer struct {
	loc Localizer
}

// New returns a renderer. A nil localizer falls back to English.
func New(loc Localizer) *Renderer {
	if loc == nil {
		loc = message.NewPrinter(language.English)
	}
	return &Renderer{loc: loc}
}

type row struct {
	Label string
	Value string
}

type page struct {
	Heading    string
	Paragraphs []string
	Rows       []row
	Quote      string
	BodyTitle  string
	Body       string
	Closing    []string
}

// ContactOperator notifies the operator of a new contact or booking message.
func (r *Renderer) ContactOperator(msg domain.ContactMessage) Email {
	return r.email(r.loc.Sprintf("email.contact_operator.subject", msg.Subject), page{
		Heading: r.loc.Sprintf("email.contact_operator.heading"),
		Rows: []row{
			{Label: r.loc.Sprintf("email.label.name"), Value: msg.Name},
			{Label: r.loc.Sprintf("email.label.email"), Value: msg.Email},
			{Label: r.loc.Sprintf("email.label.subject"), Value: msg.Subject},
		},
		BodyTitle: r.loc.Sprintf("email.contact_operator.body_title"),
		Body:      msg.Message,
	})
}

// ContactConfirmation acknowledges a contact message to its submitter.
func (r *Renderer) ContactConfirmation(msg domain.ContactMessage) Email {
	return r.email(r.loc.Sprintf("email.contact_confirmation.subject"), page{
		Heading: r.loc.Sprintf("email.contact_confirmation.heading"),
		Paragraphs: []string{
			r.loc.Sprintf("email.contact_confirmation.greeting", msg.Name),
			r.loc.Sprintf("email.contact_confirmation.intro"),
		},
		Quote:   msg.Subject,
		Closing: r.closing(),
	})
}

// CustomRequestOperator notifies the operator of a new custom request.
func (r *Renderer) CustomRequestOperator(req domain.CustomRequest) Email {
	subject := r.loc.Sprintf("email.custom_request_operator.subject")
	return r.email(subject, page{
		Heading: subject,
		Rows: []row{
			{Label: r.loc.Sprintf("email.label.name"), Value: req.Name},
			{Label: r.loc.Sprintf("email.label.email"), Value: req.Email},
			{Label: r.loc.Sprintf("email.label.phone"), Value: r.orMissing(req.Phone)},
			{Label: r.loc.Sprintf("email.label.budget"), Value: req.Budget},
			{Label: r.loc.Sprintf("email.label.timeline"), Value: req.Timeline},
			{Label: r.loc.Sprintf("email.label.profession"), Value: r.orMissing(req.Profession)},
		},
		BodyTitle: r.loc.Sprintf("email.custom_request_operator.body_title"),
		Body:      req.Description,
	})
}

// CustomRequestConfirmation acknowledges a custom request to its submitter.
func (r *Renderer) CustomRequestConfirmation(req domain.CustomRequest) Email {
	return r.email(r.loc.Sprintf("email.custom_request_confirmation.subject"), page{
		Heading: r.loc.Sprintf("email.custom_request_confirmation.heading"),
		Paragraphs: []string{
			r.loc.Sprintf("email.contact_confirmation.greeting", req.Name),
			r.loc.Sprintf("email.custom_request_confirmation.intro"),
		},
		Rows: []row{
			{Label: r.loc.Sprintf("email.label.budget"), Value: req.Budget},
			{Label: r.loc.Sprintf("email.label.timeline"), Value: req.Timeline},
		},
		Closing: r.closing(),
	})
}

// OrderCompleted notifies the operator of a verified payment. templateName may
// be empty when the order has no template reference.
func (r *Renderer) OrderCompleted(order domain.Order, templateName string) Email {
	templateLabel := templateName
	if templateLabel == "" {
		templateLabel = order.TemplateID
	}
	return r.email(r.loc.Sprintf("email.order_completed.subject", order.ID), page{
		Heading: r.loc.Sprintf("email.order_completed.heading"),
		Rows: []row{
			{Label: r.loc.Sprintf("email.label.order"), Value: order.ID},
			{Label: r.loc.Sprintf("email.label.customer"), Value: order.CustomerName + " <" + order.CustomerEmail + ">"},
			{Label: r.loc.Sprintf("email.label.template"), Value: r.orMissing(templateLabel)},
			{Label: r.loc.Sprintf("email.label.amount"), Value: r.loc.Sprintf("email.value.amount", order.Currency, order.Amount)},
			{Label: r.loc.Sprintf("email.label.payment"), Value: order.GatewayPaymentID},
		},
	})
}

// TestEmail is the provider smoke-test message.
func (r *Renderer) TestEmail() Email {
	return r.email(r.loc.Sprintf("email.test.subject"), page{
		Heading:    r.loc.Sprintf("email.test.heading"),
		Paragraphs: []string{r.loc.Sprintf("email.test.body")},
	})
}

func (r *Renderer) closing() []string {
	return []string{
		r.loc.Sprintf("email.closing.reply_soon"),
		r.loc.Sprintf("email.closing.regards"),
		r.loc.Sprintf("email.closing.signature"),
	}
}

func (r *Renderer) orMissing(value string) string {
	if strings.TrimSpace(value) == "" {
		return r.loc.Sprintf("email.value.missing")
	}
	return value
}

func (r *Renderer) email(subject string, data page) Email {
	var buf bytes.Buffer
	if err := emailTemplate.ExecuteTemplate(&buf, "email", data); err != nil {
		log.Printf("render email failed subject=%q err=%v", subject, err)
	}
	return Email{Subject: subject, HTML: buf.String()}
}
