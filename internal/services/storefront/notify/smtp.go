package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSMTPHost = "smtp.gmail.com"
	defaultSMTPPort = 587
)

// SMTPConfig configures an authenticated STARTTLS relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPSender delivers through an SMTP relay with STARTTLS and PLAIN auth.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	dialer   net.Dialer
	now      func() time.Time
}

// NewSMTPSender builds a sender. Host and port default to Gmail submission.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Username) == "" || cfg.Password == "" {
		return nil, ErrNotConfigured
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultSMTPHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultSMTPPort
	}
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("smtp port %d is out of range", port)
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
		now:      time.Now,
	}, nil
}

// Addr returns the relay address.
func (s *SMTPSender) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Send delivers msg. The whole exchange is bounded by ctx's deadline.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if strings.TrimSpace(from) == "" {
		from = s.username
	}
	// Relays are dialed over IPv4 only.
	conn, err := s.dialer.DialContext(ctx, "tcp4", s.Addr())
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(envelopeAddress(from)); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write(buildMIME(from, msg.To, msg.Subject, msg.HTML, s.now())); err != nil {
		_ = writer.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp end data: %w", err)
	}
	return client.Quit()
}

// envelopeAddress strips a display name such as `Shop <a@b.io>`.
func envelopeAddress(from string) string {
	from = strings.TrimSpace(from)
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return from
}

func buildMIME(from, to, subject, html string, date time.Time) []byte {
	var buf bytes.Buffer
	writeHeader := func(name, value string) {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\r\n")
	}
	writeHeader("From", from)
	writeHeader("To", to)
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", subject))
	writeHeader("Date", date.UTC().Format(time.RFC1123Z))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", `text/html; charset="UTF-8"`)
	writeHeader("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(strings.ReplaceAll(html, "\r\n", "\n"), "\n", "\r\n"))
	return buf.Bytes()
}
