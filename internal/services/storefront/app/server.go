// Package server wires the storefront runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/louisbranch/paidportfolio/internal/platform/config"
	"github.com/louisbranch/paidportfolio/internal/platform/httpx"
	platformkafka "github.com/louisbranch/paidportfolio/internal/platform/kafka"
	"github.com/louisbranch/paidportfolio/internal/platform/metrics"
	"github.com/louisbranch/paidportfolio/internal/platform/timeouts"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/api/httpapi"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/catalog"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/checkout"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/events"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/intake"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/notify"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/notify/render"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage/memory"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage/postgres"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage/sqlite"
)

const (
	defaultResendFrom = "PaidPortfolio <onboarding@resend.dev>"
	eventBuffer       = 256
)

// Env is the storefront runtime configuration read from the environment.
type Env struct {
	Store       string `env:"STOREFRONT_STORE" envDefault:"sqlite"`
	DBPath      string `env:"STOREFRONT_DB_PATH"`
	DatabaseURL string `env:"STOREFRONT_DATABASE_URL"`
	StaticDir   string `env:"STOREFRONT_STATIC_DIR"`

	OperatorEmail string `env:"STOREFRONT_OPERATOR_EMAIL" envDefault:"directtoakash@gmail.com"`
	EmailFrom     string `env:"STOREFRONT_EMAIL_FROM"`
	EmailProvider string `env:"STOREFRONT_EMAIL_PROVIDER"`
	SMTPHost      string `env:"STOREFRONT_SMTP_HOST"`
	SMTPPort      int    `env:"STOREFRONT_SMTP_PORT"`
	SMTPUser      string `env:"EMAIL_USER"`
	SMTPPassword  string `env:"EMAIL_PASS"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`

	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET"`

	KafkaBrokers string `env:"STOREFRONT_KAFKA_BROKERS"`
	KafkaTopic   string `env:"STOREFRONT_KAFKA_TOPIC" envDefault:"storefront.events"`
}

// LoadEnv reads Env from the process environment and fills derived defaults.
func LoadEnv() (Env, error) {
	var cfg Env
	if err := config.ParseEnv(&cfg); err != nil {
		return Env{}, err
	}
	return cfg.withDefaults(), nil
}

func (e Env) withDefaults() Env {
	e.Store = strings.ToLower(strings.TrimSpace(e.Store))
	if e.Store == "" {
		e.Store = storage.DriverSQLite
	}
	if strings.TrimSpace(e.DBPath) == "" {
		e.DBPath = filepath.Join("data", "storefront.db")
	}
	if strings.TrimSpace(e.EmailFrom) == "" {
		if strings.TrimSpace(e.ResendAPIKey) != "" || strings.TrimSpace(e.SMTPUser) == "" {
			e.EmailFrom = defaultResendFrom
		} else {
			e.EmailFrom = strings.TrimSpace(e.SMTPUser)
		}
	}
	return e
}

// OpenStore opens the configured storage backend.
func OpenStore(ctx context.Context, env Env) (storage.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.StoreOpen)
	defer cancel()

	switch env.Store {
	case storage.DriverMemory:
		return memory.New(), nil
	case storage.DriverSQLite:
		if dir := filepath.Dir(env.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, env.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open storefront sqlite store: %w", err)
		}
		return store, nil
	case storage.DriverPostgres:
		if strings.TrimSpace(env.DatabaseURL) == "" {
			return nil, errors.New("STOREFRONT_DATABASE_URL is required for the postgres store")
		}
		store, err := postgres.Open(ctx, env.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open storefront postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", env.Store)
	}
}

// NewSender builds the configured email provider. A nil sender with a nil
// error means email is disabled.
func NewSender(env Env) (notify.Sender, error) {
	sender, err := notify.SenderFromConfig(notify.ProviderConfig{
		Provider:     env.EmailProvider,
		ResendAPIKey: env.ResendAPIKey,
		SMTPHost:     env.SMTPHost,
		SMTPPort:     env.SMTPPort,
		SMTPUser:     env.SMTPUser,
		SMTPPassword: env.SMTPPassword,
	})
	if errors.Is(err, notify.ErrNotConfigured) {
		log.Printf("email disabled: %v", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sender, nil
}

func newGateway(env Env) (checkout.Gateway, error) {
	if strings.TrimSpace(env.RazorpayKeyID) == "" || strings.TrimSpace(env.RazorpayKeySecret) == "" {
		log.Printf("payment gateway disabled: RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
		return nil, nil
	}
	gateway, err := checkout.NewRazorpayGateway(env.RazorpayKeyID, env.RazorpayKeySecret)
	if err != nil {
		return nil, fmt.Errorf("init payment gateway: %w", err)
	}
	return gateway, nil
}

func newPublisher(env Env) (events.Publisher, func() error, error) {
	client := platformkafka.NewClient(env.KafkaBrokers)
	if !client.Enabled() {
		return events.Nop{}, func() error { return nil }, nil
	}
	writer, err := client.NewWriter(env.KafkaTopic)
	if err != nil {
		return nil, nil, fmt.Errorf("init event writer: %w", err)
	}
	publisher := events.NewKafkaPublisher(writer, eventBuffer)
	log.Printf("publishing events to kafka topic=%s brokers=%s", env.KafkaTopic, strings.Join(client.Brokers, ","))
	return publisher, publisher.Close, nil
}

// Server hosts the storefront HTTP API, static frontend, and store lifecycle.
type Server struct {
	listener    net.Listener
	httpServer  *http.Server
	store       storage.Store
	closeEvents func() error
	closeOnce   sync.Once
}

// New creates a storefront server listening on addr with configuration read
// from the environment.
func New(ctx context.Context, addr string) (*Server, error) {
	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	return NewWithEnv(ctx, addr, env)
}

// NewWithEnv creates a storefront server listening on addr.
func NewWithEnv(ctx context.Context, addr string, env Env) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	env = env.withDefaults()

	gateway, err := newGateway(env)
	if err != nil {
		return nil, err
	}
	sender, err := NewSender(env)
	if err != nil {
		return nil, err
	}
	var static http.Handler
	if strings.TrimSpace(env.StaticDir) != "" {
		handler, err := httpapi.NewStaticHandler(env.StaticDir)
		if err != nil {
			return nil, fmt.Errorf("frontend build folder missing: %w", err)
		}
		static = handler
	}
	templates, err := catalog.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	store, err := OpenStore(ctx, env)
	if err != nil {
		return nil, err
	}
	publisher, closeEvents, err := newPublisher(env)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		_ = closeEvents()
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	serverMetrics := metrics.NewServerMetrics()
	renderer := render.New(nil)
	dispatcher := notify.NewDispatcher(sender, notify.Config{
		From:     env.EmailFrom,
		Operator: env.OperatorEmail,
		Observer: serverMetrics,
	})
	checkoutService := checkout.NewService(checkout.Deps{
		Store:     store,
		Templates: templates,
		Gateway:   gateway,
		KeySecret: env.RazorpayKeySecret,
		Notifier:  dispatcher,
		Renderer:  renderer,
		Events:    publisher,
	})
	intakeService := intake.NewService(store, dispatcher, renderer, publisher, nil, nil)
	api := httpapi.NewHandler(templates, checkoutService, intakeService)

	mux := http.NewServeMux()
	api.Register(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", serverMetrics.Handler())
	if static != nil {
		mux.Handle("/", static)
	}

	httpServer := &http.Server{
		Handler: httpx.Chain(mux,
			httpx.RequestID(),
			httpx.RecoverPanic(),
			httpx.AccessLog(),
			serverMetrics.Middleware(),
		),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	log.Printf("storefront configured store=%s email=%t gateway=%t static=%t",
		env.Store, dispatcher.Configured(), gateway != nil, static != nil)
	return &Server{
		listener:    listener,
		httpServer:  httpServer,
		store:       store,
		closeEvents: closeEvents,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a storefront server until context cancellation.
func Run(ctx context.Context, addr string) error {
	server, err := New(ctx, addr)
	if err != nil {
		return fmt.Errorf("init storefront server: %w", err)
	}
	return server.Serve(ctx)
}

// Serve runs the HTTP server until context cancellation, then drains
// in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("storefront server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases storefront server resources. It is safe to call more than
// once.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(s.close)
}

func (s *Server) close() {
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.closeEvents != nil {
		if err := s.closeEvents(); err != nil {
			log.Printf("close event publisher: %v", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close storefront store: %v", err)
		}
	}
}
