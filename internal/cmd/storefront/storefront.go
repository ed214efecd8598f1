// Package storefront parses storefront service flags and launches the service.
package storefront

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/paidportfolio/internal/platform/cmd"
	server "github.com/louisbranch/paidportfolio/internal/services/storefront/app"
)

// Config holds storefront command configuration.
type Config struct {
	Addr string `env:"STOREFRONT_HTTP_ADDR" envDefault:":5000"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The storefront HTTP listen address")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the storefront HTTP service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceStorefront, func(ctx context.Context) error {
		return server.Run(ctx, cfg.Addr)
	})
}
