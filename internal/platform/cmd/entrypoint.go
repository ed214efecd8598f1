// Package cmd is the startup sequence shared by the storefront binaries:
// env-then-flags configuration and a telemetry-wrapped run loop.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"

	"github.com/louisbranch/paidportfolio/internal/platform/config"
	"github.com/louisbranch/paidportfolio/internal/platform/otel"
	"github.com/louisbranch/paidportfolio/internal/platform/timeouts"
)

// Binary names, also used as the otel service.name.
const (
	ServiceStorefront    = "storefront"
	ServiceStorefrontCtl = "storefrontctl"
)

var (
	errNilConfig  = errors.New("config target is required")
	errNilFlagSet = errors.New("flag set is required")
	errNoService  = errors.New("service name is required")
	errNilRunLoop = errors.New("run function is required")
)

// ParseConfig fills cfg from STOREFRONT_* environment variables and their
// envDefault tags. Flags registered afterwards default to these values.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errNilConfig
	}
	return config.ParseEnv(cfg)
}

// ParseArgs applies command-line overrides on top of the env values.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errNilFlagSet
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs the tracer provider for service, runs the loop,
// and flushes spans once the loop returns. The loop's error wins over a
// flush failure, which is only logged.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errNoService
	}
	if run == nil {
		return errNilRunLoop
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.TelemetryFlush)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("telemetry flush failed service=%s err=%v", service, err)
		}
	}()
	return run(ctx)
}
