// Package main runs the storefront operator CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	storefrontctl "github.com/louisbranch/paidportfolio/internal/cmd/storefrontctl"
	"github.com/louisbranch/paidportfolio/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := storefrontctl.NewRootCommand(storefrontctl.Runtime{}).ExecuteContext(ctx); err != nil {
		stop()
		config.Exitf("storefrontctl: %v", err)
	}
}
