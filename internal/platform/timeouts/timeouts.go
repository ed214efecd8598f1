// Package timeouts defines shared timeout constants used across the storefront.
// Centralizing these values keeps server and outbound budgets discoverable.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// GatewayRequest caps one payment gateway API call.
const GatewayRequest = 15 * time.Second

// EmailSend caps one email provider call, including SMTP dial and greeting.
const EmailSend = 30 * time.Second

// StoreOpen caps database connection and migration at startup.
const StoreOpen = 10 * time.Second

// TelemetryFlush caps the span flush when a binary exits.
const TelemetryFlush = 5 * time.Second
