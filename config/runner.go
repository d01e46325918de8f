package config

import (
	"net"
	"time"
)

// RunnerOptions control a single exchange: where to send and how long to
// keep trying.
type RunnerOptions struct {
	Target net.IP
	Port   int

	// Timeout is the per-attempt wait; each retry restarts its own window.
	Timeout time.Duration

	// MaxRetries counts retries after the first attempt, so the total
	// number of sends is MaxRetries+1.
	MaxRetries int

	// NoRetry treats the first timeout as exhaustion.
	NoRetry bool
}
