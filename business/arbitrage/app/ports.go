// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"

	"github.com/fd1az/triscan/business/arbitrage/domain"
)

// Consumer defines the interface for an opportunity delivery target.
// Implementations must tolerate concurrent delivery of distinct
// opportunities and must never assume redelivery.
type Consumer interface {
	// Name identifies the consumer in logs and metrics.
	Name() string

	// Deliver pushes one confirmed opportunity. Returned errors are counted
	// and logged by the reporter; they never propagate to the scan path.
	Deliver(ctx context.Context, opp domain.Opportunity) error

	// Close releases consumer resources after the final flush.
	Close() error
}
