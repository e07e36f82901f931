// Package app contains application services and port definitions for the market context.
package app

import (
	"context"

	"github.com/fd1az/triscan/business/market/domain"
)

// FeedSource defines the interface for a price feed adapter.
type FeedSource interface {
	// Subscribe starts the feed and returns its event channel. The channel
	// is closed when the feed ends or the context is cancelled. Events are
	// delivered at-least-once and possibly out of order.
	Subscribe(ctx context.Context) (<-chan domain.PriceEvent, error)

	// Close releases feed resources.
	Close() error
}
