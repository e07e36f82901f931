// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/fd1az/triscan/business/market/app"
	"github.com/fd1az/triscan/business/market/domain"
	"github.com/fd1az/triscan/internal/di"
)

// Public service tokens - exposed to other modules
var (
	RateGraph  = di.NewToken[*domain.RateGraph]("market.RateGraph")
	UpdateSink = di.NewToken[*app.UpdateSink]("market.UpdateSink")
)

// Private dependency tokens - internal to market module
var (
	FeedSource = di.NewToken[app.FeedSource]("market:feedSource")
	Watchdog   = di.NewToken[*app.Watchdog]("market:watchdog")
)

// Helper functions for type-safe access
func GetRateGraph(c di.ServiceRegistry) *domain.RateGraph {
	return di.GetToken(c, RateGraph)
}

func GetUpdateSink(c di.ServiceRegistry) *app.UpdateSink {
	return di.GetToken(c, UpdateSink)
}

func GetFeedSource(c di.ServiceRegistry) app.FeedSource {
	return di.GetToken(c, FeedSource)
}

func GetWatchdog(c di.ServiceRegistry) *app.Watchdog {
	return di.GetToken(c, Watchdog)
}
