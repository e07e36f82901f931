// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/triscan/business/arbitrage/app"
	"github.com/fd1az/triscan/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Detector = di.NewToken[*app.Detector]("arbitrage.Detector")
)

// Private dependency tokens - internal to arbitrage module
var (
	Scanner   = di.NewToken[*app.Scanner]("arbitrage:scanner")
	Reporter  = di.NewToken[*app.Reporter]("arbitrage:reporter")
	Consumers = di.NewToken[[]app.Consumer]("arbitrage:consumers")
)

// Helper functions for type-safe access
func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetReporter(c di.ServiceRegistry) *app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetConsumers(c di.ServiceRegistry) []app.Consumer {
	return di.GetToken(c, Consumers)
}
