package apperror

// messages maps each code to its default human-readable text.
var messages = map[Code]string{
	// Cross-cutting
	CodeInvalidInput:       "Invalid input provided",
	CodeConfigurationError: "Configuration error",
	CodeServiceTimeout:     "Service request timeout",
	CodeRateLimitExceeded:  "Rate limit exceeded",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	// Market-data pipeline diagnostics
	CodeMalformedUpdate: "Malformed price update discarded",
	CodeStaleUpdate:     "Stale price update discarded",
	CodeUnknownPair:     "Price update references an unconfigured pair",
	CodeQueueOverflow:   "Delivery queue overflow, oldest entry dropped",
	CodeFeedStale:       "No price updates within the freshness window",
	CodeFeedSourceError: "Feed source error",

	// Opportunity delivery
	CodeConsumerDeliveryFailed:   "Consumer delivery failed",
	CodeWebhookDeliveryFailed:    "Webhook delivery failed",
	CodeRedisPublishFailed:       "Redis publish failed",
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketSendError:       "Failed to send WebSocket message",
	CodeCircuitOpen:              "Circuit breaker is open",
}
