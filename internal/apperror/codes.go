package apperror

// Code identifies a class of error condition.
type Code string

// Cross-cutting codes.
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeServiceTimeout     Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Market-data pipeline diagnostic codes. These classify recoverable
// conditions: the pipeline discards the offending item and continues.
const (
	CodeMalformedUpdate Code = "MALFORMED_UPDATE"
	CodeStaleUpdate     Code = "STALE_UPDATE"
	CodeUnknownPair     Code = "UNKNOWN_PAIR"
	CodeQueueOverflow   Code = "QUEUE_OVERFLOW"
	CodeFeedStale       Code = "FEED_STALE"
	CodeFeedSourceError Code = "FEED_SOURCE_ERROR"
)

// Opportunity delivery error codes.
const (
	CodeConsumerDeliveryFailed Code = "CONSUMER_DELIVERY_FAILED"
	CodeWebhookDeliveryFailed  Code = "WEBHOOK_DELIVERY_FAILED"
	CodeRedisPublishFailed     Code = "REDIS_PUBLISH_FAILED"

	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
