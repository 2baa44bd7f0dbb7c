package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Reading validation error codes. These are the terminal outcomes of
// validating a raw oracle reading; operators rely on the distinction
// between them (stale vs. broken vs. misconfigured).
const (
	CodeOracleInactive       Code = "ORACLE_INACTIVE"
	CodeInvalidPrice         Code = "INVALID_PRICE"
	CodeStaleData            Code = "STALE_DATA"
	CodeConfigurationMissing Code = "CONFIGURATION_MISSING"
)

// Arithmetic error codes
const (
	CodeArithmeticOverflow Code = "ARITHMETIC_OVERFLOW"
	CodeDivisionByZero     Code = "DIVISION_BY_ZERO"
	CodePrecisionLoss      Code = "PRECISION_LOSS"
)

// Provider/transport error codes
const (
	CodeAggregatorCallFailed  Code = "AGGREGATOR_CALL_FAILED"
	CodeEthereumRPCError      Code = "ETHEREUM_RPC_ERROR"
	CodeFeedConnectionFailed  Code = "FEED_CONNECTION_FAILED"
	CodeFeedNoData            Code = "FEED_NO_DATA"
	CodeRestRequestFailed     Code = "REST_REQUEST_FAILED"
	CodeWebSocketSendError    Code = "WEBSOCKET_SEND_ERROR"
	CodeWebSocketClosed       Code = "WEBSOCKET_CLOSED"
	CodeCircuitOpen           Code = "CIRCUIT_OPEN"
	CodeProviderUnsupported   Code = "PROVIDER_UNSUPPORTED"
	CodeNotificationDiscarded Code = "NOTIFICATION_DISCARDED"
)
