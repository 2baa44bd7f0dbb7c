package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeNotFound:           "Resource not found",
	CodeConfigurationError: "Configuration error",
	CodeRateLimitExceeded:  "Rate limit exceeded",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	CodeOracleInactive:       "Oracle source is not active",
	CodeInvalidPrice:         "Reading reported a non-positive price",
	CodeStaleData:            "Reading is older than the allowed staleness bound",
	CodeConfigurationMissing: "No source configuration registered for this source/asset pair",

	CodeArithmeticOverflow: "Arithmetic result exceeds the representable range",
	CodeDivisionByZero:     "Division by zero",
	CodePrecisionLoss:      "Source precision exceeds the canonical precision",

	CodeAggregatorCallFailed:  "Aggregator contract call failed",
	CodeEthereumRPCError:      "Ethereum RPC call failed",
	CodeFeedConnectionFailed:  "Price feed connection failed",
	CodeFeedNoData:            "No reading received from the price feed yet",
	CodeRestRequestFailed:     "REST price request failed",
	CodeWebSocketSendError:    "Failed to send WebSocket message",
	CodeWebSocketClosed:       "WebSocket connection closed",
	CodeCircuitOpen:           "Circuit breaker is open",
	CodeProviderUnsupported:   "No reading provider registered for this source kind",
	CodeNotificationDiscarded: "Notification dropped: delivery queue full",
}
