package apperror

var messages = map[Code]string{
	CodeRateLimitExceeded: "Rate limit exceeded",
	CodeInternalError:     "Internal error",
	CodeUnknownError:      "An unknown error occurred",

	CodeWebSocketInvalidURL:      "Invalid WebSocket URL",
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",
	CodeWebSocketReadError:       "Failed to read WebSocket frame",
	CodeHeartbeatTimeout:         "No pong received before heartbeat deadline",
	CodeReconnectExhausted:       "Maximum reconnection attempts reached",

	CodeInvalidFrame:      "Malformed realtime frame",
	CodeInvalidPayload:    "Payload does not match the expected shape",
	CodeMessageEncodeFail: "Failed to encode outbound message",

	CodeNodeAPIError:         "Node API returned an error",
	CodeSnapshotFetchFailed:  "Failed to fetch network snapshot",
	CodeNodeConnectionFailed: "Failed to reach node API",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
