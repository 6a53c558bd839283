package apperror

// Code identifies a class of failure.
type Code string

// General error codes
const (
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeInternalError     Code = "INTERNAL_ERROR"
	CodeUnknownError      Code = "UNKNOWN_ERROR"
)

// WebSocket errors
const (
	CodeWebSocketInvalidURL      Code = "WEBSOCKET_INVALID_URL"
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"
	CodeWebSocketReadError       Code = "WEBSOCKET_READ_ERROR"
	CodeHeartbeatTimeout         Code = "HEARTBEAT_TIMEOUT"
	CodeReconnectExhausted       Code = "RECONNECT_EXHAUSTED"
)

// Realtime protocol errors
const (
	CodeInvalidFrame      Code = "INVALID_FRAME"
	CodeInvalidPayload    Code = "INVALID_PAYLOAD"
	CodeMessageEncodeFail Code = "MESSAGE_ENCODE_FAILED"
)

// Node REST errors
const (
	CodeNodeAPIError         Code = "NODE_API_ERROR"
	CodeSnapshotFetchFailed  Code = "SNAPSHOT_FETCH_FAILED"
	CodeNodeConnectionFailed Code = "NODE_CONNECTION_FAILED"
)

// Circuit breaker errors
const (
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
