package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew_DefaultMessage(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"default", nil, "HEARTBEAT_TIMEOUT: No pong received before heartbeat deadline"},
		{"context", []Option{WithContext("no PONG within 10s")},
			"HEARTBEAT_TIMEOUT: No pong received before heartbeat deadline (no PONG within 10s)"},
		{"custom message", []Option{WithMessage("node silent")}, "HEARTBEAT_TIMEOUT: node silent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(CodeHeartbeatTimeout, tt.opts...).Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := New(Code("NOT_REGISTERED")).Message; got != "NOT_REGISTERED" {
		t.Errorf("unregistered code message = %q", got)
	}
}

func TestAppError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := New(CodeWebSocketConnectionError, WithCause(cause), WithContext("ws://localhost:8001/ws"))

	if !errors.Is(err, New(CodeWebSocketConnectionError)) {
		t.Error("expected errors.Is to match on code")
	}
	if errors.Is(err, New(CodeWebSocketClosed)) {
		t.Error("expected errors.Is to reject a different code")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestHasCode_WalksNestedAppErrors(t *testing.T) {
	inner := New(CodeHeartbeatTimeout)
	outer := New(CodeWebSocketClosed, WithCause(inner))
	wrapped := fmt.Errorf("reader: %w", outer)

	if !HasCode(wrapped, CodeHeartbeatTimeout) {
		t.Error("expected nested heartbeat code to be found")
	}
	if HasCode(wrapped, CodeInvalidFrame) {
		t.Error("did not expect unrelated code")
	}
	if HasCode(errors.New("plain"), CodeInternalError) {
		t.Error("plain errors carry no code")
	}
}

func TestTransient(t *testing.T) {
	if !Transient(New(CodeWebSocketConnectionError)) {
		t.Error("connection errors should be transient")
	}
	if !Transient(fmt.Errorf("poll: %w", New(CodeCircuitOpen))) {
		t.Error("an open circuit should be transient")
	}
	if Transient(New(CodeWebSocketInvalidURL)) {
		t.Error("invalid URL must not be retried")
	}
	if Transient(New(CodeNodeAPIError)) {
		t.Error("node 4xx answers must not be retried")
	}
	if Transient(errors.New("plain")) {
		t.Error("unknown errors are not transient")
	}
}

func TestWrap_KeepsExistingAppError(t *testing.T) {
	orig := New(CodeInvalidFrame)
	got := Wrap(orig, CodeInternalError, "handleFrame")
	if got != orig {
		t.Fatal("expected Wrap to return the original AppError")
	}
	if got.Context != "handleFrame" {
		t.Errorf("context = %q, want handleFrame", got.Context)
	}
	if Wrap(nil, CodeInternalError, "") != nil {
		t.Error("Wrap(nil) should be nil")
	}

	plain := errors.New("dial tcp: i/o timeout")
	wrapped := Wrap(plain, CodeSnapshotFetchFailed, "/network-stats")
	if wrapped.Code != CodeSnapshotFetchFailed || wrapped.Context != "/network-stats" {
		t.Errorf("wrapped = %+v", wrapped)
	}
	if !errors.Is(wrapped, plain) {
		t.Error("wrapped error lost its cause")
	}
}
