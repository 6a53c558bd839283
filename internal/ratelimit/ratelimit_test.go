package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/nexus-dashboard/internal/apperror"
)

func TestNew_BurstFloor(t *testing.T) {
	l := New(6)
	if !l.Allow() {
		t.Fatal("first request should be admitted")
	}
	if l.Allow() {
		t.Error("burst should be 1 for low limits")
	}
}

func TestWait_CancelledContext(t *testing.T) {
	l := Every(time.Hour, 1)
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if err == nil {
		t.Fatal("expected Wait to fail")
	}
	if apperror.GetCode(err) != apperror.CodeRateLimitExceeded {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeRateLimitExceeded)
	}
}
