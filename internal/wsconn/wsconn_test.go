package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/nexus-dashboard/internal/apperror"
)

// mockWSServer creates a test WebSocket server running handler per connection.
func mockWSServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("websocket accept error: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		if handler != nil {
			handler(conn)
		}
	}))
}

// echoHandler echoes messages back to the client.
func echoHandler(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if err := conn.Write(ctx, msgType, data); err != nil {
			return
		}
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
	}{
		{"ws://localhost:8001/ws", true},
		{"wss://node.example/ws", true},
		{"http://localhost:8001/ws", false},
		{"ws://", false},
		{"::not a url", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			err := ValidateURL(tt.raw)
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatal("expected error")
				}
				if apperror.GetCode(err) != apperror.CodeWebSocketInvalidURL {
					t.Errorf("code = %s", apperror.GetCode(err))
				}
			}
		})
	}
}

func TestDial_Success(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewDialer(DefaultConfig()).Dial(ctx, wsURL(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Abort()
}

func TestDial_Failure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewDialer(DefaultConfig()).Dial(ctx, "ws://localhost:59999") // Nothing listening
	if err == nil {
		t.Fatal("expected Dial to fail")
	}
	if apperror.GetCode(err) != apperror.CodeWebSocketConnectionError {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeWebSocketConnectionError)
	}
}

func TestConn_WriteJSON(t *testing.T) {
	received := make(chan []byte, 1)

	server := mockWSServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			return
		}
		received <- data
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewDialer(DefaultConfig()).Dial(ctx, wsURL(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Abort()

	if err := conn.Write(ctx, []byte(`{"type":"SUBSCRIBE_UPDATES"}`)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	select {
	case data := <-received:
		var parsed map[string]any
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("received data is not valid JSON: %v\ndata: %s", err, data)
		}
		if parsed["type"] != "SUBSCRIBE_UPDATES" {
			t.Errorf("expected type=SUBSCRIBE_UPDATES, got %v", parsed["type"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive message")
	}
}

func TestConn_ReadEcho(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewDialer(DefaultConfig()).Dial(ctx, wsURL(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Abort()

	testMsg := []byte(`{"type":"PING"}`)
	if err := conn.Write(ctx, testMsg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != string(testMsg) {
		t.Errorf("expected %s, got %s", testMsg, got)
	}
}

func TestConn_PeerCloseReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		conn.Close(websocket.StatusGoingAway, "node shutting down")
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewDialer(DefaultConfig()).Dial(ctx, wsURL(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Abort()

	_, err = conn.Read(ctx)
	if err == nil {
		t.Fatal("expected read error after peer close")
	}
	if apperror.GetCode(err) != apperror.CodeWebSocketClosed {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeWebSocketClosed)
	}
}

func TestConn_GracefulClose(t *testing.T) {
	closed := make(chan websocket.StatusCode, 1)

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, _, err := conn.Read(context.Background())
			if err != nil {
				closed <- websocket.CloseStatus(err)
				return
			}
		}
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewDialer(DefaultConfig()).Dial(ctx, wsURL(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	// Reader keeps the handshake flowing, as in production.
	go conn.Read(ctx)

	if err := conn.Close(StatusNormalClosure, "Client disconnecting"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case code := <-closed:
		if code != websocket.StatusNormalClosure {
			t.Errorf("server saw close code %d, want 1000", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the close frame")
	}

	// Second close should be idempotent
	if err := conn.Close(StatusNormalClosure, ""); err != nil {
		t.Errorf("second Close should not error: %v", err)
	}
}

func TestConn_ConcurrentWrite(t *testing.T) {
	var msgCount atomic.Int32

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, _, err := conn.Read(context.Background())
			if err != nil {
				return
			}
			msgCount.Add(1)
		}
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewDialer(DefaultConfig()).Dial(ctx, wsURL(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Abort()

	const numGoroutines = 10
	const msgsPerGoroutine = 5
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < msgsPerGoroutine; j++ {
				msg, _ := json.Marshal(map[string]int{"goroutine": id, "msg": j})
				if err := conn.Write(ctx, msg); err != nil {
					t.Errorf("Write failed: %v", err)
					return
				}
			}
		}(i)
	}

	wg.Wait()

	expected := int32(numGoroutines * msgsPerGoroutine)
	deadline := time.Now().Add(2 * time.Second)
	for msgCount.Load() < expected && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := msgCount.Load(); got != expected {
		t.Errorf("expected %d messages, server received %d", expected, got)
	}
}

func TestConn_MaxMessageSize(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		largeMsg := make([]byte, 1024*1024) // 1MB
		for i := range largeMsg {
			largeMsg[i] = 'A'
		}
		conn.Write(context.Background(), websocket.MessageText, largeMsg)
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	cfg := DefaultConfig()
	cfg.MaxMessageSize = 100 // Very small limit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewDialer(cfg).Dial(ctx, wsURL(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Abort()

	if _, err := conn.Read(ctx); err == nil {
		t.Fatal("expected oversized frame to fail the read")
	}
}
