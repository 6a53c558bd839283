package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stats struct {
	Blocks int  `json:"blocks"`
	Mining bool `json:"is_mining"`
}

func TestGet_DecodesResultAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/network-stats" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("verbose") != "true" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get("X-Client") != "dashboard" {
			t.Errorf("missing default header")
		}
		w.Write([]byte(`{"blocks":12,"is_mining":true}`))
	}))
	defer server.Close()

	client, err := NewInstrumentedClient(
		WithBaseURL(server.URL+"/"),
		WithProviderName("node"),
		WithHeaders(map[string]string{"X-Client": "dashboard"}),
	)
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}

	var out stats
	resp, err := client.NewRequest().
		SetQueryParam("verbose", "true").
		SetResult(&out).
		Get(context.Background(), "/network-stats")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if out.Blocks != 12 || !out.Mining {
		t.Errorf("decoded = %+v", out)
	}
}

func TestGet_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewInstrumentedClient(WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}

	t.Run("default handler", func(t *testing.T) {
		_, err := client.NewRequest().Get(context.Background(), "/x")
		if err == nil {
			t.Fatal("expected error for 500")
		}
	})

	t.Run("custom handler", func(t *testing.T) {
		sentinel := errors.New("node down")
		_, err := client.NewRequest(WithResponseErrorHandler(func(code int, body []byte) error {
			if code >= 500 {
				return sentinel
			}
			return nil
		})).Get(context.Background(), "/x")
		if !errors.Is(err, sentinel) {
			t.Fatalf("err = %v, want sentinel", err)
		}
	})
}

func TestGet_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client, _ := NewInstrumentedClient(WithBaseURL(server.URL))
	var out stats
	if _, err := client.NewRequest().SetResult(&out).Get(context.Background(), "/"); err == nil {
		t.Fatal("expected decode error")
	}
}
