package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFonnteSend(t *testing.T) {
	var got fonntePayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"status":true}`))
	}))
	defer srv.Close()

	f := NewFonnte(srv.URL, "secret", nil)
	if err := f.Send(context.Background(), "+6281234567890", "halo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "secret" {
		t.Fatalf("expected token header, got %q", auth)
	}
	if got.Target != "6281234567890" || got.Message != "halo" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestFonnteSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":false,"reason":"invalid token"}`))
	}))
	defer srv.Close()

	f := NewFonnte(srv.URL, "bad", nil)
	if err := f.Send(context.Background(), "+6281234567890", "halo"); err == nil {
		t.Fatalf("expected rejection error")
	}
}

func TestFonnteSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFonnte(srv.URL, "secret", nil)
	if err := f.Send(context.Background(), "+6281234567890", "halo"); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestFonnteDisabled(t *testing.T) {
	f := NewFonnte("http://127.0.0.1:0", "", nil)
	if f.Enabled() {
		t.Fatalf("expected disabled notifier")
	}
	if err := f.Send(context.Background(), "+6281234567890", "halo"); err != nil {
		t.Fatalf("disabled send should be a no-op, got %v", err)
	}
}
