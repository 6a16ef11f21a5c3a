package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/server/authctx"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code int    `json:"code"`
		Kind string `json:"kind"`
	} `json:"error"`
}

// newRouter mounts routes behind a fake authenticated admin.
func newRouter(register func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := authctx.WithCurrentUser(req.Context(), authctx.CurrentUser{ID: 1, Email: "owner@shop.id", Name: "Owner", Role: domain.RoleAdmin})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	rec := do(t, h, method, path, rdr, "application/json")
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
	}
	return rec, env
}

func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(env.Data, &m); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
	return m
}
