// Package apitest runs a fake storefront admin API for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/scent-admin/internal/apiclient"
	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/ariefcatur/scent-admin/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const BasePath = "/api/v1"

type Backend struct {
	Router chi.Router
	Server *httptest.Server
	Client *apiclient.Client
	Cache  *cache.Cache
	Clock  *cache.ManualClock
	Tokens *session.MemoryStore
	Notes  *apiclient.Recorder
	Nav    *apiclient.RouteTracker
	Log    *logrus.Logger

	mu   sync.Mutex
	hits map[string]int
}

// New starts a fake API; register handlers on b.Router with paths relative
// to BasePath.
func New(tb testing.TB) *Backend {
	tb.Helper()

	b := &Backend{
		Clock:  cache.NewManualClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		Tokens: session.NewMemoryStore(),
		Notes:  apiclient.NewRecorder(0),
		Nav:    apiclient.NewRouteTracker("/inventory"),
		hits:   map[string]int{},
	}
	b.Cache = cache.New(b.Clock)
	b.Log = logrus.New()
	b.Log.SetOutput(io.Discard)

	root := chi.NewRouter()
	root.Use(b.count)
	root.Route(BasePath, func(r chi.Router) { b.Router = r })
	b.Server = httptest.NewServer(root)
	tb.Cleanup(b.Server.Close)

	client, err := apiclient.New(apiclient.Config{
		BaseURL:   b.Server.URL + BasePath,
		Tokens:    b.Tokens,
		Notifier:  b.Notes,
		Navigator: b.Nav,
		Logger:    b.Log,
	})
	if err != nil {
		tb.Fatalf("apiclient: %v", err)
	}
	b.Client = client
	return b
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, BasePath)
		b.mu.Lock()
		b.hits[key]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Hits reports how many times method+path was requested.
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Raw writes a literal JSON body.
func Raw(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

// Fail replies with a message payload and the given status.
func Fail(code int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		JSON(w, code, map[string]string{"message": message})
	}
}

// Decode reads a JSON request body into v.
func Decode(tb testing.TB, r *http.Request, v any) {
	tb.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		tb.Errorf("decode request body: %v", err)
	}
}
