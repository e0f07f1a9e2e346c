package testkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// NBPStub serves canned NBP table responses keyed by table and date segment,
// e.g. ("A", "2025-11-05") or ("A", "2025-11-03/2025-11-05"). Unknown keys return 404.
type NBPStub struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string]string
	status map[string]int
	hits   []string
}

// NewNBPStub starts the stub. Close it with t.Cleanup(stub.Close).
func NewNBPStub() *NBPStub {
	s := &NBPStub{bodies: map[string]string{}, status: map[string]int{}}

	r := chi.NewRouter()
	r.Get("/exchangerates/tables/{table}/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "table") + "/" + strings.Trim(chi.URLParam(r, "*"), "/")

		s.mu.Lock()
		s.hits = append(s.hits, key)
		body, ok := s.bodies[key]
		code := s.status[key]
		s.mu.Unlock()

		if code != 0 {
			w.WriteHeader(code)
			return
		}
		if !ok {
			http.Error(w, "404 NotFound - Not Found - Brak danych", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(body))
	})
	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the value for nbp.base_url.
func (s *NBPStub) BaseURL() string { return s.URL + "/" }

// Serve registers a JSON body for table and date segment.
func (s *NBPStub) Serve(table, segment, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[table+"/"+segment] = body
}

// Fail makes table and date segment answer with code.
func (s *NBPStub) Fail(table, segment string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[table+"/"+segment] = code
}

// Hits returns the requested keys in order.
func (s *NBPStub) Hits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hits...)
}
