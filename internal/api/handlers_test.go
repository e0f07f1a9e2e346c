package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"currencyrates/internal/service"
	"currencyrates/internal/worker"
)

func TestHandleCronImport(t *testing.T) {
	tests := []struct {
		name     string
		summary  *service.ImportSummary
		wantCode int
	}{
		{
			name:     "ok returns 200",
			summary:  &service.ImportSummary{Status: service.StatusOK, Table: "A", Inserted: 32, EffectiveDates: []string{"2025-11-05"}},
			wantCode: http.StatusOK,
		},
		{
			name:     "skipped returns 200",
			summary:  &service.ImportSummary{Status: service.StatusSkipped, Reason: service.ReasonAlreadyImported, Table: "A", EffectiveDates: []string{"2025-11-05"}},
			wantCode: http.StatusOK,
		},
		{
			name:     "error returns 500",
			summary:  &service.ImportSummary{Status: service.StatusError, Message: "source unavailable", Table: "A", Errors: 1, EffectiveDates: []string{}},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotTable string
			imp := &mockImporter{
				importTodayFunc: func(ctx context.Context, table string) *service.ImportSummary {
					gotTable = table
					return tc.summary
				},
			}

			req := httptest.NewRequest(http.MethodGet, "/cron/import", nil)
			w := httptest.NewRecorder()

			HandleCronImport(imp, "A", time.Minute).ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Errorf("Expected status %d, got %d", tc.wantCode, w.Code)
			}
			if gotTable != "A" {
				t.Errorf("Expected table A, got %q", gotTable)
			}

			var resp service.ImportSummary
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tc.summary.Status {
				t.Errorf("Expected status %s, got %s", tc.summary.Status, resp.Status)
			}
			if resp.Errors != tc.summary.Errors {
				t.Errorf("Expected errors %d, got %d", tc.summary.Errors, resp.Errors)
			}
		})
	}
}

func TestHandleCronImport_BoundsRunByTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	imp := &mockImporter{
		importTodayFunc: func(ctx context.Context, table string) *service.ImportSummary {
			deadline, hasDeadline = ctx.Deadline()
			<-ctx.Done()
			return &service.ImportSummary{Status: service.StatusError, Message: ctx.Err().Error(), Table: table, Errors: 1}
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/cron/import", nil)
	w := httptest.NewRecorder()
	start := time.Now()

	HandleCronImport(imp, "A", 50*time.Millisecond).ServeHTTP(w, req)

	if !hasDeadline {
		t.Fatal("Expected the import context to carry a deadline")
	}
	if d := deadline.Sub(start); d > time.Second {
		t.Errorf("Expected deadline within the configured timeout, got %v", d)
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestHandleListRates(t *testing.T) {
	t.Run("passes query parameters through", func(t *testing.T) {
		var got service.ListingRequest
		lister := &mockLister{
			listFunc: func(ctx context.Context, req service.ListingRequest) (*service.ListingPage, error) {
				got = req
				return &service.ListingPage{
					Rows:       []service.RateRow{{CurrencyCode: "USD", TableType: "A", Rate: "3.6912", EffectiveDate: "2025-11-05"}},
					Total:      1,
					Page:       1,
					PerPage:    10,
					TotalPages: 1,
					Sort:       "rate",
					Dir:        "asc",
					From:       "2025-10-06",
				}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/rates?page=2&per_page=10&sort=rate&dir=asc&table=b", nil)
		w := httptest.NewRecorder()

		HandleListRates(lister).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		want := service.ListingRequest{Page: 2, PageSize: 10, Sort: "rate", Dir: "asc", Table: "b"}
		if got != want {
			t.Errorf("Expected request %+v, got %+v", want, got)
		}

		var resp service.ListingPage
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(resp.Rows) != 1 || resp.Rows[0].CurrencyCode != "USD" {
			t.Errorf("Expected one USD row, got %+v", resp.Rows)
		}
	})

	t.Run("non-numeric paging becomes zero", func(t *testing.T) {
		var got service.ListingRequest
		lister := &mockLister{
			listFunc: func(ctx context.Context, req service.ListingRequest) (*service.ListingPage, error) {
				got = req
				return &service.ListingPage{Rows: []service.RateRow{}, Page: 1}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/rates?page=abc&per_page=-", nil)
		w := httptest.NewRecorder()

		HandleListRates(lister).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if got.Page != 0 || got.PageSize != 0 {
			t.Errorf("Expected zero paging, got page=%d per_page=%d", got.Page, got.PageSize)
		}
	})

	t.Run("store failure returns 500", func(t *testing.T) {
		lister := &mockLister{
			listFunc: func(ctx context.Context, req service.ListingRequest) (*service.ListingPage, error) {
				return nil, errors.New("connection refused")
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/rates", nil)
		w := httptest.NewRecorder()

		HandleListRates(lister).ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
		if strings.Contains(w.Body.String(), "connection refused") {
			t.Error("Expected internal error details to be hidden")
		}
	})
}

func TestHandleConvert(t *testing.T) {
	t.Run("defaults to configured targets", func(t *testing.T) {
		var gotTargets []string
		var gotSource string
		conv := &mockConverter{
			targets: []string{"EUR", "USD"},
			convertFunc: func(ctx context.Context, amount decimal.Decimal, source string, targets []string) []service.Conversion {
				gotSource, gotTargets = source, targets
				return []service.Conversion{{Currency: "EUR", Amount: decimal.RequireFromString("2345.67")}}
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/rates/convert?amount=10000&from=pln", nil)
		w := httptest.NewRecorder()

		HandleConvert(conv).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if gotSource != "PLN" {
			t.Errorf("Expected source PLN, got %s", gotSource)
		}
		if len(gotTargets) != 2 || gotTargets[0] != "EUR" || gotTargets[1] != "USD" {
			t.Errorf("Expected default targets [EUR USD], got %v", gotTargets)
		}

		var resp ConvertResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(resp.Formatted) != 1 || resp.Formatted[0] != "EUR: 2 345.67 EUR" {
			t.Errorf("Expected formatted EUR amount, got %v", resp.Formatted)
		}
	})

	t.Run("explicit targets are normalized", func(t *testing.T) {
		var gotTargets []string
		conv := &mockConverter{
			targets: []string{"EUR"},
			convertFunc: func(ctx context.Context, amount decimal.Decimal, source string, targets []string) []service.Conversion {
				gotTargets = targets
				return []service.Conversion{}
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/rates/convert?amount=1&from=USD&to=gbp,,chf,GBP", nil)
		w := httptest.NewRecorder()

		HandleConvert(conv).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if len(gotTargets) != 2 || gotTargets[0] != "GBP" || gotTargets[1] != "CHF" {
			t.Errorf("Expected targets [GBP CHF], got %v", gotTargets)
		}
	})

	t.Run("invalid input returns 400", func(t *testing.T) {
		conv := &mockConverter{}
		for _, target := range []string{
			"/rates/convert?from=PLN",
			"/rates/convert?amount=ten&from=PLN",
			"/rates/convert?amount=10",
			"/rates/convert?amount=10&from=EURO",
		} {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			w := httptest.NewRecorder()

			HandleConvert(conv).ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: expected status 400, got %d", target, w.Code)
			}
		}
	})
}

func TestHandleBackfill(t *testing.T) {
	t.Run("valid range returns 202", func(t *testing.T) {
		var got worker.BackfillPayload
		enq := &mockEnqueuer{
			enqueueFunc: func(ctx context.Context, payload worker.BackfillPayload) (string, error) {
				got = payload
				return "task-123", nil
			},
		}

		body := bytes.NewBufferString(`{"from":"2025-10-01","to":"2025-10-31"}`)
		req := httptest.NewRequest(http.MethodPost, "/rates/backfill", body)
		w := httptest.NewRecorder()

		HandleBackfill(enq).ServeHTTP(w, req)

		if w.Code != http.StatusAccepted {
			t.Errorf("Expected status 202, got %d", w.Code)
		}
		want := worker.BackfillPayload{From: "2025-10-01", To: "2025-10-31", Table: "A"}
		if got != want {
			t.Errorf("Expected payload %+v, got %+v", want, got)
		}

		var resp BackfillResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.TaskID != "task-123" {
			t.Errorf("Expected task_id 'task-123', got %s", resp.TaskID)
		}
	})

	t.Run("bad request returns 400", func(t *testing.T) {
		enq := &mockEnqueuer{
			enqueueFunc: func(ctx context.Context, payload worker.BackfillPayload) (string, error) {
				t.Fatal("enqueue must not be called")
				return "", nil
			},
		}
		for _, body := range []string{
			`not json`,
			`{"from":"2025-10-01"}`,
			`{"from":"2025-10-01","to":"2025-10-31","table":"C"}`,
		} {
			req := httptest.NewRequest(http.MethodPost, "/rates/backfill", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			HandleBackfill(enq).ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: expected status 400, got %d", body, w.Code)
			}
		}
	})

	t.Run("queue failure returns 500", func(t *testing.T) {
		enq := &mockEnqueuer{
			enqueueFunc: func(ctx context.Context, payload worker.BackfillPayload) (string, error) {
				return "", errors.New("redis down")
			},
		}

		body := bytes.NewBufferString(`{"from":"2025-10-01","to":"2025-10-02","table":"b"}`)
		req := httptest.NewRequest(http.MethodPost, "/rates/backfill", body)
		w := httptest.NewRecorder()

		HandleBackfill(enq).ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}

		var resp ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Error != "Internal queue error" {
			t.Errorf("Expected 'Internal queue error', got '%s'", resp.Error)
		}
	})
}

func TestHandleHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler := HandleHealthz()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestHandleReadyz(t *testing.T) {
	up := ReadinessCheck{Name: "DB", Check: func(ctx context.Context) error { return nil }}
	down := ReadinessCheck{Name: "Redis (cache)", Check: func(ctx context.Context) error { return errors.New("dial tcp: refused") }}

	t.Run("all checks pass", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleReadyz(up, RedisCheck("Redis (queue)", nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("failing check returns 503", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleReadyz(up, down).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}

		var resp ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Error != "Redis (cache) not ready" {
			t.Errorf("Expected 'Redis (cache) not ready', got '%s'", resp.Error)
		}
	})
}
