package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"currencyrates/internal/service"
	"currencyrates/internal/worker"
)

// BackfillEnqueuer queues range imports for the background worker.
type BackfillEnqueuer interface {
	EnqueueBackfill(ctx context.Context, payload worker.BackfillPayload) (string, error)
}

// BackfillRequest represents the request body for a backfill
type BackfillRequest struct {
	From  string `json:"from" example:"2025-10-01"`
	To    string `json:"to" example:"2025-10-31"`
	Table string `json:"table,omitempty" example:"A"`
}

// BackfillResponse represents the response for an accepted backfill
type BackfillResponse struct {
	TaskID string `json:"task_id" example:"0f3c2a64-8d0b-4a43-9a52-3a9f2d2b7a11"`
}

// ConvertResponse represents the response for a conversion
type ConvertResponse struct {
	Amount      string               `json:"amount" example:"100"`
	From        string               `json:"from" example:"PLN"`
	Conversions []service.Conversion `json:"conversions"`
	Formatted   []string             `json:"formatted" example:"EUR: 22.22 EUR"`
}

// HandleCronImport godoc
// @Summary Run the scheduled import for today
// @Description Imports today's table unless it was already imported today or another run holds the lock. Requires the cron token as the token query parameter or the X-Cron-Token header.
// @Tags import
// @Produce json
// @Param token query string false "Cron token"
// @Success 200 {object} service.ImportSummary "Imported or skipped"
// @Failure 403 {object} ErrorResponse "Invalid or missing token"
// @Failure 500 {object} service.ImportSummary "Import failed"
// @Router /cron/import [get]
func HandleCronImport(importer service.Importer, table string, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		sum := importer.ImportTodaySafely(ctx, table)
		status := http.StatusOK
		if sum.Status == service.StatusError {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, sum)
	}
}

// HandleListRates godoc
// @Summary List stored rates
// @Description Paginated, sortable listing of observations from the trailing window. Invalid parameters fall back to defaults instead of failing.
// @Tags rates
// @Produce json
// @Param page query int false "Page number" minimum(1)
// @Param per_page query int false "Page size" minimum(1) maximum(200)
// @Param sort query string false "Sort field" Enums(effective_date, currency_code, rate)
// @Param dir query string false "Sort direction" Enums(asc, desc)
// @Param table query string false "Table filter" Enums(A, B)
// @Success 200 {object} service.ListingPage "Listing page"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /rates [get]
func HandleListRates(lister service.Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := lister.List(r.Context(), service.ListingRequest{
			Page:     atoiOrZero(q.Get("page")),
			PageSize: atoiOrZero(q.Get("per_page")),
			Sort:     q.Get("sort"),
			Dir:      q.Get("dir"),
			Table:    q.Get("table"),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// HandleConvert godoc
// @Summary Convert an amount using the newest rates
// @Description Converts through the base currency. Targets without a known positive rate are omitted; an unknown source currency yields an empty list.
// @Tags rates
// @Produce json
// @Param amount query string true "Amount in the source currency" example(100)
// @Param from query string true "Source currency (3 letters)" minlength(3) maxlength(3)
// @Param to query string false "Comma-separated target currencies; defaults to the configured list"
// @Success 200 {object} ConvertResponse "Conversions"
// @Failure 400 {object} ErrorResponse "Invalid amount or currency"
// @Router /rates/convert [get]
func HandleConvert(conv service.ConverterInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		amount, err := decimal.NewFromString(strings.TrimSpace(q.Get("amount")))
		if err != nil {
			writeError(w, http.StatusBadRequest, "amount must be a decimal number")
			return
		}
		from := strings.ToUpper(strings.TrimSpace(q.Get("from")))
		if !service.IsValidCurrencyCode(from) {
			writeError(w, http.StatusBadRequest, "from must be a 3-letter currency code")
			return
		}

		targets := conv.AllowedTargets()
		if to := q.Get("to"); to != "" {
			targets = service.AllowedCurrencies(to)
		}

		conversions := conv.Convert(r.Context(), amount, from, targets)
		writeJSON(w, http.StatusOK, ConvertResponse{
			Amount:      amount.String(),
			From:        from,
			Conversions: conversions,
			Formatted:   service.FormatConversions(conversions),
		})
	}
}

// HandleBackfill godoc
// @Summary Queue a range import
// @Description Enqueues a background import of every table published between from and to (inclusive, at most 93 days). Requires the cron token.
// @Tags import
// @Accept json
// @Produce json
// @Param request body BackfillRequest true "Date range and table"
// @Success 202 {object} BackfillResponse "Backfill queued"
// @Failure 400 {object} ErrorResponse "Invalid range or table"
// @Failure 403 {object} ErrorResponse "Invalid or missing token"
// @Failure 500 {object} ErrorResponse "Internal queue error"
// @Router /rates/backfill [post]
func HandleBackfill(enq BackfillEnqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BackfillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.To) == "" {
			writeError(w, http.StatusBadRequest, "from and to are required")
			return
		}
		table, err := service.NormalizeTable(req.Table)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		id, err := enq.EnqueueBackfill(r.Context(), worker.BackfillPayload{From: req.From, To: req.To, Table: table})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			writeError(w, http.StatusInternalServerError, "Internal queue error")
			return
		}
		writeJSON(w, http.StatusAccepted, BackfillResponse{TaskID: id})
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
