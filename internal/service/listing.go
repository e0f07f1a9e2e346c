package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"currencyrates/internal/config"
	"currencyrates/internal/provider"
	"currencyrates/internal/repository"
)

// ListingRequest carries raw listing parameters. Invalid values are coerced, never rejected.
type ListingRequest struct {
	Page     int
	PageSize int
	Sort     string
	Dir      string
	Table    string
}

// RateRow is one listed observation.
type RateRow struct {
	CurrencyCode  string `json:"currency_code" example:"USD"`
	TableType     string `json:"table_type" example:"A"`
	Rate          string `json:"rate" example:"3.6912"`
	EffectiveDate string `json:"effective_date" example:"2025-11-05"`
	RecordedAt    string `json:"recorded_at" example:"2025-11-05T12:15:03Z"`
}

// ListingPage is one page of the trailing-window listing.
type ListingPage struct {
	Rows       []RateRow `json:"rows"`
	Total      int       `json:"total" example:"640"`
	Page       int       `json:"page" example:"1"`
	PerPage    int       `json:"per_page" example:"30"`
	TotalPages int       `json:"total_pages" example:"22"`
	Sort       string    `json:"sort" example:"effective_date"`
	Dir        string    `json:"dir" example:"desc"`
	From       string    `json:"from" example:"2025-10-06"`
}

// Lister defines the listing read path.
type Lister interface {
	List(ctx context.Context, req ListingRequest) (*ListingPage, error)
}

// ListingService lists stored observations over a trailing window of days.
type ListingService struct {
	rates           repository.RateRepository
	log             *zap.SugaredLogger
	windowDays      int
	defaultPageSize int
	loc             *time.Location
	now             func() time.Time
}

// NewListingService creates a new ListingService.
func NewListingService(rates repository.RateRepository, logger *zap.SugaredLogger, cfg config.ListingConfig, loc *time.Location) *ListingService {
	if loc == nil {
		loc = time.UTC
	}
	return &ListingService{
		rates:           rates,
		log:             logger,
		windowDays:      max(1, cfg.WindowDays),
		defaultPageSize: cfg.DefaultPageSize,
		loc:             loc,
		now:             time.Now,
	}
}

// List returns one page. A page past the end is clamped to the last page.
func (s *ListingService) List(ctx context.Context, req ListingRequest) (*ListingPage, error) {
	if req.PageSize <= 0 {
		req.PageSize = s.defaultPageSize
	}
	from := calendarDay(s.now().In(s.loc)).AddDate(0, 0, -s.windowDays)
	q := repository.NormalizeRangeQuery(repository.RangeQuery{
		From:     from,
		Table:    req.Table,
		Sort:     req.Sort,
		Dir:      req.Dir,
		Page:     req.Page,
		PageSize: req.PageSize,
	})

	rows, total, err := s.rates.RangeQuery(ctx, q)
	if err != nil {
		s.log.Errorw("DB error listing rates", "error", err)
		return nil, err
	}

	totalPages := max(1, (total+q.PageSize-1)/q.PageSize)
	if q.Page > totalPages {
		q.Page = totalPages
		rows, total, err = s.rates.RangeQuery(ctx, q)
		if err != nil {
			s.log.Errorw("DB error listing rates", "error", err)
			return nil, err
		}
		totalPages = max(1, (total+q.PageSize-1)/q.PageSize)
	}

	page := &ListingPage{
		Rows:       make([]RateRow, 0, len(rows)),
		Total:      total,
		Page:       q.Page,
		PerPage:    q.PageSize,
		TotalPages: totalPages,
		Sort:       q.Sort,
		Dir:        q.Dir,
		From:       from.Format(provider.DateLayout),
	}
	for _, o := range rows {
		page.Rows = append(page.Rows, RateRow{
			CurrencyCode:  o.CurrencyCode,
			TableType:     o.TableType,
			Rate:          o.Rate.String(),
			EffectiveDate: o.EffectiveDate.Format(provider.DateLayout),
			RecordedAt:    o.RecordedAt.UTC().Format(time.RFC3339),
		})
	}
	return page, nil
}
