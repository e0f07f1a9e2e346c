package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	defaultNBPBaseURL = "https://api.nbp.pl/api/"
	nbpUserAgent      = "CurrencyRates/1.0 (+https://api.nbp.pl)"
	maxBodyBytes      = 4 << 20
)

var _ RatesSource = (*NBPClient)(nil)

// NBPClient fetches exchange-rate tables from the NBP public API.
type NBPClient struct {
	baseURL string
	client  *http.Client
	log     *zap.SugaredLogger
}

// NewNBPClient creates a new NBPClient.
func NewNBPClient(baseURL string, timeoutSec int, logger *zap.SugaredLogger) *NBPClient {
	if baseURL == "" {
		baseURL = defaultNBPBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &NBPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		log:     logger,
	}
}

func (c *NBPClient) tablesURL(table string, spec DateSpec) string {
	return c.baseURL + "exchangerates/tables/" + url.PathEscape(table) + "/" + spec.PathSegment() + "/?format=json"
}

// FetchTables performs a single GET for the requested tables and returns the raw JSON body.
// A 404 means NBP has no table for the requested date(s) and yields an empty array.
func (c *NBPClient) FetchTables(ctx context.Context, table string, spec DateSpec) ([]byte, error) {
	reqURL := c.tablesURL(table, spec)
	c.log.Infow("NBP API request", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: request creation failed: %w", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", nbpUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %w", ErrSourceUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		c.log.Debugw("NBP API has no data", "url", reqURL)
		return []byte("[]"), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: NBP API returned status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		c.log.Debugw("NBP API returned invalid JSON", "url", reqURL, "body", truncate(body, 512))
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrSourceDataInvalid)
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
