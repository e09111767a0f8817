package dellapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jgivc/cpldtracker/internal/entity"
)

const (
	apiURLTemplate  = "https://www.dell.com/support/driver/%s/ips/api/driverlist/fetchdriversbyproduct"
	refererTemplate = "https://www.dell.com/support/home/%s/product-support/product/%s/drivers"

	lob             = "PowerEdge" // server product line, the API needs it
	acceptJSON      = "application/json, text/javascript, */*; q=0.01"
	contentTypeJSON = "application/json"
	userAgent       = "Mozilla/5.0 (GitHubActions; +https://github.com/) GoHTTPClient"

	DefaultRetries = 3
	DefaultBackoff = 2 * time.Second

	defaultTimeout = 30 * time.Second
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type client struct {
	apiURL  string
	country string
	retries int
	backoff time.Duration
	http    Doer
	sleep   func(d time.Duration)
	now     func() time.Time

	log *slog.Logger
}

func New(country string, retries int, backoff time.Duration, log *slog.Logger) *client {
	return NewWithClient(&http.Client{Timeout: defaultTimeout}, time.Sleep,
		fmt.Sprintf(apiURLTemplate, country), country, retries, backoff, log)
}

func NewWithClient(doer Doer, sleep func(d time.Duration), apiURL, country string,
	retries int, backoff time.Duration, log *slog.Logger) *client {
	if retries < 1 {
		retries = DefaultRetries
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	return &client{
		apiURL:  apiURL,
		country: country,
		retries: retries,
		backoff: backoff,
		http:    doer,
		sleep:   sleep,
		now:     time.Now,
		log:     log.With(slog.String("item", "DellAPIClient")),
	}
}

// FetchDrivers queries the driver list for one product/OS combination. Each
// failed attempt sleeps backoff*attempt before the next one (2s, 4s, 6s with
// defaults). Exhausting all retries is not an error: it logs a warning and
// returns no rows, so one flaky combination never aborts a run. The error
// return is only used for context cancellation.
func (c *client) FetchDrivers(ctx context.Context, productcode, oscode string) ([]entity.DriverRow, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := c.fetch(ctx, productcode, oscode)
		if err == nil {
			return normalizeRows(resp.DriverListData), nil
		}

		lastErr = err
		c.log.Warn("Attempt failed",
			slog.String("productcode", productcode),
			slog.String("oscode", oscode),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		c.sleep(c.backoff * time.Duration(attempt))
	}

	c.log.Warn("Giving up",
		slog.String("productcode", productcode),
		slog.String("oscode", oscode),
		slog.Any("error", lastErr))

	return nil, nil
}

func (c *client) fetch(ctx context.Context, productcode, oscode string) (*driverListResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build request: %w", err)
	}

	q := req.URL.Query()
	q.Set("productcode", productcode)
	q.Set("oscode", oscode)
	q.Set("lob", lob)
	q.Set("initialload", "true")
	q.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10)) // cache buster
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", acceptJSON)
	req.Header.Set("x-requested-with", "XMLHttpRequest")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", fmt.Sprintf(refererTemplate, c.country, productcode))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("GET",
		slog.String("url", req.URL.String()),
		slog.Int("status", resp.StatusCode))

	ctype := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusNoContent {
		return nil, fmt.Errorf("no content")
	}
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(ctype, contentTypeJSON) {
		return nil, fmt.Errorf("unexpected status %d (Content-Type=%s)", resp.StatusCode, ctype)
	}

	var out driverListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("cannot decode response: %w", err)
	}

	return &out, nil
}
