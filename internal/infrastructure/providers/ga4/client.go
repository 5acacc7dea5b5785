// Package ga4 implements the Google Analytics 4 Data API adapter. It is
// the only place provider-native request and response shapes exist;
// callers see normalized analytics.TrafficData or the domain failure
// taxonomy.
package ga4

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/domain/tenant"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
	"github.com/storekeephq/storekeep-go/pkg/config"
)

const (
	defaultBaseURL = "https://analyticsdata.googleapis.com/v1beta"

	// Read-only reporting scope for service accounts.
	analyticsReadOnlyScope = "https://www.googleapis.com/auth/analytics.readonly"

	topRowsLimit = "10"
)

// Client calls the GA4 Data API with per-tenant service-account
// credentials. The client itself is tenant-agnostic and safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.ChanneledLogger
}

// NewClient creates a GA4 client with the configured request timeout.
func NewClient(logger *logging.ChanneledLogger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.ProviderRequestTimeout},
		baseURL:    defaultBaseURL,
		logger:     logger,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(logger *logging.ChanneledLogger, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.ProviderRequestTimeout}
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, logger: logger}
}

// GA4 Data API request shapes (runReport / batchRunReports).

type ga4DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type ga4Dimension struct {
	Name string `json:"name"`
}

type ga4Metric struct {
	Name string `json:"name"`
}

type ga4OrderBy struct {
	Metric *ga4MetricOrderBy `json:"metric,omitempty"`
	Desc   bool              `json:"desc"`
}

type ga4MetricOrderBy struct {
	MetricName string `json:"metricName"`
}

type runReportRequest struct {
	DateRanges []ga4DateRange `json:"dateRanges"`
	Dimensions []ga4Dimension `json:"dimensions,omitempty"`
	Metrics    []ga4Metric    `json:"metrics"`
	OrderBys   []ga4OrderBy   `json:"orderBys,omitempty"`
	Limit      string         `json:"limit,omitempty"`
}

type batchRunReportsRequest struct {
	Requests []runReportRequest `json:"requests"`
}

// GA4 Data API response shapes.

type ga4Value struct {
	Value string `json:"value"`
}

type ga4Row struct {
	DimensionValues []ga4Value `json:"dimensionValues"`
	MetricValues    []ga4Value `json:"metricValues"`
}

type runReportResponse struct {
	Rows     []ga4Row `json:"rows"`
	RowCount int      `json:"rowCount"`
}

type batchRunReportsResponse struct {
	Reports []runReportResponse `json:"reports"`
}

// Sub-report positions inside the batch call.
const (
	reportTotals = iota
	reportSources
	reportPages
	reportDevices
	reportCount
)

// Fetch retrieves and normalizes traffic analytics for one tenant and
// range. Zero reported rows is a valid empty result, not a failure.
func (c *Client) Fetch(ctx context.Context, cfg tenant.ProviderConfig, rng analytics.DateRange) (*analytics.TrafficData, error) {
	start := time.Now()
	body := batchRunReportsRequest{Requests: buildReportRequests(rng)}

	var parsed batchRunReportsResponse
	err := c.post(ctx, cfg, ":batchRunReports", body, &parsed)
	c.logger.LogProviderCall("batchRunReports", cfg.PropertyID, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if len(parsed.Reports) < reportCount {
		return nil, fmt.Errorf("%w: expected %d reports, got %d",
			analytics.ErrProviderUnavailable, reportCount, len(parsed.Reports))
	}

	return mapReports(parsed.Reports, rng), nil
}

// TestConnection verifies credentials and property access with a minimal
// single-metric report for today. Never touches the cache.
func (c *Client) TestConnection(ctx context.Context, cfg tenant.ProviderConfig) error {
	today := time.Now().UTC().Format("2006-01-02")
	body := runReportRequest{
		DateRanges: []ga4DateRange{{StartDate: today, EndDate: today}},
		Metrics:    []ga4Metric{{Name: "sessions"}},
	}

	start := time.Now()
	var parsed runReportResponse
	err := c.post(ctx, cfg, ":runReport", body, &parsed)
	c.logger.LogProviderCall("runReport", cfg.PropertyID, time.Since(start), err)
	return err
}

func buildReportRequests(rng analytics.DateRange) []runReportRequest {
	dates := []ga4DateRange{{
		StartDate: rng.From.Format("2006-01-02"),
		EndDate:   rng.To.Format("2006-01-02"),
	}}
	bySessions := []ga4OrderBy{{Metric: &ga4MetricOrderBy{MetricName: "sessions"}, Desc: true}}

	requests := make([]runReportRequest, reportCount)
	requests[reportTotals] = runReportRequest{
		DateRanges: dates,
		Metrics: []ga4Metric{
			{Name: "screenPageViews"}, {Name: "sessions"},
			{Name: "totalUsers"}, {Name: "bounceRate"},
		},
	}
	requests[reportSources] = runReportRequest{
		DateRanges: dates,
		Dimensions: []ga4Dimension{{Name: "sessionSource"}, {Name: "sessionMedium"}},
		Metrics:    []ga4Metric{{Name: "sessions"}},
		OrderBys:   bySessions,
		Limit:      topRowsLimit,
	}
	requests[reportPages] = runReportRequest{
		DateRanges: dates,
		Dimensions: []ga4Dimension{{Name: "pagePath"}},
		Metrics:    []ga4Metric{{Name: "screenPageViews"}, {Name: "totalUsers"}},
		OrderBys:   []ga4OrderBy{{Metric: &ga4MetricOrderBy{MetricName: "screenPageViews"}, Desc: true}},
		Limit:      topRowsLimit,
	}
	requests[reportDevices] = runReportRequest{
		DateRanges: dates,
		Dimensions: []ga4Dimension{{Name: "deviceCategory"}},
		Metrics:    []ga4Metric{{Name: "sessions"}},
		OrderBys:   bySessions,
	}
	return requests
}

func (c *Client) post(ctx context.Context, cfg tenant.ProviderConfig, method string, body, out any) error {
	jwtConfig, err := google.JWTConfigFromJSON(cfg.Credentials, analyticsReadOnlyScope)
	if err != nil {
		return fmt.Errorf("%w: invalid service account credentials: %v",
			analytics.ErrProviderMisconfigured, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode report request: %w", err)
	}

	url := fmt.Sprintf("%s/properties/%s%s", c.baseURL, cfg.PropertyID, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Route the oauth2 token fetch through our timeout-bound client.
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	resp, err := jwtConfig.Client(authCtx).Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: undecodable response: %v", analytics.ErrProviderUnavailable, err)
	}
	return nil
}

// classifyTransportError maps transport-level failures onto the domain
// taxonomy. A malformed credential grant counts as misconfiguration;
// auth rejections, timeouts and network errors are transient.
func classifyTransportError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		code := 0
		if retrieveErr.Response != nil {
			code = retrieveErr.Response.StatusCode
		}
		if code == http.StatusBadRequest {
			return fmt.Errorf("%w: credential grant rejected (status %d)",
				analytics.ErrProviderMisconfigured, code)
		}
		return fmt.Errorf("%w: token endpoint failed (status %d)",
			analytics.ErrProviderUnavailable, code)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", analytics.ErrProviderUnavailable)
	}
	return fmt.Errorf("%w: %v", analytics.ErrProviderUnavailable, err)
}

// classifyStatus maps non-200 API responses onto the domain taxonomy.
// Bad requests and missing properties point at tenant configuration;
// auth rejections and server errors are transient provider failures.
func classifyStatus(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusNotFound:
		return fmt.Errorf("%w: provider rejected request (status %d): %s",
			analytics.ErrProviderMisconfigured, resp.StatusCode, bytes.TrimSpace(snippet))
	default:
		return fmt.Errorf("%w: provider returned status %d",
			analytics.ErrProviderUnavailable, resp.StatusCode)
	}
}
