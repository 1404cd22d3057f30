package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/httputil"
	"github.com/wonny/squeeze/pkg/logger"
)

// browserUserAgent is required by the query hosts; requests with Go's
// default agent are served a consent page instead of JSON.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrBudgetExhausted is returned once the per-run call budget is spent.
// Callers should stop fetching and continue with what they have.
var ErrBudgetExhausted = errors.New("yahoo: call budget exhausted")

// APIError reports a non-2xx response from a Yahoo endpoint.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("yahoo: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("yahoo: %s returned %d", e.Endpoint, e.StatusCode)
}

// Transient reports whether the failure is worth retrying on a later run.
// 4xx responses are permanent for the requested symbol.
func (e *APIError) Transient() bool {
	return httputil.IsRetryableError(e.StatusCode)
}

// Client handles communication with the Yahoo Finance query API
// ⭐ SSOT: Yahoo 쿼리 API 호출은 이 클라이언트에서만
//
// The query hosts require a cookie session and a crumb token, so the
// client owns its own cookie-jar http.Client wrapped with the shared
// retry policy. A rate limiter paces calls and a per-run budget caps
// them to stay inside the provider's quota.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	homeURL    string
	apiKey     string

	limiter *rate.Limiter
	budget  int

	mu    sync.Mutex
	crumb string
	calls int
}

// NewClient creates a new Yahoo Finance client.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	hc := &http.Client{
		Jar:     jar,
		Timeout: cfg.HTTP.Timeout,
	}

	return &Client{
		httpClient: httputil.NewWithClient(cfg, log, hc),
		logger:     log.WithField("module", "yahoo"),
		baseURL:    cfg.Yahoo.BaseURL,
		homeURL:    cfg.Yahoo.HomeURL,
		apiKey:     cfg.Yahoo.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.Yahoo.RateLimit), 1),
		budget:     cfg.Yahoo.CallBudget,
	}
}

// Bootstrap establishes the cookie session and fetches the crumb token.
// Safe to call more than once; later calls refresh the session.
func (c *Client) Bootstrap(ctx context.Context) error {
	// 1. Hit the home page so the jar picks up session cookies
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.homeURL, nil)
	if err != nil {
		return fmt.Errorf("create bootstrap request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bootstrap cookie fetch failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// 2. Fetch the crumb tied to those cookies
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return fmt.Errorf("create crumb request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Origin", c.homeURL)
	req.Header.Set("Referer", c.homeURL+"/")

	resp, err = c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crumb fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read crumb response: %w", err)
	}

	crumb := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || crumb == "" || strings.Contains(crumb, "<html") {
		return &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   "/v1/test/getcrumb",
			Message:    "no valid crumb (consent page?)",
		}
	}

	c.mu.Lock()
	c.crumb = crumb
	c.mu.Unlock()

	c.logger.WithField("crumb_len", len(crumb)).Debug("Yahoo session established")
	return nil
}

// ensureSession bootstraps lazily on the first API call.
func (c *Client) ensureSession(ctx context.Context) (string, error) {
	c.mu.Lock()
	crumb := c.crumb
	c.mu.Unlock()

	if crumb != "" {
		return crumb, nil
	}

	if err := c.Bootstrap(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	crumb = c.crumb
	c.mu.Unlock()
	return crumb, nil
}

// spendCall consumes one unit of the per-run budget.
func (c *Client) spendCall() error {
	if c.budget <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.calls >= c.budget {
		return ErrBudgetExhausted
	}
	c.calls++
	return nil
}

// CallsUsed returns the number of API calls made so far this run.
func (c *Client) CallsUsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// getJSON performs a crumb-authenticated GET and decodes the JSON body
// into out. Non-2xx responses come back as *APIError.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	crumb, err := c.ensureSession(ctx)
	if err != nil {
		return err
	}

	if err := c.spendCall(); err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("crumb", crumb)
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   path,
			Message:    apiErrorMessage(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}

// apiErrorMessage digs the human-readable description out of an error
// body, best effort.
func apiErrorMessage(body []byte) string {
	var envelope struct {
		Finance struct {
			Error *apiErrorDetail `json:"error"`
		} `json:"finance"`
		QuoteSummary struct {
			Error *apiErrorDetail `json:"error"`
		} `json:"quoteSummary"`
		Chart struct {
			Error *apiErrorDetail `json:"error"`
		} `json:"chart"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	for _, detail := range []*apiErrorDetail{
		envelope.Finance.Error,
		envelope.QuoteSummary.Error,
		envelope.Chart.Error,
	} {
		if detail != nil {
			return detail.Description
		}
	}
	return ""
}

type apiErrorDetail struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// rawValue models the {"raw": 123456, "fmt": "123.4K"} wrapper the
// query API uses for numeric fields. Absent fields decode to a nil Raw.
type rawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

// int64Ptr converts a rawValue to *int64, nil when absent.
func (v rawValue) int64Ptr() *int64 {
	if v.Raw == nil {
		return nil
	}
	n := int64(*v.Raw)
	return &n
}

// float64Ptr converts a rawValue to *float64, nil when absent.
func (v rawValue) float64Ptr() *float64 {
	if v.Raw == nil {
		return nil
	}
	f := *v.Raw
	return &f
}
