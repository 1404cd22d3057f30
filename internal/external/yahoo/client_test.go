package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

// newTestClient points a client at a local test server.
func newTestClient(serverURL string, budget int) *Client {
	cfg := &config.Config{
		Env:      "development",
		LogLevel: "error",
		Yahoo: config.YahooConfig{
			BaseURL:    serverURL,
			HomeURL:    serverURL,
			RateLimit:  1000,
			CallBudget: budget,
		},
		HTTP: config.HTTPConfig{
			Timeout:    5 * time.Second,
			MaxRetries: 0,
			RetryDelay: 10 * time.Millisecond,
			MaxDelay:   20 * time.Millisecond,
		},
	}
	return NewClient(cfg, logger.New(cfg))
}

// newStubServer serves the crumb endpoints plus the given handlers.
func newStubServer(handlers map[string]http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>home</html>"))
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("testcrumb"))
	})
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	return httptest.NewServer(mux)
}

func TestBootstrap(t *testing.T) {
	server := newStubServer(nil)
	defer server.Close()

	client := newTestClient(server.URL, 0)

	if err := client.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}

	if client.crumb != "testcrumb" {
		t.Errorf("Expected crumb to be testcrumb, got %q", client.crumb)
	}
}

func TestBootstrapRejectsHTMLCrumb(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>home</html>"))
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		// Consent page instead of a crumb
		w.Write([]byte("<html><body>consent required</body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL, 0)

	err := client.Bootstrap(context.Background())
	if err == nil {
		t.Fatal("Expected error for HTML crumb, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("Expected *APIError, got %T", err)
	}
}

func TestKeyStats(t *testing.T) {
	server := newStubServer(map[string]http.HandlerFunc{
		"/v10/finance/quoteSummary/GME": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("crumb") != "testcrumb" {
				t.Errorf("Expected crumb param, got %q", r.URL.Query().Get("crumb"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"quoteSummary": {
					"result": [{
						"defaultKeyStatistics": {
							"floatShares": {"raw": 30000000, "fmt": "30M"},
							"sharesShort": {"raw": 7500000, "fmt": "7.5M"},
							"shortRatio": {"raw": 6.2, "fmt": "6.2"},
							"shortPercentOfFloat": {"raw": 0.25, "fmt": "25.00%"}
						}
					}],
					"error": null
				}
			}`))
		},
	})
	defer server.Close()

	client := newTestClient(server.URL, 0)

	stats, err := client.KeyStats(context.Background(), "GME")
	if err != nil {
		t.Fatalf("KeyStats() failed: %v", err)
	}

	if stats.Symbol != "GME" {
		t.Errorf("Symbol = %q, want GME", stats.Symbol)
	}
	if stats.FloatShares == nil || *stats.FloatShares != 30_000_000 {
		t.Errorf("FloatShares = %v, want 30000000", stats.FloatShares)
	}
	if stats.ShortInterestPct == nil || *stats.ShortInterestPct != 0.25 {
		t.Errorf("ShortInterestPct = %v, want 0.25", stats.ShortInterestPct)
	}
	if stats.DaysToCover == nil || *stats.DaysToCover != 6.2 {
		t.Errorf("DaysToCover = %v, want 6.2", stats.DaysToCover)
	}
}

func TestKeyStatsMissingFieldsStayNil(t *testing.T) {
	server := newStubServer(map[string]http.HandlerFunc{
		"/v10/finance/quoteSummary/XXII": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			// No short interest published for this symbol
			w.Write([]byte(`{
				"quoteSummary": {
					"result": [{
						"defaultKeyStatistics": {
							"floatShares": {"raw": 4000000, "fmt": "4M"}
						}
					}],
					"error": null
				}
			}`))
		},
	})
	defer server.Close()

	client := newTestClient(server.URL, 0)

	stats, err := client.KeyStats(context.Background(), "XXII")
	if err != nil {
		t.Fatalf("KeyStats() failed: %v", err)
	}

	if stats.FloatShares == nil || *stats.FloatShares != 4_000_000 {
		t.Errorf("FloatShares = %v, want 4000000", stats.FloatShares)
	}
	if stats.ShortInterestPct != nil {
		t.Errorf("Expected absent ShortInterestPct to be nil, got %v", *stats.ShortInterestPct)
	}
	if stats.DaysToCover != nil {
		t.Errorf("Expected absent DaysToCover to be nil, got %v", *stats.DaysToCover)
	}
}

func TestKeyStatsNotFound(t *testing.T) {
	server := newStubServer(map[string]http.HandlerFunc{
		"/v10/finance/quoteSummary/NOPE": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{
				"quoteSummary": {
					"result": null,
					"error": {"code": "Not Found", "description": "Quote not found for ticker symbol: NOPE"}
				}
			}`))
		},
	})
	defer server.Close()

	client := newTestClient(server.URL, 0)

	_, err := client.KeyStats(context.Background(), "NOPE")
	if err == nil {
		t.Fatal("Expected error for unknown symbol, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}

	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}

	if apiErr.Transient() {
		t.Error("Expected 404 to be permanent, got transient")
	}

	if apiErr.Message != "Quote not found for ticker symbol: NOPE" {
		t.Errorf("Message = %q, want provider description", apiErr.Message)
	}
}

func TestScreenerSymbols(t *testing.T) {
	server := newStubServer(map[string]http.HandlerFunc{
		"/v1/finance/screener/predefined/saved": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("scrIds"); got != "most_actives" {
				t.Errorf("scrIds = %q, want most_actives", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"finance": {
					"result": [{
						"id": "most_actives",
						"quotes": [
							{"symbol": "GME"},
							{"symbol": "AMC"},
							{"symbol": ""},
							{"symbol": "KOSS"}
						]
					}],
					"error": null
				}
			}`))
		},
	})
	defer server.Close()

	client := newTestClient(server.URL, 0)

	symbols, err := client.ScreenerSymbols(context.Background(), "most_actives", 100)
	if err != nil {
		t.Fatalf("ScreenerSymbols() failed: %v", err)
	}

	want := []string{"GME", "AMC", "KOSS"}
	if len(symbols) != len(want) {
		t.Fatalf("Got %d symbols, want %d: %v", len(symbols), len(want), symbols)
	}
	for i, sym := range want {
		if symbols[i] != sym {
			t.Errorf("symbols[%d] = %q, want %q", i, symbols[i], sym)
		}
	}
}

func TestDailyVolumes(t *testing.T) {
	server := newStubServer(map[string]http.HandlerFunc{
		"/v8/finance/chart/GME": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("interval"); got != "1d" {
				t.Errorf("interval = %q, want 1d", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"chart": {
					"result": [{
						"timestamp": [1700000000, 1700086400, 1700172800, 1700259200],
						"indicators": {
							"quote": [{
								"volume": [1000000, null, 1500000, 2000000]
							}]
						}
					}],
					"error": null
				}
			}`))
		},
	})
	defer server.Close()

	client := newTestClient(server.URL, 0)

	volumes, err := client.DailyVolumes(context.Background(), "GME", "3mo")
	if err != nil {
		t.Fatalf("DailyVolumes() failed: %v", err)
	}

	// Null bar dropped
	want := []int64{1000000, 1500000, 2000000}
	if len(volumes) != len(want) {
		t.Fatalf("Got %d volumes, want %d", len(volumes), len(want))
	}
	for i, v := range want {
		if volumes[i] != v {
			t.Errorf("volumes[%d] = %d, want %d", i, volumes[i], v)
		}
	}
}

func TestCallBudget(t *testing.T) {
	server := newStubServer(map[string]http.HandlerFunc{
		"/v10/finance/quoteSummary/GME": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"quoteSummary": {"result": [{"defaultKeyStatistics": {}}], "error": null}}`))
		},
	})
	defer server.Close()

	client := newTestClient(server.URL, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.KeyStats(ctx, "GME"); err != nil {
			t.Fatalf("Call %d failed: %v", i+1, err)
		}
	}

	_, err := client.KeyStats(ctx, "GME")
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Errorf("Expected ErrBudgetExhausted after budget spent, got %v", err)
	}

	if used := client.CallsUsed(); used != 2 {
		t.Errorf("CallsUsed() = %d, want 2", used)
	}
}

func TestAPIErrorTransient(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		err := &APIError{StatusCode: tt.statusCode, Endpoint: "/test"}
		if got := err.Transient(); got != tt.want {
			t.Errorf("Transient() for %d = %v, want %v", tt.statusCode, got, tt.want)
		}
	}
}
