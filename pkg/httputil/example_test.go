package httputil_test

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/httputil"
	"github.com/wonny/squeeze/pkg/logger"
)

func exampleConfig() *config.Config {
	return &config.Config{
		Env:      "production",
		LogLevel: "info",
		HTTP: config.HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelay: 1 * time.Second,
			MaxDelay:   10 * time.Second,
		},
	}
}

// Example_basic demonstrates basic HTTP client usage
func Example_basic() {
	cfg := exampleConfig()
	log := logger.New(cfg)

	// Create HTTP client (SSOT)
	client := httputil.New(cfg, log)

	// Make GET request
	ctx := context.Background()
	resp, err := client.Get(ctx, "https://www.highshortinterest.com/")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Printf("Status: %d\n", resp.StatusCode)
}

// Example_withRetry demonstrates retry configuration
func Example_withRetry() {
	cfg := exampleConfig()
	log := logger.New(cfg)

	// Create client with custom retry settings
	client := httputil.New(cfg, log).
		WithRetry(5, 2*time.Second) // 5 retries, 2s initial delay

	ctx := context.Background()
	resp, err := client.Get(ctx, "https://query1.finance.yahoo.com/v1/test/getcrumb")
	if err != nil {
		fmt.Printf("Request failed after retries: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Request succeeded")
}

// Example_postJSON demonstrates JSON POST requests
func Example_postJSON() {
	cfg := exampleConfig()
	log := logger.New(cfg)

	client := httputil.New(cfg, log)

	// Telegram sendMessage payload
	data := map[string]interface{}{
		"chat_id": "-1001234567890",
		"text":    "📊 2 candidates found",
	}

	// Send POST request with JSON body
	ctx := context.Background()
	resp, err := client.PostJSON(ctx, "https://api.telegram.org/bot<token>/sendMessage", data)
	if err != nil {
		fmt.Printf("POST request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Printf("Delivered: %d\n", resp.StatusCode)
}

// Example_rateLimited demonstrates a client-side request budget
func Example_rateLimited() {
	cfg := exampleConfig()
	log := logger.New(cfg)

	// At most 4 requests per second against the quote API
	client := httputil.New(cfg, log).
		WithRateLimiter(rate.NewLimiter(rate.Limit(4), 1))

	ctx := context.Background()
	resp, err := client.Get(ctx, "https://query1.finance.yahoo.com/v1/test/getcrumb")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Request completed under rate budget")
}

// Example_disableRetry demonstrates disabling retry
func Example_disableRetry() {
	cfg := exampleConfig()
	log := logger.New(cfg)

	// Create client without retry
	client := httputil.New(cfg, log).DisableRetry()

	ctx := context.Background()
	resp, err := client.Get(ctx, "https://www.highshortinterest.com/")
	if err != nil {
		fmt.Printf("Request failed (no retry): %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Request succeeded on first attempt")
}
