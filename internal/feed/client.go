// Package feed acquires market data: a ProjectX REST client, quote-based bar
// synthesis for when live bars are unavailable, and the polling loop that
// hands bars to the strategy one at a time. All retry and backoff policy
// lives here; the strategy core never blocks or retries.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wamppus/don-futures-v1/internal/strategy"
)

// Quote is a real-time top-of-book quote.
type Quote struct {
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Last      float64   `json:"last"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Mid returns the bid/ask midpoint.
func (q Quote) Mid() float64 { return (q.Bid + q.Ask) / 2 }

// IsStale reports whether the quote is older than maxAge.
func (q Quote) IsStale(maxAge time.Duration) bool {
	return time.Since(q.Timestamp) > maxAge
}

const tokenLifetime = time.Hour

// Client talks to the ProjectX API. Tokens expire hourly and are refreshed
// transparently.
type Client struct {
	baseURL    string
	username   string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a ProjectX client.
func NewClient(baseURL, username, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		username:   username,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type authResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Authenticate logs in with the API key and stores the bearer token.
func (c *Client) Authenticate(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{
		"userName": c.username,
		"apiKey":   c.apiKey,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/Auth/loginKey", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("auth response: %w", err)
	}
	if !auth.Success {
		return fmt.Errorf("auth rejected: %s", auth.Message)
	}

	c.mu.Lock()
	c.token = auth.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	c.mu.Unlock()

	c.logger.Info().Str("user", c.username).Msg("authenticated")
	return nil
}

func (c *Client) ensureAuth(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiry := c.token, c.tokenExpiry
	c.mu.Unlock()

	if token != "" && time.Now().Before(expiry) {
		return token, nil
	}
	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

type barsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Bars    []struct {
		Timestamp time.Time `json:"timestamp"`
		Open      float64   `json:"open"`
		High      float64   `json:"high"`
		Low       float64   `json:"low"`
		Close     float64   `json:"close"`
		Volume    float64   `json:"volume"`
	} `json:"bars"`
}

// GetBars fetches count historical bars at the given minute interval, oldest
// first.
func (c *Client) GetBars(ctx context.Context, symbol string, intervalMinutes, count int) ([]strategy.Bar, error) {
	token, err := c.ensureAuth(ctx)
	if err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]interface{}{
		"symbolId":    symbol,
		"barInterval": intervalMinutes,
		"barCount":    count,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/History/retrieveBars", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bars response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bars API error: %s", string(raw))
	}

	var parsed barsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse bars: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("bars request rejected: %s", parsed.Message)
	}

	bars := make([]strategy.Bar, len(parsed.Bars))
	for i, b := range parsed.Bars {
		bars[i] = strategy.Bar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}

	c.logger.Info().Int("count", len(bars)).Str("symbol", symbol).Msg("received bars")
	return bars, nil
}

type quoteResponse struct {
	Success bool    `json:"success"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	Last    float64 `json:"last"`
}

// GetQuote fetches the current quote for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	token, err := c.ensureAuth(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/Quotes/"+symbol, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()

	var parsed quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse quote: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("quote request rejected for %s", symbol)
	}

	last := parsed.Last
	if last == 0 {
		last = (parsed.Bid + parsed.Ask) / 2
	}
	return &Quote{
		Bid:       parsed.Bid,
		Ask:       parsed.Ask,
		Last:      last,
		Timestamp: time.Now(),
		Source:    "projectx",
	}, nil
}
