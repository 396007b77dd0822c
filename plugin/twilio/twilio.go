// Package twilio places voice calls through the Twilio REST API, speaking
// a message via inline TwiML.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.twilio.com/2010-04-01"

// Config holds configuration for the Twilio client.
type Config struct {
	AccountSID string
	AuthToken  string
	BaseURL    string
	Timeout    time.Duration
	Voice      string // TwiML voice, defaults to "man"
	DryRun     bool   // log instead of calling; used in dev and tests
}

// Client places voice calls.
type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	voice      string
	dryRun     bool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Twilio voice client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.Voice == "" {
		config.Voice = "man"
	}

	return &Client{
		accountSID: config.AccountSID,
		authToken:  config.AuthToken,
		baseURL:    config.BaseURL,
		voice:      config.Voice,
		dryRun:     config.DryRun,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     slog.Default(),
	}
}

// SetLogger sets a custom logger.
func (c *Client) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// IsConfigured reports whether credentials are present.
func (c *Client) IsConfigured() bool {
	return c.accountSID != "" && c.authToken != ""
}

// Call places a voice call that speaks the message and returns the call
// sid. In dry-run mode no request is made and a local id is returned.
func (c *Client) Call(ctx context.Context, toNumber, fromNumber, message string) (string, error) {
	if c.dryRun {
		callID := "dry-" + uuid.New().String()[:8]
		c.logger.Info("dry-run voice call", "to", toNumber, "from", fromNumber, "call_id", callID)
		return callID, nil
	}
	if !c.IsConfigured() {
		return "", fmt.Errorf("twilio credentials not configured")
	}

	twiml := fmt.Sprintf(`<Response><Say voice="%s">%s</Say></Response>`, c.voice, html.EscapeString(message))
	form := url.Values{
		"To":    {toNumber},
		"From":  {fromNumber},
		"Twiml": {twiml},
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create call request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read call response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Error("twilio returned error", "status", resp.StatusCode, "response", string(body))
		return "", fmt.Errorf("twilio returned status %d", resp.StatusCode)
	}

	result := struct {
		SID string `json:"sid"`
	}{}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse call response: %w", err)
	}

	c.logger.Debug("voice call placed", "to", toNumber, "call_id", result.SID)
	return result.SID, nil
}
