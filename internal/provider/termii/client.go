// Package termii sends transactional SMS through the Termii API. Delivery is
// best-effort: the core never retries and never rolls anything back when a
// send fails.
package termii

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.ng.termii.com"

// Config holds Termii API configuration
type Config struct {
	BaseURL     string
	APIKey      string
	SenderID    string
	Channel     string
	CountryCode string
	Timeout     time.Duration
}

// Client sends SMS messages via Termii
type Client struct {
	baseURL     string
	apiKey      string
	senderID    string
	channel     string
	countryCode string
	http        *http.Client
	logger      *slog.Logger
}

// NewClient creates a Termii client
func NewClient(config *Config, logger *slog.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	channel := config.Channel
	if channel == "" {
		channel = "dnd"
	}

	countryCode := config.CountryCode
	if countryCode == "" {
		countryCode = "234"
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      config.APIKey,
		senderID:    config.SenderID,
		channel:     channel,
		countryCode: countryCode,
		http:        &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type sendRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	SMS     string `json:"sms"`
	Type    string `json:"type"`
	APIKey  string `json:"api_key"`
	Channel string `json:"channel"`
}

// SendSMS sends a plain-text message to the given phone number. The number is
// normalized to an international MSISDN before dispatch.
func (c *Client) SendSMS(ctx context.Context, phoneNumber, message string) error {
	payload := sendRequest{
		To:      c.FormatMSISDN(phoneNumber),
		From:    c.senderID,
		SMS:     message,
		Type:    "plain",
		APIKey:  c.apiKey,
		Channel: c.channel,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sms/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Termii send request failed",
			slog.String("to", payload.To),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Termii send returned non-200",
			slog.Int("status", resp.StatusCode),
			slog.String("to", payload.To),
		)
		return fmt.Errorf("sms send failed with status %d", resp.StatusCode)
	}

	c.logger.Info("SMS dispatched",
		slog.String("to", payload.To),
		slog.String("channel", c.channel),
	)

	return nil
}

// FormatMSISDN normalizes a local phone number to international form,
// e.g. "08147111701" -> "2348147111701".
func (c *Client) FormatMSISDN(number string) string {
	n := strings.TrimSpace(number)
	n = strings.TrimPrefix(n, "+")

	if strings.HasPrefix(n, c.countryCode) {
		return n
	}

	n = strings.TrimPrefix(n, "0")
	return c.countryCode + n
}
