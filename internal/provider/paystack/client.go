// Package paystack resolves bank account numbers through the Paystack API.
// The call is treated as an opaque external dependency: no retries, the
// caller's context bounds the request.
package paystack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/argentavis/qr-service/internal/activation/domain"
)

const defaultBaseURL = "https://api.paystack.co"

// Config holds Paystack API configuration
type Config struct {
	BaseURL   string
	SecretKey string
	BankCode  string
	Timeout   time.Duration
}

// Client calls the Paystack bank/resolve endpoint
type Client struct {
	baseURL   string
	secretKey string
	bankCode  string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient creates a Paystack client
func NewClient(config *Config, logger *slog.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:   baseURL,
		secretKey: config.SecretKey,
		bankCode:  config.BankCode,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type resolveResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
	} `json:"data"`
}

// ResolveAccount resolves an account number to its registered holder
func (c *Client) ResolveAccount(ctx context.Context, accountNumber string) (domain.ResolvedAccount, error) {
	endpoint := fmt.Sprintf("%s/bank/resolve?account_number=%s&bank_code=%s",
		c.baseURL,
		url.QueryEscape(accountNumber),
		url.QueryEscape(c.bankCode),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ResolvedAccount{}, domain.NewProviderError("paystack", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Paystack resolve request failed",
			slog.String("account_number", accountNumber),
			slog.Any("error", err),
		)
		return domain.ResolvedAccount{}, domain.NewProviderError("paystack", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.ResolvedAccount{}, domain.NewProviderError("paystack", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Paystack resolve returned non-200",
			slog.Int("status", resp.StatusCode),
			slog.String("account_number", accountNumber),
		)
		return domain.ResolvedAccount{}, domain.NewProviderError("paystack",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var parsed resolveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.ResolvedAccount{}, domain.NewProviderError("paystack",
			fmt.Errorf("failed to parse response: %w", err))
	}

	if !parsed.Status {
		return domain.ResolvedAccount{}, domain.NewProviderError("paystack",
			fmt.Errorf("resolution rejected: %s", parsed.Message))
	}

	c.logger.Info("Account resolved",
		slog.String("account_number", parsed.Data.AccountNumber),
	)

	return domain.ResolvedAccount{
		AccountNumber: parsed.Data.AccountNumber,
		AccountName:   parsed.Data.AccountName,
	}, nil
}
