// Package activation drives the two-step account-binding flow: resolve an
// account and issue a one-time code, then confirm the code and bind the QR
// record. State between the two steps lives solely in the secret cache; its
// TTL is the only timeout in the flow.
package activation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/argentavis/qr-service/internal/activation/cache"
	"github.com/argentavis/qr-service/internal/activation/domain"
	"github.com/argentavis/qr-service/internal/events"
)

// Cache key prefixes, keyed by external account number
const (
	otpKeyPrefix      = "phone_verification_"
	resolvedKeyPrefix = "resolvedName_"
	attemptsKeyPrefix = "otp_attempts_"
)

// RecordStore is the persistent QR record store the orchestrator depends on
type RecordStore interface {
	GetByUUID(ctx context.Context, uuid string) (*domain.QRCode, error)
	AccountHasActivatedRecord(ctx context.Context, accountNumber string) (bool, error)
	BindAccount(ctx context.Context, uuid, accountNumber string) error
	Activate(ctx context.Context, accountNumber, firstName, lastName string) (string, error)
}

// AccountResolver resolves an account number with the external provider
type AccountResolver interface {
	ResolveAccount(ctx context.Context, accountNumber string) (domain.ResolvedAccount, error)
}

// Publisher dispatches domain events
type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}

// Config holds orchestrator tuning
type Config struct {
	OTPTTL         time.Duration
	OTPLength      int
	MaxOTPAttempts int
}

// Service is the verification orchestrator
type Service struct {
	logger      *slog.Logger
	cache       cache.SecretCache
	store       RecordStore
	resolver    AccountResolver
	bus         Publisher
	otpTTL      time.Duration
	otpLength   int
	maxAttempts int
}

// NewService creates a verification orchestrator
func NewService(cfg *Config, logger *slog.Logger, secrets cache.SecretCache, store RecordStore, resolver AccountResolver, bus Publisher) *Service {
	otpTTL := cfg.OTPTTL
	if otpTTL <= 0 {
		otpTTL = 300 * time.Second
	}

	otpLength := cfg.OTPLength
	if otpLength <= 0 {
		otpLength = 6
	}

	maxAttempts := cfg.MaxOTPAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	return &Service{
		logger:      logger,
		cache:       secrets,
		store:       store,
		resolver:    resolver,
		bus:         bus,
		otpTTL:      otpTTL,
		otpLength:   otpLength,
		maxAttempts: maxAttempts,
	}
}

// Resolve starts the activation flow for a QR code: checks the binding
// preconditions, resolves the account with the provider, caches the resolved
// payload and a fresh one-time code, and publishes AccountResolved. The
// holder's name is not parsed here; that happens only after the code is
// confirmed.
func (s *Service) Resolve(ctx context.Context, qrUUID, accountNumber string) (domain.ResolvedAccount, error) {
	record, err := s.store.GetByUUID(ctx, qrUUID)
	if err != nil {
		return domain.ResolvedAccount{}, err
	}

	if record.IsActivated {
		return domain.ResolvedAccount{}, domain.ErrAlreadyActivated
	}

	inUse, err := s.store.AccountHasActivatedRecord(ctx, accountNumber)
	if err != nil {
		return domain.ResolvedAccount{}, err
	}
	if inUse {
		return domain.ResolvedAccount{}, domain.ErrAccountInUse
	}

	resolved, err := s.resolver.ResolveAccount(ctx, accountNumber)
	if err != nil {
		return domain.ResolvedAccount{}, err
	}

	if err := s.store.BindAccount(ctx, qrUUID, accountNumber); err != nil {
		return domain.ResolvedAccount{}, err
	}

	payload, err := json.Marshal(resolved)
	if err != nil {
		return domain.ResolvedAccount{}, fmt.Errorf("failed to marshal resolved payload: %w", err)
	}

	if err := s.cache.Put(ctx, resolvedKeyPrefix+accountNumber, string(payload), s.otpTTL); err != nil {
		return domain.ResolvedAccount{}, fmt.Errorf("failed to cache resolved payload: %w", err)
	}

	otp, err := GenerateOTP(s.otpLength)
	if err != nil {
		return domain.ResolvedAccount{}, err
	}

	if err := s.cache.Put(ctx, otpKeyPrefix+accountNumber, otp, s.otpTTL); err != nil {
		return domain.ResolvedAccount{}, fmt.Errorf("failed to cache otp: %w", err)
	}

	// A fresh resolution resets the attempt budget
	if err := s.cache.Delete(ctx, attemptsKeyPrefix+accountNumber); err != nil {
		s.logger.Warn("Failed to reset otp attempt counter",
			slog.String("account_number", accountNumber),
			slog.Any("error", err),
		)
	}

	s.logger.Info("Account resolved, awaiting OTP confirmation",
		slog.String("qr_uuid", qrUUID),
		slog.String("account_number", accountNumber),
	)

	s.bus.Publish(ctx, events.AccountResolved{
		AccountNumber: accountNumber,
		OTP:           otp,
		Account:       resolved,
	})

	return resolved, nil
}

// Verify confirms the one-time code for an account and publishes
// AccountVerified with the cached resolved payload. The code is consumed on
// success, so a second verify for the same account fails with ErrOTPNotFound.
func (s *Service) Verify(ctx context.Context, accountNumber, otp string) (domain.ResolvedAccount, error) {
	otpKey := otpKeyPrefix + accountNumber
	resolvedKey := resolvedKeyPrefix + accountNumber
	attemptsKey := attemptsKeyPrefix + accountNumber

	cached, err := s.cache.Get(ctx, otpKey)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return domain.ResolvedAccount{}, domain.ErrOTPNotFound
		}
		return domain.ResolvedAccount{}, fmt.Errorf("failed to read cached otp: %w", err)
	}

	// Exact string equality, no normalization
	if cached != otp {
		attempts, incrErr := s.cache.IncrWithExpire(ctx, attemptsKey, s.otpTTL)
		if incrErr != nil {
			s.logger.Warn("Failed to track otp attempt",
				slog.String("account_number", accountNumber),
				slog.Any("error", incrErr),
			)
		}

		if attempts >= int64(s.maxAttempts) {
			// Spend the pending entry to bound brute-force guessing
			if delErr := s.cache.Delete(ctx, otpKey, resolvedKey, attemptsKey); delErr != nil {
				s.logger.Warn("Failed to invalidate pending verification",
					slog.String("account_number", accountNumber),
					slog.Any("error", delErr),
				)
			}
			return domain.ResolvedAccount{}, domain.ErrTooManyAttempts
		}

		return domain.ResolvedAccount{}, domain.ErrIncorrectOTP
	}

	// Consume atomically: of two concurrent verifies holding the right code,
	// only one observes the value here.
	consumed, err := s.cache.GetDel(ctx, otpKey)
	if err != nil || consumed != otp {
		if err != nil && !errors.Is(err, cache.ErrNotFound) {
			return domain.ResolvedAccount{}, fmt.Errorf("failed to consume otp: %w", err)
		}
		return domain.ResolvedAccount{}, domain.ErrOTPNotFound
	}

	payload, err := s.cache.GetDel(ctx, resolvedKey)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return domain.ResolvedAccount{}, domain.ErrOTPNotFound
		}
		return domain.ResolvedAccount{}, fmt.Errorf("failed to read resolved payload: %w", err)
	}

	if delErr := s.cache.Delete(ctx, attemptsKey); delErr != nil {
		s.logger.Warn("Failed to clear otp attempt counter",
			slog.String("account_number", accountNumber),
			slog.Any("error", delErr),
		)
	}

	var resolved domain.ResolvedAccount
	if err := json.Unmarshal([]byte(payload), &resolved); err != nil {
		return domain.ResolvedAccount{}, fmt.Errorf("failed to unmarshal resolved payload: %w", err)
	}

	s.logger.Info("OTP confirmed",
		slog.String("account_number", accountNumber),
	)

	s.bus.Publish(ctx, events.AccountVerified{Account: resolved})

	return resolved, nil
}
