package domain

import "errors"

var (
	// ErrRecordNotFound is returned when no QR record matches the given identifier
	ErrRecordNotFound = errors.New("qr code not found")

	// ErrAlreadyActivated is returned when the target QR record is already activated
	ErrAlreadyActivated = errors.New("qr code already activated")

	// ErrAccountInUse is returned when the account number is already bound to an activated QR record
	ErrAccountInUse = errors.New("account already in use")

	// ErrOTPNotFound is returned when no pending code exists for the account,
	// covering both "never resolved" and "expired"
	ErrOTPNotFound = errors.New("OTP not found")

	// ErrIncorrectOTP is returned when the presented code does not exactly match the cached one
	ErrIncorrectOTP = errors.New("incorrect OTP")

	// ErrTooManyAttempts is returned once the failed-attempt budget for a pending code is spent
	ErrTooManyAttempts = errors.New("too many OTP attempts")
)

// ProviderError wraps a failure from an external provider call
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + " provider error: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a failure of the named provider
func NewProviderError(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err}
}
