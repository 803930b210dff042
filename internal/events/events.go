package events

import "github.com/argentavis/qr-service/internal/activation/domain"

// Kind identifies an event type for subscription routing
type Kind string

const (
	// KindAccountResolved is emitted after a successful account resolution
	KindAccountResolved Kind = "account.resolved"

	// KindAccountVerified is emitted after a successful OTP verification
	KindAccountVerified Kind = "account.verified"
)

// Event is a transient domain event; it exists only for the duration of dispatch
type Event interface {
	Kind() Kind
}

// AccountResolved carries the resolved payload for an account pending OTP confirmation
type AccountResolved struct {
	AccountNumber string
	OTP           string
	Account       domain.ResolvedAccount
}

// Kind implements Event
func (AccountResolved) Kind() Kind { return KindAccountResolved }

// AccountVerified carries the resolved payload of a confirmed account
type AccountVerified struct {
	Account domain.ResolvedAccount
}

// Kind implements Event
func (AccountVerified) Kind() Kind { return KindAccountVerified }
