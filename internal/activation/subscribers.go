package activation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/argentavis/qr-service/internal/activation/domain"
	"github.com/argentavis/qr-service/internal/events"
)

// SMSSender dispatches a text message; destination formatting is its concern
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

// SMSNotifier texts the one-time code to the account holder when an account
// is resolved. Delivery is best-effort: a failure is logged by the bus and
// never rolls back the resolution.
type SMSNotifier struct {
	sms    SMSSender
	logger *slog.Logger
}

// NewSMSNotifier creates the AccountResolved subscriber
func NewSMSNotifier(sms SMSSender, logger *slog.Logger) *SMSNotifier {
	return &SMSNotifier{sms: sms, logger: logger}
}

// Handle implements events.Handler
func (n *SMSNotifier) Handle(ctx context.Context, event events.Event) error {
	ev, ok := event.(events.AccountResolved)
	if !ok {
		return fmt.Errorf("unexpected event type for %s", event.Kind())
	}

	message := fmt.Sprintf("Please, confirm your registered phone number on Argentavis with this code %s", ev.OTP)

	if err := n.sms.SendSMS(ctx, ev.AccountNumber, message); err != nil {
		return fmt.Errorf("failed to deliver otp sms: %w", err)
	}

	n.logger.Info("OTP SMS sent",
		slog.String("account_number", ev.AccountNumber),
	)

	return nil
}

// Activator binds the QR record once an account is verified: it splits the
// resolved holder name and performs the one-shot conditional activation.
type Activator struct {
	store  RecordStore
	logger *slog.Logger
}

// NewActivator creates the AccountVerified subscriber
func NewActivator(store RecordStore, logger *slog.Logger) *Activator {
	return &Activator{store: store, logger: logger}
}

// Handle implements events.Handler. A missing or already-activated record is
// logged and dropped; nothing is raised past the bus boundary.
func (a *Activator) Handle(ctx context.Context, event events.Event) error {
	ev, ok := event.(events.AccountVerified)
	if !ok {
		return fmt.Errorf("unexpected event type for %s", event.Kind())
	}

	firstName, lastName := ev.Account.SplitName()

	uuid, err := a.store.Activate(ctx, ev.Account.AccountNumber, firstName, lastName)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			a.logger.Warn("No unactivated QR code bound to verified account",
				slog.String("account_number", ev.Account.AccountNumber),
			)
			return nil
		}
		return fmt.Errorf("failed to activate qr code: %w", err)
	}

	a.logger.Info("QR code bound to verified account",
		slog.String("uuid", uuid),
		slog.String("account_number", ev.Account.AccountNumber),
		slog.String("first_name", firstName),
	)

	return nil
}
