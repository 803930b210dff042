package activation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/argentavis/qr-service/internal/activation/cache"
	"github.com/argentavis/qr-service/internal/activation/domain"
	"github.com/argentavis/qr-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUUID    = "0d1c2b3a-4e5f-6071-8293-a4b5c6d7e8f9"
	testAccount = "8147111701"
)

var otpPattern = regexp.MustCompile(`code (\d{6})$`)

// fakeStore is an in-memory RecordStore with the same conditional-update
// semantics as the SQL implementation.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*domain.QRCode
}

func newFakeStore(records ...*domain.QRCode) *fakeStore {
	s := &fakeStore{records: make(map[string]*domain.QRCode)}
	for _, r := range records {
		s.records[r.UUID] = r
	}
	return s
}

func (s *fakeStore) GetByUUID(_ context.Context, uuid string) (*domain.QRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[uuid]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) AccountHasActivatedRecord(_ context.Context, accountNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.AccountNumber == accountNumber && r.IsActivated {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) BindAccount(_ context.Context, uuid, accountNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.records[uuid]
	if !ok || target.IsActivated {
		return domain.ErrAlreadyActivated
	}

	for _, r := range s.records {
		if r.AccountNumber == accountNumber && r.UUID != uuid && !r.IsActivated {
			r.AccountNumber = ""
		}
	}
	target.AccountNumber = accountNumber
	return nil
}

func (s *fakeStore) Activate(_ context.Context, accountNumber, firstName, lastName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.AccountNumber == accountNumber && r.IsActivated {
			return "", domain.ErrRecordNotFound
		}
	}

	for _, r := range s.records {
		if r.AccountNumber == accountNumber && !r.IsActivated {
			r.IsActivated = true
			r.FirstName = firstName
			r.LastName = lastName
			return r.UUID, nil
		}
	}
	return "", domain.ErrRecordNotFound
}

func (s *fakeStore) activatedCount(accountNumber string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.records {
		if r.AccountNumber == accountNumber && r.IsActivated {
			n++
		}
	}
	return n
}

type fakeResolver struct {
	account domain.ResolvedAccount
	err     error
}

func (r *fakeResolver) ResolveAccount(_ context.Context, _ string) (domain.ResolvedAccount, error) {
	if r.err != nil {
		return domain.ResolvedAccount{}, r.err
	}
	return r.account, nil
}

type fakeSMS struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeSMS) SendSMS(_ context.Context, _, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeSMS) lastOTP(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.messages)
	m := otpPattern.FindStringSubmatch(f.messages[len(f.messages)-1])
	require.Len(t, m, 2, "sms must carry a 6-digit code")
	return m[1]
}

type fixture struct {
	svc   *Service
	store *fakeStore
	cache *cache.Memory
	bus   *events.Bus
	sms   *fakeSMS
}

func newFixture(t *testing.T, resolver AccountResolver, records ...*domain.QRCode) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	store := newFakeStore(records...)
	mem := cache.NewMemory()
	bus := events.NewBus(logger)
	sms := &fakeSMS{}

	bus.Subscribe(events.KindAccountResolved, NewSMSNotifier(sms, logger).Handle)
	bus.Subscribe(events.KindAccountVerified, NewActivator(store, logger).Handle)

	svc := NewService(&Config{
		OTPTTL:         300 * time.Second,
		OTPLength:      6,
		MaxOTPAttempts: 3,
	}, logger, mem, store, resolver, bus)

	return &fixture{svc: svc, store: store, cache: mem, bus: bus, sms: sms}
}

func unactivatedRecord() *domain.QRCode {
	return &domain.QRCode{
		UUID:        testUUID,
		ArtifactURL: "https://cdn.example.com/qr/" + testUUID + ".png",
	}
}

func TestResolveVerifyRoundTrip(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{account: domain.ResolvedAccount{
		AccountNumber: testAccount,
		AccountName:   "Ada Obi Lovelace",
	}}
	f := newFixture(t, resolver, unactivatedRecord())

	got, err := f.svc.Resolve(ctx, testUUID, testAccount)
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi Lovelace", got.AccountName)
	f.bus.Wait()

	otp := f.sms.lastOTP(t)

	resolved, err := f.svc.Verify(ctx, testAccount, otp)
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi Lovelace", resolved.AccountName)
	f.bus.Wait()

	record, err := f.store.GetByUUID(ctx, testUUID)
	require.NoError(t, err)
	assert.True(t, record.IsActivated)
	assert.Equal(t, testAccount, record.AccountNumber)
	// First two whitespace-delimited tokens; the remainder is dropped
	assert.Equal(t, "Ada", record.FirstName)
	assert.Equal(t, "Obi", record.LastName)
}

func TestResolve_RecordNotFound(t *testing.T) {
	f := newFixture(t, &fakeResolver{})

	_, err := f.svc.Resolve(context.Background(), testUUID, testAccount)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestResolve_AlreadyActivated(t *testing.T) {
	record := unactivatedRecord()
	record.IsActivated = true
	f := newFixture(t, &fakeResolver{}, record)

	_, err := f.svc.Resolve(context.Background(), testUUID, testAccount)
	assert.ErrorIs(t, err, domain.ErrAlreadyActivated)
}

func TestResolve_AccountInUse(t *testing.T) {
	taken := &domain.QRCode{
		UUID:          "11111111-2222-3333-4444-555555555555",
		AccountNumber: testAccount,
		IsActivated:   true,
	}
	f := newFixture(t, &fakeResolver{}, unactivatedRecord(), taken)

	_, err := f.svc.Resolve(context.Background(), testUUID, testAccount)
	assert.ErrorIs(t, err, domain.ErrAccountInUse)
}

func TestResolve_ProviderFailureSurfaces(t *testing.T) {
	resolver := &fakeResolver{err: domain.NewProviderError("paystack", errors.New("timeout"))}
	f := newFixture(t, resolver, unactivatedRecord())

	_, err := f.svc.Resolve(context.Background(), testUUID, testAccount)
	require.Error(t, err)

	var provErr *domain.ProviderError
	assert.True(t, errors.As(err, &provErr))

	// Nothing cached, so a verify behaves as if never resolved
	_, err = f.svc.Verify(context.Background(), testAccount, "123456")
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestResolve_SMSFailureDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{account: domain.ResolvedAccount{
		AccountNumber: testAccount,
		AccountName:   "Ada Lovelace",
	}}
	f := newFixture(t, resolver, unactivatedRecord())
	f.sms.err = errors.New("termii unreachable")

	_, err := f.svc.Resolve(ctx, testUUID, testAccount)
	require.NoError(t, err)
	f.bus.Wait()

	// OTP stays cached and usable despite the delivery failure
	otp, err := f.cache.Get(ctx, "phone_verification_"+testAccount)
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, testAccount, otp)
	assert.NoError(t, err)
}

func TestVerify_NeverResolved(t *testing.T) {
	f := newFixture(t, &fakeResolver{})

	_, err := f.svc.Verify(context.Background(), testAccount, "123456")
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestVerify_ExpiredOTP(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{account: domain.ResolvedAccount{
		AccountNumber: testAccount,
		AccountName:   "Ada Lovelace",
	}}
	f := newFixture(t, resolver, unactivatedRecord())

	now := time.Now()
	f.cache.SetClock(func() time.Time { return now })

	_, err := f.svc.Resolve(ctx, testUUID, testAccount)
	require.NoError(t, err)
	f.bus.Wait()
	otp := f.sms.lastOTP(t)

	now = now.Add(301 * time.Second)

	_, err = f.svc.Verify(ctx, testAccount, otp)
	assert.ErrorIs(t, err, domain.ErrOTPNotFound, "expired must look identical to never resolved")
}

func TestVerify_IncorrectOTP(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{account: domain.ResolvedAccount{
		AccountNumber: testAccount,
		AccountName:   "Ada Lovelace",
	}}
	f := newFixture(t, resolver, unactivatedRecord())

	_, err := f.svc.Resolve(ctx, testUUID, testAccount)
	require.NoError(t, err)
	f.bus.Wait()
	otp := f.sms.lastOTP(t)

	wrong := "000000"
	if wrong == otp {
		wrong = "000001"
	}

	_, err = f.svc.Verify(ctx, testAccount, wrong)
	assert.ErrorIs(t, err, domain.ErrIncorrectOTP)

	// Right value with extra whitespace compares unequal
	_, err = f.svc.Verify(ctx, testAccount, otp+" ")
	assert.ErrorIs(t, err, domain.ErrIncorrectOTP)

	// The correct code still works within the attempt budget
	_, err = f.svc.Verify(ctx, testAccount, otp)
	assert.NoError(t, err)
}

func TestVerify_AttemptBudgetSpendsPendingEntry(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{account: domain.ResolvedAccount{
		AccountNumber: testAccount,
		AccountName:   "Ada Lovelace",
	}}
	f := newFixture(t, resolver, unactivatedRecord())

	_, err := f.svc.Resolve(ctx, testUUID, testAccount)
	require.NoError(t, err)
	f.bus.Wait()
	otp := f.sms.lastOTP(t)

	wrong := "000000"
	if wrong == otp {
		wrong = "000001"
	}

	_, err = f.svc.Verify(ctx, testAccount, wrong)
	assert.ErrorIs(t, err, domain.ErrIncorrectOTP)
	_, err = f.svc.Verify(ctx, testAccount, wrong)
	assert.ErrorIs(t, err, domain.ErrIncorrectOTP)
	_, err = f.svc.Verify(ctx, testAccount, wrong)
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)

	// Entry is consumed, even the right code no longer works
	_, err = f.svc.Verify(ctx, testAccount, otp)
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestVerify_SecondVerifyAfterSuccess(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{account: domain.ResolvedAccount{
		AccountNumber: testAccount,
		AccountName:   "Ada Lovelace",
	}}
	f := newFixture(t, resolver, unactivatedRecord())

	_, err := f.svc.Resolve(ctx, testUUID, testAccount)
	require.NoError(t, err)
	f.bus.Wait()
	otp := f.sms.lastOTP(t)

	_, err = f.svc.Verify(ctx, testAccount, otp)
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, testAccount, otp)
	assert.ErrorIs(t, err, domain.ErrOTPNotFound, "code is consumed on success")

	f.bus.Wait()
	assert.Equal(t, 1, f.store.activatedCount(testAccount))
}

func TestVerify_ConcurrentAttemptsActivateOnce(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{account: domain.ResolvedAccount{
		AccountNumber: testAccount,
		AccountName:   "Ada Lovelace",
	}}
	f := newFixture(t, resolver, unactivatedRecord())

	_, err := f.svc.Resolve(ctx, testUUID, testAccount)
	require.NoError(t, err)
	f.bus.Wait()
	otp := f.sms.lastOTP(t)

	const callers = 2
	errs := make(chan error, callers)
	var start sync.WaitGroup
	start.Add(1)

	for i := 0; i < callers; i++ {
		go func() {
			start.Wait()
			_, err := f.svc.Verify(ctx, testAccount, otp)
			errs <- err
		}()
	}
	start.Done()

	var succeeded, rejected int
	for i := 0; i < callers; i++ {
		if err := <-errs; err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, domain.ErrOTPNotFound)
			rejected++
		}
	}
	f.bus.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 1, f.store.activatedCount(testAccount))
}

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP(6)
		require.NoError(t, err)
		require.Len(t, otp, 6)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9', "otp must be numeric, got %q", otp)
		}
		seen[otp] = true
	}
	assert.Greater(t, len(seen), 1, "codes must vary")
}
