package recovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebotikaph/ebotika-api/internal/logging"
	"github.com/ebotikaph/ebotika-api/internal/password"
	"github.com/ebotikaph/ebotika-api/internal/resident"
	"github.com/ebotikaph/ebotika-api/internal/verification"
)

// --- fakes ---

type fakeResidents struct {
	mu       sync.Mutex
	byEmail  map[string]*resident.Resident
	failNext bool
}

func (f *fakeResidents) GetByEmail(_ context.Context, email string) (*resident.Resident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res, ok := f.byEmail[email]
	if !ok {
		return nil, resident.ErrNotFound
	}
	return res, nil
}

func (f *fakeResidents) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext {
		return errors.New("db down")
	}
	for _, res := range f.byEmail {
		if res.ID == id {
			res.PasswordHash = passwordHash
			return nil
		}
	}
	return resident.ErrNotFound
}

type recoveryIssued struct {
	email   string
	purpose verification.Purpose
	window  time.Duration
}

type fakeCodes struct {
	mu      sync.Mutex
	issued  []recoveryIssued
	consume error
}

func (f *fakeCodes) Issue(_ context.Context, email string, purpose verification.Purpose, window time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.issued = append(f.issued, recoveryIssued{email: email, purpose: purpose, window: window})
	return "654321", nil
}

func (f *fakeCodes) Consume(_ context.Context, _ string, _ verification.Purpose, _ string) error {
	return f.consume
}

func (f *fakeCodes) issuedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.issued)
}

type memorySessions struct {
	mu         sync.Mutex
	authorized map[string]bool
	lastTTL    time.Duration
}

func newMemorySessions() *memorySessions {
	return &memorySessions{authorized: map[string]bool{}}
}

func (m *memorySessions) Authorize(_ context.Context, email string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.authorized[email] = true
	m.lastTTL = ttl
	return nil
}

func (m *memorySessions) IsAuthorized(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authorized[email], nil
}

func (m *memorySessions) Clear(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.authorized, email)
	return nil
}

type sentOTP struct{ email, name, code string }

type fakeNotifier struct {
	otps chan sentOTP
}

func (f *fakeNotifier) SendResetOTP(_ context.Context, toEmail, name, code string) error {
	f.otps <- sentOTP{email: toEmail, name: name, code: code}
	return nil
}

// --- helpers ---

type recoveryFixture struct {
	residents *fakeResidents
	codes     *fakeCodes
	sessions  *memorySessions
	notifier  *fakeNotifier
	service   *Service

	residentID uuid.UUID
}

func newFixture() *recoveryFixture {
	residentID := uuid.New()

	f := &recoveryFixture{
		residents: &fakeResidents{
			byEmail: map[string]*resident.Resident{
				"maria@x.com": {
					ID:           residentID,
					Email:        "maria@x.com",
					FirstName:    "Maria",
					LastName:     "Santos",
					PasswordHash: "old-hash",
				},
			},
		},
		codes:      &fakeCodes{},
		sessions:   newMemorySessions(),
		notifier:   &fakeNotifier{otps: make(chan sentOTP, 4)},
		residentID: residentID,
	}

	f.service = NewService(
		f.residents, f.codes, f.sessions, f.notifier,
		logging.NewLogger(true), 5*time.Minute, 10*time.Minute,
	)

	return f
}

func waitForOTP(t *testing.T, ch <-chan sentOTP) sentOTP {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reset OTP")
		panic("unreachable")
	}
}

// --- tests ---

func TestRequestResetSendsOTPToRegisteredEmail(t *testing.T) {
	f := newFixture()

	err := f.service.RequestReset(context.Background(), "maria@x.com")
	require.NoError(t, err)

	require.Len(t, f.codes.issued, 1)
	assert.Equal(t, verification.PurposePasswordReset, f.codes.issued[0].purpose)
	assert.Equal(t, 5*time.Minute, f.codes.issued[0].window)

	otp := waitForOTP(t, f.notifier.otps)
	assert.Equal(t, "maria@x.com", otp.email)
	assert.Equal(t, "Maria", otp.name)
	assert.Equal(t, "654321", otp.code)
}

func TestRequestResetUnknownEmailIsSilent(t *testing.T) {
	f := newFixture()

	err := f.service.RequestReset(context.Background(), "stranger@x.com")
	require.NoError(t, err)

	assert.Equal(t, 0, f.codes.issuedCount())
}

func TestVerifyOTPAuthorizesReset(t *testing.T) {
	f := newFixture()

	err := f.service.VerifyOTP(context.Background(), "maria@x.com", "654321")
	require.NoError(t, err)

	authorized, err := f.sessions.IsAuthorized(context.Background(), "maria@x.com")
	require.NoError(t, err)
	assert.True(t, authorized)
	assert.Equal(t, 10*time.Minute, f.sessions.lastTTL)
}

func TestVerifyOTPWrongCodeDoesNotAuthorize(t *testing.T) {
	f := newFixture()
	f.codes.consume = verification.ErrCodeMismatch

	err := f.service.VerifyOTP(context.Background(), "maria@x.com", "000000")

	assert.ErrorIs(t, err, verification.ErrCodeMismatch)
	authorized, _ := f.sessions.IsAuthorized(context.Background(), "maria@x.com")
	assert.False(t, authorized)
}

func TestUpdatePasswordRequiresAuthorization(t *testing.T) {
	f := newFixture()

	err := f.service.UpdatePassword(context.Background(), "maria@x.com", "a-new-password")

	assert.ErrorIs(t, err, ErrResetNotAuthorized)
	assert.Equal(t, "old-hash", f.residents.byEmail["maria@x.com"].PasswordHash)
}

func TestUpdatePasswordReplacesHashAndClearsAuthorization(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.service.VerifyOTP(context.Background(), "maria@x.com", "654321"))

	err := f.service.UpdatePassword(context.Background(), "maria@x.com", "a-new-password")
	require.NoError(t, err)

	newHash := f.residents.byEmail["maria@x.com"].PasswordHash
	assert.NotEqual(t, "old-hash", newHash)

	assert.True(t, password.Verify(newHash, "a-new-password"))

	// Authorization is single-use
	err = f.service.UpdatePassword(context.Background(), "maria@x.com", "another-password")
	assert.ErrorIs(t, err, ErrResetNotAuthorized)
}

func TestUpdatePasswordTooShortBurnsAuthorization(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.service.VerifyOTP(context.Background(), "maria@x.com", "654321"))

	err := f.service.UpdatePassword(context.Background(), "maria@x.com", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.Equal(t, "old-hash", f.residents.byEmail["maria@x.com"].PasswordHash)

	// The failed attempt consumed the authorization
	err = f.service.UpdatePassword(context.Background(), "maria@x.com", "a-new-password")
	assert.ErrorIs(t, err, ErrResetNotAuthorized)
}

func TestUpdatePasswordClearsAuthorizationOnStoreFailure(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.service.VerifyOTP(context.Background(), "maria@x.com", "654321"))
	f.residents.failNext = true

	err := f.service.UpdatePassword(context.Background(), "maria@x.com", "a-new-password")
	require.Error(t, err)

	authorized, _ := f.sessions.IsAuthorized(context.Background(), "maria@x.com")
	assert.False(t, authorized)
}
