package verification

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory Store used to exercise the code lifecycle.
type memoryStore struct {
	mu    sync.Mutex
	codes []*Code
}

func (m *memoryStore) DeleteActive(_ context.Context, email string, purpose Purpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.codes[:0]
	for _, c := range m.codes {
		if !(strings.EqualFold(c.Email, email) && c.Purpose == purpose && c.UsedAt == nil) {
			kept = append(kept, c)
		}
	}
	m.codes = kept
	return nil
}

func (m *memoryStore) Insert(_ context.Context, code *Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *code
	m.codes = append(m.codes, &cp)
	return nil
}

func (m *memoryStore) Latest(_ context.Context, email string, purpose Purpose) (*Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *Code
	for _, c := range m.codes {
		if strings.EqualFold(c.Email, email) && c.Purpose == purpose {
			if latest == nil || c.IssuedAt.After(latest.IssuedAt) {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil, ErrCodeNotFound
	}

	cp := *latest
	return &cp, nil
}

func (m *memoryStore) MarkUsed(_ context.Context, id uuid.UUID, usedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.codes {
		if c.ID == id {
			if c.UsedAt != nil {
				return false, nil
			}
			t := usedAt
			c.UsedAt = &t
			return true, nil
		}
	}
	return false, nil
}

func newTestService(store Store, now time.Time) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return now }
	return svc
}

func TestIssueGeneratesSixDigitCode(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store)

	code, err := svc.Issue(context.Background(), "juan@x.com", PurposeRegistration, 15*time.Minute)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
}

func TestIssueSetsExpiryFromWindow(t *testing.T) {
	store := &memoryStore{}
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	_, err := svc.Issue(context.Background(), "juan@x.com", PurposeRegistration, 15*time.Minute)
	require.NoError(t, err)

	stored, err := store.Latest(context.Background(), "juan@x.com", PurposeRegistration)
	require.NoError(t, err)
	assert.Equal(t, now, stored.IssuedAt)
	assert.Equal(t, now.Add(15*time.Minute), stored.ExpiresAt)
}

func TestIssueInvalidatesPreviousActiveCode(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "juan@x.com", PurposePasswordReset, 5*time.Minute)
	require.NoError(t, err)

	second, err := svc.Issue(ctx, "juan@x.com", PurposePasswordReset, 5*time.Minute)
	require.NoError(t, err)

	// The stale code must fail even though its own window has not passed.
	err = svc.Consume(ctx, "juan@x.com", PurposePasswordReset, first)
	if first != second {
		assert.ErrorIs(t, err, ErrCodeMismatch)
	}

	assert.NoError(t, svc.Consume(ctx, "juan@x.com", PurposePasswordReset, second))
}

func TestIssueScopesCodesByPurpose(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store)
	ctx := context.Background()

	regCode, err := svc.Issue(ctx, "juan@x.com", PurposeRegistration, 15*time.Minute)
	require.NoError(t, err)

	_, err = svc.Issue(ctx, "juan@x.com", PurposePasswordReset, 5*time.Minute)
	require.NoError(t, err)

	// Issuing a reset OTP must not invalidate the registration code.
	assert.NoError(t, svc.Consume(ctx, "juan@x.com", PurposeRegistration, regCode))
}

func TestConsumeUnknownEmail(t *testing.T) {
	svc := NewService(&memoryStore{})

	err := svc.Consume(context.Background(), "nobody@x.com", PurposeRegistration, "123456")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestConsumeWrongCode(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "juan@x.com", PurposeRegistration, 15*time.Minute)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	err = svc.Consume(ctx, "juan@x.com", PurposeRegistration, wrong)
	assert.ErrorIs(t, err, ErrCodeMismatch)

	// A mismatch must not burn the real code.
	assert.NoError(t, svc.Consume(ctx, "juan@x.com", PurposeRegistration, code))
}

func TestConsumeExpiredCode(t *testing.T) {
	store := &memoryStore{}
	issuedAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc := newTestService(store, issuedAt)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "juan@x.com", PurposePasswordReset, 5*time.Minute)
	require.NoError(t, err)

	// Move the clock past the window; the value still matches exactly.
	svc.now = func() time.Time { return issuedAt.Add(5*time.Minute + time.Second) }

	err = svc.Consume(ctx, "juan@x.com", PurposePasswordReset, code)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestConsumeTwiceFailsWithAlreadyUsed(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "juan@x.com", PurposeRegistration, 15*time.Minute)
	require.NoError(t, err)

	require.NoError(t, svc.Consume(ctx, "juan@x.com", PurposeRegistration, code))

	err = svc.Consume(ctx, "juan@x.com", PurposeRegistration, code)
	assert.ErrorIs(t, err, ErrCodeAlreadyUsed)
}

func TestConcurrentConsumeSingleWinner(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "juan@x.com", PurposeRegistration, 15*time.Minute)
	require.NoError(t, err)

	const attempts = 16
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Consume(ctx, "juan@x.com", PurposeRegistration, code)
		}()
	}
	wg.Wait()
	close(results)

	var ok, alreadyUsed int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case err == ErrCodeAlreadyUsed:
			alreadyUsed++
		default:
			t.Fatalf("unexpected consume error: %v", err)
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, alreadyUsed)
}

func TestConsumeEmailCaseInsensitive(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "Juan@X.com", PurposeRegistration, 15*time.Minute)
	require.NoError(t, err)

	assert.NoError(t, svc.Consume(ctx, "juan@x.com", PurposeRegistration, code))
}
