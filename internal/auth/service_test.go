package auth

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebotikaph/ebotika-api/internal/password"
	"github.com/ebotikaph/ebotika-api/internal/resident"
)

type fakeResidents struct {
	byEmail map[string]*resident.Resident
}

func (f *fakeResidents) GetByEmail(_ context.Context, email string) (*resident.Resident, error) {
	res, ok := f.byEmail[email]
	if !ok {
		return nil, resident.ErrNotFound
	}
	return res, nil
}

func (f *fakeResidents) GetByID(_ context.Context, id uuid.UUID) (*resident.Resident, error) {
	for _, res := range f.byEmail {
		if res.ID == id {
			return res, nil
		}
	}
	return nil, resident.ErrNotFound
}

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func newTestService(t *testing.T, verified bool) (*Service, *resident.Resident) {
	t.Helper()

	hash, err := password.Hash("correct-password")
	require.NoError(t, err)

	res := &resident.Resident{
		ID:            uuid.New(),
		Email:         "maria@x.com",
		PasswordHash:  hash,
		FirstName:     "Maria",
		LastName:      "Santos",
		EmailVerified: verified,
	}

	tokens, err := NewPasetoService(testKey())
	require.NoError(t, err)

	store := &fakeResidents{byEmail: map[string]*resident.Resident{res.Email: res}}
	return NewService(store, tokens, 15*time.Minute), res
}

func TestPasetoTokenRoundTrip(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	residentID := uuid.New()
	token, err := svc.CreateToken(residentID, "maria@x.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, residentID.String(), claims.ResidentID)
	assert.Equal(t, "maria@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestPasetoRejectsGarbageToken(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	_, err = svc.VerifyToken("v4.local.not-a-real-token")
	assert.Error(t, err)
}

func TestPasetoRejectsShortKey(t *testing.T) {
	_, err := NewPasetoService([]byte("too short"))
	assert.Error(t, err)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	service, res := newTestService(t, true)

	session, err := service.Login(context.Background(), "maria@x.com", "correct-password")
	require.NoError(t, err)

	assert.Equal(t, res.ID, session.Resident.ID)
	assert.NotEmpty(t, session.AccessToken)

	tokens, err := NewPasetoService(testKey())
	require.NoError(t, err)
	claims, err := tokens.VerifyToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.ID.String(), claims.ResidentID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	service, _ := newTestService(t, true)

	_, err := service.Login(context.Background(), "maria@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailLooksLikeBadPassword(t *testing.T) {
	service, _ := newTestService(t, true)

	_, err := service.Login(context.Background(), "stranger@x.com", "correct-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	service, _ := newTestService(t, true)

	_, err := service.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRequiresVerifiedEmail(t *testing.T) {
	service, _ := newTestService(t, false)

	_, err := service.Login(context.Background(), "maria@x.com", "correct-password")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestMeReturnsResident(t *testing.T) {
	service, res := newTestService(t, true)

	got, err := service.Me(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Email, got.Email)
}

func TestMeUnknownIDFails(t *testing.T) {
	service, _ := newTestService(t, true)

	_, err := service.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
