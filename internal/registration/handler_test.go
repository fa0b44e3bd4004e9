package registration

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ebotikaph/ebotika-api/internal/httputil"
	"github.com/ebotikaph/ebotika-api/internal/logging"
)

func postVerifyEmail(t *testing.T, handler *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-email", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.VerifyEmail(rec, req)
	return rec
}

func TestVerifyEmailMissingApplicantLooksLikeBadCode(t *testing.T) {
	f := newFixture()
	// The code consumes fine but the pending row is gone
	f.store.verifyErr = ErrApplicantNotFound
	handler := NewHandler(f.service, nil, logging.NewLogger(true))

	rec := postVerifyEmail(t, handler, `{"email":"juan@x.com","code":"123456"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), httputil.CodeInvalidVerificationCode)
}

func TestVerifyEmailRejectsMalformedBody(t *testing.T) {
	f := newFixture()
	handler := NewHandler(f.service, nil, logging.NewLogger(true))

	rec := postVerifyEmail(t, handler, `{"email":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), httputil.CodeInvalidRequestBody)
}

func TestVerifyEmailSuccess(t *testing.T) {
	f := newFixture()
	handler := NewHandler(f.service, nil, logging.NewLogger(true))

	rec := postVerifyEmail(t, handler, `{"email":"juan@x.com","code":"123456"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"juan@x.com"}, f.store.verified)
}
