package registration

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ebotikaph/ebotika-api/internal/httputil"
	"github.com/ebotikaph/ebotika-api/internal/logging"
	"github.com/ebotikaph/ebotika-api/internal/ratelimit"
	"github.com/ebotikaph/ebotika-api/internal/verification"
)

// Handler contains HTTP handlers for the registration intake endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// ApplicantResponse represents an applicant in API responses
type ApplicantResponse struct {
	ID     uuid.UUID `json:"id"`
	Email  string    `json:"email"`
	Status Status    `json:"status"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	Applicant ApplicantResponse `json:"applicant"`
	Message   string            `json:"message"`
}

// ValidationErrorResponse lists the rejected form fields
type ValidationErrorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Fields []FieldError `json:"fields"`
}

// VerifyEmailRequest represents the email verification request
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendCodeRequest represents the resend verification code request
type ResendCodeRequest struct {
	Email string `json:"email"`
}

// Register handles a registration submission
// @Summary      Submit a registration
// @Description  Register an applicant with optional family members. A verification code is emailed and the assigned health worker is notified.
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        request body Form true "Registration form"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} ValidationErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Duplicate identity"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := httputil.ClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var form Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": form.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	applicant, err := h.service.Submit(r.Context(), &form)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondJSON(w, ValidationErrorResponse{
				Error:  "one or more fields are invalid",
				Code:   httputil.CodeValidationFailed,
				Fields: verr.Fields,
			}, http.StatusBadRequest)
			return
		}

		var derr *DuplicateError
		if errors.As(err, &derr) {
			logger.Warn("registration failed: duplicate identity", "verdict", string(derr.Verdict))
			httputil.RespondErrorWithCode(w, derr.Error(), httputil.CodeDuplicateIdentity, http.StatusConflict)
			return
		}

		if errors.Is(err, ErrInvalidSubArea) {
			logger.Warn("registration failed: invalid sub-area")
			httputil.RespondErrorWithCode(w, "selected sub-area does not exist", httputil.CodeInvalidSubArea, http.StatusBadRequest)
			return
		}

		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to submit registration, please try again later", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("registration submitted", "applicant_id", applicant.ID)

	httputil.RespondJSON(w, RegisterResponse{
		Applicant: ApplicantResponse{
			ID:     applicant.ID,
			Email:  applicant.Email,
			Status: applicant.Status,
		},
		Message: "Registration submitted. Please check your email for the verification code.",
	}, http.StatusCreated)
}

// VerifyEmail handles registration code verification
// @Summary      Verify email address
// @Description  Consume the emailed verification code and mark the application's email as verified
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        request body VerifyEmailRequest true "Email and code"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired code"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify email request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	err := h.service.VerifyEmail(r.Context(), req.Email, strings.TrimSpace(req.Code))
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrCodeNotFound),
			errors.Is(err, verification.ErrCodeExpired),
			errors.Is(err, verification.ErrCodeMismatch),
			errors.Is(err, verification.ErrCodeAlreadyUsed),
			// Code consumed but the pending row is gone; indistinguishable
			// from a stale code as far as the caller is concerned
			errors.Is(err, ErrApplicantNotFound):
			logger.Warn("email verification failed", "reason", err.Error())
			httputil.RespondErrorWithCode(w, "incorrect or expired code", httputil.CodeInvalidVerificationCode, http.StatusBadRequest)
			return
		}
		logger.Error("email verification failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("email verified")

	httputil.RespondJSON(w, map[string]string{
		"message": "Email verified. Your registration is awaiting review.",
	}, http.StatusOK)
}

// ResendCode handles re-issuing a registration code
// @Summary      Resend verification code
// @Description  Issue a fresh verification code for a pending registration. Always returns success to prevent email enumeration.
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        request body ResendCodeRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/resend-code [post]
func (h *Handler) ResendCode(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend code request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ip := httputil.ClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "resend-code")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for resend", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown", "email", req.Email)
		httputil.RespondErrorWithCode(w, "please wait before requesting another code", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "resend-code"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	// Always succeeds from the caller's perspective (prevent enumeration)
	_ = h.service.ResendCode(r.Context(), req.Email)

	httputil.RespondJSON(w, map[string]string{
		"message": "If a pending registration exists for that email, a new code has been sent.",
	}, http.StatusOK)
}
