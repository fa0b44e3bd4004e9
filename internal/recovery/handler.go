package recovery

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ebotikaph/ebotika-api/internal/httputil"
	"github.com/ebotikaph/ebotika-api/internal/logging"
	"github.com/ebotikaph/ebotika-api/internal/ratelimit"
	"github.com/ebotikaph/ebotika-api/internal/verification"
)

// Handler contains HTTP handlers for the password recovery endpoints
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

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest represents the OTP verification request
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordRequest represents the new password submission
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

const forgotPasswordMessage = "If an account exists for that email, a reset code has been sent."

// ForgotPassword handles a password reset request
// @Summary      Request a password reset
// @Description  Email a one-time reset code to the account holder. Always returns the same message regardless of whether the email is registered.
// @Tags         recovery
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := httputil.ClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "password-reset")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for password reset", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(req.Email)
	logger = logger.WithFields(map[string]any{"email": email})

	// Per-email cooldown between reset requests
	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email cooldown active for password reset")
		httputil.RespondErrorWithCode(w, "a reset code was recently sent, please wait before requesting another", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "password-reset"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	if err := h.service.RequestReset(r.Context(), email); err != nil {
		// RequestReset never reveals account existence; treat any error as internal
		logger.Error("failed to process reset request", "error", err.Error())
	}

	logger.Info("password reset requested")

	httputil.RespondJSON(w, map[string]string{
		"message": forgotPasswordMessage,
	}, http.StatusOK)
}

// VerifyOTP handles reset code verification
// @Summary      Verify a password reset code
// @Description  Consume the emailed reset code and authorize a password update
// @Tags         recovery
// @Accept       json
// @Produce      json
// @Param        request body VerifyOTPRequest true "Email and code"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired code"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/verify-otp [post]
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify OTP request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	err := h.service.VerifyOTP(r.Context(), req.Email, strings.TrimSpace(req.Code))
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrCodeNotFound),
			errors.Is(err, verification.ErrCodeExpired),
			errors.Is(err, verification.ErrCodeMismatch),
			errors.Is(err, verification.ErrCodeAlreadyUsed):
			logger.Warn("reset code verification failed", "reason", err.Error())
			httputil.RespondErrorWithCode(w, "incorrect or expired code", httputil.CodeInvalidVerificationCode, http.StatusBadRequest)
			return
		}
		logger.Error("reset code verification failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to verify code", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("reset code verified")

	httputil.RespondJSON(w, map[string]string{
		"message": "Code verified. You may now set a new password.",
	}, http.StatusOK)
}

// ResetPassword handles the new password submission
// @Summary      Set a new password
// @Description  Replace the account password after a successful code verification
// @Tags         recovery
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Email and new password"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Password too short"
// @Failure      403 {object} httputil.ErrorResponse "Reset not authorized"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	err := h.service.UpdatePassword(r.Context(), req.Email, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrResetNotAuthorized):
			logger.Warn("password reset not authorized")
			httputil.RespondErrorWithCode(w, "password reset not authorized, please verify your code first", httputil.CodeResetNotAuthorized, http.StatusForbidden)
			return
		case errors.Is(err, ErrPasswordTooShort):
			logger.Warn("password reset rejected: password too short")
			httputil.RespondErrorWithCode(w, "password must be at least 8 characters", httputil.CodePasswordTooShort, http.StatusBadRequest)
			return
		}
		logger.Error("password reset failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to reset password, please try again later", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset completed")

	httputil.RespondJSON(w, map[string]string{
		"message": "Password updated. You can now sign in with your new password.",
	}, http.StatusOK)
}
