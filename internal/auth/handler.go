package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ebotikaph/ebotika-api/internal/httputil"
	"github.com/ebotikaph/ebotika-api/internal/logging"
	"github.com/ebotikaph/ebotika-api/internal/ratelimit"
	"github.com/ebotikaph/ebotika-api/internal/resident"
)

// Handler contains HTTP handlers for authentication endpoints
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

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	AccessToken string             `json:"access_token"`
	ExpiresAt   time.Time          `json:"expires_at"`
	Resident    *resident.Resident `json:"resident"`
}

// Login handles resident sign-in
// @Summary      Sign in
// @Description  Authenticate a resident and return a PASETO access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} LoginResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      403 {object} httputil.ErrorResponse "Email not verified"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := httputil.ClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrEmailNotVerified) {
			logger.Warn("login failed: email not verified")
			httputil.RespondErrorWithCode(w, "email not verified, please check your inbox", httputil.CodeEmailNotVerified, http.StatusForbidden)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to sign in, please try again later", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("resident signed in", "resident_id", session.Resident.ID)

	httputil.RespondJSON(w, LoginResponse{
		AccessToken: session.AccessToken,
		ExpiresAt:   session.ExpiresAt,
		Resident:    session.Resident,
	}, http.StatusOK)
}

// Me returns the authenticated resident's profile
// @Summary      Current resident
// @Description  Return the profile of the signed-in resident
// @Tags         auth
// @Produce      json
// @Success      200 {object} resident.Resident
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Security     BearerAuth
// @Router       /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	residentID, ok := GetResidentIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	res, err := h.service.Me(r.Context(), residentID)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}
		logger.Error("failed to load resident profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, res, http.StatusOK)
}
