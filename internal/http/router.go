package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ebotikaph/ebotika-api/internal/auth"
	"github.com/ebotikaph/ebotika-api/internal/config"
	"github.com/ebotikaph/ebotika-api/internal/geo"
	"github.com/ebotikaph/ebotika-api/internal/httputil"
	"github.com/ebotikaph/ebotika-api/internal/logging"
	"github.com/ebotikaph/ebotika-api/internal/recovery"
	"github.com/ebotikaph/ebotika-api/internal/registration"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	registrationHandler *registration.Handler,
	recoveryHandler *recovery.Handler,
	authHandler *auth.Handler,
	geoHandler *geo.Handler,
	authMiddleware *auth.Middleware,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Reference data for registration forms
	r.Route("/areas", func(r chi.Router) {
		r.Get("/", geoHandler.ListAreas)
		r.Get("/{areaID}/sub-areas", geoHandler.ListSubAreas)
	})

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", registrationHandler.Register)
		r.Post("/verify-email", registrationHandler.VerifyEmail)
		r.Post("/resend-code", registrationHandler.ResendCode)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", recoveryHandler.ForgotPassword)
		r.Post("/verify-otp", recoveryHandler.VerifyOTP)
		r.Post("/reset-password", recoveryHandler.ResetPassword)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Get("/me", authHandler.Me)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
