package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"advisor-service/internal/model"
	"advisor-service/internal/store"
	"advisor-service/pkg/jwtutil"
	"advisor-service/pkg/logger"
	"advisor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// AuthHandler serves registration and login for advisors.
type AuthHandler struct {
	advisors store.AdvisorStore
}

// NewAuthHandler creates the auth handler backed by the given store.
func NewAuthHandler(advisors store.AdvisorStore) *AuthHandler {
	return &AuthHandler{advisors: advisors}
}

// Register creates a new advisor account. No auto-login: the caller is
// expected to log in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Name = strings.TrimSpace(req.Name)
	// Emails are compared case-insensitively, store them lowercased
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data",
			zap.String("email", req.Email),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name, email and password are required"})
	}

	if !emailPattern.MatchString(req.Email) {
		log.Error("Invalid email format", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_email")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email address is invalid"})
	}

	if len(req.Password) < minPasswordLength {
		log.Error("Password too short", zap.String("email", req.Email))
		prometheus.RecordAuthError("password_too_short")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be at least 6 characters"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	advisor := model.Advisor{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}

	// Save to database - track DB insert operation
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.advisors.CreateAdvisor(c.Request().Context(), &advisor); err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Error("Advisor already exists", zap.String("email", req.Email))
			prometheus.RecordAuthError("email_already_exists")
			return c.JSON(http.StatusConflict, echo.Map{"error": "Email already registered"})
		}
		log.Error("Failed to create advisor", zap.Error(err))
		prometheus.RecordAuthError("advisor_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("Advisor registered", zap.String("email", advisor.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Registration successful. Please log in.",
	})
}

// Login verifies credentials and issues a signed token. Unknown email
// and wrong password answer identically so account existence never
// leaks.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email and password are required"})
	}

	// Find advisor in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	advisor, err := h.advisors.AdvisorByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Error("Advisor not found", zap.String("email", req.Email))
			prometheus.RecordAuthError("user_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
		}
		log.Error("Failed to look up advisor", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(advisor.PasswordHash), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
	}

	// Generate JWT token
	token, err := jwtutil.GenerateToken(advisor.ID, advisor.Email, advisor.Name)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	// Increment active tokens gauge
	prometheus.IncreaseActiveTokens()

	log.Info("Advisor logged in", zap.String("email", advisor.Email), zap.Uint("advisor_id", advisor.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"token":   token,
		"user": map[string]interface{}{
			"id":    advisor.ID,
			"email": advisor.Email,
			"name":  advisor.Name,
		},
	})
}
