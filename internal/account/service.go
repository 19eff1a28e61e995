// ABOUTME: HTTP handlers for the auth service: register, login, validate
// ABOUTME: Issues bearer tokens and acts as the remote validation authority

package account

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2389/promptdeck/internal/auth"
	"github.com/2389/promptdeck/internal/email"
	"github.com/2389/promptdeck/internal/httpapi"
	"github.com/2389/promptdeck/internal/store"
)

// Service implements the auth service HTTP API.
type Service struct {
	users    store.UserStore
	hasher   auth.Hasher
	tokens   *auth.JWTVerifier
	emails   *email.Validator
	tokenTTL time.Duration
	logger   *slog.Logger
}

// Config wires the Service's collaborators.
type Config struct {
	Users    store.UserStore
	Hasher   auth.Hasher
	Tokens   *auth.JWTVerifier
	Emails   *email.Validator
	TokenTTL time.Duration
	Logger   *slog.Logger
}

// New creates an auth service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    cfg.Users,
		hasher:   cfg.Hasher,
		tokens:   cfg.Tokens,
		emails:   cfg.Emails,
		tokenTTL: cfg.TokenTTL,
		logger:   logger.With("component", "account"),
	}
}

// RegisterRoutes registers the auth endpoints on the mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/validate", s.handleValidate)
}

// credentialsRequest is the JSON body for register and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerResponse is the JSON response for POST /auth/register.
type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// loginResponse is the JSON response for POST /auth/login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// validateResponse is the JSON response for GET /auth/validate.
type validateResponse struct {
	UserID string `json:"user_id"`
}

// handleRegister creates a new account. The email runs through the full
// validation pipeline and is stored in normalized form.
func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	normalized, err := s.emails.Validate(r.Context(), req.Email)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Email:        normalized,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			httpapi.WriteError(w, http.StatusBadRequest, "user already exists")
			return
		}
		s.logger.Error("creating user", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.logger.Info("registered user", "user_id", user.ID)
	httpapi.WriteJSON(w, http.StatusCreated, registerResponse{ID: user.ID, Email: user.Email})
}

// handleLogin verifies credentials and issues a bearer token. Unknown
// email and wrong password share one generic error so callers cannot
// enumerate accounts.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), email.Normalize(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpapi.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("looking up user", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		httpapi.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.tokens.Generate(user.ID, s.tokenTTL)
	if err != nil {
		s.logger.Error("generating token", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	httpapi.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer"})
}

// handleValidate is the remote verification endpoint other services call.
// It locally verifies the presented bearer token and vouches for the
// subject with 200 {"user_id"}, or rejects with 401.
func (s *Service) handleValidate(w http.ResponseWriter, r *http.Request) {
	token, errMsg := auth.ExtractBearerToken(r.Header.Get("Authorization"))
	if errMsg != "" {
		httpapi.WriteError(w, http.StatusUnauthorized, errMsg)
		return
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		httpapi.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, validateResponse{UserID: userID})
}
