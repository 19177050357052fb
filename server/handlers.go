package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/scribehub/go-session-server/auth"
)

// Fixed external messages. Every authentication failure renders to one of
// these strings; the internal error subtype goes to the log only, so a
// caller cannot probe which usernames or tokens exist.
const (
	msgRegistered      = "Successfully registered."
	msgLoggedIn        = "Successfully logged in."
	msgLoggedOut       = "Successfully logged out."
	msgMissingField    = "missing argument username/password"
	msgUsernameTaken   = "Username already registered. Please log in."
	msgEmailTaken      = "Email already registered. Please log in."
	msgBadCredentials  = "User with those details does not exist."
	msgInvalidToken    = "Invalid token. Please log in again."
	msgProvideToken    = "Provide a valid auth token."
	msgMalformedBearer = "Bearer token malformed."
	msgTryAgain        = "Try again."
	msgInvalidPayload  = "invalid request payload"
)

type response struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	AuthToken string `json:"auth_token,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type statusData struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Admin        bool      `json:"admin"`
	RegisteredOn time.Time `json:"registered_on"`
}

// RegisterHandler creates a new identity and returns its first session token.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, failResponse(msgInvalidPayload))
			return
		}

		user, tokenString, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, response{Status: "success", Message: msgRegistered, AuthToken: tokenString})
			log.Info().Str("user_id", user.ID).Msg("user registered")
		case errors.Is(err, auth.ErrMissingField):
			writeJSON(w, http.StatusBadRequest, failResponse(msgMissingField))
		case errors.Is(err, auth.ErrUsernameTaken):
			writeJSON(w, http.StatusAccepted, failResponse(msgUsernameTaken))
		case errors.Is(err, auth.ErrEmailTaken):
			writeJSON(w, http.StatusAccepted, failResponse(msgEmailTaken))
		default:
			log.Error().Err(err).Msg("registration failed")
			writeJSON(w, http.StatusInternalServerError, failResponse(msgTryAgain))
		}
	}
}

// LoginHandler authenticates credentials and returns a session token.
// An unknown email and a wrong password produce the same response.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, failResponse(msgInvalidPayload))
			return
		}

		tokenString, err := s.auth.Login(r.Context(), req.Email, req.Password, time.Now())
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, response{Status: "success", Message: msgLoggedIn, AuthToken: tokenString})
		case errors.Is(err, auth.ErrNoSuchUser), errors.Is(err, auth.ErrBadPassword):
			writeJSON(w, http.StatusNotFound, failResponse(msgBadCredentials))
		default:
			log.Error().Err(err).Msg("login failed")
			writeJSON(w, http.StatusInternalServerError, failResponse(msgTryAgain))
		}
	}
}

// StatusHandler returns the identity behind a bearer token.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, failResponse(msgProvideToken))
			return
		}

		user, err := s.auth.UserStatus(r.Context(), tokenString, time.Now())
		if err != nil {
			s.writeAuthFailure(w, err)
			return
		}

		writeJSON(w, http.StatusOK, response{Status: "success", Data: statusData{
			UserID:       user.ID,
			Email:        user.Email,
			Admin:        user.Admin,
			RegisteredOn: user.RegisteredAt,
		}})
	}
}

// LogoutHandler revokes the presented bearer token.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusForbidden, failResponse(msgProvideToken))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) < 2 {
			writeJSON(w, http.StatusUnauthorized, failResponse(msgMalformedBearer))
			return
		}
		tokenString := parts[1]

		if err := s.auth.Logout(r.Context(), tokenString, time.Now()); err != nil {
			s.writeAuthFailure(w, err)
			return
		}

		writeJSON(w, http.StatusOK, response{Status: "success", Message: msgLoggedOut})
	}
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{Status: "success"})
	}
}

// writeAuthFailure collapses every auth error into a single 401 shape.
// Store faults are the exception: they are infrastructure, not the caller.
func (s *Server) writeAuthFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrStoreUnavailable) {
		log.Error().Err(err).Msg("store unavailable")
		writeJSON(w, http.StatusInternalServerError, failResponse(msgTryAgain))
		return
	}
	log.Debug().Err(err).Msg("token rejected")
	writeJSON(w, http.StatusUnauthorized, failResponse(msgInvalidToken))
}

// bearerToken extracts the second whitespace-delimited segment of the
// Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Fields(authHeader)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

func failResponse(message string) response {
	return response{Status: "fail", Message: message}
}

func writeJSON(w http.ResponseWriter, status int, payload response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
