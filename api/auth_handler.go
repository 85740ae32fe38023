package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/consolelogkochan/dev-cockpit/database"
	"github.com/consolelogkochan/dev-cockpit/errs"
	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type authHandler struct {
	responder      Responder
	logger         zerolog.Logger
	userRepo       userStore
	invitationRepo invitationStore
	tokens         tokenIssuer
}

func newAuthHandler(userRepo userStore, invitationRepo invitationStore, tokens tokenIssuer) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		tokens:         tokens,
	}
}

type registerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	InvitationCode string `json:"invitation_code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.NewInvalidJSONError(err)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errs.NewMissingRequiredFieldError("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errs.NewInvalidFieldError("email", "must be a valid email address")
	}
	return email, nil
}

// register creates an account from an unused, unexpired invitation code
// @Summary Register with an invitation code
// @Tags Auth
// @Accept json
// @Produce json
// @Success 201 {object} SessionResponse
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Failure 422 {object} ErrorResponse "Invitation code invalid, used or expired"
// @Router /auth/register [post]
func (h authHandler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("name"))
			return
		}
		email, err := normalizeEmail(req.Email)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if len(req.Password) < minPasswordLength {
			h.responder.WriteError(w, errs.NewInvalidFieldError("password", "must be at least 8 characters"))
			return
		}
		code := strings.TrimSpace(req.InvitationCode)
		if code == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("invitation_code"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to hash password", err))
			return
		}

		user := &models.User{Name: name, Email: email, PasswordHash: string(hash)}
		if err := h.invitationRepo.Redeem(r.Context(), code, user, time.Now()); err != nil {
			if errors.Is(err, database.ErrInvitationNotRedeemable) {
				h.responder.WriteError(w, errs.NewInvalidInvitationError("The invitation code is invalid, already used or expired"))
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("register", "user", err))
			return
		}

		token, err := h.tokens.issue(user)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to issue token", err))
			return
		}

		h.logger.Info().Str("userID", user.ID.String()).Msg("User registered")
		h.responder.WriteJSONStatus(w, http.StatusCreated, SessionResponse{Token: token, User: user})
	}
}

// login exchanges credentials for a session token
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		email, err := normalizeEmail(req.Email)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if req.Password == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("password"))
			return
		}

		user, err := h.userRepo.FindByEmail(r.Context(), email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find user", "user", err))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}

		token, err := h.tokens.issue(user)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to issue token", err))
			return
		}

		h.responder.WriteJSON(w, SessionResponse{Token: token, User: user})
	}
}

// me returns the authenticated user.
func (h authHandler) me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())
		if user == nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}
		h.responder.WriteJSON(w, user)
	}
}
