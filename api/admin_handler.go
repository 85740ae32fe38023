package api

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/consolelogkochan/dev-cockpit/errs"
	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	invitationCodeLength   = 10
	invitationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	invitationCodeAttempts = 5
	maxInvitationDays      = 365
)

type adminHandler struct {
	responder      Responder
	logger         zerolog.Logger
	userRepo       userStore
	invitationRepo invitationStore
	mailer         invitationMailer
}

func newAdminHandler(userRepo userStore, invitationRepo invitationStore, mailer invitationMailer) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()

	return adminHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		mailer:         mailer,
	}
}

func idParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid " + name)
	}
	return id, nil
}

func (h adminHandler) listUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pageParam(r)
		users, total, err := h.userRepo.Paginate(r.Context(), page, adminPerPage)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find users", "users", err))
			return
		}
		h.responder.WriteJSON(w, newPaginated(users, page, adminPerPage, total))
	}
}

// deleteUser removes an account. Admins cannot delete themselves.
func (h adminHandler) deleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := idParam(r, "userID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if current := ctxGetUser(r.Context()); current != nil && current.ID == userID {
			h.responder.WriteError(w, errs.NewForbiddenError("you cannot delete your own account"))
			return
		}

		if err := h.userRepo.Delete(r.Context(), userID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete user", "user", err))
			return
		}

		h.logger.Info().Str("userID", userID.String()).Msg("User deleted")
		h.responder.WriteJSON(w, map[string]string{"message": "User deleted"})
	}
}

func (h adminHandler) listInvitations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pageParam(r)
		invitations, total, err := h.invitationRepo.Paginate(r.Context(), page, adminPerPage)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find invitations", "invitations", err))
			return
		}
		h.responder.WriteJSON(w, newPaginated(invitations, page, adminPerPage, total))
	}
}

type createInvitationRequest struct {
	Email         *string `json:"email"`
	ExpiresInDays *int    `json:"expires_in_days"`
}

// createInvitation issues a unique code. When an email is given and mail is
// configured the code is sent to it; a failed send does not fail the request.
func (h adminHandler) createInvitation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createInvitationRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, &req); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}

		invitation := &models.Invitation{ID: uuid.New()}
		if creator := ctxGetUser(r.Context()); creator != nil {
			invitation.CreatedBy = creator.ID
		}

		if req.Email != nil && *req.Email != "" {
			email, err := normalizeEmail(*req.Email)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			invitation.Email = &email
		}

		if req.ExpiresInDays != nil {
			days := *req.ExpiresInDays
			if days < 1 || days > maxInvitationDays {
				h.responder.WriteError(w, errs.NewInvalidFieldError("expires_in_days", fmt.Sprintf("must be between 1 and %d", maxInvitationDays)))
				return
			}
			expiresAt := time.Now().Add(time.Duration(days) * 24 * time.Hour)
			invitation.ExpiresAt = &expiresAt
		}

		code, err := h.uniqueCode(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		invitation.Code = code

		if err := h.invitationRepo.Add(r.Context(), invitation); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create invitation", "invitation", err))
			return
		}

		if invitation.Email != nil && h.mailer != nil && h.mailer.Configured() {
			if err := h.mailer.SendInvitation(r.Context(), *invitation.Email, invitation.Code, invitation.ExpiresAt); err != nil {
				h.logger.Error().Err(err).Str("invitationID", invitation.ID.String()).Msg("Failed to email invitation")
			}
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, map[string]any{
			"message": "Invitation code created",
			"data":    invitation,
		})
	}
}

func (h adminHandler) deleteInvitation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invitationID, err := idParam(r, "invitationID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.invitationRepo.Delete(r.Context(), invitationID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete invitation", "invitation", err))
			return
		}

		h.responder.WriteJSON(w, map[string]string{"message": "Invitation deleted"})
	}
}

func (h adminHandler) uniqueCode(ctx context.Context) (string, error) {
	for range invitationCodeAttempts {
		code, err := randomCode(invitationCodeLength)
		if err != nil {
			return "", errs.NewInternalErrorWithCause("failed to generate invitation code", err)
		}

		exists, err := h.invitationRepo.CodeExists(ctx, code)
		if err != nil {
			return "", wrapDatabaseError("check invitation code", "invitation", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", errs.NewInternalErrorWithCause("failed to generate invitation code", errors.New("too many collisions"))
}

func randomCode(length int) (string, error) {
	limit := big.NewInt(int64(len(invitationCodeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = invitationCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
