package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/consolelogkochan/dev-cockpit/errs"
	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/consolelogkochan/dev-cockpit/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxAvatarBytes        = 10 << 20
	maxNameLength         = 255
	avatarField           = "avatar"
	emailChangeTokenBytes = 32
)

type profileHandler struct {
	responder Responder
	logger    zerolog.Logger
	userRepo  userStore
	files     storage.FileStorage
	mailer    emailChangeMailer
	appURL    string
}

func newProfileHandler(userRepo userStore, files storage.FileStorage, mailer emailChangeMailer, appURL string) profileHandler {
	logger := log.With().Str("handlerName", "profileHandler").Logger()

	return profileHandler{
		responder: NewResponder(logger),
		logger:    logger,
		userRepo:  userRepo,
		files:     files,
		mailer:    mailer,
		appURL:    strings.TrimRight(appURL, "/"),
	}
}

type profileInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`

	avatar *uploadedFile
}

func (in *profileInput) close() {
	if in.avatar != nil {
		in.avatar.file.Close()
	}
}

// ProfileResponse is returned by a profile update.
type ProfileResponse struct {
	Message      string       `json:"message"`
	User         *models.User `json:"user"`
	EmailChanged bool         `json:"email_changed"`
}

func parseProfileInput(w http.ResponseWriter, r *http.Request) (*profileInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var in profileInput
		if err := decodeJSON(w, r, &in); err != nil {
			return nil, err
		}
		return &in, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+maxJSONBody)
	if err := r.ParseMultipartForm(maxJSONBody); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errs.NewMaxBodySizeExceededError(maxAvatarBytes + maxJSONBody)
		}
		return nil, errs.NewMalformedPayloadError("multipart", err)
	}

	in := &profileInput{
		Name:                 r.FormValue("name"),
		Email:                r.FormValue("email"),
		Password:             r.FormValue("password"),
		PasswordConfirmation: r.FormValue("password_confirmation"),
	}

	file, header, err := r.FormFile(avatarField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return nil, errs.NewMalformedPayloadError("multipart", err)
	default:
		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			file.Close()
			return nil, errs.NewInvalidFieldError(avatarField, "must be an image")
		}
		if header.Size > maxAvatarBytes {
			file.Close()
			return nil, errs.NewInvalidFieldError(avatarField, "must be at most 10MB")
		}
		in.avatar = &uploadedFile{file: file, name: header.Filename, contentType: contentType}
	}

	return in, nil
}

// updateProfile changes the name, password and avatar of the current user.
// A different email is not applied directly: it is kept as new_email until
// the link mailed to that address is confirmed.
// @Summary Update profile
// @Tags Profile
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /api/profile [post]
func (h profileHandler) updateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := ctxGetUser(r.Context())
		if current == nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		in, err := parseProfileInput(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		defer in.close()

		user := *current

		name := strings.TrimSpace(in.Name)
		if name == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("name"))
			return
		}
		if len([]rune(name)) > maxNameLength {
			h.responder.WriteError(w, errs.NewInvalidFieldError("name", fmt.Sprintf("must be at most %d characters", maxNameLength)))
			return
		}
		user.Name = name

		email, err := normalizeEmail(in.Email)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if in.Password != "" {
			if len(in.Password) < minPasswordLength {
				h.responder.WriteError(w, errs.NewInvalidFieldError("password", "must be at least 8 characters"))
				return
			}
			if in.Password != in.PasswordConfirmation {
				h.responder.WriteError(w, errs.NewInvalidFieldError("password", "confirmation does not match"))
				return
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
			if err != nil {
				h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to hash password", err))
				return
			}
			user.PasswordHash = string(hash)
		}

		emailChanged := email != current.Email
		if emailChanged {
			if err := h.checkEmailAvailable(r, email); err != nil {
				h.responder.WriteError(w, err)
				return
			}
			if h.mailer == nil || !h.mailer.Configured() {
				h.logger.WithLevel(zerolog.FatalLevel).Str("setting", "RESEND_API_KEY").Msg("Email change requested but mail is not configured")
				h.responder.WriteError(w, errs.NewConfigError("RESEND_API_KEY", nil))
				return
			}
		}

		previousAvatar := current.AvatarURL
		var uploaded *string
		if in.avatar != nil {
			path, err := h.files.Save(r.Context(), storage.AvatarFolder, in.avatar.name, in.avatar.contentType, in.avatar.file)
			if err != nil {
				h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to store avatar", err))
				return
			}
			uploaded = &path
			user.AvatarURL = uploaded
		}

		if emailChanged {
			token, err := newEmailChangeToken()
			if err != nil {
				h.discardFile(r, uploaded)
				h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to generate email change token", err))
				return
			}
			user.NewEmail = &email
			user.EmailChangeToken = &token

			if err := h.mailer.SendEmailChange(r.Context(), email, h.verifyLink(token)); err != nil {
				h.discardFile(r, uploaded)
				h.logger.Error().Err(err).Str("userID", user.ID.String()).Msg("Failed to send email change confirmation")
				h.responder.WriteError(w, errs.NewServiceUnavailableError("Mail", "Failed to send confirmation email", err))
				return
			}
		}

		if err := h.userRepo.Update(r.Context(), &user); err != nil {
			h.discardFile(r, uploaded)
			h.responder.WriteError(w, wrapDatabaseError("update profile", "user", err))
			return
		}

		if uploaded != nil && previousAvatar != nil {
			h.discardFile(r, previousAvatar)
		}

		message := "Profile updated"
		if emailChanged {
			message = "Profile updated. A confirmation email was sent to the new address."
		}
		h.responder.WriteJSON(w, ProfileResponse{Message: message, User: &user, EmailChanged: emailChanged})
	}
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// verifyEmailChange applies a pending email change.
// @Summary Confirm an email change
// @Tags Profile
// @Accept json
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse "Invalid or expired token"
// @Router /api/profile/verify-email [post]
func (h profileHandler) verifyEmailChange() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyEmailRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		token := strings.TrimSpace(req.Token)
		if token == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("token"))
			return
		}

		user, err := h.userRepo.FindByEmailChangeToken(r.Context(), token)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && user.NewEmail == nil) {
			h.responder.WriteError(w, errs.NewMessageError(http.StatusBadRequest, "Invalid or expired token"))
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find user", "user", err))
			return
		}

		user.Email = *user.NewEmail
		user.NewEmail = nil
		user.EmailChangeToken = nil
		if err := h.userRepo.Update(r.Context(), user); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("confirm email change", "user", err))
			return
		}

		h.logger.Info().Str("userID", user.ID.String()).Msg("Email change confirmed")
		h.responder.WriteJSON(w, MessageResponse{Message: "Email address updated"})
	}
}

// checkEmailAvailable fails when another account already uses email.
func (h profileHandler) checkEmailAvailable(r *http.Request, email string) error {
	_, err := h.userRepo.FindByEmail(r.Context(), email)
	switch {
	case err == nil:
		return errs.NewAlreadyExists("user with this email")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return wrapDatabaseError("find user", "user", err)
	}
}

func (h profileHandler) verifyLink(token string) string {
	return h.appURL + "/verify-email?token=" + url.QueryEscape(token)
}

func (h profileHandler) discardFile(r *http.Request, path *string) {
	if path == nil {
		return
	}
	if err := h.files.Delete(r.Context(), *path); err != nil {
		h.logger.Warn().Err(err).Str("path", *path).Msg("Failed to delete avatar")
	}
}

func newEmailChangeToken() (string, error) {
	b := make([]byte, emailChangeTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
