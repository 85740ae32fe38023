package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type profileFixture struct {
	users  *fakeUsers
	files  *fakeFiles
	mailer *fakeMailer
	user   *models.User
	router http.Handler
}

func newProfileFixture(others ...*models.User) profileFixture {
	f := profileFixture{
		users:  newFakeUsers(others...),
		files:  &fakeFiles{},
		mailer: &fakeMailer{configured: true},
		user:   &models.User{ID: uuid.New(), Name: "Ann", Email: "ann@example.com"},
	}
	f.users.users[f.user.ID] = f.user

	h := newProfileHandler(f.users, f.files, f.mailer, "https://cockpit.example.com/")
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			current := f.users.users[f.user.ID]
			next.ServeHTTP(w, req.WithContext(ctxWithUser(req.Context(), current)))
		})
	})
	r.Post("/api/profile", h.updateProfile())
	r.Post("/api/profile/verify-email", h.verifyEmailChange())
	f.router = r
	return f
}

func (f profileFixture) stored() *models.User {
	return f.users.users[f.user.ID]
}

func decodeProfile(t *testing.T, rec *httptest.ResponseRecorder) ProfileResponse {
	t.Helper()
	var resp ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestUpdateProfileNameAndPassword(t *testing.T) {
	f := newProfileFixture()

	rec := post(t, f.router, "/api/profile", `{"name":"  Ann Lee ","email":"ann@example.com","password":"n3w-secret","password_confirmation":"n3w-secret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeProfile(t, rec)
	assert.False(t, resp.EmailChanged)
	assert.Equal(t, "Ann Lee", resp.User.Name)
	assert.Equal(t, "Ann Lee", f.stored().Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(f.stored().PasswordHash), []byte("n3w-secret")))
	assert.Empty(t, f.mailer.links)
}

func TestUpdateProfileValidation(t *testing.T) {
	f := newProfileFixture()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"email":"ann@example.com"}`, "name"},
		{"bad email", `{"name":"Ann","email":"not-an-email"}`, "email"},
		{"short password", `{"name":"Ann","email":"ann@example.com","password":"short","password_confirmation":"short"}`, "password"},
		{"unconfirmed password", `{"name":"Ann","email":"ann@example.com","password":"n3w-secret","password_confirmation":"other-secret"}`, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, f.router, "/api/profile", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.field, body.Field)
		})
	}
}

func TestUpdateProfileReplacesAvatar(t *testing.T) {
	f := newProfileFixture()
	f.user.AvatarURL = strPtr("/storage/avatars/old.png")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Ann"))
	require.NoError(t, mw.WriteField("email", "ann@example.com"))
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="avatar"; filename="Me.PNG"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/profile", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, f.stored().AvatarURL)
	assert.Equal(t, "/storage/avatars/me.png", *f.stored().AvatarURL)
	assert.Equal(t, []string{"/storage/avatars/old.png"}, f.files.deleted)
}

func TestEmailChangeRequiresConfirmation(t *testing.T) {
	f := newProfileFixture()

	rec := post(t, f.router, "/api/profile", `{"name":"Ann","email":"Ann.New@Example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeProfile(t, rec).EmailChanged)

	pending := f.stored()
	assert.Equal(t, "ann@example.com", pending.Email, "address is only replaced after confirmation")
	require.NotNil(t, pending.NewEmail)
	assert.Equal(t, "ann.new@example.com", *pending.NewEmail)
	require.NotNil(t, pending.EmailChangeToken)
	token := *pending.EmailChangeToken
	assert.NotContains(t, rec.Body.String(), token)

	require.Len(t, f.mailer.links, 1)
	assert.Equal(t, "ann.new@example.com https://cockpit.example.com/verify-email?token="+token, f.mailer.links[0])

	rec = post(t, f.router, "/api/profile/verify-email", `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ann.new@example.com", f.stored().Email)
	assert.Nil(t, f.stored().NewEmail)
	assert.Nil(t, f.stored().EmailChangeToken)

	rec = post(t, f.router, "/api/profile/verify-email", `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired token", messageOf(t, rec))
}

func TestEmailChangeFailures(t *testing.T) {
	t.Run("address taken", func(t *testing.T) {
		f := newProfileFixture(&models.User{ID: uuid.New(), Email: "bob@example.com"})
		rec := post(t, f.router, "/api/profile", `{"name":"Ann","email":"bob@example.com"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, f.mailer.links)
	})

	t.Run("mail not configured", func(t *testing.T) {
		f := newProfileFixture()
		f.mailer.configured = false
		rec := post(t, f.router, "/api/profile", `{"name":"Ann","email":"new@example.com"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Server Configuration Error", messageOf(t, rec))
		assert.Nil(t, f.stored().NewEmail)
	})

	t.Run("mail send fails", func(t *testing.T) {
		f := newProfileFixture()
		f.mailer.err = errors.New("resend down")
		rec := post(t, f.router, "/api/profile", `{"name":"Renamed","email":"new@example.com"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "Ann", f.stored().Name, "nothing is saved when the confirmation cannot be sent")
		assert.Nil(t, f.stored().EmailChangeToken)
	})

	t.Run("missing token", func(t *testing.T) {
		f := newProfileFixture()
		rec := post(t, f.router, "/api/profile/verify-email", `{"token":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "token"))
	})
}
