package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type projectFixture struct {
	projects *fakeProjects
	files    *fakeFiles
	wiki     *fakeWiki
	router   http.Handler
	user     *models.User
}

func newProjectFixture(existing ...*models.Project) projectFixture {
	f := projectFixture{
		projects: newFakeProjects(existing...),
		files:    &fakeFiles{},
		wiki:     &fakeWiki{},
		user:     &models.User{ID: uuid.New(), Name: "dev"},
	}
	h := newProjectHandler(f.projects, f.files, f.wiki)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(ctxWithUser(req.Context(), f.user)))
		})
	})
	r.Get("/api/projects", h.getAllProjects())
	r.Post("/api/projects", h.createProject())
	r.Get("/api/projects/{projectID}", h.getProject())
	r.Put("/api/projects/{projectID}", h.updateProject())
	r.Delete("/api/projects/{projectID}", h.deleteProject())
	f.router = r
	return f
}

func (f projectFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeProject(t *testing.T, rec *httptest.ResponseRecorder) models.Project {
	t.Helper()
	var p models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p), rec.Body.String())
	return p
}

func TestCreateProjectNormalizesReferences(t *testing.T) {
	f := newProjectFixture()

	rec := f.do(t, http.MethodPost, "/api/projects", `{
		"title": "  Dashboard  ",
		"github_repo": "https://github.com/octocat/hello-world/tree/main",
		"figma_file_key": "https://www.figma.com/design/AbC123/Mockups",
		"pl_board_id": "https://lite.example.com/boards/42",
		"notion_pages": ["https://www.notion.so/Spec-0123456789abcdef0123456789abcdef", "plain-id"]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	p := decodeProject(t, rec)
	assert.Equal(t, "Dashboard", p.Title)
	assert.Equal(t, "octocat/hello-world", *p.GithubRepo)
	assert.Equal(t, "AbC123", *p.FigmaFileKey)
	assert.Equal(t, int64(42), *p.PLBoardID)
	assert.Equal(t, f.user.ID, p.OwnerID)
	require.Len(t, p.NotionPages, 2)

	stored, err := f.projects.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "octocat/hello-world", *stored.GithubRepo)
}

func TestCreateProjectValidation(t *testing.T) {
	f := newProjectFixture()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{"description":"x"}`, "title"},
		{"blank title", `{"title":"   "}`, "title"},
		{"bad board", `{"title":"t","pl_board_id":"not-a-board"}`, "pl_board_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/projects", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.field, body.Field)
		})
	}

	rec := f.do(t, http.MethodPost, "/api/projects", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProjectAcceptsNumericBoardID(t *testing.T) {
	f := newProjectFixture()
	rec := f.do(t, http.MethodPost, "/api/projects", `{"title":"t","pl_board_id":7}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(7), *decodeProject(t, rec).PLBoardID)
}

func TestCreateProjectWithThumbnail(t *testing.T) {
	f := newProjectFixture()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "With image"))
	require.NoError(t, mw.WriteField("notion_pages[]", "0123456789abcdef0123456789abcdef"))
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="thumbnail_file"; filename="Cover.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/projects", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decodeProject(t, rec)
	require.NotNil(t, p.ThumbnailURL)
	assert.Equal(t, "/storage/thumbnails/cover.png", *p.ThumbnailURL)
	assert.Len(t, p.NotionPages, 1)
}

func TestUpdateProjectReplacesPagesAndInvalidates(t *testing.T) {
	existing := &models.Project{
		ID:           uuid.New(),
		Title:        "old",
		GithubRepo:   strPtr("octocat/old"),
		ThumbnailURL: strPtr("/storage/thumbnails/old.png"),
		CreatedAt:    time.Now(),
	}
	existing.NotionPages = pagesFor(existing.ID, []string{"a", "b", "c"})
	f := newProjectFixture(existing)

	rec := f.do(t, http.MethodPut, "/api/projects/"+existing.ID.String(), `{
		"github_repo": "https://github.com/octocat/new",
		"thumbnail_url": null,
		"notion_pages": ["d"]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p := decodeProject(t, rec)
	assert.Equal(t, "old", p.Title, "omitted fields are kept")
	assert.Equal(t, "octocat/new", *p.GithubRepo)
	assert.Nil(t, p.ThumbnailURL)
	require.Len(t, p.NotionPages, 1)
	assert.Equal(t, "d", p.NotionPages[0].PageID)

	assert.Equal(t, 1, f.projects.replaced)
	assert.Equal(t, []string{"/storage/thumbnails/old.png"}, f.files.deleted)
	assert.Equal(t, []uuid.UUID{existing.ID}, f.wiki.invalidated)
}

func TestUpdateProjectWithoutPagesKeepsThem(t *testing.T) {
	existing := &models.Project{ID: uuid.New(), Title: "keep", CreatedAt: time.Now()}
	existing.NotionPages = pagesFor(existing.ID, []string{"a"})
	f := newProjectFixture(existing)

	rec := f.do(t, http.MethodPut, "/api/projects/"+existing.ID.String(), `{"title":"renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.projects.replaced)
	assert.Len(t, decodeProject(t, rec).NotionPages, 1)
	assert.Empty(t, f.files.deleted)
}

func TestDeleteProject(t *testing.T) {
	existing := &models.Project{ID: uuid.New(), Title: "bye", ThumbnailURL: strPtr("/storage/thumbnails/bye.png")}
	f := newProjectFixture(existing)

	rec := f.do(t, http.MethodDelete, "/api/projects/"+existing.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/storage/thumbnails/bye.png"}, f.files.deleted)
	assert.Equal(t, []uuid.UUID{existing.ID}, f.wiki.invalidated)

	rec = f.do(t, http.MethodDelete, "/api/projects/"+existing.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/projects/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProjectsPaginates(t *testing.T) {
	var existing []*models.Project
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 13; i++ {
		existing = append(existing, &models.Project{ID: uuid.New(), Title: "p", CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	f := newProjectFixture(existing...)

	rec := f.do(t, http.MethodGet, "/api/projects?page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body paginated[models.Project]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, existing[0].ID, body.Data[0].ID, "oldest project lands on the last page")
	assert.Equal(t, 2, body.Meta.CurrentPage)
	assert.Equal(t, 2, body.Meta.LastPage)
	assert.Equal(t, int64(13), body.Meta.Total)
	assert.Equal(t, 13, *body.Meta.From)
	assert.Equal(t, 13, *body.Meta.To)
}
