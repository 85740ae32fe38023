package api

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/consolelogkochan/dev-cockpit/database"
	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/consolelogkochan/dev-cockpit/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeProjects struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*models.Project
	replaced int
}

func newFakeProjects(projects ...*models.Project) *fakeProjects {
	f := &fakeProjects{projects: map[uuid.UUID]*models.Project{}}
	for _, p := range projects {
		f.projects[p.ID] = p
	}
	return f
}

func (f *fakeProjects) Paginate(_ context.Context, page, perPage int) ([]*models.Project, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := make([]*models.Project, 0, len(f.projects))
	for _, p := range f.projects {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (f *fakeProjects) FindByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func pagesFor(projectID uuid.UUID, ids []string) []models.NotionPage {
	pages := make([]models.NotionPage, 0, len(ids))
	for i, id := range ids {
		pages = append(pages, models.NotionPage{ID: uuid.New(), ProjectID: projectID, PageID: id, Position: i})
	}
	return pages
}

func (f *fakeProjects) CreateWithPages(_ context.Context, project *models.Project, pageIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	project.CreatedAt = time.Now()
	project.NotionPages = pagesFor(project.ID, pageIDs)
	clone := *project
	f.projects[project.ID] = &clone
	return nil
}

func (f *fakeProjects) UpdateWithPages(_ context.Context, project *models.Project, pageIDs []string, replace bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if replace {
		f.replaced++
		project.NotionPages = pagesFor(project.ID, pageIDs)
	}
	clone := *project
	f.projects[project.ID] = &clone
	return nil
}

func (f *fakeProjects) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.projects, id)
	return nil
}

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FindByEmailChangeToken(_ context.Context, token string) (*models.User, error) {
	for _, u := range f.users {
		if u.EmailChangeToken != nil && *u.EmailChangeToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Update(_ context.Context, user *models.User) error {
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUsers) Paginate(_ context.Context, _, _ int) ([]*models.User, int64, error) {
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeInvitations struct {
	users       *fakeUsers
	invitations map[string]*models.Invitation
}

func (f *fakeInvitations) Paginate(_ context.Context, _, _ int) ([]*models.Invitation, int64, error) {
	out := make([]*models.Invitation, 0, len(f.invitations))
	for _, inv := range f.invitations {
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

func (f *fakeInvitations) CodeExists(_ context.Context, code string) (bool, error) {
	_, ok := f.invitations[code]
	return ok, nil
}

func (f *fakeInvitations) Add(_ context.Context, invitation *models.Invitation) error {
	f.invitations[invitation.Code] = invitation
	return nil
}

func (f *fakeInvitations) Delete(_ context.Context, id uuid.UUID) error {
	for code, inv := range f.invitations {
		if inv.ID == id {
			delete(f.invitations, code)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeInvitations) Redeem(_ context.Context, code string, user *models.User, now time.Time) error {
	inv, ok := f.invitations[code]
	if !ok || !inv.Redeemable(now) {
		return database.ErrInvitationNotRedeemable
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users.users[user.ID] = user
	inv.IsUsed = true
	return nil
}

type fakeFiles struct {
	saved   []string
	deleted []string
}

func (f *fakeFiles) Save(_ context.Context, folder, filename, _ string, r io.Reader) (string, error) {
	io.Copy(io.Discard, r)
	path := "/storage/" + folder + "/" + strings.ToLower(filename)
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeFiles) Delete(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

type fakeWiki struct {
	pages       []services.PageSummary
	err         error
	invalidated []uuid.UUID
}

func (f *fakeWiki) PageSummaries(_ context.Context, _ uuid.UUID, _ []string) ([]services.PageSummary, error) {
	return f.pages, f.err
}

func (f *fakeWiki) Invalidate(_ context.Context, projectID uuid.UUID) {
	f.invalidated = append(f.invalidated, projectID)
}

type fakeGitHub struct {
	summary *services.GitHubSummary
	err     error
}

func (f fakeGitHub) Summary(context.Context, string) (*services.GitHubSummary, error) {
	return f.summary, f.err
}

type fakeBoard struct {
	resp *services.ProxyResponse
	err  error
}

func (f fakeBoard) BoardSummary(context.Context, int64) (*services.ProxyResponse, error) {
	return f.resp, f.err
}

type fakeNews struct {
	articles []services.Article
	err      error
}

func (f fakeNews) Latest(context.Context) ([]services.Article, error) {
	return f.articles, f.err
}

type fakeMailer struct {
	configured bool
	sent       []string
	links      []string
	err        error
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) SendInvitation(_ context.Context, email, code string, _ *time.Time) error {
	f.sent = append(f.sent, email+":"+code)
	return f.err
}

func (f *fakeMailer) SendEmailChange(_ context.Context, email, link string) error {
	f.links = append(f.links, email+" "+link)
	return f.err
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }
