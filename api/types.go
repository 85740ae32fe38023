package api

import (
	"context"
	"time"

	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/consolelogkochan/dev-cockpit/services"
	"github.com/google/uuid"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler     projectHandler
	integrationHandler integrationHandler
	authHandler        authHandler
	adminHandler       adminHandler
	profileHandler     profileHandler
	healthHandler      healthHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal Server Error"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

// MessageResponse is the body of integration endpoint failures.
type MessageResponse struct {
	Message string `json:"message" example:"GitHub repository not linked"`
}

type projectStore interface {
	Paginate(ctx context.Context, page, perPage int) ([]*models.Project, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	CreateWithPages(ctx context.Context, project *models.Project, pageIDs []string) error
	UpdateWithPages(ctx context.Context, project *models.Project, pageIDs []string, replace bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userStore interface {
	userFinder
	Paginate(ctx context.Context, page, perPage int) ([]*models.User, int64, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailChangeToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type invitationStore interface {
	Paginate(ctx context.Context, page, perPage int) ([]*models.Invitation, int64, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Add(ctx context.Context, invitation *models.Invitation) error
	Delete(ctx context.Context, id uuid.UUID) error
	Redeem(ctx context.Context, code string, user *models.User, now time.Time) error
}

type githubSummarizer interface {
	Summary(ctx context.Context, slug string) (*services.GitHubSummary, error)
}

type wikiSummarizer interface {
	PageSummaries(ctx context.Context, projectID uuid.UUID, pageIDs []string) ([]services.PageSummary, error)
	wikiInvalidator
}

type wikiInvalidator interface {
	Invalidate(ctx context.Context, projectID uuid.UUID)
}

type boardProxy interface {
	BoardSummary(ctx context.Context, boardID int64) (*services.ProxyResponse, error)
}

type newsReader interface {
	Latest(ctx context.Context) ([]services.Article, error)
}

type invitationMailer interface {
	Configured() bool
	SendInvitation(ctx context.Context, email, code string, expiresAt *time.Time) error
}

type emailChangeMailer interface {
	Configured() bool
	SendEmailChange(ctx context.Context, email, link string) error
}
