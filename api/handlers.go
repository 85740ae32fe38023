package api

import (
	"time"

	"github.com/consolelogkochan/dev-cockpit/database"
	"github.com/consolelogkochan/dev-cockpit/services"
	"github.com/consolelogkochan/dev-cockpit/storage"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Database    database.Database
	Storage     storage.FileStorage
	GitHub      *services.GitHubService
	Notion      *services.NotionService
	ProjectLite *services.ProjectLiteService
	News        *services.NewsService
	Mailer      *services.Mailer

	// AppURL is the frontend origin used in links sent by email.
	AppURL string
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, tokens tokenIssuer, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		projectHandler:     newProjectHandler(deps.Database.ProjectRepo(), deps.Storage, deps.Notion),
		integrationHandler: newIntegrationHandler(deps.Database.ProjectRepo(), deps.GitHub, deps.Notion, deps.ProjectLite, deps.News),
		authHandler:        newAuthHandler(deps.Database.UserRepo(), deps.Database.InvitationRepo(), tokens),
		adminHandler:       newAdminHandler(deps.Database.UserRepo(), deps.Database.InvitationRepo(), deps.Mailer),
		profileHandler:     newProfileHandler(deps.Database.UserRepo(), deps.Storage, deps.Mailer, deps.AppURL),
		healthHandler:      newHealthHandler(startupTime),
	}
}
