package api

import (
	"errors"
	"net/http"

	"github.com/consolelogkochan/dev-cockpit/errs"
	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/consolelogkochan/dev-cockpit/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// integrationHandler serves the per-project provider widgets and the news feed.
// Failures answer with a bare {"message": ...} body.
type integrationHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo projectStore
	github      githubSummarizer
	wiki        wikiSummarizer
	board       boardProxy
	news        newsReader
}

func newIntegrationHandler(projectRepo projectStore, github githubSummarizer, wiki wikiSummarizer, board boardProxy, news newsReader) integrationHandler {
	logger := log.With().Str("handlerName", "integrationHandler").Logger()

	return integrationHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: projectRepo,
		github:      github,
		wiki:        wiki,
		board:       board,
		news:        news,
	}
}

func (h integrationHandler) loadProject(r *http.Request) (*models.Project, error) {
	projectID, err := projectIDParam(r)
	if err != nil {
		return nil, err
	}

	project, err := h.projectRepo.FindByID(r.Context(), projectID)
	if err != nil {
		return nil, wrapDatabaseError("find project", "project", err)
	}
	return project, nil
}

// configError logs the missing setting at the highest severity without
// stopping the process, and hides its name from the caller.
func (h integrationHandler) configError(err error) error {
	h.logger.WithLevel(zerolog.FatalLevel).Err(err).Msg("Integration is not configured")
	return errs.NewConfigError(err.Error(), err)
}

// getGitHubSummary
// @Summary Repository metadata and latest commits
// @Tags Integrations
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} services.GitHubSummary
// @Failure 404 {object} MessageResponse
// @Failure 503 {object} MessageResponse
// @Router /api/projects/{projectID}/github [get]
func (h integrationHandler) getGitHubSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.loadProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if project.GithubRepo == nil || *project.GithubRepo == "" {
			h.responder.WriteError(w, errs.NewMessageError(http.StatusNotFound, "GitHub repository not linked"))
			return
		}

		summary, err := h.github.Summary(r.Context(), *project.GithubRepo)
		if err != nil {
			h.responder.WriteError(w, h.githubError(err))
			return
		}

		h.responder.WriteJSON(w, summary)
	}
}

func (h integrationHandler) githubError(err error) error {
	if errors.Is(err, services.ErrNotConfigured) {
		return h.configError(err)
	}
	if upstreamErr, ok := services.AsUpstreamError(err); ok {
		return errs.NewUpstreamError("GitHub", upstreamErr.Status, "Repository not found or access denied")
	}
	h.logger.Warn().Err(err).Msg("GitHub request failed")
	return errs.NewServiceUnavailableError("GitHub", "GitHub service unavailable", err)
}

// getNotionPages returns one entry per linked page; pages that failed carry
// error and status instead of content.
// @Summary Linked Notion page summaries
// @Tags Integrations
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Router /api/projects/{projectID}/notion [get]
func (h integrationHandler) getNotionPages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.loadProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		pages, err := h.wiki.PageSummaries(r.Context(), project.ID, project.NotionPageIDs())
		if err != nil {
			if errors.Is(err, services.ErrNotConfigured) {
				h.responder.WriteError(w, h.configError(err))
				return
			}
			h.responder.WriteError(w, errs.NewServiceUnavailableError("Notion", "Notion service unavailable", err))
			return
		}

		h.responder.WriteJSON(w, map[string][]services.PageSummary{"pages": pages})
	}
}

// getBoardSummary relays the task board's answer, status code included.
// @Summary Project-Lite board summary
// @Tags Integrations
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Router /api/projects/{projectID}/project-lite [get]
func (h integrationHandler) getBoardSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.loadProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if project.PLBoardID == nil {
			h.responder.WriteError(w, errs.NewMessageError(http.StatusNotFound, "Project-Lite Board ID not set"))
			return
		}

		resp, err := h.board.BoardSummary(r.Context(), *project.PLBoardID)
		if err != nil {
			if errors.Is(err, services.ErrNotConfigured) {
				h.responder.WriteError(w, h.configError(err))
				return
			}
			h.logger.Error().Err(err).Int64("boardID", *project.PLBoardID).Msg("Project-Lite connection failed")
			h.responder.WriteError(w, errs.NewMessageError(http.StatusInternalServerError, "Connection error occurred"))
			return
		}

		h.responder.WriteRawJSON(w, resp.Status, resp.Body)
	}
}

// getNews
// @Summary Latest articles from the configured news feed
// @Tags Integrations
// @Produce json
// @Router /api/news [get]
func (h integrationHandler) getNews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articles, err := h.news.Latest(r.Context())
		switch {
		case errors.Is(err, services.ErrMalformedFeed):
			h.responder.WriteError(w, errs.NewMalformedUpstreamError("News feed", "Failed to parse news feed", err))
			return
		case err != nil:
			h.responder.WriteError(w, errs.NewServiceUnavailableError("News feed", "Failed to fetch news feed", err))
			return
		}

		h.responder.WriteJSON(w, map[string][]services.Article{"articles": articles})
	}
}
