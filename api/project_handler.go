package api

import (
	"net/http"

	"github.com/consolelogkochan/dev-cockpit/errs"
	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/consolelogkochan/dev-cockpit/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type projectHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo projectStore
	files       storage.FileStorage
	wiki        wikiInvalidator
}

func newProjectHandler(projectRepo projectStore, files storage.FileStorage, wiki wikiInvalidator) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: projectRepo,
		files:       files,
		wiki:        wiki,
	}
}

// projectIDParam parses the {projectID} URL parameter.
func projectIDParam(r *http.Request) (uuid.UUID, error) {
	projectIDStr := chi.URLParam(r, "projectID")
	if projectIDStr == "" {
		return uuid.Nil, errs.NewBadRequestError("missing projectID")
	}

	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid projectID")
	}
	return projectID, nil
}

// getAllProjects lists projects, newest first
// @Summary List projects
// @Tags Projects
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} paginated[models.Project]
// @Failure 500 {object} ErrorResponse
// @Router /api/projects [get]
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pageParam(r)

		projects, total, err := h.projectRepo.Paginate(r.Context(), page, projectsPerPage)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find projects", "projects", err))
			return
		}

		h.responder.WriteJSON(w, newPaginated(projects, page, projectsPerPage, total))
	}
}

// getProject retrieves a specific project by ID with its Notion pages
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid projectID"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{projectID} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find project", "project", err))
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

// createProject creates a new project. External references are normalized
// before they are stored.
// @Summary Create project
// @Tags Projects
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} models.Project
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid project data"
// @Router /api/projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		in, err := parseProjectInput(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		defer in.close()

		if !in.Title.Set {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("title"))
			return
		}

		project := &models.Project{ID: uuid.New()}
		if user != nil {
			project.OwnerID = user.ID
		}
		if err := in.apply(project); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		uploaded, err := h.saveThumbnail(r, in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if uploaded != nil {
			project.ThumbnailURL = uploaded
		}

		if err := h.projectRepo.CreateWithPages(r.Context(), project, in.NotionPages.IDs); err != nil {
			h.discardThumbnail(r, uploaded)
			h.responder.WriteError(w, wrapDatabaseError("create project", "project", err))
			return
		}

		h.logger.Info().Str("projectID", project.ID.String()).Msg("Project created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, project)
	}
}

// updateProject updates the fields that were sent. A notion_pages list
// replaces every stored page reference.
// @Summary Update project
// @Tags Projects
// @Accept json,mpfd
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid project data"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{projectID} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find project", "project", err))
			return
		}
		previousThumbnail := project.ThumbnailURL

		in, err := parseProjectInput(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		defer in.close()

		if err := in.apply(project); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		uploaded, err := h.saveThumbnail(r, in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if uploaded != nil {
			project.ThumbnailURL = uploaded
		}

		if err := h.projectRepo.UpdateWithPages(r.Context(), project, in.NotionPages.IDs, in.NotionPages.Set); err != nil {
			h.discardThumbnail(r, uploaded)
			h.responder.WriteError(w, wrapDatabaseError("update project", "project", err))
			return
		}

		if previousThumbnail != nil && (project.ThumbnailURL == nil || *project.ThumbnailURL != *previousThumbnail) {
			h.discardThumbnail(r, previousThumbnail)
		}
		h.wiki.Invalidate(r.Context(), project.ID)

		h.responder.WriteJSON(w, project)
	}
}

// deleteProject deletes a project, its thumbnail and its cached wiki summary
// @Summary Delete project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} map[string]string "Success message"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{projectID} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find project", "project", err))
			return
		}

		if err := h.projectRepo.Delete(r.Context(), projectID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete project", "project", err))
			return
		}

		h.discardThumbnail(r, project.ThumbnailURL)
		h.wiki.Invalidate(r.Context(), projectID)

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "project deleted successfully",
		})
	}
}

func (h projectHandler) saveThumbnail(r *http.Request, in *projectInput) (*string, error) {
	if in.thumbnail == nil {
		return nil, nil
	}

	path, err := h.files.Save(r.Context(), storage.ThumbnailFolder, in.thumbnail.name, in.thumbnail.contentType, in.thumbnail.file)
	if err != nil {
		return nil, errs.NewInternalErrorWithCause("failed to store thumbnail", err)
	}
	return &path, nil
}

// discardThumbnail removes a stored file. Failures only leave an orphan file
// behind, so they are logged and not returned.
func (h projectHandler) discardThumbnail(r *http.Request, path *string) {
	if path == nil {
		return
	}
	if err := h.files.Delete(r.Context(), *path); err != nil {
		h.logger.Warn().Err(err).Str("path", *path).Msg("Failed to delete thumbnail")
	}
}
