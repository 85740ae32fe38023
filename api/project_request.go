package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/consolelogkochan/dev-cockpit/errs"
	"github.com/consolelogkochan/dev-cockpit/extract"
	"github.com/consolelogkochan/dev-cockpit/models"
)

const (
	maxJSONBody       = 1 << 20
	maxThumbnailBytes = 5 << 20
	maxTitleLength    = 255
	thumbnailField    = "thumbnail_file"
)

// optionalString tells an omitted field apart from one sent as null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Value = &s
		return nil
	}

	// board ids may arrive as numbers
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a string or number: %w", err)
	}
	s = n.String()
	o.Value = &s
	return nil
}

// trimmed returns nil for a missing or blank value.
func (o optionalString) trimmed() *string {
	if o.Value == nil {
		return nil
	}
	v := strings.TrimSpace(*o.Value)
	if v == "" {
		return nil
	}
	return &v
}

// optionalPages is the replace-all list of Notion page references.
type optionalPages struct {
	Set bool
	IDs []string
}

func (o *optionalPages) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.IDs = nil
	if string(data) == "null" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("notion_pages must be an array: %w", err)
	}

	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			o.add(id)
			continue
		}
		var ref struct {
			PageID string `json:"page_id"`
			URL    string `json:"url"`
		}
		if err := json.Unmarshal(item, &ref); err != nil {
			return fmt.Errorf("notion_pages entries must be strings or objects: %w", err)
		}
		if ref.PageID != "" {
			o.add(ref.PageID)
		} else {
			o.add(ref.URL)
		}
	}
	return nil
}

func (o *optionalPages) add(raw string) {
	if raw = strings.TrimSpace(raw); raw != "" {
		o.IDs = append(o.IDs, raw)
	}
}

type uploadedFile struct {
	file        multipart.File
	name        string
	contentType string
}

// projectInput is the body of project create and update requests, sent
// either as JSON or as multipart form data with an optional thumbnail.
type projectInput struct {
	Title        optionalString `json:"title"`
	Description  optionalString `json:"description"`
	ThumbnailURL optionalString `json:"thumbnail_url"`
	GithubRepo   optionalString `json:"github_repo"`
	FigmaFileKey optionalString `json:"figma_file_key"`
	PLBoardID    optionalString `json:"pl_board_id"`
	NotionPages  optionalPages  `json:"notion_pages"`

	thumbnail *uploadedFile
}

func (in *projectInput) close() {
	if in.thumbnail != nil {
		in.thumbnail.file.Close()
	}
}

func parseProjectInput(w http.ResponseWriter, r *http.Request) (*projectInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return parseProjectForm(w, r)
	}

	var in projectInput
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errs.NewMaxBodySizeExceededError(maxJSONBody)
		}
		return nil, errs.NewInvalidJSONError(err)
	}
	return &in, nil
}

func parseProjectForm(w http.ResponseWriter, r *http.Request) (*projectInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxThumbnailBytes+maxJSONBody)
	if err := r.ParseMultipartForm(maxJSONBody); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errs.NewMaxBodySizeExceededError(maxThumbnailBytes + maxJSONBody)
		}
		return nil, errs.NewMalformedPayloadError("multipart", err)
	}

	form := r.MultipartForm.Value
	field := func(name string) optionalString {
		values, ok := form[name]
		if !ok {
			return optionalString{}
		}
		if len(values) == 0 || values[0] == "" {
			return optionalString{Set: true}
		}
		return optionalString{Set: true, Value: &values[0]}
	}

	in := &projectInput{
		Title:        field("title"),
		Description:  field("description"),
		ThumbnailURL: field("thumbnail_url"),
		GithubRepo:   field("github_repo"),
		FigmaFileKey: field("figma_file_key"),
		PLBoardID:    field("pl_board_id"),
	}

	pages, ok := form["notion_pages[]"]
	if !ok {
		pages, ok = form["notion_pages"]
	}
	if ok {
		if len(pages) == 1 && strings.HasPrefix(strings.TrimSpace(pages[0]), "[") {
			if err := json.Unmarshal([]byte(pages[0]), &in.NotionPages); err != nil {
				return nil, errs.NewInvalidFieldError("notion_pages", err.Error())
			}
		} else {
			in.NotionPages.Set = true
			for _, p := range pages {
				in.NotionPages.add(p)
			}
		}
	}

	file, header, err := r.FormFile(thumbnailField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return nil, errs.NewMalformedPayloadError("multipart", err)
	default:
		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			file.Close()
			return nil, errs.NewInvalidFieldError(thumbnailField, "must be an image")
		}
		if header.Size > maxThumbnailBytes {
			file.Close()
			return nil, errs.NewInvalidFieldError(thumbnailField, "must be at most 5MB")
		}
		in.thumbnail = &uploadedFile{file: file, name: header.Filename, contentType: contentType}
	}

	return in, nil
}

// apply copies every field that was sent onto project, normalizing the
// external references to their canonical identifiers.
func (in *projectInput) apply(project *models.Project) error {
	if in.Title.Set {
		title := in.Title.trimmed()
		if title == nil {
			return errs.NewMissingRequiredFieldError("title")
		}
		if len([]rune(*title)) > maxTitleLength {
			return errs.NewInvalidFieldError("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
		}
		project.Title = *title
	}
	if in.Description.Set {
		project.Description = in.Description.trimmed()
	}
	if in.ThumbnailURL.Set {
		project.ThumbnailURL = in.ThumbnailURL.trimmed()
	}
	if in.GithubRepo.Set {
		project.GithubRepo = extract.GitHubRepo(in.GithubRepo.trimmed())
	}
	if in.FigmaFileKey.Set {
		project.FigmaFileKey = extract.FigmaFileKey(in.FigmaFileKey.trimmed())
	}
	if in.PLBoardID.Set {
		boardID, err := extract.BoardID(in.PLBoardID.trimmed())
		if err != nil {
			return errs.NewInvalidFieldError("pl_board_id", err.Error())
		}
		project.PLBoardID = boardID
	}
	return nil
}
