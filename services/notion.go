package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/consolelogkochan/dev-cockpit/cache"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultNotionAPIURL = "https://api.notion.com"
	notionVersion       = "2022-06-28"
	notionConcurrency   = 4
)

// PageSummary is either a fetched page or, when Error is set, the reason the
// page could not be fetched. Failed entries keep the stored identifier.
type PageSummary struct {
	ID             string          `json:"id"`
	URL            string          `json:"url,omitempty"`
	Icon           json.RawMessage `json:"icon,omitempty"`
	Cover          json.RawMessage `json:"cover,omitempty"`
	LastEditedTime string          `json:"last_edited_time,omitempty"`
	Properties     json.RawMessage `json:"properties,omitempty"`

	Error  string `json:"error,omitempty"`
	Status int    `json:"status,omitempty"`
}

type notionErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type NotionService struct {
	client  *http.Client
	baseURL string
	enabled bool
	cache   cache.Cache
}

// NewNotionService builds the service. An empty token leaves it unconfigured.
func NewNotionService(token, baseURL string, c cache.Cache) *NotionService {
	if baseURL == "" {
		baseURL = DefaultNotionAPIURL
	}
	return &NotionService{
		client:  newBearerClient(token, defaultTimeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		enabled: token != "",
		cache:   c,
	}
}

// PageSummaries returns one entry per page id, in input order. A page that
// fails becomes an entry with Error and Status set; the batch itself only
// fails when the service is unconfigured. Results are cached per project.
func (s *NotionService) PageSummaries(ctx context.Context, projectID uuid.UUID, pageIDs []string) ([]PageSummary, error) {
	if len(pageIDs) == 0 {
		return []PageSummary{}, nil
	}

	logger := log.With().Str("service", "notion").Str("projectID", projectID.String()).Logger()

	if !s.enabled {
		return nil, fmt.Errorf("NOTION_TOKEN: %w", ErrNotConfigured)
	}

	key := cache.WikiSummaryKey(projectID)
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		logger.Warn().Err(err).Msg("Failed to read wiki summary cache")
	} else if ok {
		var pages []PageSummary
		if err := json.Unmarshal(cached, &pages); err == nil {
			return pages, nil
		}
		logger.Warn().Msg("Discarding unreadable wiki summary cache entry")
	}

	pages := make([]PageSummary, len(pageIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(notionConcurrency)
	for i, pageID := range pageIDs {
		g.Go(func() error {
			pages[i] = s.fetchPage(gctx, pageID)
			return nil
		})
	}
	_ = g.Wait()

	// an aborted caller turns every page into a failure; never cache that
	if ctx.Err() != nil {
		logger.Debug().Err(ctx.Err()).Msg("Request ended before the batch finished, skipping cache")
		return pages, nil
	}

	failed := 0
	for _, p := range pages {
		if p.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		logger.Warn().Int("failed", failed).Int("total", len(pages)).Msg("Some Notion pages could not be fetched")
	}

	if encoded, err := json.Marshal(pages); err != nil {
		logger.Warn().Err(err).Msg("Failed to encode wiki summary for cache")
	} else if err := s.cache.Set(ctx, key, encoded, cache.WikiSummaryTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to write wiki summary cache")
	}

	return pages, nil
}

// Invalidate drops the cached summaries of a project.
func (s *NotionService) Invalidate(ctx context.Context, projectID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.WikiSummaryKey(projectID)); err != nil {
		log.Warn().Err(err).Str("service", "notion").Str("projectID", projectID.String()).Msg("Failed to invalidate wiki summary cache")
	}
}

func (s *NotionService) fetchPage(ctx context.Context, pageID string) PageSummary {
	endpoint := fmt.Sprintf("%s/v1/pages/%s", s.baseURL, url.PathEscape(pageID))
	headers := map[string]string{"Notion-Version": notionVersion}

	var page PageSummary
	err := getJSON(ctx, s.client, "Notion", endpoint, headers, &page)
	if err == nil {
		return page
	}

	failure := PageSummary{ID: pageID, Error: "Failed to fetch page", Status: http.StatusServiceUnavailable}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		failure.Status = upstreamErr.Status
		var body notionErrorBody
		if json.Unmarshal(upstreamErr.Body, &body) == nil && body.Message != "" {
			failure.Error = body.Message
		}
	}
	return failure
}
