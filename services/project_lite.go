package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// ProxyResponse is relayed to the caller unchanged.
type ProxyResponse struct {
	Status int
	Body   json.RawMessage
}

type ProjectLiteService struct {
	client  *http.Client
	baseURL string
}

// NewProjectLiteService builds the proxy. An empty baseURL leaves it unconfigured.
func NewProjectLiteService(baseURL string) *ProjectLiteService {
	return &ProjectLiteService{
		client:  newHTTPClient(projectLiteTimeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BoardSummary asks the task board for its summary. Any HTTP answer, success
// or not, becomes a ProxyResponse; only transport failures return an error.
func (s *ProjectLiteService) BoardSummary(ctx context.Context, boardID int64) (*ProxyResponse, error) {
	logger := log.With().Str("service", "project-lite").Int64("boardID", boardID).Logger()

	if s.baseURL == "" {
		return nil, fmt.Errorf("PROJECT_LITE_URL: %w", ErrNotConfigured)
	}

	url := fmt.Sprintf("%s/api/external/boards/%d/summary", s.baseURL, boardID)
	body, status, err := get(ctx, s.client, "Project-Lite", url, map[string]string{"Accept": "application/json"})
	if err == nil {
		return &ProxyResponse{Status: status, Body: relayBody(body)}, nil
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		logger.Warn().Int("status", upstreamErr.Status).Msg("Project-Lite returned an error response")
		return &ProxyResponse{Status: upstreamErr.Status, Body: relayBody(upstreamErr.Body)}, nil
	}

	logger.Warn().Err(err).Msg("Project-Lite request failed")
	return nil, err
}

// relayBody keeps JSON bodies as-is and wraps anything else as {"message": body}.
// An empty body stays empty.
func relayBody(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return body
	}
	wrapped, _ := json.Marshal(map[string]string{"message": string(body)})
	return wrapped
}
