package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		switch r.Method + " " + r.URL.Path {
		case "GET /repos/octocat/hello-world":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"name":"hello-world","full_name":"octocat/hello-world","html_url":"https://github.com/octocat/hello-world","stargazers_count":42,"language":"Go","default_branch":"main"}`))
		case "GET /repos/octocat/hello-world/commits":
			assert.Equal(t, "5", r.URL.Query().Get("per_page"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"sha":"abc123","html_url":"https://github.com/c/abc123","commit":{"message":"init","author":{"name":"Octo","email":"o@example.com","date":"2024-05-01T10:00:00Z"}}}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	summary, err := NewGitHubService("gh-token", srv.URL).Summary(context.Background(), "octocat/hello-world")
	require.NoError(t, err)
	assert.Equal(t, "octocat/hello-world", summary.Repo.FullName)
	assert.Equal(t, 42, summary.Repo.StargazersCount)
	require.Len(t, summary.Commits, 1)
	assert.Equal(t, "abc123", summary.Commits[0].SHA)
	assert.Equal(t, "Octo", summary.Commits[0].Commit.Author.Name)
}

func TestGitHubSummaryRepoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer srv.Close()

	_, err := NewGitHubService("gh-token", srv.URL).Summary(context.Background(), "octocat/missing")
	require.Error(t, err)

	upstreamErr, ok := AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, upstreamErr.Status)
}

func TestGitHubSummaryCommitsFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /repos/octocat/hello-world":
			w.Write([]byte(`{"name":"hello-world","full_name":"octocat/hello-world"}`))
		default:
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"message":"Git Repository is empty."}`))
		}
	}))
	defer srv.Close()

	summary, err := NewGitHubService("gh-token", srv.URL).Summary(context.Background(), "octocat/hello-world")
	require.NoError(t, err)
	assert.Equal(t, "hello-world", summary.Repo.Name)
	assert.NotNil(t, summary.Commits)
	assert.Empty(t, summary.Commits)
}

func TestGitHubSummaryNotConfigured(t *testing.T) {
	_, err := NewGitHubService("", "http://127.0.0.1:1").Summary(context.Background(), "a/b")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestGitHubSummaryTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewGitHubService("gh-token", url).Summary(context.Background(), "a/b")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, isUpstream := AsUpstreamError(err)
	assert.False(t, isUpstream)
}

func TestGitHubSummaryEscapesSlugSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.EscapedPath() {
		case "GET /repos/octocat/hello%23world":
			w.Write([]byte(`{"name":"hello#world"}`))
		case "GET /repos/octocat/hello%23world/commits":
			w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	summary, err := NewGitHubService("gh-token", srv.URL).Summary(context.Background(), "octocat/hello#world")
	require.NoError(t, err)
	assert.Equal(t, "hello#world", summary.Repo.Name)
	assert.Empty(t, summary.Commits)
}
