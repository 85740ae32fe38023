// Package extract normalizes pasted provider URLs into the canonical
// identifiers stored on a project. Every function is pure and idempotent:
// feeding an extractor its own output returns that output unchanged.
package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidBoardID = errors.New("board id must be a number or a /boards/{id} URL")

var (
	githubRepoPattern   = regexp.MustCompile(`github\.com/([^/?#]+/[^/?#]+)`)
	figmaFileKeyPattern = regexp.MustCompile(`figma\.com/(?:file|design)/([0-9a-zA-Z]+)`)
	boardIDPattern      = regexp.MustCompile(`/boards/(\d+)`)
	notionPageIDPattern = regexp.MustCompile(`([a-f0-9]{32})$`)
)

// GitHubRepo returns the "owner/repo" slug. Input without github.com is
// assumed to already be a slug; a github.com URL that does not carry an
// owner and repo yields nil.
func GitHubRepo(raw *string) *string {
	if raw == nil {
		return nil
	}
	if !strings.Contains(*raw, "github.com") {
		return ptr(*raw)
	}
	if m := githubRepoPattern.FindStringSubmatch(*raw); m != nil {
		return ptr(m[1])
	}
	return nil
}

// FigmaFileKey accepts both the legacy /file/ and the current /design/ URL
// forms. Anything else is kept as typed on the assumption it is a key.
func FigmaFileKey(raw *string) *string {
	if raw == nil {
		return nil
	}
	if m := figmaFileKeyPattern.FindStringSubmatch(*raw); m != nil {
		return ptr(m[1])
	}
	return ptr(*raw)
}

// BoardID extracts the numeric board id from a .../boards/{id} URL or a bare
// number. Empty input is nil. Input that is neither returns ErrInvalidBoardID.
func BoardID(raw *string) (*int64, error) {
	if raw == nil {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}

	if m := boardIDPattern.FindStringSubmatch(value); m != nil {
		value = m[1]
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, ErrInvalidBoardID
	}
	return &id, nil
}

// NotionPageID pulls the trailing 32-hex page id out of a Notion URL
// ("https://www.notion.so/Title-<32hex>"). Other input passes through.
func NotionPageID(raw string) string {
	if m := notionPageIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

func ptr(s string) *string {
	return &s
}
