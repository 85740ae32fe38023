package extract

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s(v string) *string { return &v }

func TestGitHubRepo(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{"nil", nil, nil},
		{"slug", s("octocat/hello-world"), s("octocat/hello-world")},
		{"https url", s("https://github.com/octocat/hello-world"), s("octocat/hello-world")},
		{"deep url", s("https://github.com/octocat/hello-world/tree/main/docs"), s("octocat/hello-world")},
		{"no scheme", s("github.com/octocat/hello-world"), s("octocat/hello-world")},
		{"query string", s("https://github.com/octocat/hello-world?tab=readme"), s("octocat/hello-world")},
		{"owner only", s("https://github.com/octocat"), nil},
		{"free text", s("my-project"), s("my-project")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GitHubRepo(tt.in)
			assert.Equal(t, tt.want, got)
			if got != nil {
				assert.Equal(t, got, GitHubRepo(got), "second pass must be a no-op")
			}
		})
	}
}

func TestFigmaFileKey(t *testing.T) {
	legacy := FigmaFileKey(s("https://www.figma.com/file/AbC123xyz/My-Design?node-id=0"))
	current := FigmaFileKey(s("https://www.figma.com/design/AbC123xyz/My-Design"))

	require.NotNil(t, legacy)
	assert.Equal(t, "AbC123xyz", *legacy)
	assert.Equal(t, legacy, current)

	assert.Equal(t, s("AbC123xyz"), FigmaFileKey(legacy))
	assert.Equal(t, s("raw-key"), FigmaFileKey(s("raw-key")))
	assert.Nil(t, FigmaFileKey(nil))
}

func TestBoardID(t *testing.T) {
	tests := []struct {
		name    string
		in      *string
		want    *int64
		wantErr error
	}{
		{"url", s("https://x/boards/42"), i64(42), nil},
		{"url with suffix", s("http://localhost/boards/5/cards"), i64(5), nil},
		{"number", s("42"), i64(42), nil},
		{"padded number", s(" 7 "), i64(7), nil},
		{"empty", s(""), nil, nil},
		{"nil", nil, nil, nil},
		{"garbage", s("not-a-board"), nil, ErrInvalidBoardID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BoardID(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			if got != nil {
				again, err := BoardID(s(strconv.FormatInt(*got, 10)))
				require.NoError(t, err)
				assert.Equal(t, got, again)
			}
		})
	}
}

func TestNotionPageID(t *testing.T) {
	const id = "0123456789abcdef0123456789abcdef"

	assert.Equal(t, id, NotionPageID("https://www.notion.so/My-Page-"+id))
	assert.Equal(t, id, NotionPageID("https://www.notion.so/workspace/"+id))
	assert.Equal(t, id, NotionPageID(id))
	assert.Equal(t, id, NotionPageID(NotionPageID("Title-"+id)))
	assert.Equal(t, "some-page-slug", NotionPageID("some-page-slug"))
	// uppercase hex is not the canonical form and passes through
	assert.Equal(t, "0123456789ABCDEF0123456789ABCDEF", NotionPageID("0123456789ABCDEF0123456789ABCDEF"))
}

func i64(v int64) *int64 { return &v }
