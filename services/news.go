package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
)

const (
	DefaultNewsFeedURL = "https://zenn.dev/feed"
	newsArticleLimit   = 5
)

// Article is one normalized feed entry.
type Article struct {
	Title     string  `json:"title"`
	Link      string  `json:"link"`
	PubDate   string  `json:"pubDate"`
	Creator   string  `json:"creator"`
	Thumbnail *string `json:"thumbnail"`
}

type NewsService struct {
	client  *http.Client
	feedURL string
}

func NewNewsService(feedURL string) *NewsService {
	if feedURL == "" {
		feedURL = DefaultNewsFeedURL
	}
	return &NewsService{client: newHTTPClient(defaultTimeout), feedURL: feedURL}
}

// Latest returns the first five entries of the configured feed.
func (s *NewsService) Latest(ctx context.Context) ([]Article, error) {
	logger := log.With().Str("service", "news").Str("feed", s.feedURL).Logger()

	body, _, err := get(ctx, s.client, "News feed", s.feedURL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to fetch news feed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse news feed")
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	return articles(feed.Items, newsArticleLimit), nil
}

func articles(items []*gofeed.Item, limit int) []Article {
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]Article, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, Article{
			Title:     strings.TrimSpace(item.Title),
			Link:      item.Link,
			PubDate:   pubDate(item),
			Creator:   creator(item),
			Thumbnail: thumbnail(item),
		})
	}
	return out
}

// pubDate is YYYY-MM-DD, or empty when the item has no parsable date.
func pubDate(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Format("2006-01-02")
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.Format("2006-01-02")
	}
	return ""
}

func creator(item *gofeed.Item) string {
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return author.Name
		}
	}
	return ""
}

func thumbnail(item *gofeed.Item) *string {
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && enclosure.URL != "" && (enclosure.Type == "" || strings.HasPrefix(enclosure.Type, "image/")) {
			return &enclosure.URL
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, name := range []string{"thumbnail", "content"} {
			for _, ext := range media[name] {
				if url := ext.Attrs["url"]; url != "" {
					return &url
				}
			}
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		return &item.Image.URL
	}
	return nil
}
