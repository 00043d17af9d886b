package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"

	"github.com/abelbrown/marketpulse/internal/logging"
	"github.com/abelbrown/marketpulse/internal/news"
)

// buildFeed renders a response as an RSS channel. self is the public URL
// of the feed.
func buildFeed(resp news.Response, self string) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       "MarketPulse",
		Link:        &feeds.Link{Href: self},
		Description: "Ranked market news from across the wire",
		Created:     resp.Timestamp,
		Updated:     resp.Meta.GeneratedAt,
	}

	feed.Items = make([]*feeds.Item, 0, len(resp.Items))
	for _, item := range resp.Items {
		created := item.PublishedAt
		if created.IsZero() {
			created = resp.Timestamp
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       item.Title,
			Link:        &feeds.Link{Href: item.Link},
			Description: item.Subtitle,
			Author:      &feeds.Author{Name: item.Source},
			Id:          item.Link,
			Created:     created,
		})
	}
	return feed
}

func (s *Server) handleNewsRSS(c *gin.Context) {
	resp := s.news.Get(c.Request.Context())

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	feed := buildFeed(resp, scheme+"://"+c.Request.Host+c.Request.URL.Path)

	rss, err := feed.ToRss()
	if err != nil {
		logging.Error("failed to render rss", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render feed"})
		return
	}

	c.Header("Cache-Control", "public, max-age="+maxAge(resp))
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func maxAge(resp news.Response) string {
	if resp.IsFallback {
		return "0"
	}
	return "60"
}
