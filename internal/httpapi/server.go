// Package httpapi exposes the news service over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/marketpulse/internal/fetch"
	"github.com/abelbrown/marketpulse/internal/news"
	"github.com/abelbrown/marketpulse/internal/otel"
)

// NewsReader is the read side of news.Service.
type NewsReader interface {
	Get(ctx context.Context) news.Response
}

// Options wires a Server. Only News is required.
type Options struct {
	News     NewsReader
	Registry *fetch.Registry
	Health   *fetch.Health
	Events   *otel.Logger
	Limiter  *RateLimiter // nil disables rate limiting
	Version  string
}

// Server holds the handlers' dependencies.
type Server struct {
	news     NewsReader
	registry *fetch.Registry
	health   *fetch.Health
	events   *otel.Logger
	limiter  *RateLimiter
	version  string
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	return &Server{
		news:     opts.News,
		registry: opts.Registry,
		health:   opts.Health,
		events:   opts.Events,
		limiter:  opts.Limiter,
		version:  opts.Version,
	}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.events))

	r.GET("/healthz", s.handleHealthz)

	api := r.Group("/api")
	if s.limiter != nil {
		api.Use(s.limiter.Middleware())
	}
	api.GET("/news", s.handleNews)
	api.GET("/news.rss", s.handleNewsRSS)
	api.GET("/feeds", s.handleFeeds)

	r.GET("/debug/events", s.handleEvents)
	return r
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": s.version})
}

// handleNews always answers 200; upstream failure shows up as isFallback.
func (s *Server) handleNews(c *gin.Context) {
	resp := s.news.Get(c.Request.Context())
	if resp.Cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, resp)
}

type feedStatus struct {
	fetch.FeedHealth
	Priority int `json:"priority"`
}

func (s *Server) handleFeeds(c *gin.Context) {
	if s.registry == nil {
		c.JSON(http.StatusOK, gin.H{"feeds": []feedStatus{}})
		return
	}

	feeds := s.registry.Feeds()
	out := make([]feedStatus, 0, len(feeds))
	failing := 0
	for _, f := range feeds {
		h, ok := s.health.Get(f.URL)
		if !ok {
			h = fetch.FeedHealth{Label: f.Label, URL: f.URL, Category: string(f.Category)}
		}
		if h.ConsecutiveFailures > 0 {
			failing++
		}
		out = append(out, feedStatus{FeedHealth: h, Priority: f.Priority})
	}
	c.JSON(http.StatusOK, gin.H{"feeds": out, "total": len(out), "failing": failing})
}

const (
	defaultEventCount = 100
	maxEventCount     = 1000
)

func (s *Server) handleEvents(c *gin.Context) {
	ring := s.events.RingBuffer()
	if ring == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event buffer disabled"})
		return
	}

	n := defaultEventCount
	if v := c.Query("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = min(parsed, maxEventCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"events":  ring.Last(n),
		"stats":   ring.Stats(),
		"dropped": s.events.Dropped(),
	})
}
