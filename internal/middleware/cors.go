package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/database"
)

// CORS creates CORS middleware from a fixed origin list using rs/cors
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(corsOptions(allowedOrigins)).Handler
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		MaxAge:           86400,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	}
}

// CORSReloader wraps rs/cors and periodically reloads the allowed origin list
// from the settings table. The environment-derived list is the fallback when
// no setting row exists.
type CORSReloader struct {
	next     http.Handler
	settings *database.SettingsRepository
	fallback []string
	log      *zap.Logger
	interval time.Duration
	mu       sync.RWMutex
	current  http.Handler
}

// NewCORSReloader creates a CORS middleware that loads origins from the settings table and hot-reloads them.
func NewCORSReloader(settings *database.SettingsRepository, fallback []string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	return &CORSReloader{
		settings: settings,
		fallback: fallback,
		log:      log,
		interval: reloadInterval,
	}
}

// Middleware returns a middleware that wraps next with CORS and hot-reload.
func (c *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		c.next = next
		c.load(context.Background())
		return c
	}
}

// Start runs the reload loop until ctx is cancelled. Call after Middleware() is applied.
func (c *CORSReloader) Start(ctx context.Context) {
	if c.interval <= 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.load(ctx)
		}
	}
}

func (c *CORSReloader) load(ctx context.Context) {
	if c.next == nil {
		return
	}
	origins := c.fallback
	if value, err := c.settings.Get(ctx, database.SettingCORSOrigins); err == nil {
		if parsed := splitOrigins(value); len(parsed) > 0 {
			origins = parsed
		}
	}

	h := cors.New(corsOptions(origins)).Handler(c.next)
	c.mu.Lock()
	c.current = h
	c.mu.Unlock()
}

// ServeHTTP implements http.Handler.
func (c *CORSReloader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	h := c.current
	c.mu.RUnlock()
	if h != nil {
		h.ServeHTTP(w, r)
		return
	}
	if c.next != nil {
		c.next.ServeHTTP(w, r)
	}
}

func splitOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
