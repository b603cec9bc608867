package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/localnerve/aris-backend/internal/models"
	"github.com/localnerve/aris-backend/internal/utils"
	"gorm.io/gorm"
)

// ErrNoRenderer is reported when no renderer is configured
var ErrNoRenderer = errors.New("no renderer configured")

// Renderer converts RSM source to HTML
type Renderer interface {
	Render(ctx context.Context, source string) (string, error)
}

// HTTPRenderer posts source text to an external render endpoint and returns the response body
type HTTPRenderer struct {
	URL     string
	Timeout time.Duration
}

// NewHTTPRenderer creates a renderer for url, or nil when url is empty
func NewHTTPRenderer(url string, timeout time.Duration) *HTTPRenderer {
	if url == "" {
		return nil
	}
	return &HTTPRenderer{URL: url, Timeout: timeout}
}

// Render implements Renderer
func (r *HTTPRenderer) Render(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	timeout := r.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout || timeout <= 0 {
			timeout = remaining
		}
	}

	agent := fiber.Post(r.URL)
	agent.ContentType("text/plain; charset=utf-8")
	agent.BodyString(source)
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return "", fmt.Errorf("invalid render url: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("render request failed: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("renderer responded %d: %s", code, truncate(string(body), 200))
	}

	return string(body), nil
}

// Ping checks that the render endpoint accepts connections
func (r *HTTPRenderer) Ping() error {
	return utils.PingService(r.URL, 1500*time.Millisecond)
}

// RenderService wraps a Renderer so that render failures never reach the caller
type RenderService struct {
	renderer Renderer
	log      hclog.Logger
}

// NewRenderService creates a RenderService. A nil renderer makes every render fail softly.
func NewRenderService(renderer Renderer, log hclog.Logger) *RenderService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &RenderService{renderer: renderer, log: log.Named("render")}
}

// Render returns HTML for source. On any renderer failure, including a panic, the
// elapsed time and error are logged and "" is returned. Empty source renders to ""
// without calling the renderer.
func (s *RenderService) Render(ctx context.Context, source string) (out string) {
	if strings.TrimSpace(source) == "" {
		return ""
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("render failed", "elapsed", time.Since(start), "error", fmt.Sprint(rec))
			out = ""
		}
	}()

	if isNilRenderer(s.renderer) {
		s.log.Error("render failed", "elapsed", time.Since(start), "error", ErrNoRenderer.Error())
		return ""
	}

	rendered, err := s.renderer.Render(ctx, source)
	if err != nil {
		s.log.Error("render failed", "elapsed", time.Since(start), "error", err.Error())
		return ""
	}

	s.log.Debug("rendered", "elapsed", time.Since(start), "bytes", len(rendered))
	return rendered
}

// DocumentContent returns the document's rendered HTML, rendering and caching it
// when the cache is empty. Failed renders are not cached.
func (s *RenderService) DocumentContent(ctx context.Context, db *gorm.DB, doc *models.Document) string {
	if doc == nil {
		return ""
	}
	if doc.Content != "" {
		return doc.Content
	}

	rendered := s.Render(ctx, doc.Source)
	if rendered == "" {
		return ""
	}

	doc.Content = rendered
	if err := quiet(db.WithContext(ctx)).Model(doc).UpdateColumn("content", rendered).Error; err != nil {
		s.log.Warn("failed to cache rendered content", "document", doc.ID, "error", err)
	}
	return rendered
}

func isNilRenderer(r Renderer) bool {
	if r == nil {
		return true
	}
	if h, ok := r.(*HTTPRenderer); ok && h == nil {
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return s
}
