package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/localnerve/aris-backend/internal/models"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer counts calls and returns a fixed result
type fakeRenderer struct {
	html  string
	err   error
	panic bool
	calls int
}

func (f *fakeRenderer) Render(_ context.Context, source string) (string, error) {
	f.calls++
	if f.panic {
		panic("renderer blew up")
	}
	return f.html, f.err
}

func bufferedLogger() (hclog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Output: &buf,
		Level:  hclog.Debug,
	}), &buf
}

func TestRenderServiceSuccess(t *testing.T) {
	log, buf := bufferedLogger()
	renderer := &fakeRenderer{html: "<p>ok</p>"}
	svc := services.NewRenderService(renderer, log)

	assert.Equal(t, "<p>ok</p>", svc.Render(context.Background(), ":rsm:\n::"))
	assert.Equal(t, 1, renderer.calls)
	assert.NotContains(t, buf.String(), "render failed")
}

func TestRenderServiceFailureIsLogged(t *testing.T) {
	log, buf := bufferedLogger()
	renderer := &fakeRenderer{err: errors.New("parser exploded")}
	svc := services.NewRenderService(renderer, log)

	assert.Equal(t, "", svc.Render(context.Background(), ":rsm:\n::"))

	out := buf.String()
	assert.Contains(t, out, "render failed")
	assert.Contains(t, out, "elapsed=")
	assert.Contains(t, out, "parser exploded")
}

func TestRenderServiceRecoversPanics(t *testing.T) {
	log, buf := bufferedLogger()
	svc := services.NewRenderService(&fakeRenderer{panic: true}, log)

	assert.NotPanics(t, func() {
		assert.Equal(t, "", svc.Render(context.Background(), ":rsm:\n::"))
	})
	assert.Contains(t, buf.String(), "renderer blew up")
}

func TestRenderServiceWithoutRenderer(t *testing.T) {
	log, buf := bufferedLogger()
	svc := services.NewRenderService(nil, log)

	assert.Equal(t, "", svc.Render(context.Background(), ":rsm:\n::"))
	assert.Contains(t, buf.String(), services.ErrNoRenderer.Error())

	var typedNil *services.HTTPRenderer
	svc = services.NewRenderService(typedNil, log)
	assert.Equal(t, "", svc.Render(context.Background(), ":rsm:\n::"))
}

func TestRenderServiceSkipsEmptySource(t *testing.T) {
	renderer := &fakeRenderer{html: "<p>unused</p>"}
	svc := services.NewRenderService(renderer, nil)

	assert.Equal(t, "", svc.Render(context.Background(), "   "))
	assert.Zero(t, renderer.calls)
}

func TestDocumentContentCaches(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "render@example.org")
	doc := testhelpers.CreateDocument(t, db, owner, "Rendered", models.RevisionFull)

	renderer := &fakeRenderer{html: "<section class=\"abstract\">Hi</section>"}
	svc := services.NewRenderService(renderer, nil)

	assert.Equal(t, renderer.html, svc.DocumentContent(ctx, db, doc))

	var stored models.Document
	require.NoError(t, db.First(&stored, doc.ID).Error)
	assert.Equal(t, renderer.html, stored.Content)

	assert.Equal(t, renderer.html, svc.DocumentContent(ctx, db, &stored))
	assert.Equal(t, 1, renderer.calls)
}

func TestDocumentContentDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "render@example.org")
	doc := testhelpers.CreateDocument(t, db, owner, "Broken", models.RevisionFull)

	svc := services.NewRenderService(&fakeRenderer{err: errors.New("down")}, nil)
	assert.Equal(t, "", svc.DocumentContent(ctx, db, doc))

	var stored models.Document
	require.NoError(t, db.First(&stored, doc.ID).Error)
	assert.Empty(t, stored.Content)
}

func TestHTTPRenderer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if bytes.Contains(body, []byte("fail")) {
			http.Error(w, "cannot render", http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>" + r.Header.Get("Content-Type") + "</p>"))
	}))
	defer server.Close()

	renderer := services.NewHTTPRenderer(server.URL, 2*time.Second)
	require.NotNil(t, renderer)

	html, err := renderer.Render(context.Background(), ":rsm:\n::")
	require.NoError(t, err)
	assert.Equal(t, "<p>text/plain; charset=utf-8</p>", html)

	_, err = renderer.Render(context.Background(), ":rsm:\nfail\n::")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")

	assert.NoError(t, renderer.Ping())
}

func TestHTTPRendererReturnsFragmentVerbatim(t *testing.T) {
	const fragment = `<div class="manuscriptwrapper"><div class="manuscript"><section class="level-1"><p>foo</p></section></div></div>`
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received = string(body)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(fragment))
	}))
	defer server.Close()

	renderer := services.NewHTTPRenderer(server.URL, time.Second)
	html, err := renderer.Render(context.Background(), ":rsm:foo::")
	require.NoError(t, err)
	assert.Equal(t, ":rsm:foo::", received)
	assert.Equal(t, fragment, html)
	assert.Contains(t, html, "<p>foo</p>")

	svc := services.NewRenderService(renderer, hclog.NewNullLogger())
	assert.Equal(t, fragment, svc.Render(context.Background(), ":rsm:foo::"))
}

func TestHTTPRendererHonoursContext(t *testing.T) {
	renderer := services.NewHTTPRenderer("http://127.0.0.1:1", time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := renderer.Render(ctx, ":rsm:\n::")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewHTTPRendererWithoutURL(t *testing.T) {
	assert.Nil(t, services.NewHTTPRenderer("", time.Second))
}
