package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austinhq/austin-web/internal/apierror"
	"github.com/austinhq/austin-web/internal/classifier"
	"github.com/austinhq/austin-web/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	chdir(t, t.TempDir())

	cfg, err := config.Load(config.Options{})
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()
	a, err := newApp(cfg)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func serve(a *app, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func TestRouterHealth(t *testing.T) {
	a := newTestApp(t, loadTestConfig(t))

	w := serve(a, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "zh-CN", w.Header().Get("Content-Language"))
}

func TestRouterNotFound(t *testing.T) {
	a := newTestApp(t, loadTestConfig(t))

	w := serve(a, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierror.ContentTypeProblemJSON, w.Header().Get("Content-Type"))
}

func TestRouterFaultViews(t *testing.T) {
	a := newTestApp(t, loadTestConfig(t))

	w := serve(a, http.MethodGet, "/debug/fault/arithmetic", map[string]string{"Accept": "application/json"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var problem apierror.ProblemDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, "error1", problem.View)
	assert.Contains(t, problem.Detail, "divide by zero")

	w = serve(a, http.MethodGet, "/debug/fault/nil?lang=en-US", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "<html lang=\"en\">")
}

func TestRouterWebStat(t *testing.T) {
	a := newTestApp(t, loadTestConfig(t))

	serve(a, http.MethodGet, "/health", nil)
	serve(a, http.MethodGet, "/health", nil)
	serve(a, http.MethodGet, "/debug/fault/error", nil)

	w := serve(a, http.MethodGet, "/debug/webstat?order_by=errors", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Items []struct {
			URI      string `json:"uri"`
			Requests int64  `json:"requests"`
			Errors   int64  `json:"errors"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, 2, page.Total, "the console itself is excluded")
	assert.Equal(t, "/debug/fault/error", page.Items[0].URI)
	assert.Equal(t, int64(1), page.Items[0].Errors)
	assert.Equal(t, "/health", page.Items[1].URI)
	assert.Equal(t, int64(2), page.Items[1].Requests)

	w = serve(a, http.MethodDelete, "/debug/webstat", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouterProduction(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Server.Env = "production"
	cfg.WebStat.Enabled = false
	a := newTestApp(t, cfg)

	w := serve(a, http.MethodGet, "/debug/fault/arithmetic", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(a, http.MethodGet, "/debug/webstat", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(a, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRouterStaticMappings(t *testing.T) {
	cfg := loadTestConfig(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0o600))
	page := filepath.Join(dir, "guide.html")
	require.NoError(t, os.WriteFile(page, []byte("<p>docs</p>"), 0o600))

	cfg.Static.Mappings = []config.StaticMapping{
		{Path: "/assets/", Root: dir},
		{Path: "/docs.html", Root: page},
		{Path: "/missing", Root: filepath.Join(dir, "nope")},
	}
	a := newTestApp(t, cfg)

	w := serve(a, http.MethodGet, "/assets/app.css", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())

	w = serve(a, http.MethodGet, "/docs.html", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "docs")

	w = serve(a, http.MethodGet, "/missing/x", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterRateLimit(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.RateLimit.Requests = 1
	a := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(a, http.MethodGet, "/health", nil).Code)
}

func TestRouterRateLimitIgnoresUntrustedForwardedFor(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.RateLimit.Requests = 1
	a := newTestApp(t, cfg)

	first := serve(a, http.MethodGet, "/health", map[string]string{"X-Forwarded-For": "203.0.113.10"})
	assert.Equal(t, http.StatusOK, first.Code)
	second := serve(a, http.MethodGet, "/health", map[string]string{"X-Forwarded-For": "203.0.113.11"})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRouterRateLimitTrustedProxy(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.RateLimit.Requests = 1
	cfg.Server.TrustedProxies = []string{"192.0.2.0/24"}
	a := newTestApp(t, cfg)

	for _, client := range []string{"203.0.113.10", "203.0.113.11"} {
		w := serve(a, http.MethodGet, "/health", map[string]string{"X-Forwarded-For": client})
		assert.Equal(t, http.StatusOK, w.Code, client)
	}
	w := serve(a, http.MethodGet, "/health", map[string]string{"X-Forwarded-For": "203.0.113.10"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouterInvalidTrustedProxy(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Server.TrustedProxies = []string{"not-an-address"}

	_, err := newApp(cfg)
	assert.ErrorContains(t, err, "invalid trusted proxies")
}

func TestRouterExceptionTableCountsFileEntries(t *testing.T) {
	cfg := loadTestConfig(t)
	file := filepath.Join(t.TempDir(), "exceptions.yaml")
	require.NoError(t, os.WriteFile(file, []byte(
		"example.com/billing.QuotaError: quota\n"+
			"example.com/billing.FrozenError: frozen\n"), 0o600))

	cfg.Exceptions.Mappings = []classifier.Entry{
		{Type: "example.com/billing.QuotaError", View: "403"},
		{Type: "example.com/billing.TrialError", View: "trial"},
	}
	cfg.Exceptions.MappingsFile = file
	a := newTestApp(t, cfg)

	assert.Equal(t, 3, a.table.Len())
	view, ok := a.table.Lookup("example.com/billing.QuotaError")
	require.True(t, ok)
	assert.Equal(t, "quota", view)
}

func TestRouterBadExceptionFile(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Exceptions.MappingsFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := newApp(cfg)
	assert.Error(t, err)
}
