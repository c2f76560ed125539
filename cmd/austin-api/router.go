package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/austinhq/austin-web/internal/apierror"
	"github.com/austinhq/austin-web/internal/classifier"
	"github.com/austinhq/austin-web/internal/config"
	"github.com/austinhq/austin-web/internal/handlers"
	"github.com/austinhq/austin-web/internal/logger"
	"github.com/austinhq/austin-web/internal/middleware"
	"github.com/austinhq/austin-web/internal/view"
	"github.com/austinhq/austin-web/internal/webstat"
)

// app holds everything the router needs; close releases background work.
type app struct {
	engine    *gin.Engine
	table     *classifier.Table
	collector *webstat.Collector
	limiter   *middleware.RateLimiter
}

func (a *app) close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
}

func newApp(cfg *config.Config) (*app, error) {
	opts, err := cfg.ClassifierOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to build exception table: %w", err)
	}
	cls := classifier.New(opts)
	logger.Info("exception classifier ready",
		logger.Int("exception_mappings", opts.Table.Len()),
		logger.String("default_view", opts.DefaultView),
	)

	renderer, err := view.New(view.Options{
		DefaultLocale: cfg.Locale.Default,
		ExposeDetail:  !cfg.Server.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load error views: %w", err)
	}

	a := &app{engine: gin.New(), table: opts.Table}
	router := a.engine
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// Order matters: the request id is needed by every later handler, and
	// statistics wrap the error handler so they see the final status.
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	if cfg.WebStat.Enabled {
		a.collector = webstat.NewCollector(webstat.NewExclusions(cfg.WebStat.Exclusions...), webstat.DefaultMaxEntries)
		router.Use(a.collector.Middleware())
	}
	router.Use(middleware.ErrorHandler(cls, renderer))
	router.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.Locale(cfg.Locale))
	if cfg.RateLimit.Requests > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, "global")
		router.Use(middleware.RateLimit(a.limiter))
	}

	mountStatic(router, cfg.Static.Mappings)

	router.GET("/health", handlers.NewHealthHandler(cfg.Server.Env).Health)
	router.GET("/api/locale", handlers.NewLocaleHandler(cfg.Locale).GetLocale)

	if a.collector != nil {
		stats := handlers.NewWebStatHandler(a.collector, cfg.Pagination)
		router.GET(cfg.WebStat.Path, stats.List)
		router.DELETE(cfg.WebStat.Path, stats.Reset)
	}

	if !cfg.Server.IsProduction() {
		handlers.NewFaultHandler().Register(router.Group("/debug/fault"))
	}

	router.NoRoute(func(c *gin.Context) {
		apierror.WriteProblem(c, apierror.NewNotFoundError(apierror.GetRequestID(c), c.Request.URL.Path))
	})

	return a, nil
}

// mountStatic serves each mapping from disk. Mappings whose root does not
// exist are skipped with a warning.
func mountStatic(router *gin.Engine, mappings []config.StaticMapping) {
	for _, m := range mappings {
		info, err := os.Stat(m.Root)
		if err != nil {
			logger.Warn("static resource not found, skipping",
				logger.String("path", m.Path),
				logger.String("root", m.Root),
			)
			continue
		}

		path := strings.TrimSuffix(m.Path, "/")
		if path == "" {
			path = "/"
		}
		if info.IsDir() {
			router.Static(path, m.Root)
		} else {
			router.StaticFile(path, m.Root)
		}
		logger.Debug("static resource mounted",
			logger.String("path", path),
			logger.String("root", m.Root),
		)
	}
}
