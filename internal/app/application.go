package app

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"portfolio-site/internal/assets"
	"portfolio-site/internal/config"
	"portfolio-site/internal/content"
	"portfolio-site/internal/handlers"
	"portfolio-site/internal/middleware"
	"portfolio-site/internal/models"
	"portfolio-site/internal/repository"
	"portfolio-site/internal/seed"
	"portfolio-site/internal/service"
	"portfolio-site/internal/shell"
	"portfolio-site/internal/site"
	"portfolio-site/pkg/cache"
	"portfolio-site/pkg/logger"
	"portfolio-site/pkg/navigation"
)

type Options struct {
	// ContentFS replaces CONTENT_DIR for the files content source.
	ContentFS fs.FS
}

type Application struct {
	cfg     *config.Config
	options Options

	profile *site.Profile
	db      *gorm.DB
	cache   *cache.Cache
	content content.Source

	site        *service.SiteService
	siteHandler *handlers.SiteHandler

	rateLimiter *middleware.RateLimitManager
	router      *gin.Engine
	server      *http.Server

	watchCancel context.CancelFunc
	watchDone   sync.WaitGroup
}

func New(cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &Application{
		cfg:     cfg,
		options: opts,
	}

	profile, err := site.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load site profile: %w", err)
	}
	app.profile = profile

	if err := app.initContent(); err != nil {
		app.closeResources()
		return nil, err
	}

	if err := app.initCache(); err != nil {
		app.closeResources()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeResources()
		return nil, err
	}

	app.siteHandler = handlers.NewSiteHandler(app.site)
	app.initRouter()

	app.server = &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        app.router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return app, nil
}

// Run starts the content watcher when enabled and serves until Shutdown.
func (a *Application) Run() error {
	a.startWatcher()

	logger.Info("Server starting", map[string]interface{}{
		"port":        a.cfg.Port,
		"environment": a.cfg.Environment,
		"content":     a.cfg.ContentSource,
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.watchCancel != nil {
		a.watchCancel()
		a.watchDone.Wait()
	}

	if a.rateLimiter != nil {
		_ = a.rateLimiter.Shutdown()
	}

	a.closeResources()
	return nil
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

func (a *Application) Site() *service.SiteService {
	return a.site
}

// ImportContent copies the markdown tree in fsys into the pages table. It
// needs the database content source.
func (a *Application) ImportContent(ctx context.Context, fsys fs.FS) (seed.Report, error) {
	if a.db == nil {
		return seed.Report{}, fmt.Errorf("content import needs CONTENT_SOURCE=%s", config.ContentSourceDatabase)
	}

	report, err := seed.ImportPages(ctx, repository.NewPageRepository(a.db), fsys)
	if err != nil {
		return report, err
	}
	if report.Created > 0 {
		a.site.InvalidateCache(ctx)
	}
	return report, nil
}

func (a *Application) closeResources() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Error(err, "Failed to close cache connection", nil)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func (a *Application) initContent() error {
	switch a.cfg.ContentSource {
	case config.ContentSourceFiles:
		fsys := a.options.ContentFS
		if fsys == nil {
			fsys = os.DirFS(a.cfg.ContentDir)
		}
		src, err := content.NewMarkdownSource(fsys)
		if err != nil {
			return err
		}
		a.content = src

	case config.ContentSourceDatabase:
		if err := a.initDatabase(); err != nil {
			return err
		}
		if err := a.runMigrations(); err != nil {
			return err
		}
		a.content = content.NewDatabaseSource(repository.NewPageRepository(a.db))

	default:
		return fmt.Errorf("unsupported content source %q", a.cfg.ContentSource)
	}
	return nil
}

func (a *Application) initDatabase() error {
	logger.Info("Connecting to database", nil)

	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	a.db = db
	return nil
}

func (a *Application) runMigrations() error {
	logger.Info("Running database migrations", nil)

	if err := a.db.AutoMigrate(&models.Page{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_pages_published ON pages(published) WHERE published = true",
		"CREATE INDEX IF NOT EXISTS idx_pages_order ON pages(\"order\" ASC)",
	}
	for _, stmt := range statements {
		if err := a.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	logger.Info("Database migration completed", nil)
	return nil
}

func (a *Application) initCache() error {
	c, err := cache.NewCache(a.cfg.RedisURL, a.cfg.EnableRedis, a.cfg.CacheTTL)
	if err != nil {
		return err
	}
	a.cache = c
	return nil
}

func (a *Application) initServices() error {
	sh, err := shell.New(shell.Options{
		Registry: a.profile.Registry,
		Bar:      navigation.Bar{Brand: a.profile.Brand},
		Defaults: a.profile.Defaults,
		SiteName: a.profile.Name,
		SiteURL:  a.profile.URL,
		Language: a.profile.Language,

		AssetModTime: a.staticModTime,
	})
	if err != nil {
		return err
	}

	resolver, err := assets.New(context.Background(), a.cfg, a.profile.Assets)
	if err != nil {
		return err
	}

	a.unavailableAssets(context.Background(), resolver)

	siteService, err := service.NewSiteService(sh, a.content, resolver, a.cache)
	if err != nil {
		return err
	}
	a.site = siteService
	return nil
}

// unavailableAssets warns about navigation actions whose asset does not
// resolve, or resolves to a /static/ file missing from STATIC_DIR, and
// returns their ids.
func (a *Application) unavailableAssets(ctx context.Context, resolver assets.Resolver) []string {
	var missing []string
	for _, id := range a.profile.Registry.Assets() {
		target, err := resolver.Resolve(ctx, id)
		if err != nil {
			logger.Warn("Navigation action has no resolvable asset", map[string]interface{}{"asset": id, "error": err.Error()})
			missing = append(missing, id)
			continue
		}
		if !strings.HasPrefix(target, "/static/") {
			continue
		}
		if _, err := a.staticModTime(target); err != nil {
			logger.Warn("Navigation action points at a missing static file", map[string]interface{}{"asset": id, "target": target, "static_dir": a.cfg.StaticDir})
			missing = append(missing, id)
		}
	}
	return missing
}

// staticModTime maps a /static/ site path onto STATIC_DIR for asset
// versioning.
func (a *Application) staticModTime(sitePath string) (time.Time, error) {
	rel, ok := strings.CutPrefix(sitePath, "/static/")
	if !ok {
		return time.Time{}, fmt.Errorf("%s is not a static path", sitePath)
	}
	info, err := os.Stat(filepath.Join(a.cfg.StaticDir, filepath.FromSlash(rel)))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (a *Application) initRouter() {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a.rateLimiter = middleware.NewRateLimitManager(context.Background())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinLogger())
	if a.cfg.EnableMetrics {
		router.Use(middleware.MetricsMiddleware())
	}
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RateLimitMiddleware(a.cfg, a.rateLimiter))

	router.GET("/health", handlers.Health)
	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.Static("/static", a.cfg.StaticDir)
	router.GET("/assets/:id", a.siteHandler.OpenAsset)

	v1 := router.Group("/api/v1")
	v1.Use(cors.New(a.corsConfig()))
	{
		v1.GET("/navigation", a.siteHandler.Navigation)
	}

	router.NoRoute(a.siteHandler.RenderPage)

	a.router = router
}

func (a *Application) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(a.cfg.CORSOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = a.cfg.CORSOrigins
	}
	return cfg
}

func (a *Application) startWatcher() {
	if !a.cfg.WatchContent || a.cfg.ContentSource != config.ContentSourceFiles || a.options.ContentFS != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.watchCancel = cancel
	a.watchDone.Add(1)

	go func() {
		defer a.watchDone.Done()
		err := content.Watch(ctx, a.cfg.ContentDir, a.content, func() {
			a.site.InvalidateCache(ctx)
		})
		if err != nil {
			logger.Error(err, "Content watcher stopped", nil)
		}
	}()
}
