package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"menu-app-go/internal/auth"
	"menu-app-go/internal/config"
	"menu-app-go/internal/db"
	catalogdomain "menu-app-go/internal/domain/catalog"
	digestdomain "menu-app-go/internal/domain/digest"
	userdomain "menu-app-go/internal/domain/user"
	"menu-app-go/internal/mail"
	"menu-app-go/internal/media"
	"menu-app-go/internal/metrics"
	"menu-app-go/internal/repository/inmemory"
	catalogrepo "menu-app-go/internal/repository/postgres/catalog"
	userrepo "menu-app-go/internal/repository/postgres/user"
	"menu-app-go/internal/scheduler"
	"menu-app-go/internal/transport/httpserver"
	"menu-app-go/internal/transport/httpserver/handler"
	authmw "menu-app-go/internal/transport/httpserver/middleware"
	"menu-app-go/pkg/logger"
)

const digestJob = "digest"

type App struct {
	cfg        config.Config
	log        logger.Logger
	db         *gorm.DB
	httpServer *http.Server
	scheduler  *scheduler.Scheduler
	metrics    *metrics.Metrics

	Users   *userdomain.Service
	Catalog *catalogdomain.Service
	Digest  *digestdomain.Service
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg, log)
}

func NewWithConfig(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	log.Info("app: initializing database", "driver", cfg.DB.Driver)
	dbConn, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	application := &App{cfg: cfg, log: log, db: dbConn}
	if err := application.build(ctx); err != nil {
		_ = application.Close()
		return nil, err
	}
	return application, nil
}

func (a *App) build(ctx context.Context) error {
	catalogRepo := catalogrepo.NewPostgres(a.db)
	a.Catalog = catalogdomain.NewService(catalogRepo).WithListingCache(inmemory.NewInMemoryMenuCache(), a.cfg.MenuCacheTTL)
	a.Users = userdomain.NewService(userrepo.NewPostgres(a.db))

	a.log.Info("app: initializing mail", "transport", a.cfg.Mail.Transport)
	sender, err := mail.New(ctx, a.cfg.Mail, a.log)
	if err != nil {
		return fmt.Errorf("init mail: %w", err)
	}
	loc := a.cfg.Digest.Location()
	a.Digest = digestdomain.NewService(digestdomain.NewBuilder(catalogRepo, loc), a.Users, sender, a.log)

	a.log.Info("app: initializing media", "backend", a.cfg.Media.Backend)
	store, err := media.NewStore(ctx, a.cfg.Media)
	if err != nil {
		return fmt.Errorf("init media: %w", err)
	}

	a.metrics = metrics.New()
	a.scheduler = scheduler.New(loc, a.log, a.metrics)
	if a.cfg.Digest.Enabled {
		err := a.scheduler.AddDaily(digestJob, a.cfg.Digest.Hour, a.cfg.Digest.Minute, func(ctx context.Context) error {
			_, err := a.RunDigest(ctx, time.Now())
			return err
		})
		if err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	}

	tokens := auth.NewIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	handlers := handler.New(handler.Options{
		Catalog:     a.Catalog,
		Users:       a.Users,
		Tokens:      tokens,
		Photos:      media.NewPhotos(store, a.cfg.Media.S3Prefix),
		Queries:     catalogdomain.NewQueryParser(loc),
		MaxUploadMB: a.cfg.Media.MaxUploadMB,
	}, a.log)

	var routeMetrics *metrics.Metrics
	if a.cfg.Metrics.Enabled {
		routeMetrics = a.metrics
	}

	a.log.Info("app: initializing router")
	router := httpserver.NewRouter(a.cfg, handlers, authmw.NewAuth(tokens, a.Users, a.log), routeMetrics, a.log)
	a.httpServer = httpserver.New(a.cfg, router)
	return nil
}

func (a *App) Config() config.Config {
	return a.cfg
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Scheduler() *scheduler.Scheduler {
	return a.scheduler
}

func (a *App) Migrate() error {
	a.log.Info("app: applying migrations", "driver", a.cfg.DB.Driver)
	return db.Migrate(a.db)
}

// RunDigest sends one digest pass for today and records the outcome.
func (a *App) RunDigest(ctx context.Context, today time.Time) (digestdomain.Report, error) {
	report, err := a.Digest.Send(ctx, today)
	if err != nil {
		return report, err
	}
	a.metrics.RecordDigest(report.Sent, report.Failed)
	return report, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
