package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventario/config"
	"inventario/internal/assign"
	"inventario/internal/auth"
	"inventario/internal/catalog"
	"inventario/internal/db"
	"inventario/internal/events"
	"inventario/internal/health"
	"inventario/internal/ipam"
	"inventario/internal/logs"
	"inventario/internal/maintenance"
	"inventario/internal/middleware"
	"inventario/internal/registry"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	Router     *mux.Router
	httpServer *http.Server

	db     *gorm.DB
	hub    *events.Hub
	ctx    context.Context
	cancel context.CancelFunc
}

// publicPaths доступны без токена.
var publicPaths = []string{"/healthz", "/readyz", "/api/v1/auth/login"}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	// 1) Логи
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	// 2) БД + миграции + каталог статусов
	if a.db == nil {
		d, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.DSN, db.PoolOptions{
			MaxOpenConns: a.cfg.Database.MaxOpenConns,
			MaxIdleConns: a.cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		a.db = d
	}
	if err := db.Migrate(a.db); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	authSvc := auth.NewService(a.db, a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	if a.cfg.Auth.Enabled {
		if err := authSvc.EnsureAdmin(context.Background(), a.cfg.Auth.AdminUser, a.cfg.Auth.AdminPassword); err != nil {
			return fmt.Errorf("admin bootstrap: %w", err)
		}
	}

	// 3) Роутер + middleware
	a.Router = mux.NewRouter()
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(middleware.LoggerMW)
	if a.cfg.Auth.Enabled {
		a.Router.Use(middleware.Auth(authSvc, publicPaths...))
	} else {
		logs.Logger.Warn("auth disabled: API is open")
	}

	// 4) Health
	health.RegisterRoutesWithDB(a.Router, a.db)

	// 5) Доменные HTTP-ручки
	a.hub = events.NewHub()
	reg := registry.New(a.db)

	auth.NewHTTP(authSvc).RegisterRoutes(a.Router)
	catalog.NewHTTP(catalog.NewRepo(a.db)).RegisterRoutes(a.Router)
	registry.NewHTTP(reg).RegisterRoutes(a.Router)
	ipam.NewHTTP(ipam.NewRepo(a.db)).RegisterRoutes(a.Router)
	assign.NewHTTP(assign.NewStore(a.db, reg, assign.WithPublisher(a.hub))).RegisterRoutes(a.Router)
	maintenance.NewHTTP(maintenance.NewStore(a.db, reg, a.hub)).RegisterRoutes(a.Router)
	a.hub.RegisterRoutes(a.Router)

	_ = a.Router.Walk(func(rt *mux.Route, r *mux.Router, ancestors []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		logs.Logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

// UseDB подставляет готовое подключение (тесты, встраивание); вызывать до Initialize.
func (a *App) UseDB(d *gorm.DB) { a.db = d }

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return ErrNotInitialized
	}
	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	defer a.cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			a.cancel()
		case <-a.ctx.Done():
		}
	}()

	go a.hub.Run(a.ctx)

	a.httpServer = &http.Server{
		Addr:         bind,
		Handler:      a.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-a.ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	logs.Logger.Info("HTTP server stopped")
	return nil
}

// Stop завершает Run (аналог SIGTERM).
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}

var ErrNotInitialized = &initError{"server not initialized (call Initialize(cfg) first)"}

type initError struct{ s string }

func (e *initError) Error() string { return e.s }
