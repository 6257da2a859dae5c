package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realty/config"
	"realty/internal/api"
	"realty/internal/audit"
	"realty/internal/auth"
	"realty/internal/db"
	"realty/internal/health"
	"realty/internal/logs"
	"realty/internal/middleware"
	"realty/internal/repo"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	if err := a.setup(cfg); err != nil {
		logs.Logger.Fatalf("init failed: %v", err)
	}
}

func (a *App) setup(cfg *config.Config) error {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB: открывается здесь, закрывается в Run/Close */
	d, err := db.Open(db.Options{
		Driver:       a.cfg.Database.Driver,
		DSN:          a.cfg.Database.DSN,
		MaxOpenConns: a.cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	a.db = d
	if err := db.Migrate(a.db); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	/* 3) Роли: без endUser/admin/superAdmin не стартуем */
	ctx := context.Background()
	recorder := audit.NewRecorder(a.db)
	if a.cfg.Auth.SeedRoles {
		if err := auth.SeedRoles(ctx, repo.NewStore(a.db, repo.Roles, recorder)); err != nil {
			return err
		}
	}
	if err := auth.CheckRoles(ctx, a.db); err != nil {
		return err
	}

	/* 4) Auth */
	hasher, err := auth.NewPasswordHasher(a.cfg.Auth.PasswordHash)
	if err != nil {
		return err
	}
	tokens := auth.NewJWT(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	var cache *auth.RoleCache
	if a.cfg.Auth.CacheRoles {
		cache = auth.NewRoleCache()
	}
	gate := auth.NewGate(a.db, tokens, cache)

	/* 5) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	// Recoverer внутри LoggerMW: 500 после паники тоже попадает в access-лог
	a.Router.Use(
		middleware.RequestID,
		middleware.LoggerMW,
		middleware.Recoverer,
	)

	/* 6) Health + API */
	health.RegisterRoutesWithDB(a.Router, a.db) // /healthz, /readyz
	api.Attach(a.Router, api.Dependencies{
		DB:     a.db,
		Gate:   gate,
		Tokens: tokens,
		Hasher: hasher,
		Audit:  recorder,
	})

	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			return nil
		}
		logs.Logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}
	defer a.Close()

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}

// Close освобождает соединения с БД.
func (a *App) Close() {
	if err := db.Close(a.db); err != nil {
		logs.Logger.Errorf("db close: %v", err)
	}
	a.db = nil
}
