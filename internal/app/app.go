package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"rutina/internal/config"
	"rutina/internal/database"
	"rutina/internal/identity"
	"rutina/internal/metrics"
	"rutina/internal/remote"
	"rutina/internal/store"
	"rutina/internal/syncer"

	"github.com/robfig/cron/v3"
)

type Application struct {
	config     *config.Config
	db         *database.Database
	gateway    remote.Gateway
	controller *store.Controller
	provider   *identity.Static
	cron       *cron.Cron
	server     *http.Server
	cancelFunc context.CancelFunc
	ctx        context.Context
}

func New(cfg *config.Config) (*Application, error) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	var gateway remote.Gateway
	if cfg.Remote.DSN != "" {
		gateway, err = remote.OpenPostgres(ctx, cfg.Remote.DSN)
		if err != nil {
			cancel()
			db.Close()
			return nil, err
		}
		log.Println("✅ Remote store connected")
	} else {
		gateway = remote.NewMemory()
		log.Println("ℹ️ No remote DSN configured, running offline")
	}

	m := metrics.New()
	controller, err := store.New(db, syncer.New(gateway, m), m)
	if err != nil {
		cancel()
		gateway.Close()
		db.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	app := &Application{
		config:     cfg,
		db:         db,
		gateway:    gateway,
		controller: controller,
		provider:   identity.NewStatic(),
		cron:       cron.New(),
		server:     &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux},
		cancelFunc: cancel,
		ctx:        ctx,
	}

	app.setupCronJobs()

	return app, nil
}

func (a *Application) Start() error {
	log.Println("🚀 Starting rutina...")

	go a.controller.Watch(a.ctx, a.provider)
	a.cron.Start()

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("⚠️ Metrics server stopped: %v", err)
		}
	}()

	// Catch up on any missed date transition since the last run.
	a.controller.CheckRollover()

	if userID := a.config.Identity.UserID; userID != "" {
		a.provider.SignIn(userID)
	}

	log.Printf("✅ rutina running. Metrics on port %s", a.config.Server.Port)
	return nil
}

func (a *Application) Stop() error {
	log.Println("🛑 Stopping rutina...")

	a.cancelFunc()
	a.cron.Stop()

	// Let scheduled sync calls settle before tearing the gateway down.
	a.controller.DrainSync()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Metrics server shutdown: %v", err)
	}

	if err := a.gateway.Close(); err != nil {
		log.Printf("⚠️ Gateway close: %v", err)
	}
	if err := a.db.Close(); err != nil {
		log.Printf("⚠️ Database close: %v", err)
	}

	log.Println("✅ rutina stopped")
	return nil
}

// Controller exposes the store for the UI layer.
func (a *Application) Controller() *store.Controller {
	return a.controller
}

func (a *Application) setupCronJobs() {
	// Rollover shortly after local midnight; dispatches also check, this
	// covers an app idling across the date line.
	if _, err := a.cron.AddFunc("5 0 * * *", a.controller.CheckRollover); err != nil {
		panic(fmt.Sprintf("cron: %v", err))
	}

	// Hourly safety net for clock or timezone jumps.
	if _, err := a.cron.AddFunc("0 * * * *", a.controller.CheckRollover); err != nil {
		panic(fmt.Sprintf("cron: %v", err))
	}
}
