package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teretnjaci-web/internal/api"
	"teretnjaci-web/internal/auth"
	"teretnjaci-web/internal/cache"
	"teretnjaci-web/internal/config"
	"teretnjaci-web/internal/data"
	"teretnjaci-web/internal/editor"
	"teretnjaci-web/internal/handler"
	"teretnjaci-web/internal/logger"
	"teretnjaci-web/internal/metrics"
	"teretnjaci-web/internal/middleware"
	"teretnjaci-web/internal/service"
	"teretnjaci-web/internal/session"
	"teretnjaci-web/internal/view"
	"teretnjaci-web/web"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// housekeepingInterval is how often idle editor sessions and expired cache rows are dropped.
const housekeepingInterval = time.Minute

// editorAPI serves the editor's category list from the portal cache; every
// other call goes straight to the REST client.
type editorAPI struct {
	*api.Client
	portal *service.PortalService
}

func (e editorAPI) ListCategories(ctx context.Context) ([]api.Category, error) {
	return e.portal.Categories(ctx)
}

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, os.Stdout)

	// --- Database Initialization and Migration ---
	log.Info("Connecting to the state database...")
	db, err := data.NewDB(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(db); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	// --- Session Management Setup ---
	sessionManager := scs.New()
	if cfg.DB.Driver == data.DriverMySQL {
		sessionManager.Store = mysqlstore.New(db.DB)
	} else {
		sessionManager.Store = sqlite3store.New(db.DB)
	}
	sessionManager.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sessionManager.Cookie.Name = "teretnjaci_session"
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.TLS.Enabled
	sessionAuth := session.NewAuth(sessionManager)

	// --- API Client ---
	client := api.New(cfg.API.BaseURL, api.Options{
		Timeout:       cfg.API.Timeout,
		UploadTimeout: cfg.API.UploadTimeout,
		Session:       sessionAuth,
		OnUnauthorized: func(ctx context.Context) {
			metrics.Unauthorized.Inc()
			sessionAuth.SetFlash(ctx, "error", "Sesija je istekla, prijavite se ponovo")
		},
	})

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authorization...")
	enforcer, err := auth.NewEnforcer(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, log)
	authenticator := auth.NewAuthenticator(client)

	// --- View Template Initialization ---
	log.Info("Initializing view templates...")
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}

	// --- Cache Initialization ---
	log.Info("Initializing SQLite cache...")
	responseCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer responseCache.Close()

	// --- Dependency Injection and Handler Initialization ---
	portalService := service.NewPortalService(client, responseCache, log)
	editorStore := editor.NewStore()
	editorOptions := editor.Options{
		MaxUploadBytes:     cfg.Upload.MaxBytes,
		ProgressResetDelay: cfg.Editor.ProgressResetDelay,
		Log:                log,
	}

	handlers := handler.Handlers{
		Page:    handler.NewPageHandler(portalService, viewService, sessionAuth, log),
		Seo:     handler.NewSeoHandler(portalService, cfg.Server.PublicURL, log),
		Auth:    handler.NewAuthHandler(authenticator, sessionAuth, viewService, log),
		Article: handler.NewArticleHandler(portalService, viewService, sessionAuth, log),
		Editor:  handler.NewEditorHandler(editorAPI{Client: client, portal: portalService}, editorStore, editorOptions, portalService, viewService, sessionAuth, log),
		User:    handler.NewUserHandler(portalService, viewService, sessionAuth, log),
	}
	authzMiddleware := middleware.Authorizer(enforcer, sessionAuth)
	errorMiddleware := middleware.Error(log, viewService)

	// --- Router Setup ---
	router := handler.NewRouter(handlers, web.StaticFS(), authzMiddleware, errorMiddleware, sessionManager)

	// --- Housekeeping ---
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go housekeeping(ctx, editorStore, responseCache, cfg.Editor.IdleTimeout, log)

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           otelhttp.NewHandler(router, "teretnjaci-web"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}

// housekeeping drops idle editor sessions and expired cache rows until ctx is done.
func housekeeping(ctx context.Context, store *editor.Store, c *cache.Cache, idle time.Duration, log logger.Logger) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(idle); n > 0 {
				log.Debug(fmt.Sprintf("Dropped %d idle editor sessions", n))
			}
			if n, err := c.Purge(); err != nil {
				log.Warn(fmt.Sprintf("Cache purge failed: %v", err))
			} else if n > 0 {
				log.Debug(fmt.Sprintf("Purged %d expired cache entries", n))
			}
		}
	}
}
