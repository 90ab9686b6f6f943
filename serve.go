package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"feedback-service-server/config"
	"feedback-service-server/database"
	"feedback-service-server/jobs"
	"feedback-service-server/middleware"
	"feedback-service-server/routes"
	"feedback-service-server/services"
	ws "feedback-service-server/websocket"
)

const (
	shutdownTimeout     = 10 * time.Second
	limiterCleanupEvery = 10 * time.Minute
)

type storageFlags struct {
	submissionsFile string
	usersFile       string
}

func (f *storageFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.submissionsFile, "submissions-file", "", "Path of the submissions JSON file, overrides SUBMISSIONS_FILE")
	fs.StringVar(&f.usersFile, "users-file", "", "Path of the users JSON file, overrides USERS_FILE")
}

func (f *storageFlags) apply(cfg *config.Config) {
	if f.submissionsFile != "" {
		cfg.Storage.SubmissionsFile = f.submissionsFile
	}
	if f.usersFile != "" {
		cfg.Storage.UsersFile = f.usersFile
	}
}

type serveFlags struct {
	storageFlags
	port string
}

func (f *serveFlags) BindFlags(fs *pflag.FlagSet) {
	f.storageFlags.BindFlags(fs)
	fs.StringVar(&f.port, "port", "", "Port to listen on, overrides PORT")
}

// NewServeCommand runs the HTTP API
func NewServeCommand() *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the feedback HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.AppConfig
			f.apply(cfg)
			if f.port != "" {
				cfg.Server.Port = f.port
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	f.BindFlags(cmd.Flags())
	return cmd
}

// newAIService builds the pack generator, falling back to instant packs when
// no model is configured or the client cannot be created
func newAIService(ctx context.Context, cfg config.AIConfig) *services.AIService {
	if !cfg.Enabled() {
		log.Info("🤖 No GEMINI_API_KEY set, serving instant packs only")
		return services.NewAIService(nil, cfg)
	}
	gemini, err := services.NewGeminiGenerator(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("⚠️ Gemini client unavailable, serving instant packs only")
		return services.NewAIService(nil, cfg)
	}
	log.WithFields(log.Fields{"model": cfg.Model, "workers": cfg.MaxWorkers, "timeout": cfg.Timeout}).Info("🤖 Gemini generator ready")
	return services.NewAIService(gemini, cfg)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	submissionStore, err := database.NewSubmissionStore(cfg.Storage.SubmissionsFile)
	if err != nil {
		return errors.Wrap(err, "open submissions store")
	}
	userStore, err := database.NewUserStore(cfg.Storage.UsersFile)
	if err != nil {
		return errors.Wrap(err, "open users store")
	}

	auth := services.NewAuthService(userStore, cfg.JWT)
	if err := auth.EnsureDefaultUsers(cfg.Auth); err != nil {
		return errors.Wrap(err, "seed default users")
	}

	g, gctx := errgroup.WithContext(ctx)

	hub := ws.NewHub()
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	submissions := services.NewSubmissionService(submissionStore, newAIService(gctx, cfg.AI), hub)

	if cfg.AI.ReprocessInterval > 0 {
		job := jobs.NewReprocessJob(submissions, cfg.AI.ReprocessInterval)
		job.Start(gctx)
		defer job.Stop()
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	g.Go(func() error {
		limiter.RunCleanup(gctx, limiterCleanupEvery)
		return nil
	})

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log.DebugRequests))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS))
	router.Use(middleware.InputValidationMiddleware())
	router.Use(limiter.Middleware())

	routes.RegisterRoutes(router, routes.Dependencies{
		Submissions:   submissions,
		Auth:          auth,
		Hub:           hub,
		AdminRequired: cfg.Auth.AdminRequired,
	})
	if !cfg.Auth.AdminRequired {
		log.Warn("⚠️ ADMIN_AUTH_REQUIRED=false, dashboard endpoints are public")
	}

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.WithField("port", cfg.Server.Port).Info("🚀 Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("🛑 Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
