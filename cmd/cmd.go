package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"medcamp-backend/internal/config"
	"medcamp-backend/internal/handlers"
	"medcamp-backend/internal/i18n"
	"medcamp-backend/internal/middleware"
	"medcamp-backend/internal/models"
	"medcamp-backend/internal/repository"
	"medcamp-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	configPath := os.Getenv("MEDCAMP_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	if err := repository.RunMigrations(cfg.Database.URL(), cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	campRepo := repository.NewCampRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	translator := i18n.NewTranslator(cfg.I18n.DefaultLocale)

	// Notification sinks
	wsHub := services.NewWSHub()
	notificationService := services.NewNotificationService(notificationRepo)
	sinks := services.MultiNotifier{notificationService, wsHub}
	if cfg.APNs.CertFile != "" {
		apns, err := services.NewAPNsNotifier(
			profileRepo,
			cfg.APNs.CertFile,
			cfg.APNs.CertPassword,
			cfg.APNs.Topic,
			cfg.APNs.Production,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs notifier")
		}
		sinks = append(sinks, apns)
	}
	notifier := services.NewAsyncNotifier(sinks)

	// Initialize services
	directory := services.NewDirectory(campRepo, notifier, translator)
	userService := services.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL)
	registrationService := services.NewRegistrationService(
		registrationRepo,
		profileRepo,
		campRepo,
		directory,
		notifier,
		translator,
		cfg.Registration.EnforceCapacity,
	)
	paymentService := services.NewPaymentService(
		registrationRepo,
		campRepo,
		notifier,
		translator,
		cfg.Registration.CommissionRate,
		cfg.Registration.Currency,
	)
	campService := services.NewCampService(
		campRepo,
		profileRepo,
		registrationRepo,
		directory,
		notifier,
		translator,
	)

	var avatars handlers.AvatarUploader
	if cfg.AWS.S3Bucket != "" {
		avatarService, err := services.NewAvatarService(
			profileRepo,
			cfg.AWS.Region,
			cfg.AWS.S3Bucket,
			cfg.AWS.AccessKey,
			cfg.AWS.SecretKey,
			cfg.AWS.Endpoint,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create avatar service")
		}
		avatars = avatarService
	}

	// Initial directory load; a failure leaves the directory empty until the
	// next refresh.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := directory.Refresh(startupCtx); err != nil {
		log.Warn().Err(err).Msg("Initial camp directory load failed")
	}
	cancelStartup()

	scheduler, err := services.NewScheduler(
		directory,
		campService,
		cfg.Jobs.DirectoryRefreshInterval,
		cfg.Jobs.LifecycleInterval,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	scheduler.Start()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	campHandler := handlers.NewCampHandler(directory)
	registrationHandler := handlers.NewRegistrationHandler(registrationService, paymentService)
	meHandler := handlers.NewMeHandler(notificationService, avatars)
	doctorHandler := handlers.NewDoctorHandler(campService)
	adminHandler := handlers.NewAdminHandler(campService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, profileRepo, cfg.Server.AllowedOrigins)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Locale(translator))

		// Public routes
		r.Post("/auth/patients", userHandler.SignUpPatient)
		r.Post("/auth/doctors", userHandler.SignUpDoctor)
		r.Post("/auth/login", userHandler.Login)
		r.Get("/camps", campHandler.ListCamps)
		r.Get("/camps/{camp_id}", campHandler.GetCamp)

		// Anonymous callers reach the workflow, which rejects them itself
		r.With(middleware.OptionalAuth(userService)).
			Post("/camps/{camp_id}/registrations", registrationHandler.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))
			r.Post("/auth/logout", userHandler.Logout)
			r.Delete("/camps/{camp_id}/registrations", registrationHandler.Cancel)
			r.Get("/me/registrations", registrationHandler.ListMine)
			r.Post("/registrations/{registration_id}/payment", registrationHandler.ConfirmPayment)
			r.Get("/me/notifications", meHandler.ListNotifications)
			r.Post("/me/notifications/{notification_id}/read", meHandler.MarkNotificationRead)
			r.Post("/me/avatar", meHandler.UploadAvatar)

			r.Route("/doctor", func(r chi.Router) {
				r.Use(middleware.RequireUserType(models.UserTypeDoctor))
				r.Get("/dashboard", doctorHandler.Dashboard)
				r.Get("/camps", doctorHandler.ListCamps)
				r.Post("/camps", doctorHandler.CreateCamp)
				r.Get("/camps/{camp_id}/registrations", doctorHandler.CampRegistrations)
				r.Get("/camps/{camp_id}/export", doctorHandler.ExportRegistrations)
				r.Post("/camps/{camp_id}/cancel", doctorHandler.CancelCamp)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireUserType(models.UserTypeAdmin))
				r.Post("/camps/{camp_id}/approve", adminHandler.Approve)
				r.Post("/camps/{camp_id}/reject", adminHandler.Reject)
				r.Post("/camps/{camp_id}/cancel", adminHandler.Cancel)
				r.Post("/camps/{camp_id}/complete", adminHandler.Complete)
			})
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	scheduler.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// corsMiddleware handles CORS for the configured origins
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.ToLower(o)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[strings.ToLower(origin)]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept-Language")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
