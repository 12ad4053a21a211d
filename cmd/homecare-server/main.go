package main

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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/homecare/homecare/internal/config"
	"github.com/homecare/homecare/internal/domain/account"
	"github.com/homecare/homecare/internal/domain/identity"
	"github.com/homecare/homecare/internal/domain/inbox"
	"github.com/homecare/homecare/internal/domain/medication"
	"github.com/homecare/homecare/internal/domain/scheduling"
	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/internal/platform/db"
	"github.com/homecare/homecare/internal/platform/middleware"
	"github.com/homecare/homecare/internal/platform/notification"
	"github.com/homecare/homecare/internal/platform/sandbox"
	"github.com/homecare/homecare/internal/platform/validate"
)

const (
	bodyLimit       = "1M"
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "homecare-server",
		Short: "Home healthcare API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, os.DirFS(cfg.MigrationsDir)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, os.DirFS(cfg.MigrationsDir)).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format(time.RFC3339)
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			a := newApp(cfg, pool, logger)
			a.dispatcher.Start()
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = a.dispatcher.Shutdown(sctx)
			}()

			res, err := sandbox.NewSeeder(a.accounts, a.profiles, a.appointments, a.medications, logger).Seed(ctx, password)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			if res.Skipped {
				fmt.Println("Demo data already present.")
				return nil
			}
			fmt.Printf("Seeded %d user(s), %d appointment(s), %d medication(s).\n",
				res.Users, res.Appointments, res.Medications)
			return nil
		},
	}
	cmd.Flags().String("password", "Demo123!", "Password for every demo account")
	return cmd
}

// app holds the wired services and the HTTP server.
type app struct {
	echo         *echo.Echo
	dispatcher   *notification.Dispatcher
	accounts     *account.Service
	profiles     *identity.Service
	appointments *scheduling.Service
	medications  *medication.Service
}

func newApp(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) *app {
	issuer := auth.NewTokenIssuer(auth.JWTConfig{
		SigningKey: []byte(cfg.JWTKey),
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		TTL:        time.Duration(cfg.JWTTTLMinutes) * time.Minute,
	})

	// Notifications
	notifications := inbox.NewNotificationRepo(pool)
	opts := []notification.Option{
		notification.WithWorkers(cfg.NotifyWorkers),
		notification.WithQueueSize(cfg.NotifyQueueSize),
	}
	if len(cfg.KafkaBrokers) > 0 {
		opts = append(opts, notification.WithPublisher(
			notification.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationTopic)))
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaNotificationTopic).
			Msg("publishing notifications to kafka")
	}
	dispatcher := notification.NewDispatcher(notifications, logger, opts...)
	templates := notification.NewTemplateEngine()

	// Services
	identitySvc := identity.NewService(identity.NewPatientRepo(pool), identity.NewEmployeeRepo(pool), logger)
	accountSvc := account.NewService(account.NewUserRepo(pool), identitySvc, pool, issuer, logger)
	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepo(pool), identitySvc, dispatcher, templates, logger)
	medicationSvc := medication.NewService(medication.NewMedicationRepo(pool), identitySvc, dispatcher, templates, logger)
	inboxSvc := inbox.NewService(notifications, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(cfg.TrustedProxies)
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)
	e.Validator = validate.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.RequestTimeout(requestTimeout))
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool, logger))

	api := e.Group("/api", auth.Optional(issuer))
	account.NewHandler(accountSvc).RegisterRoutes(api)
	identity.NewHandler(identitySvc).RegisterRoutes(api)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)
	medication.NewHandler(medicationSvc).RegisterRoutes(api)
	inbox.NewHandler(inboxSvc).RegisterRoutes(api)

	return &app{
		echo:         e,
		dispatcher:   dispatcher,
		accounts:     accountSvc,
		profiles:     identitySvc,
		appointments: schedulingSvc,
		medications:  medicationSvc,
	}
}

// ipExtractor decides which address the rate limiter and logs see as the
// client. X-Forwarded-For is honoured only when the peer is a trusted proxy.
func ipExtractor(trusted []string) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trusted {
		if _, ipNet, err := net.ParseCIDR(cidr); err == nil {
			opts = append(opts, echo.TrustIPRange(ipNet))
		}
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	a := newApp(cfg, pool, logger)
	a.dispatcher.Start()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.echo.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := a.dispatcher.Shutdown(sctx); err != nil {
		logger.Warn().Err(err).Msg("notification dispatcher did not drain")
	}
	logger.Info().Msg("server stopped")
	return nil
}
