package main

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lims/lims/internal/config"
	"github.com/lims/lims/internal/domain/accounts"
	"github.com/lims/lims/internal/domain/billing"
	"github.com/lims/lims/internal/domain/catalog"
	"github.com/lims/lims/internal/domain/identity"
	"github.com/lims/lims/internal/domain/inventory"
	"github.com/lims/lims/internal/domain/reporting"
	"github.com/lims/lims/internal/domain/workflow"
	"github.com/lims/lims/internal/platform/auth"
	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lims-server",
		Short: "Lab workflow API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
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

			count, err := db.NewMigrator(pool).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
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

			statuses, err := db.NewMigrator(pool).Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

// starterCatalog is inserted by the seed command when absent.
func starterCatalog() []*catalog.TestType {
	return []*catalog.TestType{
		{Name: "Complete Blood Count", Category: catalog.CategoryBlood, Price: 50, Description: "CBC with differential"},
		{Name: "Urinalysis", Category: catalog.CategoryUrine, Price: 30, Description: "Routine urinalysis"},
		{Name: "Lipid Panel", Category: catalog.CategoryBiochemistry, Price: 75, Description: "Cholesterol and triglycerides"},
		{Name: "Blood Glucose", Category: catalog.CategoryBiochemistry, Price: 25, Description: "Fasting plasma glucose"},
		{Name: "Liver Function Test", Category: catalog.CategoryBiochemistry, Price: 80, Description: "ALT, AST, bilirubin"},
		{Name: "Hemoglobin A1c", Category: catalog.CategoryHematology, Price: 60, Description: "Glycated hemoglobin"},
		{Name: "Urine Culture", Category: catalog.CategoryMicrobiology, Price: 90, Description: "Bacterial culture and sensitivity"},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap admin account and starter catalog",
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

			accountsSvc := accounts.NewService(accounts.NewUserRepoPG(pool))
			admin, created, err := accountsSvc.EnsureAdmin(ctx, cfg.SeedAdminPassword)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("Created admin account %s (%s).\n", admin.Username, admin.Email)
			} else {
				fmt.Println("Admin account already present.")
			}

			catalogSvc := catalog.NewService(catalog.NewTestTypeRepoPG(pool))
			added, err := catalogSvc.Seed(ctx, starterCatalog())
			if err != nil {
				return err
			}
			fmt.Printf("Added %d catalog entrie(s).\n", added)
			return nil
		},
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	if cfg.AuthSigningKey == "" {
		// Dev convenience only: tokens do not survive a restart.
		buf := make([]byte, 32)
		if _, err := cryptorand.Read(buf); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate signing key")
		}
		cfg.AuthSigningKey = hex.EncodeToString(buf)
		logger.Warn().Msg("AUTH_SIGNING_KEY not set, using an ephemeral key")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Repositories and services
	accountsSvc := accounts.NewService(accounts.NewUserRepoPG(pool))
	identitySvc := identity.NewService(identity.NewPatientRepoPG(pool))
	catalogSvc := catalog.NewService(catalog.NewTestTypeRepoPG(pool))
	workflowSvc := workflow.NewService(
		workflow.NewTestRequestRepoPG(pool),
		workflow.NewSampleRepoPG(pool),
		identitySvc,
		catalogSvc,
	)
	reportingSvc := reporting.NewService(
		reporting.NewReportRepoPG(pool),
		reporting.NewTemplateRepoPG(pool),
		workflowSvc,
		identitySvc,
		catalogSvc,
	)
	billingSvc := billing.NewService(
		billing.NewInvoiceRepoPG(pool),
		identitySvc,
		workflowSvc,
	)
	inventorySvc := inventory.NewService(inventory.NewItemRepoPG(pool))

	tokenCfg := auth.TokenConfig{
		SigningKey: []byte(cfg.AuthSigningKey),
		TTL:        time.Duration(cfg.TokenTTLMinutes) * time.Minute,
	}
	issue := func(u *accounts.User) (string, error) {
		return auth.Issue(tokenCfg, u.ID, string(u.Role))
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	accountsHandler := accounts.NewHandler(accountsSvc, issue)
	accountsHandler.RegisterAuthRoutes(e.Group("/api/v1/auth"))

	api := e.Group("/api/v1", auth.Middleware(tokenCfg, accountsSvc))
	accountsHandler.RegisterRoutes(api)
	identity.NewHandler(identitySvc).RegisterRoutes(api)
	catalog.NewHandler(catalogSvc).RegisterRoutes(api)
	workflow.NewHandler(workflowSvc).RegisterRoutes(api)
	reporting.NewHandler(reportingSvc).RegisterRoutes(api)
	billing.NewHandler(billingSvc).RegisterRoutes(api)
	inventory.NewHandler(inventorySvc).RegisterRoutes(api)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
