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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"starcat/pkg/bus"
	"starcat/pkg/db"
	"starcat/pkg/render"
	gos3 "starcat/pkg/s3"
	"starcat/pkg/telemetry"
	"starcat/services/api"
	"starcat/services/api/internal/config"
)

const serviceName = "starcat-api"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		settingsFile    string
		settingsProfile string
	)

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Alert-broker object catalog API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&settingsFile, "settings-file", os.Getenv("APP_SETTINGS_FILE"),
		"YAML settings file with configuration profiles")
	cmd.PersistentFlags().StringVar(&settingsProfile, "settings", os.Getenv("APP_SETTINGS"),
		"configuration profile to load from the settings file")

	cmd.AddCommand(newServeCommand(&settingsFile, &settingsProfile))
	cmd.AddCommand(newMigrateCommand(&settingsFile, &settingsProfile))
	return cmd
}

func loadConfig(ctx context.Context, settingsFile, settingsProfile string) (config.Config, error) {
	_ = godotenv.Load()
	return config.Load(ctx, settingsFile, settingsProfile)
}

func newServeCommand(settingsFile, settingsProfile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*settingsFile, *settingsProfile)
		},
	}
}

func newMigrateCommand(settingsFile, settingsProfile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply catalog schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := loadConfig(ctx, *settingsFile, *settingsProfile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			pool, err := db.Open(ctx, cfg.DBDSN, cfg.DBMaxConns)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			return db.Migrate(ctx, pool)
		},
	}
}

func serve(settingsFile, settingsProfile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := loadConfig(ctx, settingsFile, settingsProfile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	shutdownTelemetry, requestMiddleware, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint, log.Logger)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	pool, err := db.Open(ctx, cfg.DBDSN, cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	store := &api.Store{DB: pool}

	if cfg.NATSURL != "" {
		eventBus, err := bus.New(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer eventBus.Close()
		store.Bus = eventBus
	}

	if cfg.StampBucket != "" && cfg.S3Endpoint != "" {
		stamps, err := gos3.New(ctx, gos3.Options{
			Endpoint:   cfg.S3Endpoint,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Region:     cfg.S3Region,
			PathStyle:  cfg.S3ForcePathStyle,
			DisableTLS: cfg.S3DisableTLS,
		})
		if err != nil {
			return fmt.Errorf("init stamp store: %w", err)
		}
		store.Stamps = stamps
	}

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	apiLayer, err := api.New(store, renderer, api.Config{
		RequestTimeout: cfg.RequestTimeout,
		PageSizeMax:    cfg.PageSizeMax,
		RatePerMinute:  cfg.RatePerMinute,
		AllowedOrigins: cfg.AllowedOrigins,
		StampBucket:    cfg.StampBucket,
	}, log.Logger)
	if err != nil {
		return fmt.Errorf("init api: %w", err)
	}

	routes, err := apiLayer.Routes()
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           requestMiddleware(routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting starcat-api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
		return err
	}
	return nil
}
