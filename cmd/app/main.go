package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/tenantapi/internal/app"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/usecase"
	"github.com/atvirokodosprendimai/tenantapi/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "tenantapi",
		Usage: "Multi-tenant data API with API key exchange and session tokens",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("TENANTAPI_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "db-driver",
				Value:   "sqlite",
				Sources: cli.EnvVars("TENANTAPI_DB_DRIVER"),
				Usage:   "Store driver: sqlite or postgres",
			},
			&cli.StringFlag{
				Name:    "db-dsn",
				Value:   "./tenantapi.sqlite",
				Sources: cli.EnvVars("TENANTAPI_DB_DSN", "DATABASE_URL"),
				Usage:   "SQLite file path or postgres DSN",
			},
			&cli.BoolFlag{
				Name:    "auto-migrate",
				Value:   true,
				Sources: cli.EnvVars("TENANTAPI_AUTO_MIGRATE"),
				Usage:   "Apply pending migrations on start",
			},
			&cli.StringFlag{
				Name:    "secrets-backend",
				Value:   app.SecretsBackendLocal,
				Sources: cli.EnvVars("TENANTAPI_SECRETS_BACKEND"),
				Usage:   "Secret source: local (env + optional file) or aws (Secrets Manager)",
			},
			&cli.StringFlag{
				Name:    "secrets-file",
				Sources: cli.EnvVars("TENANTAPI_SECRETS_FILE"),
				Usage:   "Optional YAML/JSON secrets file for the local backend, reloaded on change",
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Sources: cli.EnvVars("AWS_REGION"),
				Usage:   "AWS region for the aws secrets backend",
			},
			&cli.StringFlag{
				Name:    "jwt-secret-name",
				Value:   "jwt_secret",
				Sources: cli.EnvVars("JWT_SECRET_NAME"),
				Usage:   "Secret holding the session signing key (name or name#field)",
			},
			&cli.StringFlag{
				Name:    "admin-key-secret-name",
				Value:   "admin_api_key",
				Sources: cli.EnvVars("ADMIN_API_KEY_SECRET"),
				Usage:   "Secret holding the admin API key (name or name#field)",
			},
			&cli.DurationFlag{
				Name:    "token-ttl",
				Value:   usecase.DefaultTokenTTL,
				Sources: cli.EnvVars("TENANTAPI_TOKEN_TTL"),
				Usage:   "Session token lifetime",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("TENANTAPI_LOG_LEVEL"),
				Usage:   "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "json",
				Sources: cli.EnvVars("TENANTAPI_LOG_FORMAT"),
				Usage:   "json or console",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations and exit",
				Action: migrate,
			},
			{
				Name:  "static-key",
				Usage: "Provision a legacy static API key for a tenant",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tenant-id",
						Required: true,
						Usage:    "Tenant the key belongs to",
					},
					&cli.StringFlag{
						Name:  "api-key",
						Usage: "Key to store; generated when empty",
					},
				},
				Action: staticKey,
			},
		},
	}
}

func configFromCommand(c *cli.Command) app.Config {
	return app.Config{
		Addr:               c.String("addr"),
		DBDriver:           c.String("db-driver"),
		DBDSN:              c.String("db-dsn"),
		AutoMigrate:        c.Bool("auto-migrate"),
		SecretsBackend:     c.String("secrets-backend"),
		SecretsFile:        c.String("secrets-file"),
		AWSRegion:          c.String("aws-region"),
		JWTSecretName:      c.String("jwt-secret-name"),
		AdminKeySecretName: c.String("admin-key-secret-name"),
		TokenTTL:           c.Duration("token-ttl"),
	}
}

func newLogger(c *cli.Command) (*zap.Logger, error) {
	log, err := logging.New(c.String("log-level"), c.String("log-format"))
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}

func serve(ctx context.Context, c *cli.Command) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg := configFromCommand(c)
	server, closer, err := app.NewServer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			log.Error("close resources", zap.Error(closeErr))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("db_driver", cfg.DBDriver))
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case sig := <-sigCh:
		log.Info("received signal", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func migrate(ctx context.Context, c *cli.Command) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	version, err := app.Migrate(ctx, configFromCommand(c), log)
	if err != nil {
		return err
	}
	log.Info("migrations applied", zap.Int64("version", version))
	return nil
}

func staticKey(ctx context.Context, c *cli.Command) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	key := c.String("api-key")
	if key == "" {
		if key, err = usecase.GenerateAPIKey(); err != nil {
			return err
		}
	}

	tenantID := c.String("tenant-id")
	if err := app.PutStaticKey(ctx, configFromCommand(c), log, tenantID, key); err != nil {
		return fmt.Errorf("store static key: %w", err)
	}
	fmt.Fprintf(c.Root().Writer, "tenant_id=%s api_key=%s\n", tenantID, key)
	return nil
}
