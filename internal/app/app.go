package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/tenantapi/internal/adapters/httpapi"
	"github.com/atvirokodosprendimai/tenantapi/internal/adapters/secrets"
	"github.com/atvirokodosprendimai/tenantapi/internal/adapters/sqlstore"
	"github.com/atvirokodosprendimai/tenantapi/internal/adapters/sqlstore/gormdb"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/ports"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/usecase"
	"github.com/atvirokodosprendimai/tenantapi/internal/telemetry"
	"github.com/atvirokodosprendimai/tenantapi/migrations"
)

const (
	SecretsBackendLocal = "local"
	SecretsBackendAWS   = "aws"
)

type Config struct {
	Addr               string
	DBDriver           string
	DBDSN              string
	AutoMigrate        bool
	SecretsBackend     string
	SecretsFile        string
	AWSRegion          string
	JWTSecretName      string
	AdminKeySecretName string
	TokenTTL           time.Duration
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// OpenStore connects to the configured database and, when migrate is set,
// applies pending migrations.
func OpenStore(ctx context.Context, cfg Config, log *zap.Logger, migrate bool) (*gormdb.DB, error) {
	db, err := gormdb.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	if !migrate {
		return db, nil
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := migrations.Up(ctx, writeSQLDB, db.GooseDialect()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies pending migrations and returns the resulting version.
func Migrate(ctx context.Context, cfg Config, log *zap.Logger) (int64, error) {
	db, err := OpenStore(ctx, cfg, log, true)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		return 0, fmt.Errorf("resolve writer sql db: %w", err)
	}
	return migrations.Version(ctx, writeSQLDB, db.GooseDialect())
}

// NewSecretProvider builds the configured backend. The returned closer stops
// the local file watcher.
func NewSecretProvider(ctx context.Context, cfg Config, log *zap.Logger) (ports.SecretProvider, io.Closer, error) {
	switch cfg.SecretsBackend {
	case SecretsBackendLocal, "":
		local, err := secrets.NewLocal(cfg.SecretsFile, log.Named("secrets"))
		if err != nil {
			return nil, nil, err
		}
		watchCtx, cancel := context.WithCancel(context.Background())
		if err := local.Watch(watchCtx); err != nil {
			cancel()
			return nil, nil, err
		}
		return local, closerFunc(func() error { cancel(); return nil }), nil
	case SecretsBackendAWS:
		aws, err := secrets.NewAWS(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		return aws, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown secrets backend %q", cfg.SecretsBackend)
	}
}

func NewServer(ctx context.Context, cfg Config, log *zap.Logger) (*http.Server, io.Closer, error) {
	db, err := OpenStore(ctx, cfg, log, cfg.AutoMigrate)
	if err != nil {
		return nil, nil, err
	}

	secretProvider, secretsCloser, err := NewSecretProvider(ctx, cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("secret provider: %w", err)
	}

	apiKeyRepo := sqlstore.NewAPIKeyRepository(db)
	staticKeyRepo := sqlstore.NewStaticKeyRepository(db)
	dataRepo := sqlstore.NewDataRepository(db)
	auditRepo := sqlstore.NewAuditRepository(db)

	authLog := log.Named("auth")
	services := httpapi.Services{
		Auth:      usecase.NewAuthenticator(apiKeyRepo, secretProvider, cfg.JWTSecretName, cfg.TokenTTL),
		Keys:      usecase.NewKeyManager(apiKeyRepo, auditRepo),
		Data:      usecase.NewDataService(dataRepo, auditRepo),
		Audit:     usecase.NewAuditService(auditRepo),
		Admin:     usecase.NewAdminGuard(secretProvider, cfg.AdminKeySecretName, authLog),
		Bearer:    usecase.NewBearerAuthorizer(secretProvider, cfg.JWTSecretName, authLog),
		StaticKey: usecase.NewStaticKeyAuthorizer(staticKeyRepo, authLog),
	}

	handler := httpapi.NewHandler(services, log.Named("http"), telemetry.New())

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          zap.NewStdLog(log.Named("http")),
	}

	return server, resourceCloser{closers: []io.Closer{secretsCloser, db}}, nil
}

// PutStaticKey provisions a legacy static key for tenantID.
func PutStaticKey(ctx context.Context, cfg Config, log *zap.Logger, tenantID, apiKey string) error {
	if tenantID == "" || apiKey == "" {
		return domain.NewValidationError("tenant id and api key are required")
	}
	db, err := OpenStore(ctx, cfg, log, cfg.AutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	return sqlstore.NewStaticKeyRepository(db).PutStaticKey(ctx, domain.StaticKey{TenantID: tenantID, APIKey: apiKey})
}
