package gormdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB holds a reader and a writer handle. For postgres both point to the same
// pool; for sqlite the writer is limited to a single connection.
type DB struct {
	R       *gorm.DB
	W       *gorm.DB
	Dialect string
}

type Tx struct {
	*gorm.DB
}

type cbfn func(tx *Tx) error

func (db *DB) ReadTX(ctx context.Context, fn cbfn) error {
	return db.R.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{DB: tx})
	}, &sql.TxOptions{ReadOnly: true})
}

func (db *DB) WriteTX(ctx context.Context, fn cbfn) error {
	return db.W.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{DB: tx})
	})
}

func (db *DB) WriteSQLDB() (*sql.DB, error) {
	return db.W.DB()
}

// GooseDialect is the dialect name the migration runner expects.
func (db *DB) GooseDialect() string {
	if db.Dialect == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

func (db *DB) Close() error {
	var firstErr error
	seen := map[*sql.DB]bool{}
	closeOne := func(g *gorm.DB) {
		if g == nil {
			return
		}
		sqlDB, err := g.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		if seen[sqlDB] {
			return
		}
		seen[sqlDB] = true
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	closeOne(db.R)
	closeOne(db.W)
	return firstErr
}

var _ io.Closer = (*DB)(nil)

// Open connects to driver using dsn. For sqlite dsn is a file path.
func Open(driver, dsn string, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := func() *gorm.Config {
		return &gorm.Config{
			PrepareStmt: true,
			Logger:      newGormLogger(log),
		}
	}

	switch driver {
	case DriverSQLite, "":
		return openSQLite(dsn, cfg)
	case DriverPostgres:
		return openPostgres(dsn, cfg)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func openSQLite(file string, cfg func() *gorm.Config) (*DB, error) {
	reader, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: buildDSN(file, true)}, cfg())
	if err != nil {
		return nil, fmt.Errorf("open read db: %w", err)
	}

	writer, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: buildDSN(file, false)}, cfg())
	if err != nil {
		_ = closeGORM(reader)
		return nil, fmt.Errorf("open write db: %w", err)
	}

	rdb, err := reader.DB()
	if err != nil {
		_ = closeGORM(reader)
		_ = closeGORM(writer)
		return nil, fmt.Errorf("reader sql db: %w", err)
	}
	wdb, err := writer.DB()
	if err != nil {
		_ = closeGORM(reader)
		_ = closeGORM(writer)
		return nil, fmt.Errorf("writer sql db: %w", err)
	}

	rdb.SetMaxOpenConns(runtime.NumCPU())
	rdb.SetMaxIdleConns(runtime.NumCPU())
	rdb.SetConnMaxLifetime(0)
	rdb.SetConnMaxIdleTime(0)

	wdb.SetMaxOpenConns(1)
	wdb.SetMaxIdleConns(1)
	wdb.SetConnMaxLifetime(0)
	wdb.SetConnMaxIdleTime(0)

	return &DB{R: reader, W: writer, Dialect: DriverSQLite}, nil
}

func openPostgres(dsn string, cfg func() *gorm.Config) (*DB, error) {
	g, err := gorm.Open(postgres.Open(dsn), cfg())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := g.DB()
	if err != nil {
		_ = closeGORM(g)
		return nil, fmt.Errorf("postgres sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(4 * runtime.NumCPU())
	sqlDB.SetMaxIdleConns(runtime.NumCPU())
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return &DB{R: g, W: g, Dialect: DriverPostgres}, nil
}

// buildDSN appends per-connection pragmas so that every pooled connection is
// configured, not only the first one.
func buildDSN(file string, readOnly bool) string {
	pragmas := []string{
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"temp_store(MEMORY)",
		"wal_autocheckpoint(1000)",
		"cache_size(-20000)",
		"mmap_size(268435456)",
		"foreign_keys(1)",
		"busy_timeout(5000)",
		"trusted_schema(OFF)",
	}
	if readOnly {
		pragmas = append(pragmas, "query_only(1)")
	} else {
		pragmas = append(pragmas, "query_only(0)")
	}

	params := make([]string, 0, len(pragmas)+1)
	params = append(params, "_time_format=sqlite")
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}

	sep := "?"
	if strings.Contains(file, "?") {
		sep = "&"
	}
	return file + sep + strings.Join(params, "&")
}

func newGormLogger(log *zap.Logger) logger.Interface {
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
}

func closeGORM(g *gorm.DB) error {
	if g == nil {
		return nil
	}
	sqlDB, err := g.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
