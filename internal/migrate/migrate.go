// Package migrate applies the versioned SQL schema for the sqlite and
// postgres storage drivers.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	// Registers the "sqlite" database/sql driver shared with the gorm store.
	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var embedMigrations embed.FS

// DefaultSQLiteDSN matches the file the sqlite storage driver opens by default.
const DefaultSQLiteDSN = "waterportal.db"

func configureGoose(driver string) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetTableName("schema_migrations")

	switch driver {
	case "sqlite", "sqlite3":
		return goose.SetDialect("sqlite3")
	case "postgres", "pgx":
		return goose.SetDialect("postgres")
	}
	return fmt.Errorf("unsupported driver for goose: %s", driver)
}

func migrationDir(driver string) string {
	if driver == "postgres" || driver == "pgx" {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

func openDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "postgres", "pgx":
		if dsn == "" {
			return nil, fmt.Errorf("postgres migrations require a dsn")
		}
		return sql.Open("pgx", dsn)
	default:
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		return sql.Open("sqlite", dsn)
	}
}

func withDB(ctx context.Context, driver, dsn string, fn func(*sql.DB, string) error) error {
	if driver == "" {
		driver = "sqlite"
	}
	if err := configureGoose(driver); err != nil {
		return err
	}
	db, err := openDB(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect %s: %w", driver, err)
	}
	return fn(db, migrationDir(driver))
}

// Up applies all pending migrations.
func Up(ctx context.Context, driver, dsn string) error {
	return withDB(ctx, driver, dsn, func(db *sql.DB, dir string) error {
		return goose.UpContext(ctx, db, dir)
	})
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, driver, dsn string) error {
	return withDB(ctx, driver, dsn, func(db *sql.DB, dir string) error {
		return goose.DownContext(ctx, db, dir)
	})
}

// Status prints the applied state of every migration.
func Status(ctx context.Context, driver, dsn string) error {
	return withDB(ctx, driver, dsn, func(db *sql.DB, dir string) error {
		return goose.StatusContext(ctx, db, dir)
	})
}

// Version reports the current schema version.
func Version(ctx context.Context, driver, dsn string) (int64, error) {
	var v int64
	err := withDB(ctx, driver, dsn, func(db *sql.DB, _ string) error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, db)
		return err
	})
	return v, err
}
