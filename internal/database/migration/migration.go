package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migrate provisions the schema on an open connection. driver is the
// database/sql driver name the connection was opened with.
func Migrate(db *sql.DB, driver string, verbose bool, log *zap.Logger) error {
	log.Info("Running database migration", zap.String("driver", driver))

	source, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	var target migratedb.Driver
	switch driver {
	case "sqlite3":
		target, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case "postgres":
		target, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		err = fmt.Errorf("unsupported migration driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("prepare migration target: %w", err)
	}

	dbMigrate, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		return err
	}
	dbMigrate.Log = NewLogger(log, verbose)

	err = dbMigrate.Up()
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Database migration: no change needed")
		} else {
			log.Error("Database migration failed", zap.Error(err))
			return err
		}
	}

	return nil
}

type Logger struct {
	logger  *zap.Logger
	verbose bool
}

func (l *Logger) Printf(format string, v ...any) {
	l.logger.Sugar().Infof("DB Migration: "+format, v...)
}

func (l *Logger) Verbose() bool {
	return l.verbose
}

func NewLogger(logger *zap.Logger, verbose bool) *Logger {
	return &Logger{
		logger:  logger,
		verbose: verbose,
	}
}
