package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

type Repository struct {
	DB            *sql.DB
	GoquDBWrapper *goqu.Database
}

// NewRepository wraps db with the goqu dialect matching the driver name
// ("sqlite3" or "postgres").
func NewRepository(db *sql.DB, dialect string) *Repository {
	return &Repository{
		DB:            db,
		GoquDBWrapper: goqu.New(dialect, db),
	}
}

func (r *Repository) Dialect() string {
	return r.GoquDBWrapper.Dialect()
}

func WithTransaction(ctx context.Context, db *goqu.Database, fn func(tx *goqu.TxDatabase) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return
}
