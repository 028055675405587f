package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/doug-martin/goqu/v9"

	"github.com/edy93762/gesto-de-epi-sub000/internal/repository"
	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
)

// insertBatchSize keeps multi-row inserts below the SQLite bound parameter limit.
const insertBatchSize = 100

// ErrUnchanged is returned by an Update change function to leave the table as it is.
var ErrUnchanged = errors.New("collection unchanged")

// Collection is a logical table with full-replacement write semantics.
type Collection[T any] interface {
	GetAll(ctx context.Context) ([]T, error)
	ReplaceAll(ctx context.Context, rows []T) error
	// Update reads the table, hands the rows to change and writes its result
	// back. No other write to the store happens in between.
	Update(ctx context.Context, change func(rows []T) ([]T, error)) error
}

type selector interface {
	From(from ...interface{}) *goqu.SelectDataset
}

type table[T any, R any] struct {
	name   string
	db     *goqu.Database
	writes *sync.Mutex
	encode func(T) (goqu.Record, error)
	decode func(R) (T, error)
}

func (t *table[T, R]) GetAll(ctx context.Context) ([]T, error) {
	return t.getAll(ctx, t.db)
}

func (t *table[T, R]) ReplaceAll(ctx context.Context, rows []T) error {
	t.writes.Lock()
	defer t.writes.Unlock()

	return repository.WithTransaction(ctx, t.db, func(tx *goqu.TxDatabase) error {
		return t.replaceAll(ctx, tx, rows)
	})
}

func (t *table[T, R]) Update(ctx context.Context, change func(rows []T) ([]T, error)) error {
	t.writes.Lock()
	defer t.writes.Unlock()

	err := repository.WithTransaction(ctx, t.db, func(tx *goqu.TxDatabase) error {
		rows, err := t.getAll(ctx, tx)
		if err != nil {
			return err
		}
		rows, err = change(rows)
		if err != nil {
			return err
		}
		return t.replaceAll(ctx, tx, rows)
	})
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	return err
}

func (t *table[T, R]) getAll(ctx context.Context, db selector) ([]T, error) {
	var rows []R
	if err := db.From(t.name).Order(goqu.C("id").Asc()).ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.name, err)
	}

	result := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := t.decode(row)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	return result, nil
}

func (t *table[T, R]) replaceAll(ctx context.Context, tx *goqu.TxDatabase, rows []T) error {
	if _, err := tx.Delete(t.name).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear %s: %w", t.name, err)
	}

	records := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		record, err := t.encode(row)
		if err != nil {
			return err
		}
		records = append(records, record)
	}

	for start := 0; start < len(records); start += insertBatchSize {
		end := min(start+insertBatchSize, len(records))
		if _, err := tx.Insert(t.name).Rows(records[start:end]...).Executor().ExecContext(ctx); err != nil {
			return custom_error.FromDBError(fmt.Sprintf("failed to insert into %s", t.name), err)
		}
	}

	return nil
}
