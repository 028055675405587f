package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/database"
	"github.com/edy93762/gesto-de-epi-sub000/internal/database/migration"
	"github.com/edy93762/gesto-de-epi-sub000/internal/repository"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

// Store is the system of record: records, catalog, collaborators and the
// configuration row. Every operation is its own transaction and writes are
// serialized by one lock shared by all tables.
type Store struct {
	writes        *sync.Mutex
	repo          *repository.Repository
	records       *table[models.DeliveryRecord, recordRow]
	catalog       *table[models.CatalogItem, catalogRow]
	collaborators *table[models.Collaborator, collaboratorRow]
	log           *zap.Logger
}

// Open connects to the configured engine and provisions the schema.
func Open(ctx context.Context, driver, dsn string, log *zap.Logger) (*Store, error) {
	db, err := database.NewConnection(driver, dsn)
	if err != nil {
		return nil, err
	}

	s := New(repository.NewRepository(db, driver), log)
	if err := s.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func New(repo *repository.Repository, log *zap.Logger) *Store {
	db := repo.GoquDBWrapper
	writes := &sync.Mutex{}
	return &Store{
		writes: writes,
		repo:   repo,
		records: &table[models.DeliveryRecord, recordRow]{
			name: recordsTable, db: db, writes: writes, encode: encodeRecord, decode: decodeRecord,
		},
		catalog: &table[models.CatalogItem, catalogRow]{
			name: catalogTable, db: db, writes: writes, encode: encodeCatalogItem, decode: decodeCatalogItem,
		},
		collaborators: &table[models.Collaborator, collaboratorRow]{
			name: collaboratorsTable, db: db, writes: writes, encode: encodeCollaborator, decode: decodeCollaborator,
		},
		log: log.Named("store"),
	}
}

// Initialize creates the four tables when they do not exist yet.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.repo.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	if err := migration.Migrate(s.repo.DB, s.repo.Dialect(), false, s.log); err != nil {
		return fmt.Errorf("provision local store: %w", err)
	}
	return nil
}

func (s *Store) Records() Collection[models.DeliveryRecord] {
	return s.records
}

func (s *Store) Catalog() Collection[models.CatalogItem] {
	return s.catalog
}

func (s *Store) Collaborators() Collection[models.Collaborator] {
	return s.collaborators
}

// GetConfig returns nil when the configuration was never persisted.
func (s *Store) GetConfig(ctx context.Context) (*models.Configuration, error) {
	return getConfig(ctx, s.repo.GoquDBWrapper)
}

func (s *Store) SetConfig(ctx context.Context, cfg models.Configuration) error {
	s.writes.Lock()
	defer s.writes.Unlock()

	return repository.WithTransaction(ctx, s.repo.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		return setConfig(ctx, tx, cfg)
	})
}

// Snapshot names the tables to replace; nil fields are left untouched.
type Snapshot struct {
	Records       *[]models.DeliveryRecord
	Catalog       *[]models.CatalogItem
	Collaborators *[]models.Collaborator
	Configuration *models.Configuration
}

func (s Snapshot) IsEmpty() bool {
	return s.Records == nil && s.Catalog == nil && s.Collaborators == nil && s.Configuration == nil
}

// ReplaceSnapshot replaces every table named in snap within a single transaction.
func (s *Store) ReplaceSnapshot(ctx context.Context, snap Snapshot) error {
	if snap.IsEmpty() {
		return nil
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	return repository.WithTransaction(ctx, s.repo.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		if snap.Records != nil {
			if err := s.records.replaceAll(ctx, tx, *snap.Records); err != nil {
				return err
			}
		}
		if snap.Catalog != nil {
			if err := s.catalog.replaceAll(ctx, tx, *snap.Catalog); err != nil {
				return err
			}
		}
		if snap.Collaborators != nil {
			if err := s.collaborators.replaceAll(ctx, tx, *snap.Collaborators); err != nil {
				return err
			}
		}
		if snap.Configuration != nil {
			if err := setConfig(ctx, tx, *snap.Configuration); err != nil {
				return err
			}
		}
		return nil
	})
}

// Export reads every table inside one transaction.
func (s *Store) Export(ctx context.Context) (*models.Backup, error) {
	backup := &models.Backup{ExportedAt: time.Now().UTC()}

	err := repository.WithTransaction(ctx, s.repo.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		var err error
		if backup.Records, err = s.records.getAll(ctx, tx); err != nil {
			return err
		}
		if backup.Catalog, err = s.catalog.getAll(ctx, tx); err != nil {
			return err
		}
		if backup.Collaborators, err = s.collaborators.getAll(ctx, tx); err != nil {
			return err
		}
		backup.Configuration, err = getConfig(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("export local store: %w", err)
	}

	return backup, nil
}

// Restore replaces the whole store with the content of a backup.
func (s *Store) Restore(ctx context.Context, backup *models.Backup) error {
	if backup == nil {
		return errors.New("backup is empty")
	}

	records := backup.Records
	catalog := backup.Catalog
	collaborators := backup.Collaborators

	return s.ReplaceSnapshot(ctx, Snapshot{
		Records:       &records,
		Catalog:       &catalog,
		Collaborators: &collaborators,
		Configuration: backup.Configuration,
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.repo.DB.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.repo.DB.Close()
}

func getConfig(ctx context.Context, db selector) (*models.Configuration, error) {
	var row configRow
	found, err := db.From(configurationTable).
		Where(goqu.C("config_key").Eq(configKey)).
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &models.Configuration{
		AutoBackup:  row.AutoBackup,
		EndpointURL: row.EndpointURL,
	}, nil
}

func setConfig(ctx context.Context, tx *goqu.TxDatabase, cfg models.Configuration) error {
	if _, err := tx.Delete(configurationTable).
		Where(goqu.C("config_key").Eq(configKey)).
		Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear configuration: %w", err)
	}

	_, err := tx.Insert(configurationTable).Rows(goqu.Record{
		"config_key":   configKey,
		"auto_backup":  cfg.AutoBackup,
		"endpoint_url": cfg.EndpointURL,
	}).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	return nil
}
