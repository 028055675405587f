package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "epi.db")
	s, err := Open(context.Background(), "sqlite3", path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleCatalog() []models.CatalogItem {
	return []models.CatalogItem{
		{ID: "c1", Code: "LUVA01", Name: "Luva de vaqueta", Certification: "12345", Stock: 5},
		{ID: "c2", Code: "OCUL01", Name: "Óculos de proteção", Stock: 0},
		{ID: "c3", Code: "CAPA01", Name: "Capacete", Certification: "998", Stock: 12},
	}
}

func sampleCollaborators() []models.Collaborator {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	return []models.Collaborator{
		{ID: "p1", Name: "Ana Souza", CPF: "12345678909", Shift: "A", AdmissionDate: "2020-01-10", Company: metadata.CompanyMatriz, LastActivityDate: &at},
		{ID: "p2", Name: "Bruno Lima", Shift: "B", AdmissionDate: "2021-05-02", Company: metadata.CompanyFilial},
		{ID: "p3", Name: "Carla Dias", Shift: "C", Company: metadata.CompanyTerceiros, FaceReference: "data:image/jpeg;base64,AAAA"},
	}
}

func sampleRecords() []models.DeliveryRecord {
	return []models.DeliveryRecord{
		{
			ID:           "r1",
			Company:      metadata.CompanyMatriz,
			EmployeeName: "Ana Souza",
			CPF:          "12345678909",
			Shift:        "A",
			Items:        []models.Item{{Code: "LUVA01", Name: "Luva de vaqueta", Certification: "12345"}},
			Date:         time.Date(2024, 3, 1, 10, 30, 0, 123000000, time.UTC),
			Signed:       true,
			Photo:        "data:image/jpeg;base64,AAAA",
		},
		{
			ID:           "r2",
			Company:      metadata.CompanyFilial,
			EmployeeName: "Visitante",
			Items: []models.Item{
				{Code: "CAPA01", Name: "Capacete"},
				{Code: "CAPA01", Name: "Capacete"},
			},
			Date:   time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC),
			Signed: true,
			Photo:  "data:image/jpeg;base64,BBBB",
		},
	}
}

func TestRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Catalog().ReplaceAll(ctx, sampleCatalog()))
	require.NoError(t, s.Collaborators().ReplaceAll(ctx, sampleCollaborators()))
	require.NoError(t, s.Records().ReplaceAll(ctx, sampleRecords()))

	catalog, err := s.Catalog().GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleCatalog(), catalog)

	collaborators, err := s.Collaborators().GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleCollaborators(), collaborators)

	records, err := s.Records().GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleRecords(), records)
}

func TestReplaceAllTouchesOnlyOneTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Catalog().ReplaceAll(ctx, sampleCatalog()))
	require.NoError(t, s.Collaborators().ReplaceAll(ctx, sampleCollaborators()))

	updated := sampleCatalog()[:1]
	updated[0].Stock = 3
	require.NoError(t, s.Catalog().ReplaceAll(ctx, updated))

	catalog, err := s.Catalog().GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, catalog)

	collaborators, err := s.Collaborators().GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleCollaborators(), collaborators)
}

func TestReplaceAllIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Catalog().ReplaceAll(ctx, sampleCatalog()))

	duplicated := []models.CatalogItem{
		{ID: "x1", Code: "DUP", Name: "A"},
		{ID: "x2", Code: "DUP", Name: "B"},
	}
	err := s.Catalog().ReplaceAll(ctx, duplicated)
	require.Error(t, err)
	assert.True(t, custom_error.IsUniqueViolation(err))

	catalog, err := s.Catalog().GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleCatalog(), catalog)
}

func TestCollaboratorCPFIsUnique(t *testing.T) {
	s := openTestStore(t)

	err := s.Collaborators().ReplaceAll(context.Background(), []models.Collaborator{
		{ID: "a", Name: "A", CPF: "11111111111", Company: metadata.CompanyMatriz},
		{ID: "b", Name: "B", CPF: "11111111111", Company: metadata.CompanyMatriz},
	})
	assert.True(t, custom_error.IsUniqueViolation(err))
}

func TestEmptyReplaceClearsTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Catalog().ReplaceAll(ctx, sampleCatalog()))
	require.NoError(t, s.Catalog().ReplaceAll(ctx, nil))

	catalog, err := s.Catalog().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, catalog)
}

func TestConfig(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cfg, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	require.NoError(t, s.SetConfig(ctx, models.Configuration{AutoBackup: true, EndpointURL: "https://example.org/hook"}))
	require.NoError(t, s.SetConfig(ctx, models.Configuration{AutoBackup: false, EndpointURL: "https://example.org/other"}))

	cfg, err = s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.Configuration{AutoBackup: false, EndpointURL: "https://example.org/other"}, cfg)
}

func TestReplaceSnapshotRollsBackEveryTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Catalog().ReplaceAll(ctx, sampleCatalog()))
	require.NoError(t, s.Collaborators().ReplaceAll(ctx, sampleCollaborators()))

	catalog := []models.CatalogItem{{ID: "n1", Code: "NEW", Name: "Novo"}}
	collaborators := []models.Collaborator{
		{ID: "a", Name: "A", CPF: "22222222222", Company: metadata.CompanyMatriz},
		{ID: "b", Name: "B", CPF: "22222222222", Company: metadata.CompanyMatriz},
	}
	err := s.ReplaceSnapshot(ctx, Snapshot{Catalog: &catalog, Collaborators: &collaborators})
	require.Error(t, err)

	current, err := s.Catalog().GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleCatalog(), current)
}

func TestExportAndRestore(t *testing.T) {
	source := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, source.Catalog().ReplaceAll(ctx, sampleCatalog()))
	require.NoError(t, source.Collaborators().ReplaceAll(ctx, sampleCollaborators()))
	require.NoError(t, source.Records().ReplaceAll(ctx, sampleRecords()))
	require.NoError(t, source.SetConfig(ctx, models.Configuration{AutoBackup: true}))

	backup, err := source.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, backup.Records, 2)
	assert.Len(t, backup.Catalog, 3)
	assert.Len(t, backup.Collaborators, 3)
	require.NotNil(t, backup.Configuration)

	target := openTestStore(t)
	require.NoError(t, target.Restore(ctx, backup))

	records, err := target.Records().GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleRecords(), records)

	cfg, err := target.GetConfig(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.AutoBackup)
}

// holdUpdate starts an Update on the catalog that stops after reading the
// rows. It decrements the first entry once released.
func holdUpdate(t *testing.T, s *Store) (release chan struct{}, done chan error) {
	t.Helper()
	entered := make(chan struct{})
	release = make(chan struct{})
	done = make(chan error, 1)

	go func() {
		done <- s.Catalog().Update(context.Background(), func(rows []models.CatalogItem) ([]models.CatalogItem, error) {
			close(entered)
			<-release
			rows[0].Stock--
			return rows, nil
		})
	}()
	<-entered
	return release, done
}

func TestSnapshotWaitsForPendingUpdate(t *testing.T) {
	remote := []models.CatalogItem{
		{ID: "x1", Code: "BOTA01", Name: "Bota", Stock: 7},
		{ID: "x2", Code: "AVEN01", Name: "Avental", Stock: 2},
	}

	tests := []struct {
		name  string
		write func(ctx context.Context, s *Store) error
	}{
		{
			name: "pull",
			write: func(ctx context.Context, s *Store) error {
				catalog := append([]models.CatalogItem(nil), remote...)
				return s.ReplaceSnapshot(ctx, Snapshot{Catalog: &catalog})
			},
		},
		{
			name: "restore",
			write: func(ctx context.Context, s *Store) error {
				return s.Restore(ctx, &models.Backup{Catalog: remote, Collaborators: sampleCollaborators()})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t)
			ctx := context.Background()
			require.NoError(t, s.Catalog().ReplaceAll(ctx, sampleCatalog()))

			release, updated := holdUpdate(t, s)

			written := make(chan error, 1)
			go func() { written <- tt.write(ctx, s) }()

			time.Sleep(50 * time.Millisecond)
			select {
			case <-written:
				t.Fatal("snapshot written while an update was pending")
			default:
			}

			close(release)
			require.NoError(t, <-updated)
			require.NoError(t, <-written)

			catalog, err := s.Catalog().GetAll(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, remote, catalog)
		})
	}
}

func TestConcurrentUpdatesKeepEveryChange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Records().ReplaceAll(ctx, sampleRecords()))

	entered := make(chan struct{})
	release := make(chan struct{})
	removed := make(chan error, 1)
	go func() {
		removed <- s.Records().Update(ctx, func(rows []models.DeliveryRecord) ([]models.DeliveryRecord, error) {
			close(entered)
			<-release
			return rows[:1], nil
		})
	}()
	<-entered

	added := make(chan error, 1)
	go func() {
		added <- s.Records().Update(ctx, func(rows []models.DeliveryRecord) ([]models.DeliveryRecord, error) {
			return append(rows, models.DeliveryRecord{
				ID:           "r9",
				Company:      metadata.CompanyMatriz,
				EmployeeName: "Ana Souza",
				Date:         time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
				Signed:       true,
			}), nil
		})
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	require.NoError(t, <-removed)
	require.NoError(t, <-added)

	records, err := s.Records().GetAll(ctx)
	require.NoError(t, err)
	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"r1", "r9"}, ids)
}

func TestUpdateUnchanged(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Catalog().ReplaceAll(ctx, sampleCatalog()))

	err := s.Catalog().Update(ctx, func(rows []models.CatalogItem) ([]models.CatalogItem, error) {
		return nil, ErrUnchanged
	})
	require.NoError(t, err)

	catalog, err := s.Catalog().GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleCatalog(), catalog)
}
