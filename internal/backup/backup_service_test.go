package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Export(ctx context.Context) (*models.Backup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Backup), args.Error(1)
}

func (m *MockStore) Restore(ctx context.Context, backup *models.Backup) error {
	return m.Called(ctx, backup).Error(0)
}

func sample() *models.Backup {
	return &models.Backup{
		ExportedAt: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		Records:    []models.DeliveryRecord{{ID: "r1", EmployeeName: "Ana"}},
		Catalog:    []models.CatalogItem{{ID: "c1", Code: "LUVA01", Name: "Luva", Stock: 3}},
	}
}

func newService(t *testing.T, store Store, retention int) *BackupService {
	t.Helper()
	svc, err := NewBackupService(store, Options{Dir: t.TempDir(), Interval: time.Hour, Retention: retention}, nil, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown() })
	return svc
}

func TestRunOnceWritesAndPrunes(t *testing.T) {
	store := new(MockStore)
	store.On("Export", mock.Anything).Return(sample(), nil)
	svc := newService(t, store, 2)

	clock := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	var paths []string
	for range 3 {
		path, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
		paths = append(paths, path)
	}

	files, err := svc.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Base(paths[1]), filepath.Base(paths[2])}, files)
	assert.Equal(t, "backup-20240601-080300.json", files[1])

	content, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	var decoded models.Backup
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, sample().Catalog, decoded.Catalog)
}

func TestRunOnceExportFailure(t *testing.T) {
	store := new(MockStore)
	store.On("Export", mock.Anything).Return(nil, errors.New("locked"))
	svc := newService(t, store, 3)

	_, err := svc.RunOnce(context.Background())
	require.Error(t, err)

	files, err := svc.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestApplyTogglesSchedule(t *testing.T) {
	svc := newService(t, new(MockStore), 3)

	svc.Apply(models.Configuration{AutoBackup: true})
	assert.True(t, svc.Scheduled())
	assert.Len(t, svc.scheduler.Jobs(), 1)

	svc.Apply(models.Configuration{AutoBackup: true})
	assert.Len(t, svc.scheduler.Jobs(), 1)

	svc.Apply(models.Configuration{AutoBackup: false})
	assert.False(t, svc.Scheduled())
	assert.Empty(t, svc.scheduler.Jobs())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("runs hooks after restoring", func(t *testing.T) {
		store := new(MockStore)
		backup := sample()
		store.On("Restore", mock.Anything, backup).Return(nil).Once()
		svc := newService(t, store, 3)

		reloaded := false
		svc.OnRestore(func(context.Context) error {
			reloaded = true
			return nil
		})

		require.NoError(t, svc.Restore(ctx, backup))
		assert.True(t, reloaded)
		store.AssertExpectations(t)
	})

	t.Run("rejects documents that are not backups", func(t *testing.T) {
		store := new(MockStore)
		svc := newService(t, store, 3)

		err := svc.Restore(ctx, &models.Backup{})
		assert.True(t, custom_error.IsValidation(err))
		store.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything)
	})

	t.Run("store failure skips hooks", func(t *testing.T) {
		store := new(MockStore)
		store.On("Restore", mock.Anything, mock.Anything).Return(errors.New("constraint"))
		svc := newService(t, store, 3)

		reloaded := false
		svc.OnRestore(func(context.Context) error {
			reloaded = true
			return nil
		})

		require.Error(t, svc.Restore(ctx, sample()))
		assert.False(t, reloaded)
	})
}

func TestBackupHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := new(MockStore)
	store.On("Export", mock.Anything).Return(sample(), nil)
	store.On("Restore", mock.Anything, mock.Anything).Return(nil)
	svc := newService(t, store, 3)

	router := gin.New()
	NewBackupHandler(svc).RegisterRoutes(router.Group(""))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/backup", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "backup-20240601-080000.json")
	exported := w.Body.Bytes()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/backup/restore", bytes.NewReader(exported)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/backup/restore", bytes.NewBufferString(`{"records":[]}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/backup/run", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/backup/files", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "backup-")
}
