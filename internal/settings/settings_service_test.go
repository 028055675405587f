package settings

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

type MockConfigStore struct {
	mock.Mock
}

func (m *MockConfigStore) GetConfig(ctx context.Context) (*models.Configuration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Configuration), args.Error(1)
}

func (m *MockConfigStore) SetConfig(ctx context.Context, cfg models.Configuration) error {
	return m.Called(ctx, cfg).Error(0)
}

var defaults = models.Configuration{AutoBackup: false, EndpointURL: "https://hooks.example.com/epi"}

func ptr[T any](v T) *T { return &v }

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		persisted *models.Configuration
		expected  models.Configuration
	}{
		{"never persisted", nil, defaults},
		{"persisted overrides", &models.Configuration{AutoBackup: true, EndpointURL: "http://localhost:9000/"}, models.Configuration{AutoBackup: true, EndpointURL: "http://localhost:9000/"}},
		{"empty endpoint keeps deployment value", &models.Configuration{AutoBackup: true}, models.Configuration{AutoBackup: true, EndpointURL: defaults.EndpointURL}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockConfigStore)
			store.On("GetConfig", mock.Anything).Return(tt.persisted, nil)
			svc := NewSettingsService(store, defaults, zap.NewNop())

			var notified []models.Configuration
			svc.Subscribe(func(cfg models.Configuration) { notified = append(notified, cfg) })

			cfg, err := svc.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
			assert.Equal(t, tt.expected, svc.Current())
			assert.Equal(t, []models.Configuration{tt.expected}, notified)
		})
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and notifies", func(t *testing.T) {
		store := new(MockConfigStore)
		store.On("SetConfig", mock.Anything, models.Configuration{AutoBackup: true, EndpointURL: defaults.EndpointURL}).Return(nil).Once()
		svc := NewSettingsService(store, defaults, zap.NewNop())

		var notified models.Configuration
		svc.Subscribe(func(cfg models.Configuration) { notified = cfg })

		cfg, err := svc.Update(ctx, PatchSettingsRequest{AutoBackup: ptr(true)})
		require.NoError(t, err)
		assert.True(t, cfg.AutoBackup)
		assert.Equal(t, cfg, notified)
		store.AssertExpectations(t)
	})

	t.Run("rejects non http endpoint", func(t *testing.T) {
		store := new(MockConfigStore)
		svc := NewSettingsService(store, defaults, zap.NewNop())

		for _, endpoint := range []string{"ftp://example.com", "example.com/hook", "http://"} {
			_, err := svc.Update(ctx, PatchSettingsRequest{EndpointURL: ptr(endpoint)})
			assert.True(t, custom_error.IsValidation(err), endpoint)
		}
		store.AssertNotCalled(t, "SetConfig", mock.Anything, mock.Anything)
		assert.Equal(t, defaults, svc.Current())
	})

	t.Run("empty endpoint disables push", func(t *testing.T) {
		store := new(MockConfigStore)
		store.On("SetConfig", mock.Anything, mock.Anything).Return(nil)
		svc := NewSettingsService(store, defaults, zap.NewNop())

		_, err := svc.Update(ctx, PatchSettingsRequest{EndpointURL: ptr("  ")})
		require.NoError(t, err)
		assert.Empty(t, svc.EndpointURL())
	})

	t.Run("store failure keeps current", func(t *testing.T) {
		store := new(MockConfigStore)
		store.On("SetConfig", mock.Anything, mock.Anything).Return(errors.New("readonly"))
		svc := NewSettingsService(store, defaults, zap.NewNop())

		_, err := svc.Update(ctx, PatchSettingsRequest{AutoBackup: ptr(true)})
		require.Error(t, err)
		assert.False(t, svc.Current().AutoBackup)
	})
}

func TestSettingsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"valid", `{"autoBackup":true,"endpointUrl":"https://example.com/hook"}`, http.StatusOK},
		{"invalid url", `{"endpointUrl":"nope"}`, http.StatusBadRequest},
		{"malformed", `{"autoBackup":"yes"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockConfigStore)
			store.On("SetConfig", mock.Anything, mock.Anything).Return(nil)
			router := gin.New()
			NewSettingsHandler(NewSettingsService(store, defaults, zap.NewNop())).RegisterRoutes(router.Group(""))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/settings", bytes.NewBufferString(tt.body)))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
