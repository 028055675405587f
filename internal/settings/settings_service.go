package settings

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

type ConfigStore interface {
	GetConfig(ctx context.Context) (*models.Configuration, error)
	SetConfig(ctx context.Context, cfg models.Configuration) error
}

// Listener is notified with the new configuration after every change.
type Listener func(cfg models.Configuration)

type SettingsService struct {
	mu        sync.RWMutex
	store     ConfigStore
	defaults  models.Configuration
	current   models.Configuration
	listeners []Listener
	log       *zap.Logger
}

func NewSettingsService(store ConfigStore, defaults models.Configuration, log *zap.Logger) *SettingsService {
	return &SettingsService{
		store:    store,
		defaults: defaults,
		current:  defaults,
		log:      log.Named("settings"),
	}
}

// Load merges the persisted configuration over the deployment defaults.
// An empty persisted endpoint keeps the deployment one.
func (s *SettingsService) Load(ctx context.Context) (models.Configuration, error) {
	persisted, err := s.store.GetConfig(ctx)
	if err != nil {
		return models.Configuration{}, err
	}

	s.mu.Lock()
	cfg := s.defaults
	if persisted != nil {
		cfg.AutoBackup = persisted.AutoBackup
		if persisted.EndpointURL != "" {
			cfg.EndpointURL = persisted.EndpointURL
		}
	}
	s.current = cfg
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.log.Debug("Settings loaded", zap.Bool("autoBackup", cfg.AutoBackup), zap.Bool("persisted", persisted != nil))
	notify(listeners, cfg)
	return cfg, nil
}

func (s *SettingsService) Current() models.Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *SettingsService) EndpointURL() string {
	return s.Current().EndpointURL
}

// Update applies a partial change, persists the result and notifies listeners.
func (s *SettingsService) Update(ctx context.Context, req PatchSettingsRequest) (models.Configuration, error) {
	s.mu.Lock()
	cfg := s.current
	if req.AutoBackup != nil {
		cfg.AutoBackup = *req.AutoBackup
	}
	if req.EndpointURL != nil {
		endpoint, err := validateEndpoint(*req.EndpointURL)
		if err != nil {
			s.mu.Unlock()
			return models.Configuration{}, err
		}
		cfg.EndpointURL = endpoint
	}

	if err := s.store.SetConfig(ctx, cfg); err != nil {
		s.mu.Unlock()
		return models.Configuration{}, fmt.Errorf("failed to persist settings: %w", err)
	}
	s.current = cfg
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.log.Info("Settings updated", zap.Bool("autoBackup", cfg.AutoBackup), zap.String("endpointUrl", cfg.EndpointURL))
	notify(listeners, cfg)
	return cfg, nil
}

// Subscribe registers l for later changes. It is not called with the current value.
func (s *SettingsService) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func notify(listeners []Listener, cfg models.Configuration) {
	for _, l := range listeners {
		l(cfg)
	}
}

func validateEndpoint(raw string) (string, error) {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return "", nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", custom_error.NewValidationError("endpointUrl", "must be an http or https URL")
	}
	return endpoint, nil
}
