// Package remotesync relays local changes to the remote endpoint and merges
// its collaborator and catalog lists back.
package remotesync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/metrics"
	"github.com/edy93762/gesto-de-epi-sub000/internal/store"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

var ErrNotConfigured = errors.New("remote endpoint not configured")

type Transport interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, env Envelope) error
	Fetch(ctx context.Context) (*PullResponse, error)
}

type Snapshotter interface {
	ReplaceSnapshot(ctx context.Context, snap store.Snapshot) error
}

type PullResult struct {
	CollaboratorsReplaced bool `json:"collaboratorsReplaced"`
	CatalogReplaced       bool `json:"catalogReplaced"`
	Collaborators         int  `json:"collaborators"`
	Catalog               int  `json:"catalog"`
}

type Service struct {
	transport Transport
	store     Snapshotter
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewService(transport Transport, s Snapshotter, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		transport: transport,
		store:     s,
		metrics:   m,
		log:       log.Named("remotesync"),
	}
}

func (s *Service) Enabled() bool {
	return s.transport != nil && s.transport.Configured()
}

// Push sends env once. Failures are logged and reported as false, never retried.
func (s *Service) Push(ctx context.Context, env Envelope) bool {
	kind := env.Kind().Label()
	if !s.Enabled() {
		s.log.Debug("Push skipped, remote endpoint not configured", zap.String("kind", kind))
		return false
	}

	if err := env.Validate(); err != nil {
		s.log.Warn("Push rejected", zap.String("kind", kind), zap.Error(err))
		s.metrics.ObservePush(kind, false)
		return false
	}

	if err := s.transport.Send(ctx, env); err != nil {
		s.log.Warn("Push failed",
			zap.String("kind", kind),
			zap.String("transport", s.transport.Name()),
			zap.Error(err),
		)
		s.metrics.ObservePush(kind, false)
		return false
	}

	s.metrics.ObservePush(kind, true)
	s.log.Debug("Push sent", zap.String("kind", kind), zap.String("transport", s.transport.Name()))
	return true
}

func (s *Service) PushDelivery(ctx context.Context, rec models.DeliveryRecord, pdf, fileName string) bool {
	return s.Push(ctx, NewDeliveryPush(rec, pdf, fileName))
}

func (s *Service) PushCatalogItem(ctx context.Context, item models.CatalogItem) bool {
	return s.Push(ctx, NewCatalogPush(item))
}

func (s *Service) PushCollaborator(ctx context.Context, c models.Collaborator) bool {
	return s.Push(ctx, NewCollaboratorPush(c))
}

// Pull fetches the remote lists and replaces each local list for which the
// remote one is non-empty. Both replacements share one transaction.
func (s *Service) Pull(ctx context.Context) (*PullResult, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}

	result, err := s.pull(ctx)
	s.metrics.ObservePull(err == nil)
	if err != nil {
		s.log.Error("Pull failed", zap.String("transport", s.transport.Name()), zap.Error(err))
		return nil, err
	}

	s.log.Info("Pull merged",
		zap.Bool("collaborators_replaced", result.CollaboratorsReplaced),
		zap.Bool("catalog_replaced", result.CatalogReplaced),
		zap.Int("collaborators", result.Collaborators),
		zap.Int("catalog", result.Catalog),
	)
	return result, nil
}

func (s *Service) pull(ctx context.Context) (*PullResult, error) {
	resp, err := s.transport.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote data: %w", err)
	}

	collaborators, catalog, err := resp.Normalize()
	if err != nil {
		return nil, fmt.Errorf("remote data rejected: %w", err)
	}

	var snap store.Snapshot
	result := &PullResult{}
	if len(collaborators) > 0 {
		snap.Collaborators = &collaborators
		result.CollaboratorsReplaced = true
		result.Collaborators = len(collaborators)
	}
	if len(catalog) > 0 {
		snap.Catalog = &catalog
		result.CatalogReplaced = true
		result.Catalog = len(catalog)
	}

	if snap.IsEmpty() {
		return result, nil
	}
	if err := s.store.ReplaceSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to apply remote data: %w", err)
	}
	return result, nil
}
