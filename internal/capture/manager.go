package capture

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edy93762/gesto-de-epi-sub000/internal/metrics"
)

type Options struct {
	PreferredWidth  int
	PreferredHeight int
}

// Manager owns the camera: at most one session is open at a time.
type Manager struct {
	mu       sync.Mutex
	camera   Camera
	detector Detector
	options  Options
	sessions map[string]*Session
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewManager(camera Camera, detector Detector, options Options, log *zap.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		camera:   camera,
		detector: detector,
		options:  options,
		sessions: make(map[string]*Session),
		log:      log.Named("capture"),
		metrics:  m,
	}
}

func (m *Manager) Camera() Camera {
	return m.camera
}

// Start opens a new session on deviceID, or on the first device when empty.
func (m *Manager) Start(ctx context.Context, deviceID string) (*Session, Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.Closed() {
			delete(m.sessions, id)
			continue
		}
		return nil, Status{}, ErrCameraBusy
	}

	preferred := Constraints{Width: m.options.PreferredWidth, Height: m.options.PreferredHeight}
	s := newSession(m.camera, m.detector, preferred, m.log, m.metrics)
	status, err := s.Open(ctx, deviceID)
	if err != nil {
		_ = s.Close(context.Background())
		return nil, Status{}, err
	}

	m.sessions[s.ID()] = s
	return s, status, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Confirm takes the still of a captured session and closes it.
func (m *Manager) Confirm(ctx context.Context, id string) (Still, error) {
	s, err := m.Get(id)
	if err != nil {
		return Still{}, err
	}
	still, err := s.Confirm(ctx)
	if err != nil {
		return Still{}, err
	}
	m.forget(id)
	return still, nil
}

func (m *Manager) Close(ctx context.Context, id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.Close(ctx); err != nil {
		return err
	}
	m.forget(id)
	return nil
}

// Shutdown closes every session and releases the camera.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range sessions {
		g.Go(func() error {
			return s.Close(ctx)
		})
	}
	return g.Wait()
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
