package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/metrics"
	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

const (
	filePrefix  = "backup-"
	fileSuffix  = ".json"
	stampFormat = "20060102-150405"
	runTimeout  = time.Minute
)

type Store interface {
	Export(ctx context.Context) (*models.Backup, error)
	Restore(ctx context.Context, backup *models.Backup) error
}

type Options struct {
	Dir       string
	Interval  time.Duration
	Retention int
}

// BackupService exports and restores the local store and, while auto-backup
// is on, writes a backup file every interval.
type BackupService struct {
	mu        sync.Mutex
	store     Store
	opts      Options
	scheduler gocron.Scheduler
	job       gocron.Job
	restored  []func(ctx context.Context) error
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewBackupService(store Store, opts Options, m *metrics.Metrics, log *zap.Logger) (*BackupService, error) {
	if opts.Interval <= 0 {
		return nil, errors.New("backup interval must be positive")
	}
	if opts.Retention < 1 {
		opts.Retention = 1
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create backup scheduler: %w", err)
	}
	scheduler.Start()

	return &BackupService{
		store:     store,
		opts:      opts,
		scheduler: scheduler,
		metrics:   m,
		log:       log.Named("backup"),
		now:       time.Now,
	}, nil
}

// OnRestore registers fn to run after a successful restore.
func (s *BackupService) OnRestore(fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restored = append(s.restored, fn)
}

// Apply schedules or cancels the periodic backup to follow cfg.AutoBackup.
func (s *BackupService) Apply(cfg models.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case cfg.AutoBackup && s.job == nil:
		job, err := s.scheduler.NewJob(
			gocron.DurationJob(s.opts.Interval),
			gocron.NewTask(s.scheduled),
			gocron.WithName("auto-backup"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.log.Error("Failed to schedule auto-backup", zap.Error(err))
			return
		}
		s.job = job
		s.log.Info("Auto-backup enabled", zap.Duration("interval", s.opts.Interval), zap.String("dir", s.opts.Dir))
	case !cfg.AutoBackup && s.job != nil:
		if err := s.scheduler.RemoveJob(s.job.ID()); err != nil {
			s.log.Warn("Failed to remove auto-backup job", zap.Error(err))
		}
		s.job = nil
		s.log.Info("Auto-backup disabled")
	}
}

func (s *BackupService) Scheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}

func (s *BackupService) scheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("Auto-backup failed", zap.Error(err))
	}
}

func (s *BackupService) Export(ctx context.Context) (*models.Backup, error) {
	return s.store.Export(ctx)
}

// Restore replaces the whole store with backup.
func (s *BackupService) Restore(ctx context.Context, backup *models.Backup) error {
	if backup == nil || backup.ExportedAt.IsZero() {
		return custom_error.NewValidationError("exportedAt", "not a backup document")
	}
	if err := s.store.Restore(ctx, backup); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	s.log.Info("Backup restored",
		zap.Time("exportedAt", backup.ExportedAt),
		zap.Int("records", len(backup.Records)),
		zap.Int("catalog", len(backup.Catalog)),
		zap.Int("collaborators", len(backup.Collaborators)),
	)

	s.mu.Lock()
	hooks := append([]func(context.Context) error(nil), s.restored...)
	s.mu.Unlock()
	for _, fn := range hooks {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunOnce writes a backup file and prunes the oldest beyond the retention.
func (s *BackupService) RunOnce(ctx context.Context) (path string, err error) {
	defer func() { s.metrics.ObserveBackup(err == nil) }()

	backup, err := s.store.Export(ctx)
	if err != nil {
		return "", err
	}
	content, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	if err := os.MkdirAll(s.opts.Dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}
	path = filepath.Join(s.opts.Dir, filePrefix+s.now().UTC().Format(stampFormat)+fileSuffix)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	s.log.Info("Backup written", zap.String("path", path), zap.Int("bytes", len(content)))
	s.prune()
	return path, nil
}

func (s *BackupService) prune() {
	files, err := s.Files()
	if err != nil {
		s.log.Warn("Failed to list backups", zap.Error(err))
		return
	}
	for len(files) > s.opts.Retention {
		if err := os.Remove(filepath.Join(s.opts.Dir, files[0])); err != nil {
			s.log.Warn("Failed to prune backup", zap.String("file", files[0]), zap.Error(err))
		}
		files = files[1:]
	}
}

// Files lists backup files oldest first.
func (s *BackupService) Files() ([]string, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (s *BackupService) Shutdown() error {
	return s.scheduler.Shutdown()
}
