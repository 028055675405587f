package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/backup"
	"github.com/edy93762/gesto-de-epi-sub000/internal/capture"
	"github.com/edy93762/gesto-de-epi-sub000/internal/collaborators"
	"github.com/edy93762/gesto-de-epi-sub000/internal/core/config"
	"github.com/edy93762/gesto-de-epi-sub000/internal/deliveries"
	"github.com/edy93762/gesto-de-epi-sub000/internal/documents"
	"github.com/edy93762/gesto-de-epi-sub000/internal/integrations/googlesheets"
	"github.com/edy93762/gesto-de-epi-sub000/internal/integrations/webhook"
	"github.com/edy93762/gesto-de-epi-sub000/internal/inventory/catalog"
	"github.com/edy93762/gesto-de-epi-sub000/internal/metrics"
	"github.com/edy93762/gesto-de-epi-sub000/internal/middleware"
	"github.com/edy93762/gesto-de-epi-sub000/internal/rate_limiter"
	"github.com/edy93762/gesto-de-epi-sub000/internal/remotesync"
	"github.com/edy93762/gesto-de-epi-sub000/internal/settings"
	"github.com/edy93762/gesto-de-epi-sub000/internal/store"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/security"
)

const (
	pushTimeout   = 15 * time.Second
	loginAttempts = 10
	loginWindow   = 5 * time.Minute
)

// Container is the application context: every long-lived component is
// built here once and handed to its consumers.
type Container struct {
	Config  *config.Config
	Log     *zap.Logger
	Store   *store.Store
	Metrics *metrics.Metrics
	Health  *middleware.Health

	Authenticator *security.Authenticator
	RateLimiter   *rate_limiter.RateLimiter
	Settings      *settings.SettingsService
	Sync          *remotesync.Service
	Backup        *backup.BackupService
	Capture       *capture.Manager

	LoginHandler        *security.LoginHandler
	CatalogHandler      *catalog.CatalogHandler
	CollaboratorHandler *collaborators.CollaboratorHandler
	AssignmentHandler   *deliveries.AssignmentHandler
	DeliveryHandler     *deliveries.DeliveryHandler
	CaptureHandler      *capture.CaptureHandler
	SyncHandler         *remotesync.SyncHandler
	SettingsHandler     *settings.SettingsHandler
	BackupHandler       *backup.BackupHandler

	closers []func() error
}

// NewStore opens the local store alone, for commands that need no API.
func NewStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store.Store, error) {
	return store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, log)
}

func NewAppContainer(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *Container, err error) {
	c := &Container{Config: cfg, Log: log, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = c.Close(context.Background())
		}
	}()

	loc, err := time.LoadLocation(cfg.Documents.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid documents.timezone: %w", err)
	}

	if c.Store, err = NewStore(ctx, cfg, log); err != nil {
		return nil, err
	}
	c.closers = append(c.closers, c.Store.Close)
	c.Health = middleware.NewHealth(c.Store, cfg.Server.Version)

	c.Authenticator, err = security.NewAuthenticator(security.Credentials{
		Username:     cfg.Auth.Username,
		Password:     cfg.Auth.Password,
		PasswordHash: cfg.Auth.PasswordHash,
		JWTSecret:    cfg.Auth.JWTSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	c.RateLimiter = rate_limiter.NewRateLimiter(loginAttempts, loginWindow)
	c.closers = append(c.closers, func() error {
		c.RateLimiter.Stop()
		return nil
	})

	c.Settings = settings.NewSettingsService(c.Store, models.Configuration{
		AutoBackup:  cfg.Backup.AutoBackup,
		EndpointURL: cfg.Sync.EndpointURL,
	}, log)

	transport, err := newTransport(ctx, cfg, c.Settings, log)
	if err != nil {
		return nil, err
	}
	c.Sync = remotesync.NewService(transport, c.Store, c.Metrics, log)

	c.Backup, err = backup.NewBackupService(c.Store, backup.Options{
		Dir:       cfg.Backup.Dir,
		Interval:  cfg.Backup.Interval,
		Retention: cfg.Backup.Retention,
	}, c.Metrics, log)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, c.Backup.Shutdown)
	c.Settings.Subscribe(c.Backup.Apply)
	c.Backup.OnRestore(func(ctx context.Context) error {
		_, err := c.Settings.Load(ctx)
		return err
	})
	if _, err = c.Settings.Load(ctx); err != nil {
		return nil, err
	}

	generator := documents.NewGenerator(loc)
	catalogService := catalog.NewCatalogService(c.Store.Catalog(), c.Sync, log)
	collaboratorService := collaborators.NewCollaboratorService(c.Store.Collaborators(), c.Sync, log)

	deps := deliveries.AssignmentDeps{
		Records:       c.Store.Records(),
		Catalog:       catalogService,
		Collaborators: collaboratorService,
		Renderer:      generator,
		Pusher:        c.Sync,
		Metrics:       c.Metrics,
	}

	if cfg.Capture.Enabled {
		detector, err := capture.NewVisionDetector(ctx, cfg.Capture.VisionCredentialsFile, cfg.Capture.MinConfidence, cfg.Capture.AnalysisWidth)
		if err != nil {
			return nil, fmt.Errorf("face detector: %w", err)
		}
		c.closers = append(c.closers, detector.Close)

		feeds := capture.NewFrameCamera()
		c.Capture = capture.NewManager(feeds, detector, capture.Options{
			PreferredWidth:  cfg.Capture.PreferredWidth,
			PreferredHeight: cfg.Capture.PreferredHeight,
		}, log, c.Metrics)
		c.CaptureHandler = capture.NewCaptureHandler(c.Capture, feeds)
		deps.Photos = c.Capture
	}

	c.LoginHandler = security.NewLoginHandler(c.Authenticator, c.RateLimiter, log)
	c.CatalogHandler = catalog.NewCatalogHandler(catalogService)
	c.CollaboratorHandler = collaborators.NewCollaboratorHandler(collaboratorService)
	c.AssignmentHandler = deliveries.NewAssignmentHandler(deliveries.NewAssignmentService(deps, log))
	c.DeliveryHandler = deliveries.NewDeliveryHandler(deliveries.NewDeliveryService(c.Store.Records(), collaboratorService, generator, log))
	c.SyncHandler = remotesync.NewSyncHandler(c.Sync)
	c.SettingsHandler = settings.NewSettingsHandler(c.Settings)
	c.BackupHandler = backup.NewBackupHandler(c.Backup)

	log.Info("Application container ready",
		zap.String("database", cfg.Database.Driver),
		zap.String("transport", transport.Name()),
		zap.Bool("pushEnabled", c.Sync.Enabled()),
		zap.Bool("capture", cfg.Capture.Enabled),
	)
	return c, nil
}

// NewSync builds the remote sync bridge over an already opened store.
func NewSync(ctx context.Context, cfg *config.Config, s *store.Store, log *zap.Logger) (*remotesync.Service, error) {
	st := settings.NewSettingsService(s, models.Configuration{
		AutoBackup:  cfg.Backup.AutoBackup,
		EndpointURL: cfg.Sync.EndpointURL,
	}, log)
	if _, err := st.Load(ctx); err != nil {
		return nil, err
	}
	transport, err := newTransport(ctx, cfg, st, log)
	if err != nil {
		return nil, err
	}
	return remotesync.NewService(transport, s, nil, log), nil
}

func newTransport(ctx context.Context, cfg *config.Config, st *settings.SettingsService, log *zap.Logger) (remotesync.Transport, error) {
	switch cfg.Sync.Transport {
	case "sheets":
		srv, err := googlesheets.NewSheetsService(ctx, cfg.Sync.CredentialsJSON, cfg.Sync.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("google sheets: %w", err)
		}
		return googlesheets.NewClient(srv, cfg.Sync.SpreadsheetID, log), nil
	default:
		return webhook.NewClient(st.EndpointURL, &http.Client{Timeout: pushTimeout}, log), nil
	}
}

// Close shuts down the capture sessions and then every resource in reverse
// order of creation.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Capture != nil {
		errs = append(errs, c.Capture.Shutdown(ctx))
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}
