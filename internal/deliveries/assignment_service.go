package deliveries

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/capture"
	"github.com/edy93762/gesto-de-epi-sub000/internal/collaborators"
	"github.com/edy93762/gesto-de-epi-sub000/internal/documents"
	"github.com/edy93762/gesto-de-epi-sub000/internal/inventory/catalog"
	"github.com/edy93762/gesto-de-epi-sub000/internal/metrics"
	"github.com/edy93762/gesto-de-epi-sub000/internal/store"
	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

type Catalog interface {
	Get(ctx context.Context, id string) (*models.CatalogItem, error)
	ConsumeStock(ctx context.Context, delivered []models.Item) ([]models.CatalogItem, error)
}

type Collaborators interface {
	Get(ctx context.Context, id string) (*models.Collaborator, error)
	FindByName(ctx context.Context, name string) (*models.Collaborator, error)
	QuickRegister(ctx context.Context, req collaborators.QuickRegistration) (*models.Collaborator, error)
	TouchActivity(ctx context.Context, id string, at time.Time) error
}

type Renderer interface {
	RenderDeliverySlip(rec models.DeliveryRecord) (*documents.Document, error)
	RenderCollaboratorHistory(collaborator models.Collaborator, records []models.DeliveryRecord) (*documents.Document, error)
}

type Pusher interface {
	Enabled() bool
	PushDelivery(ctx context.Context, rec models.DeliveryRecord, pdf, fileName string) bool
}

// PhotoSource hands over the still of a confirmed capture session.
type PhotoSource interface {
	Confirm(ctx context.Context, sessionID string) (capture.Still, error)
}

type Result struct {
	Record   models.DeliveryRecord `json:"record"`
	Document *documents.Document   `json:"-"`
	Pushed   bool                  `json:"pushed"`
	Warnings []string              `json:"warnings,omitempty"`
}

type AssignmentService struct {
	mu            sync.Mutex
	draft         Draft
	records       store.Collection[models.DeliveryRecord]
	catalog       Catalog
	collaborators Collaborators
	renderer      Renderer
	pusher        Pusher
	photos        PhotoSource
	metrics       *metrics.Metrics
	log           *zap.Logger
	now           func() time.Time
}

type AssignmentDeps struct {
	Records       store.Collection[models.DeliveryRecord]
	Catalog       Catalog
	Collaborators Collaborators
	Renderer      Renderer
	Pusher        Pusher
	Photos        PhotoSource
	Metrics       *metrics.Metrics
}

func NewAssignmentService(deps AssignmentDeps, log *zap.Logger) *AssignmentService {
	return &AssignmentService{
		draft:         newDraft(),
		records:       deps.Records,
		catalog:       deps.Catalog,
		collaborators: deps.Collaborators,
		renderer:      deps.Renderer,
		pusher:        deps.Pusher,
		photos:        deps.Photos,
		metrics:       deps.Metrics,
		log:           log.Named("assignment"),
		now:           time.Now,
	}
}

func (s *AssignmentService) Current(ctx context.Context) (*DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(ctx)
}

// SelectCollaborator fills the draft from a registered collaborator.
func (s *AssignmentService) SelectCollaborator(ctx context.Context, id string) (*DraftView, error) {
	collaborator, err := s.collaborators.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.link(*collaborator)
	return s.view(ctx)
}

// SetEmployee identifies the employee by free text. A name matching a
// registered collaborator links the draft to it.
func (s *AssignmentService) SetEmployee(ctx context.Context, req EmployeeRequest) (*DraftView, error) {
	name := strings.Join(strings.Fields(req.Name), " ")
	if name == "" {
		return nil, custom_error.NewValidationError("name", "name is required")
	}
	company := metadata.DefaultCompany
	if req.Company != "" {
		c, err := metadata.NewCompany(req.Company)
		if err != nil {
			return nil, custom_error.NewValidationError("company", err.Error())
		}
		company = c
	}
	cpf, err := metadata.NewCPF(req.CPF)
	if err != nil {
		return nil, custom_error.NewValidationError("cpf", err.Error())
	}

	known, err := s.collaborators.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if known != nil {
		s.link(*known)
		return s.view(ctx)
	}

	s.draft.CollaboratorID = ""
	s.draft.EmployeeName = name
	s.draft.CPF = cpf
	s.draft.AdmissionDate = strings.TrimSpace(req.AdmissionDate)
	s.draft.Shift = strings.TrimSpace(req.Shift)
	s.draft.Company = company
	return s.view(ctx)
}

// AddItem appends one unit of a catalog entry. Entries without stock left
// after the units already in the draft are rejected.
func (s *AssignmentService) AddItem(ctx context.Context, catalogID string) (*DraftView, error) {
	item, err := s.catalog.Get(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if catalog.Available(*item, s.draft.Items) <= 0 {
		return nil, custom_error.NewValidationError("items", fmt.Sprintf("%s (%s) is out of stock", item.Name, item.Code))
	}
	s.draft.Items = append(s.draft.Items, item.Snapshot())
	return s.view(ctx)
}

func (s *AssignmentService) RemoveItem(ctx context.Context, index int) (*DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.draft.Items) {
		return nil, custom_error.NewValidationError("index", fmt.Sprintf("no item at position %d", index))
	}
	s.draft.Items = append(s.draft.Items[:index], s.draft.Items[index+1:]...)
	return s.view(ctx)
}

// AttachCapture confirms a capture session and keeps its still as the photo.
func (s *AssignmentService) AttachCapture(ctx context.Context, sessionID string) (*DraftView, error) {
	if s.photos == nil {
		return nil, custom_error.NewValidationError("sessionId", "camera capture is disabled")
	}
	still, err := s.photos.Confirm(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	photo, err := still.DataURL()
	if err != nil {
		return nil, fmt.Errorf("failed to encode photo: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Photo = photo
	return s.view(ctx)
}

// AttachPhoto accepts an already encoded photo. It is only allowed when the
// capture pipeline is disabled.
func (s *AssignmentService) AttachPhoto(ctx context.Context, photo string) (*DraftView, error) {
	if s.photos != nil {
		return nil, custom_error.NewValidationError("photo", "photos must come from a capture session")
	}
	if !strings.HasPrefix(photo, "data:image/") {
		return nil, custom_error.NewValidationError("photo", "photo must be an image data URL")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Photo = photo
	return s.view(ctx)
}

// QuickRegister registers the typed name as a new collaborator with the
// captured photo as face reference.
func (s *AssignmentService) QuickRegister(ctx context.Context) (*DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.CollaboratorID != "" {
		return nil, custom_error.NewValidationError("collaborator", "collaborator already registered")
	}
	if s.draft.EmployeeName == "" || s.draft.Photo == "" {
		return nil, custom_error.NewValidationError("collaborator", "quick registration needs a name and a captured photo")
	}

	collaborator, err := s.collaborators.QuickRegister(ctx, collaborators.QuickRegistration{
		Name:          s.draft.EmployeeName,
		Photo:         s.draft.Photo,
		Company:       s.draft.Company.String(),
		CPF:           s.draft.CPF,
		Shift:         s.draft.Shift,
		AdmissionDate: s.draft.AdmissionDate,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Collaborator quick-registered", zap.String("id", collaborator.ID))
	s.link(*collaborator)
	return s.view(ctx)
}

func (s *AssignmentService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = newDraft()
}

// Submit turns the draft into a delivery record. Steps run in order: persist
// the record, decrement stock, touch the collaborator, render the slip, reset
// the draft and push. Only a failure to persist aborts; later failures are
// returned as warnings. The push runs after the draft is released.
func (s *AssignmentService) Submit(ctx context.Context) (*Result, error) {
	result, err := s.commit(ctx)
	if err != nil {
		return nil, err
	}

	if s.pusher != nil && s.pusher.Enabled() {
		var pdf, fileName string
		if result.Document != nil {
			pdf, fileName = result.Document.Encoded(), result.Document.Filename
		}
		result.Pushed = s.pusher.PushDelivery(ctx, result.Record, pdf, fileName)
	}

	return result, nil
}

func (s *AssignmentService) commit(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.draft.validate(); err != nil {
		return nil, err
	}

	rec := s.draft.record(uuid.NewString(), s.now().UTC())
	if err := s.persist(ctx, rec); err != nil {
		return nil, err
	}
	s.metrics.ObserveDelivery(len(rec.Items))
	s.log.Info("Delivery recorded",
		zap.String("id", rec.ID),
		zap.String("employee", rec.EmployeeName),
		zap.Int("items", len(rec.Items)),
	)

	result := &Result{Record: rec}

	if _, err := s.catalog.ConsumeStock(ctx, rec.Items); err != nil {
		s.log.Warn("Stock not decremented", zap.String("record", rec.ID), zap.Error(err))
		result.Warnings = append(result.Warnings, "stock not updated: "+err.Error())
	}

	if s.draft.CollaboratorID != "" {
		if err := s.collaborators.TouchActivity(ctx, s.draft.CollaboratorID, rec.Date); err != nil {
			s.log.Warn("Last activity not updated", zap.String("collaborator", s.draft.CollaboratorID), zap.Error(err))
			result.Warnings = append(result.Warnings, "last activity not updated: "+err.Error())
		}
	}

	doc, err := s.renderer.RenderDeliverySlip(rec)
	if err != nil {
		s.log.Warn("Delivery slip not rendered", zap.String("record", rec.ID), zap.Error(err))
		result.Warnings = append(result.Warnings, "delivery slip not rendered: "+err.Error())
	}
	result.Document = doc

	s.draft = newDraft()
	return result, nil
}

func (s *AssignmentService) persist(ctx context.Context, rec models.DeliveryRecord) error {
	err := s.records.Update(ctx, func(records []models.DeliveryRecord) ([]models.DeliveryRecord, error) {
		return append(records, rec), nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist record: %w", err)
	}
	return nil
}

func (s *AssignmentService) link(c models.Collaborator) {
	s.draft.CollaboratorID = c.ID
	s.draft.EmployeeName = c.Name
	s.draft.CPF = c.CPF
	s.draft.AdmissionDate = c.AdmissionDate
	s.draft.Shift = c.Shift
	s.draft.Company = metadata.CompanyOrDefault(c.Company.String())
}

// view must be called with mu held.
func (s *AssignmentService) view(ctx context.Context) (*DraftView, error) {
	v := &DraftView{Draft: s.draft}
	v.Items = append([]models.Item{}, s.draft.Items...)

	if s.draft.EmployeeName == "" {
		return v, nil
	}

	last, err := lastDelivery(ctx, s.records, s.draft.EmployeeName)
	if err != nil {
		return nil, err
	}
	v.LastDelivery = last
	v.CanQuickRegister = s.draft.CollaboratorID == "" && s.draft.Photo != ""
	return v, nil
}
