package deliveries

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/documents"
	"github.com/edy93762/gesto-de-epi-sub000/internal/store"
	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

// DeliveryService answers questions about past deliveries.
type DeliveryService struct {
	records       store.Collection[models.DeliveryRecord]
	collaborators Collaborators
	renderer      Renderer
	log           *zap.Logger
}

func NewDeliveryService(records store.Collection[models.DeliveryRecord], collaborators Collaborators, renderer Renderer, log *zap.Logger) *DeliveryService {
	return &DeliveryService{
		records:       records,
		collaborators: collaborators,
		renderer:      renderer,
		log:           log.Named("deliveries"),
	}
}

// List returns records newest first, optionally only those of one employee.
func (s *DeliveryService) List(ctx context.Context, employee string) ([]models.DeliveryRecord, error) {
	records, err := s.records.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.DeliveryRecord, 0, len(records))
	for _, r := range records {
		if employee == "" || sameName(r.EmployeeName, employee) {
			result = append(result, r)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (s *DeliveryService) Get(ctx context.Context, id string) (*models.DeliveryRecord, error) {
	records, err := s.records.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, custom_error.NewNotFoundError("delivery", id)
}

// LastDelivery returns the date of the most recent delivery to employee, or
// nil when there is none.
func (s *DeliveryService) LastDelivery(ctx context.Context, employee string) (*time.Time, error) {
	if strings.TrimSpace(employee) == "" {
		return nil, custom_error.NewValidationError("employee", "employee is required")
	}
	return lastDelivery(ctx, s.records, employee)
}

// Slip renders the delivery slip of a stored record again.
func (s *DeliveryService) Slip(ctx context.Context, id string) (*documents.Document, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderDeliverySlip(*rec)
}

// CollaboratorHistory renders every delivery recorded under the
// collaborator's name.
func (s *DeliveryService) CollaboratorHistory(ctx context.Context, collaboratorID string) (*documents.Document, error) {
	collaborator, err := s.collaborators.Get(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}
	records, err := s.List(ctx, collaborator.Name)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderCollaboratorHistory(*collaborator, records)
}

// Delete removes a record. Stock handed out with it is not given back.
func (s *DeliveryService) Delete(ctx context.Context, id string) error {
	err := s.records.Update(ctx, func(records []models.DeliveryRecord) ([]models.DeliveryRecord, error) {
		for i, r := range records {
			if r.ID == id {
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return nil, custom_error.NewNotFoundError("delivery", id)
	})
	if err != nil {
		return err
	}

	s.log.Info("Delivery deleted", zap.String("id", id))
	return nil
}

func lastDelivery(ctx context.Context, records store.Collection[models.DeliveryRecord], employee string) (*time.Time, error) {
	all, err := records.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var last *time.Time
	for _, r := range all {
		if !sameName(r.EmployeeName, employee) {
			continue
		}
		if last == nil || r.Date.After(*last) {
			d := r.Date
			last = &d
		}
	}
	return last, nil
}

func sortNewestFirst(records []models.DeliveryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}
