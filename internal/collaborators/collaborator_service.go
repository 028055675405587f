package collaborators

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/store"
	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

type Publisher interface {
	PushCollaborator(ctx context.Context, collaborator models.Collaborator) bool
}

// QuickRegistration creates a collaborator from a name typed during an
// assignment and the photo captured for it.
type QuickRegistration struct {
	Name          string
	Photo         string
	Company       string
	CPF           string
	Shift         string
	AdmissionDate string
}

type CollaboratorService struct {
	collaborators store.Collection[models.Collaborator]
	publisher     Publisher
	log           *zap.Logger
}

func NewCollaboratorService(c store.Collection[models.Collaborator], publisher Publisher, log *zap.Logger) *CollaboratorService {
	return &CollaboratorService{
		collaborators: c,
		publisher:     publisher,
		log:           log.Named("collaborators"),
	}
}

func (s *CollaboratorService) List(ctx context.Context, query string) ([]models.Collaborator, error) {
	list, err := s.collaborators.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	list = Filter(list, query)
	sort.SliceStable(list, func(i, j int) bool {
		return normalizeName(list[i].Name) < normalizeName(list[j].Name)
	})
	return list, nil
}

func (s *CollaboratorService) Get(ctx context.Context, id string) (*models.Collaborator, error) {
	list, err := s.collaborators.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(list, id); idx >= 0 {
		return &list[idx], nil
	}
	return nil, custom_error.NewNotFoundError("collaborator", id)
}

// FindByName returns nil when no collaborator carries that name.
func (s *CollaboratorService) FindByName(ctx context.Context, name string) (*models.Collaborator, error) {
	list, err := s.collaborators.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if c, ok := FindByName(list, name); ok {
		return &c, nil
	}
	return nil, nil
}

func (s *CollaboratorService) Register(ctx context.Context, req CollaboratorRequest) (*models.Collaborator, error) {
	collaborator, err := build(req)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, collaborator, false)
}

func (s *CollaboratorService) QuickRegister(ctx context.Context, req QuickRegistration) (*models.Collaborator, error) {
	if !isPhoto(req.Photo) {
		return nil, custom_error.NewValidationError("photo", "a captured photo is required for quick registration")
	}
	company := req.Company
	if strings.TrimSpace(company) == "" {
		company = metadata.DefaultCompany.String()
	}

	collaborator, err := build(CollaboratorRequest{
		Name:          req.Name,
		CPF:           req.CPF,
		Shift:         req.Shift,
		AdmissionDate: req.AdmissionDate,
		FaceReference: req.Photo,
		Company:       company,
	})
	if err != nil {
		return nil, err
	}

	return s.insert(ctx, collaborator, true)
}

func (s *CollaboratorService) Update(ctx context.Context, req PatchCollaboratorRequest) (*models.Collaborator, error) {
	return s.modify(ctx, req.ID, func(c *models.Collaborator) error {
		if req.Name != nil {
			c.Name = strings.TrimSpace(*req.Name)
			if c.Name == "" {
				return custom_error.NewValidationError("name", "name is required")
			}
		}
		if req.CPF != nil {
			cpf, err := metadata.NewCPF(*req.CPF)
			if err != nil {
				return custom_error.NewValidationError("cpf", err.Error())
			}
			c.CPF = cpf
		}
		if req.Shift != nil {
			c.Shift = strings.TrimSpace(*req.Shift)
		}
		if req.AdmissionDate != nil {
			c.AdmissionDate = strings.TrimSpace(*req.AdmissionDate)
		}
		if req.Company != nil {
			company, err := metadata.NewCompany(*req.Company)
			if err != nil {
				return custom_error.NewValidationError("company", err.Error())
			}
			c.Company = company
		}
		return nil
	}, true)
}

func (s *CollaboratorService) SetFaceReference(ctx context.Context, id, photo string) (*models.Collaborator, error) {
	if !isPhoto(photo) {
		return nil, custom_error.NewValidationError("photo", "photo must be an image data URL")
	}
	return s.modify(ctx, id, func(c *models.Collaborator) error {
		c.FaceReference = photo
		return nil
	}, true)
}

// TouchActivity records a delivery date on the collaborator without pushing it remotely.
func (s *CollaboratorService) TouchActivity(ctx context.Context, id string, at time.Time) error {
	_, err := s.modify(ctx, id, func(c *models.Collaborator) error {
		stamp := at.UTC()
		c.LastActivityDate = &stamp
		return nil
	}, false)
	return err
}

// Delete removes the collaborator only; delivery records keep their own name snapshot.
func (s *CollaboratorService) Delete(ctx context.Context, id string) error {
	err := s.collaborators.Update(ctx, func(list []models.Collaborator) ([]models.Collaborator, error) {
		idx := indexOf(list, id)
		if idx < 0 {
			return nil, custom_error.NewNotFoundError("collaborator", id)
		}
		return append(list[:idx], list[idx+1:]...), nil
	})
	if err != nil {
		return persistError("failed to delete collaborator", err)
	}

	return nil
}

// insert adds collaborator. With uniqueName set, a collaborator already
// carrying the same name is a unique violation.
func (s *CollaboratorService) insert(ctx context.Context, collaborator models.Collaborator, uniqueName bool) (*models.Collaborator, error) {
	err := s.collaborators.Update(ctx, func(list []models.Collaborator) ([]models.Collaborator, error) {
		if uniqueName {
			if _, exists := FindByName(list, collaborator.Name); exists {
				return nil, custom_error.NewUniqueViolationError(fmt.Sprintf("collaborator %s is already registered", collaborator.Name))
			}
		}
		if err := ensureUniqueCPF(list, collaborator); err != nil {
			return nil, err
		}
		return append(list, collaborator), nil
	})
	if err != nil {
		return nil, persistError("failed to persist collaborator", err)
	}

	s.log.Info("Collaborator registered", zap.String("id", collaborator.ID), zap.String("name", collaborator.Name))
	s.publisher.PushCollaborator(ctx, collaborator)
	return &collaborator, nil
}

func (s *CollaboratorService) modify(ctx context.Context, id string, change func(c *models.Collaborator) error, push bool) (*models.Collaborator, error) {
	var collaborator models.Collaborator
	err := s.collaborators.Update(ctx, func(list []models.Collaborator) ([]models.Collaborator, error) {
		idx := indexOf(list, id)
		if idx < 0 {
			return nil, custom_error.NewNotFoundError("collaborator", id)
		}

		collaborator = list[idx]
		if err := change(&collaborator); err != nil {
			return nil, err
		}
		if err := ensureUniqueCPF(list, collaborator); err != nil {
			return nil, err
		}

		list[idx] = collaborator
		return list, nil
	})
	if err != nil {
		return nil, persistError("failed to persist collaborator", err)
	}

	if push {
		s.publisher.PushCollaborator(ctx, collaborator)
	}
	return &collaborator, nil
}

// persistError keeps domain errors raised inside an update as they are.
func persistError(msg string, err error) error {
	if custom_error.IsValidation(err) || custom_error.IsNotFound(err) || custom_error.IsUniqueViolation(err) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func build(req CollaboratorRequest) (models.Collaborator, error) {
	name := strings.Join(strings.Fields(req.Name), " ")
	if name == "" {
		return models.Collaborator{}, custom_error.NewValidationError("name", "name is required")
	}
	company, err := metadata.NewCompany(req.Company)
	if err != nil {
		return models.Collaborator{}, custom_error.NewValidationError("company", err.Error())
	}
	cpf, err := metadata.NewCPF(req.CPF)
	if err != nil {
		return models.Collaborator{}, custom_error.NewValidationError("cpf", err.Error())
	}
	if req.FaceReference != "" && !isPhoto(req.FaceReference) {
		return models.Collaborator{}, custom_error.NewValidationError("faceReference", "photo must be an image data URL")
	}

	return models.Collaborator{
		ID:            uuid.NewString(),
		Name:          name,
		CPF:           cpf,
		Shift:         strings.TrimSpace(req.Shift),
		AdmissionDate: strings.TrimSpace(req.AdmissionDate),
		FaceReference: req.FaceReference,
		Company:       company,
	}, nil
}

func ensureUniqueCPF(list []models.Collaborator, candidate models.Collaborator) error {
	if candidate.CPF == "" {
		return nil
	}
	for _, c := range list {
		if c.ID != candidate.ID && c.CPF == candidate.CPF {
			return custom_error.NewUniqueViolationError(fmt.Sprintf("cpf %s is already registered", metadata.FormatCPF(candidate.CPF)))
		}
	}
	return nil
}

func indexOf(list []models.Collaborator, id string) int {
	for i, c := range list {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func isPhoto(value string) bool {
	return strings.HasPrefix(value, "data:image/")
}
