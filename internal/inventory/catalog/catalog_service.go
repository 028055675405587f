package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/store"
	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

type Publisher interface {
	PushCatalogItem(ctx context.Context, item models.CatalogItem) bool
}

type CatalogService struct {
	items     store.Collection[models.CatalogItem]
	publisher Publisher
	log       *zap.Logger
}

func NewCatalogService(items store.Collection[models.CatalogItem], publisher Publisher, log *zap.Logger) *CatalogService {
	return &CatalogService{
		items:     items,
		publisher: publisher,
		log:       log.Named("catalog"),
	}
}

func (s *CatalogService) List(ctx context.Context) ([]models.CatalogItem, error) {
	items, err := s.items.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.CatalogItem, error) {
	items, err := s.items.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, custom_error.NewNotFoundError("catalog item", id)
}

func (s *CatalogService) Create(ctx context.Context, req CatalogItemRequest) (*models.CatalogItem, error) {
	item := models.CatalogItem{
		ID:            uuid.NewString(),
		Code:          normalizeCode(req.Code),
		Name:          strings.TrimSpace(req.Name),
		Certification: strings.TrimSpace(req.Certification),
		Stock:         req.Stock,
	}
	if err := validate(item); err != nil {
		return nil, err
	}

	err := s.items.Update(ctx, func(items []models.CatalogItem) ([]models.CatalogItem, error) {
		if err := ensureUniqueCode(items, item); err != nil {
			return nil, err
		}
		return append(items, item), nil
	})
	if err != nil {
		return nil, persistError("failed to persist catalog item", err)
	}

	s.publisher.PushCatalogItem(ctx, item)
	return &item, nil
}

func (s *CatalogService) Update(ctx context.Context, req PatchCatalogItemRequest) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := s.items.Update(ctx, func(items []models.CatalogItem) ([]models.CatalogItem, error) {
		idx := indexOf(items, req.ID)
		if idx < 0 {
			return nil, custom_error.NewNotFoundError("catalog item", req.ID)
		}

		item = items[idx]
		if req.Code != nil {
			item.Code = normalizeCode(*req.Code)
		}
		if req.Name != nil {
			item.Name = strings.TrimSpace(*req.Name)
		}
		if req.Certification != nil {
			item.Certification = strings.TrimSpace(*req.Certification)
		}
		if req.Stock != nil {
			item.Stock = *req.Stock
		}
		if err := validate(item); err != nil {
			return nil, err
		}
		if err := ensureUniqueCode(items, item); err != nil {
			return nil, err
		}

		items[idx] = item
		return items, nil
	})
	if err != nil {
		return nil, persistError("failed to persist catalog item", err)
	}

	s.publisher.PushCatalogItem(ctx, item)
	return &item, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	err := s.items.Update(ctx, func(items []models.CatalogItem) ([]models.CatalogItem, error) {
		idx := indexOf(items, id)
		if idx < 0 {
			return nil, custom_error.NewNotFoundError("catalog item", id)
		}
		return append(items[:idx], items[idx+1:]...), nil
	})
	if err != nil {
		return persistError("failed to delete catalog item", err)
	}

	return nil
}

// ConsumeStock applies a delivery to the catalog and returns the entries whose stock changed.
func (s *CatalogService) ConsumeStock(ctx context.Context, delivered []models.Item) ([]models.CatalogItem, error) {
	var changed []models.CatalogItem
	err := s.items.Update(ctx, func(items []models.CatalogItem) ([]models.CatalogItem, error) {
		changed = nil
		updated := DecrementStock(items, delivered)
		for i := range updated {
			if updated[i].Stock != items[i].Stock {
				changed = append(changed, updated[i])
			}
		}
		if len(changed) == 0 {
			return nil, store.ErrUnchanged
		}
		return updated, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist stock: %w", err)
	}

	for _, item := range changed {
		s.log.Debug("Stock decremented", zap.String("code", item.Code), zap.Int("stock", item.Stock))
	}

	return changed, nil
}

// persistError keeps domain errors raised inside an update as they are.
func persistError(msg string, err error) error {
	if custom_error.IsValidation(err) || custom_error.IsNotFound(err) || custom_error.IsUniqueViolation(err) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func validate(item models.CatalogItem) error {
	if item.Code == "" {
		return custom_error.NewValidationError("code", "code is required")
	}
	if item.Name == "" {
		return custom_error.NewValidationError("name", "name is required")
	}
	if item.Stock < 0 {
		return custom_error.NewValidationError("stock", "stock cannot be negative")
	}
	return nil
}

func ensureUniqueCode(items []models.CatalogItem, candidate models.CatalogItem) error {
	for _, item := range items {
		if item.ID != candidate.ID && item.Code == candidate.Code {
			return custom_error.NewUniqueViolationError(fmt.Sprintf("catalog code %s is already used", candidate.Code))
		}
	}
	return nil
}

func indexOf(items []models.CatalogItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
