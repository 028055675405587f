package deliveries

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/collaborators"
	"github.com/edy93762/gesto-de-epi-sub000/internal/documents"
	"github.com/edy93762/gesto-de-epi-sub000/internal/store/storetest"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

type steps struct {
	calls []string
}

func (s *steps) add(name string) { s.calls = append(s.calls, name) }

type recordingRecords struct {
	*storetest.Memory[models.DeliveryRecord]
	steps *steps
}

func (r recordingRecords) Update(ctx context.Context, change func([]models.DeliveryRecord) ([]models.DeliveryRecord, error)) error {
	r.steps.add("persist")
	return r.Memory.Update(ctx, change)
}

type recordingCatalog struct{ steps *steps }

func (c recordingCatalog) Get(_ context.Context, id string) (*models.CatalogItem, error) {
	return &models.CatalogItem{ID: id, Code: "LUVA01", Name: "Luva", Stock: 10}, nil
}

func (c recordingCatalog) ConsumeStock(context.Context, []models.Item) ([]models.CatalogItem, error) {
	c.steps.add("stock")
	return nil, nil
}

type recordingCollaborators struct{ steps *steps }

func (c recordingCollaborators) Get(_ context.Context, id string) (*models.Collaborator, error) {
	return &models.Collaborator{ID: id, Name: "Ana"}, nil
}

func (c recordingCollaborators) FindByName(context.Context, string) (*models.Collaborator, error) {
	return nil, nil
}

func (c recordingCollaborators) QuickRegister(context.Context, collaborators.QuickRegistration) (*models.Collaborator, error) {
	return nil, nil
}

func (c recordingCollaborators) TouchActivity(context.Context, string, time.Time) error {
	c.steps.add("activity")
	return nil
}

type recordingRenderer struct{ steps *steps }

func (r recordingRenderer) RenderDeliverySlip(rec models.DeliveryRecord) (*documents.Document, error) {
	r.steps.add("render")
	return &documents.Document{Filename: "slip.pdf", Content: []byte("%PDF"), Pages: 1}, nil
}

func (r recordingRenderer) RenderCollaboratorHistory(models.Collaborator, []models.DeliveryRecord) (*documents.Document, error) {
	return nil, nil
}

type recordingPusher struct{ steps *steps }

func (p recordingPusher) Enabled() bool { return true }

func (p recordingPusher) PushDelivery(context.Context, models.DeliveryRecord, string, string) bool {
	p.steps.add("push")
	return true
}

func TestSubmitStepOrder(t *testing.T) {
	ctx := context.Background()
	s := &steps{}
	svc := NewAssignmentService(AssignmentDeps{
		Records:       recordingRecords{Memory: storetest.NewMemory[models.DeliveryRecord](), steps: s},
		Catalog:       recordingCatalog{steps: s},
		Collaborators: recordingCollaborators{steps: s},
		Renderer:      recordingRenderer{steps: s},
		Pusher:        recordingPusher{steps: s},
	}, zap.NewNop())

	_, err := svc.SelectCollaborator(ctx, "p1")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "c1")
	require.NoError(t, err)
	_, err = svc.AttachPhoto(ctx, photo)
	require.NoError(t, err)

	result, err := svc.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"persist", "stock", "activity", "render", "push"}, s.calls)
	assert.True(t, result.Pushed)

	view, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

type blockingPusher struct {
	entered chan struct{}
	release chan struct{}
}

func (p blockingPusher) Enabled() bool { return true }

func (p blockingPusher) PushDelivery(context.Context, models.DeliveryRecord, string, string) bool {
	close(p.entered)
	<-p.release
	return true
}

func TestSubmitPushDoesNotHoldTheDraft(t *testing.T) {
	ctx := context.Background()
	s := &steps{}
	pusher := blockingPusher{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewAssignmentService(AssignmentDeps{
		Records:       storetest.NewMemory[models.DeliveryRecord](),
		Catalog:       recordingCatalog{steps: s},
		Collaborators: recordingCollaborators{steps: s},
		Renderer:      recordingRenderer{steps: s},
		Pusher:        pusher,
	}, zap.NewNop())

	_, err := svc.SelectCollaborator(ctx, "p1")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "c1")
	require.NoError(t, err)
	_, err = svc.AttachPhoto(ctx, photo)
	require.NoError(t, err)

	submitted := make(chan *Result, 1)
	go func() {
		result, err := svc.Submit(ctx)
		assert.NoError(t, err)
		submitted <- result
	}()
	<-pusher.entered

	viewed := make(chan *DraftView, 1)
	go func() {
		view, err := svc.Current(ctx)
		assert.NoError(t, err)
		viewed <- view
	}()

	select {
	case view := <-viewed:
		assert.Empty(t, view.Items)
		assert.Empty(t, view.EmployeeName)
	case <-time.After(2 * time.Second):
		t.Fatal("draft blocked while the delivery was being pushed")
	}

	close(pusher.release)
	result := <-submitted
	require.NotNil(t, result)
	assert.True(t, result.Pushed)
}
