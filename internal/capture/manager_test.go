package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManagerExclusiveCamera(t *testing.T) {
	ctx := context.Background()
	cam := NewFrameCamera()
	_, err := cam.RegisterDevice(Device{ID: "cam"})
	require.NoError(t, err)

	m := NewManager(cam, &fakeDetector{present: true}, Options{}, zap.NewNop(), nil)
	first, _, err := m.Start(ctx, "")
	require.NoError(t, err)

	_, _, err = m.Start(ctx, "")
	assert.ErrorIs(t, err, ErrCameraBusy)

	got, err := m.Get(first.ID())
	require.NoError(t, err)
	assert.Same(t, first, got)

	require.NoError(t, m.Close(ctx, first.ID()))
	_, err = m.Get(first.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	second, _, err := m.Start(ctx, "cam")
	require.NoError(t, err)
	waitState(t, second, StateLive)
	waitFace(t, second, cam, "cam")

	_, err = second.Capture(ctx)
	require.NoError(t, err)
	still, err := m.Confirm(ctx, second.ID())
	require.NoError(t, err)
	assert.Equal(t, "cam", still.DeviceID)
	_, err = m.Get(second.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerShutdown(t *testing.T) {
	ctx := context.Background()
	cam := NewFrameCamera()
	_, err := cam.RegisterDevice(Device{ID: "cam"})
	require.NoError(t, err)

	m := NewManager(cam, &fakeDetector{}, Options{}, zap.NewNop(), nil)
	s, _, err := m.Start(ctx, "cam")
	require.NoError(t, err)
	waitState(t, s, StateLive)

	require.NoError(t, m.Shutdown(ctx))
	assert.True(t, s.Closed())
	assert.False(t, cam.Held("cam"))
}
