package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

func TestFrameCameraOpen(t *testing.T) {
	ctx := context.Background()
	cam := NewFrameCamera()

	_, err := cam.Open(ctx, Constraints{})
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	_, err = cam.RegisterDevice(Device{ID: "front", Facing: FacingUser, MaxWidth: 640, MaxHeight: 480})
	require.NoError(t, err)

	_, err = cam.Open(ctx, Constraints{DeviceID: "front", Width: 1280, Height: 720})
	assert.ErrorIs(t, err, ErrConstraintUnsatisfied)

	stream, err := cam.Open(ctx, Constraints{DeviceID: "front", Width: 640})
	require.NoError(t, err)
	assert.Equal(t, "front", stream.Device().ID)
	assert.True(t, cam.Held("front"))

	_, err = cam.Open(ctx, Constraints{})
	assert.ErrorIs(t, err, ErrCameraBusy)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
	assert.False(t, cam.Held("front"))

	_, err = stream.NextFrame(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestFrameCameraPushFrame(t *testing.T) {
	ctx := context.Background()
	cam := NewFrameCamera()
	_, err := cam.RegisterDevice(Device{ID: "cam"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(4, 3)))

	seq, err := cam.PushFrame("cam", &buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	stream, err := cam.Open(ctx, Constraints{})
	require.NoError(t, err)
	defer stream.Close()

	frame, err := stream.NextFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Image.Bounds().Dx())

	_, err = cam.PushFrame("cam", strings.NewReader("not an image"))
	assert.Error(t, err)

	_, err = cam.PushFrame("missing", &buf)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestFrameCameraUnregisterEndsStream(t *testing.T) {
	ctx := context.Background()
	cam := NewFrameCamera()
	_, err := cam.RegisterDevice(Device{ID: "cam", Facing: "bogus"})
	require.NoError(t, err)

	devices, err := cam.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, FacingEnvironment, devices[0].Facing)
	assert.Equal(t, "cam", devices[0].Label)

	stream, err := cam.Open(ctx, Constraints{})
	require.NoError(t, err)

	require.NoError(t, cam.UnregisterDevice("cam"))
	_, err = stream.NextFrame(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.ErrorIs(t, cam.UnregisterDevice("cam"), ErrDeviceNotFound)
}
