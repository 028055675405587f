package capture

import (
	"image"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
)

func face(confidence float32, x0, y0, x1, y1 int32) *visionpb.FaceAnnotation {
	return &visionpb.FaceAnnotation{
		DetectionConfidence: confidence,
		BoundingPoly: &visionpb.BoundingPoly{
			Vertices: []*visionpb.Vertex{
				{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
			},
		},
	}
}

func TestBestFace(t *testing.T) {
	bounds := image.Rect(0, 0, 1280, 720)

	tests := []struct {
		name     string
		faces    []*visionpb.FaceAnnotation
		min      float32
		scale    float64
		expected Detection
	}{
		{
			name:     "no faces",
			min:      0.5,
			scale:    1,
			expected: Detection{},
		},
		{
			name:     "below threshold",
			faces:    []*visionpb.FaceAnnotation{face(0.3, 1, 1, 10, 10)},
			min:      0.5,
			scale:    1,
			expected: Detection{},
		},
		{
			name:     "most confident face scaled back",
			faces:    []*visionpb.FaceAnnotation{face(0.6, 0, 0, 5, 5), face(0.9, 100, 50, 200, 170)},
			min:      0.5,
			scale:    2,
			expected: Detection{Present: true, Box: image.Rect(200, 100, 400, 340), Confidence: 0.9},
		},
		{
			name:     "clipped to frame",
			faces:    []*visionpb.FaceAnnotation{face(0.8, 600, 300, 700, 400)},
			min:      0.5,
			scale:    2,
			expected: Detection{Present: true, Box: image.Rect(1200, 600, 1280, 720), Confidence: 0.8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, bestFace(tt.faces, tt.min, tt.scale, bounds))
		})
	}
}

func TestDownscale(t *testing.T) {
	src := testImage(1280, 720)

	small, scale := downscale(src, 640)
	assert.Equal(t, image.Rect(0, 0, 640, 360), small.Bounds())
	assert.InDelta(t, 2.0, scale, 1e-9)

	same, scale := downscale(testImage(320, 200), 640)
	assert.Equal(t, 320, same.Bounds().Dx())
	assert.Equal(t, 1.0, scale)
}
