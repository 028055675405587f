package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"golang.org/x/image/draw"
	"google.golang.org/api/option"
)

const analysisQuality = 80

// VisionDetector finds faces with the Cloud Vision face detection feature.
type VisionDetector struct {
	client        *vision.ImageAnnotatorClient
	minConfidence float32
	analysisWidth int
}

// NewVisionDetector uses the service account at credentialsFile, or the
// application default credentials when it is empty.
func NewVisionDetector(ctx context.Context, credentialsFile string, minConfidence float64, analysisWidth int) (*VisionDetector, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	return &VisionDetector{
		client:        client,
		minConfidence: float32(minConfidence),
		analysisWidth: analysisWidth,
	}, nil
}

func (d *VisionDetector) Detect(ctx context.Context, img image.Image) (Detection, error) {
	small, scale := downscale(img, d.analysisWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: analysisQuality}); err != nil {
		return Detection{}, fmt.Errorf("failed to encode frame: %w", err)
	}

	resp, err := d.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: buf.Bytes()},
			Features: []*visionpb.Feature{{
				Type:       visionpb.Feature_FACE_DETECTION,
				MaxResults: 5,
			}},
		}},
	})
	if err != nil {
		return Detection{}, fmt.Errorf("face detection request failed: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return Detection{}, nil
	}

	annotated := resp.GetResponses()[0]
	if annotated.GetError() != nil && annotated.GetError().GetCode() != 0 {
		return Detection{}, fmt.Errorf("face detection failed: %s", annotated.GetError().GetMessage())
	}

	return bestFace(annotated.GetFaceAnnotations(), d.minConfidence, scale, img.Bounds()), nil
}

func (d *VisionDetector) Close() error {
	return d.client.Close()
}

// bestFace keeps the most confident face at or above minConfidence and maps
// its bounding polygon back to the original frame.
func bestFace(faces []*visionpb.FaceAnnotation, minConfidence float32, scale float64, bounds image.Rectangle) Detection {
	var best *visionpb.FaceAnnotation
	for _, face := range faces {
		if face.GetDetectionConfidence() < minConfidence {
			continue
		}
		if best == nil || face.GetDetectionConfidence() > best.GetDetectionConfidence() {
			best = face
		}
	}
	if best == nil {
		return Detection{}
	}

	vertices := best.GetBoundingPoly().GetVertices()
	if len(vertices) == 0 {
		vertices = best.GetFdBoundingPoly().GetVertices()
	}

	if len(vertices) == 0 {
		return Detection{}
	}

	minX, minY := math.MaxInt32, math.MaxInt32
	maxX, maxY := math.MinInt32, math.MinInt32
	for _, v := range vertices {
		x, y := int(v.GetX()), int(v.GetY())
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}

	box := image.Rect(
		bounds.Min.X+int(math.Round(float64(minX)*scale)),
		bounds.Min.Y+int(math.Round(float64(minY)*scale)),
		bounds.Min.X+int(math.Round(float64(maxX)*scale)),
		bounds.Min.Y+int(math.Round(float64(maxY)*scale)),
	)

	return Detection{
		Present:    true,
		Box:        box.Intersect(bounds),
		Confidence: best.GetDetectionConfidence(),
	}
}

// downscale returns img reduced to width when wider, with the factor that
// maps the reduced coordinates back.
func downscale(img image.Image, width int) (image.Image, float64) {
	b := img.Bounds()
	if width <= 0 || b.Dx() <= width {
		return img, 1
	}

	scale := float64(b.Dx()) / float64(width)
	height := int(math.Round(float64(b.Dy()) / scale))
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, scale
}
