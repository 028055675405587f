package capture

import (
	"context"
	"image"
)

// Detection is the result of analysing one frame. Box is in frame coordinates
// and only meaningful when Present is set.
type Detection struct {
	Present    bool            `json:"present"`
	Box        image.Rectangle `json:"-"`
	Confidence float32         `json:"confidence"`
}

type Detector interface {
	Detect(ctx context.Context, img image.Image) (Detection, error)
}
