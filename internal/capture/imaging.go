package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"time"

	"github.com/fogleman/gg"
)

const stillQuality = 90

// Still is a frozen frame, already mirrored when it came from a front camera.
type Still struct {
	Image      image.Image
	Width      int
	Height     int
	Mirrored   bool
	DeviceID   string
	CapturedAt time.Time
}

func newStill(frame Frame, device Device, at time.Time) Still {
	img := frame.Image
	mirrored := device.FrontFacing()
	if mirrored {
		img = Mirror(img)
	}
	b := img.Bounds()
	return Still{
		Image:      img,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Mirrored:   mirrored,
		DeviceID:   device.ID,
		CapturedAt: at,
	}
}

func (s Still) JPEG() ([]byte, error) {
	return encodeJPEG(s.Image, stillQuality)
}

// DataURL renders the still in the data:image/jpeg;base64 form stored on records.
func (s Still) DataURL() (string, error) {
	raw, err := s.JPEG()
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// Mirror flips img horizontally.
func Mirror(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.X-1-x, y-b.Min.Y, img.At(x, y))
		}
	}
	return dst
}

func mirrorBox(box image.Rectangle, bounds image.Rectangle) image.Rectangle {
	return image.Rect(
		bounds.Max.X-box.Max.X,
		box.Min.Y-bounds.Min.Y,
		bounds.Max.X-box.Min.X,
		box.Max.Y-bounds.Min.Y,
	)
}

var (
	faceColor   = color.RGBA{R: 34, G: 197, B: 94, A: 255}
	searchColor = color.RGBA{R: 234, G: 179, B: 8, A: 255}
)

// RenderPreview draws the detection box and a status line over the frame and
// returns it as JPEG.
func RenderPreview(img image.Image, mirror bool, det Detection, status string) ([]byte, error) {
	bounds := img.Bounds()
	box := det.Box
	if mirror {
		img = Mirror(img)
		box = mirrorBox(box, bounds)
	} else {
		box = box.Sub(bounds.Min)
	}

	dc := gg.NewContextForImage(img)
	w, h := float64(dc.Width()), float64(dc.Height())

	if det.Present {
		dc.SetColor(faceColor)
		dc.SetLineWidth(3)
		dc.DrawRectangle(float64(box.Min.X), float64(box.Min.Y), float64(box.Dx()), float64(box.Dy()))
		dc.Stroke()
	}

	if status != "" {
		dc.SetRGBA(0, 0, 0, 0.55)
		dc.DrawRectangle(0, h-28, w, 28)
		dc.Fill()
		if det.Present {
			dc.SetColor(faceColor)
		} else {
			dc.SetColor(searchColor)
		}
		dc.DrawStringAnchored(status, w/2, h-14, 0.5, 0.5)
	}

	return encodeJPEG(dc.Image(), stillQuality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
