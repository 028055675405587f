package capture

import (
	"context"
	"image"
	"time"
)

type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Device is a video input the browser registered. MaxWidth and MaxHeight
// are zero when the browser did not report capabilities.
type Device struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Facing    Facing `json:"facing"`
	MaxWidth  int    `json:"maxWidth"`
	MaxHeight int    `json:"maxHeight"`
}

// FrontFacing reports whether frames from the device must be mirrored to
// match what the operator sees.
func (d Device) FrontFacing() bool {
	return d.Facing == FacingUser
}

// Constraints select a device and a minimum resolution. Zero values mean any.
type Constraints struct {
	DeviceID string
	Width    int
	Height   int
}

// Minimal keeps only the device selection.
func (c Constraints) Minimal() Constraints {
	return Constraints{DeviceID: c.DeviceID}
}

func (c Constraints) satisfiedBy(d Device) bool {
	if c.Width > 0 && d.MaxWidth > 0 && c.Width > d.MaxWidth {
		return false
	}
	if c.Height > 0 && d.MaxHeight > 0 && c.Height > d.MaxHeight {
		return false
	}
	return true
}

type Frame struct {
	Image image.Image
	Seq   uint64
	At    time.Time
}

type Camera interface {
	Devices(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an exclusively held video source. Close releases the device and
// is safe to call more than once.
type Stream interface {
	Device() Device
	// NextFrame blocks until a frame newer than the last one returned arrives.
	NextFrame(ctx context.Context) (Frame, error)
	Latest() (Frame, bool)
	Close() error
}
