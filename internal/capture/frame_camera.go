package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"sync"
	"time"
)

type feed struct {
	device  Device
	slot    *mailbox
	held    bool
	removed chan struct{}
}

// FrameCamera is a Camera fed by the browser: every registered device is a
// feed of pushed JPEG or PNG frames.
type FrameCamera struct {
	mu    sync.Mutex
	feeds map[string]*feed
	order []string
	now   func() time.Time
}

func NewFrameCamera() *FrameCamera {
	return &FrameCamera{
		feeds: make(map[string]*feed),
		now:   time.Now,
	}
}

// RegisterDevice adds a device or refreshes the description of a known one.
func (c *FrameCamera) RegisterDevice(d Device) (Device, error) {
	d.ID = strings.TrimSpace(d.ID)
	if d.ID == "" {
		return Device{}, fmt.Errorf("device id is required")
	}
	if d.Facing != FacingUser && d.Facing != FacingEnvironment {
		d.Facing = FacingEnvironment
	}
	if d.Label == "" {
		d.Label = d.ID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.feeds[d.ID]; ok {
		f.device = d
		return d, nil
	}
	c.feeds[d.ID] = &feed{device: d, slot: newMailbox(), removed: make(chan struct{})}
	c.order = append(c.order, d.ID)
	return d, nil
}

// UnregisterDevice removes the device; a stream holding it ends with ErrStreamClosed.
func (c *FrameCamera) UnregisterDevice(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.feeds[id]
	if !ok {
		return ErrDeviceNotFound
	}
	close(f.removed)
	delete(c.feeds, id)
	for i, known := range c.order {
		if known == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *FrameCamera) PushFrame(id string, r io.Reader) (uint64, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("failed to decode frame: %w", err)
	}
	return c.PushImage(id, img)
}

func (c *FrameCamera) PushImage(id string, img image.Image) (uint64, error) {
	c.mu.Lock()
	f, ok := c.feeds[id]
	c.mu.Unlock()
	if !ok {
		return 0, ErrDeviceNotFound
	}
	return f.slot.put(img, c.now()), nil
}

// Held reports whether a stream currently owns the device.
func (c *FrameCamera) Held(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.feeds[id]
	return ok && f.held
}

func (c *FrameCamera) Stats(id string) (received, dropped uint64, err error) {
	c.mu.Lock()
	f, ok := c.feeds[id]
	c.mu.Unlock()
	if !ok {
		return 0, 0, ErrDeviceNotFound
	}
	received, dropped = f.slot.stats()
	return received, dropped, nil
}

func (c *FrameCamera) Devices(_ context.Context) ([]Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	devices := make([]Device, 0, len(c.order))
	for _, id := range c.order {
		devices = append(devices, c.feeds[id].device)
	}
	return devices, nil
}

func (c *FrameCamera) Open(ctx context.Context, constraints Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := constraints.DeviceID
	if id == "" {
		if len(c.order) == 0 {
			return nil, ErrDeviceNotFound
		}
		id = c.order[0]
	}
	f, ok := c.feeds[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	if !constraints.satisfiedBy(f.device) {
		return nil, fmt.Errorf("%w: %dx%d on %s", ErrConstraintUnsatisfied, constraints.Width, constraints.Height, f.device.Label)
	}
	if f.held {
		return nil, ErrCameraBusy
	}

	f.held = true
	return &frameStream{camera: c, feed: f, closed: make(chan struct{})}, nil
}

func (c *FrameCamera) release(f *feed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.held = false
}

type frameStream struct {
	camera *FrameCamera
	feed   *feed
	last   uint64
	once   sync.Once
	closed chan struct{}
}

func (s *frameStream) Device() Device {
	s.camera.mu.Lock()
	defer s.camera.mu.Unlock()
	return s.feed.device
}

func (s *frameStream) NextFrame(ctx context.Context) (Frame, error) {
	select {
	case <-s.closed:
		return Frame{}, ErrStreamClosed
	default:
	}

	frame, err := s.feed.slot.next(ctx, s.last, s.closed, s.feed.removed)
	if err != nil {
		return Frame{}, err
	}
	s.last = frame.Seq
	return frame, nil
}

func (s *frameStream) Latest() (Frame, bool) {
	return s.feed.slot.latest()
}

func (s *frameStream) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.camera.release(s.feed)
	})
	return nil
}
