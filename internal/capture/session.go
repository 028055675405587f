package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/metrics"
)

// Box is a detection rectangle in preview coordinates.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Status struct {
	ID             string    `json:"id"`
	State          State     `json:"state"`
	Device         *Device   `json:"device,omitempty"`
	Relaxed        bool      `json:"relaxed"`
	FacePresent    bool      `json:"facePresent"`
	Confidence     float32   `json:"confidence,omitempty"`
	Box            *Box      `json:"box,omitempty"`
	FramesAnalyzed uint64    `json:"framesAnalyzed"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
}

// Preview is what the operator sees: the newest frame while live or the
// still once captured.
type Preview struct {
	Image     image.Image
	Mirror    bool
	Detection Detection
	State     State
}

type acquiredEvent struct {
	gen     uint64
	stream  Stream
	relaxed bool
	err     error
}

type detectedEvent struct {
	gen       uint64
	frame     Frame
	detection Detection
}

type loopExitedEvent struct {
	gen uint64
	err error
}

type worker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// stop cancels the goroutine and waits for it to return.
func (w *worker) stop() {
	if w == nil {
		return
	}
	w.cancel()
	<-w.done
}

// Session drives one capture from camera acquisition to a confirmed still.
// All state is owned by the run goroutine; callers talk to it through commands.
type Session struct {
	id        string
	camera    Camera
	detector  Detector
	preferred Constraints
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	commands chan func()
	events   chan any
	done     chan struct{}

	state     State
	gen       uint64
	deviceID  string
	stream    Stream
	device    *Device
	relaxed   bool
	acquiring *worker
	detecting *worker
	last      Detection
	lastFrame Frame
	analyzed  uint64
	still     *Still
	err       error
	startedAt time.Time
}

func newSession(camera Camera, detector Detector, preferred Constraints, log *zap.Logger, m *metrics.Metrics) *Session {
	s := &Session{
		id:        uuid.NewString(),
		camera:    camera,
		detector:  detector,
		preferred: preferred,
		metrics:   m,
		now:       time.Now,
		commands:  make(chan func()),
		events:    make(chan any),
		done:      make(chan struct{}),
		state:     StateIdle,
	}
	s.log = log.With(zap.String("session", s.id))
	s.startedAt = s.now()
	go s.run()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Done is closed once the session reached Closed and released the camera.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case cmd := <-s.commands:
			cmd()
		case ev := <-s.events:
			s.handle(ev)
		}
		if s.state == StateClosed {
			return
		}
	}
}

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func()) error {
	executed := make(chan struct{})
	select {
	case s.commands <- func() { fn(); close(executed) }:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-executed
	return nil
}

// Open starts acquiring the camera; deviceID may be empty for the first device.
func (s *Session) Open(ctx context.Context, deviceID string) (Status, error) {
	var (
		status Status
		err    error
	)
	if doErr := s.do(ctx, func() {
		if s.state != StateIdle {
			err = ErrInvalidState
		} else {
			s.deviceID = deviceID
			s.startAcquisition()
		}
		status = s.status()
	}); doErr != nil {
		return Status{}, doErr
	}
	return status, err
}

func (s *Session) Status(ctx context.Context) (Status, error) {
	var status Status
	if err := s.do(ctx, func() { status = s.status() }); err != nil {
		return Status{}, err
	}
	return status, nil
}

// Capture freezes the current frame. It is rejected unless the most recent
// analysis found a face.
func (s *Session) Capture(ctx context.Context) (Status, error) {
	var (
		status Status
		err    error
	)
	if doErr := s.do(ctx, func() {
		defer func() { status = s.status() }()
		if s.state != StateLive {
			err = ErrInvalidState
			return
		}
		if !s.last.Present {
			err = ErrNoFace
			return
		}

		frame, ok := s.stream.Latest()
		if !ok {
			frame = s.lastFrame
		}
		device := s.stream.Device()
		still := newStill(frame, device, s.now())

		s.teardown()
		s.still = &still
		s.state = StateCaptured
		s.log.Info("Still captured", zap.String("device", device.ID), zap.Bool("mirrored", still.Mirrored))
	}); doErr != nil {
		return Status{}, doErr
	}
	return status, err
}

// Retake discards the still and acquires the camera again.
func (s *Session) Retake(ctx context.Context) (Status, error) {
	return s.restart(ctx, func() bool { return s.state == StateCaptured })
}

// Retry acquires the camera again after an acquisition failure.
func (s *Session) Retry(ctx context.Context) (Status, error) {
	return s.restart(ctx, func() bool { return s.state == StateIdle && s.err != nil })
}

func (s *Session) restart(ctx context.Context, allowed func() bool) (Status, error) {
	var (
		status Status
		err    error
	)
	if doErr := s.do(ctx, func() {
		if !allowed() {
			err = ErrInvalidState
		} else {
			s.still = nil
			s.startAcquisition()
		}
		status = s.status()
	}); doErr != nil {
		return Status{}, doErr
	}
	return status, err
}

// SwitchDevice tears the current stream down and restarts acquisition on deviceID.
func (s *Session) SwitchDevice(ctx context.Context, deviceID string) (Status, error) {
	devices, err := s.camera.Devices(ctx)
	if err != nil {
		return Status{}, err
	}
	if !containsDevice(devices, deviceID) {
		return Status{}, ErrDeviceNotFound
	}

	var status Status
	if doErr := s.do(ctx, func() {
		switch s.state {
		case StateIdle, StateInitializing, StateLive:
			s.teardown()
			s.deviceID = deviceID
			s.startAcquisition()
		default:
			err = ErrInvalidState
		}
		status = s.status()
	}); doErr != nil {
		return Status{}, doErr
	}
	return status, err
}

// Devices lists the video inputs available for switching.
func (s *Session) Devices(ctx context.Context) ([]Device, error) {
	return s.camera.Devices(ctx)
}

// Confirm hands the still over and closes the session.
func (s *Session) Confirm(ctx context.Context) (Still, error) {
	var (
		still Still
		err   error
	)
	if doErr := s.do(ctx, func() {
		if s.state != StateCaptured || s.still == nil {
			err = ErrInvalidState
			return
		}
		still = *s.still
		s.close("confirmed")
	}); doErr != nil {
		return Still{}, doErr
	}
	return still, err
}

// Close releases everything from any state. Closing a closed session is a no-op.
func (s *Session) Close(ctx context.Context) error {
	err := s.do(ctx, func() { s.close("cancelled") })
	if errors.Is(err, ErrSessionClosed) {
		return nil
	}
	return err
}

func (s *Session) Still(ctx context.Context) (Still, error) {
	var (
		still Still
		err   error
	)
	if doErr := s.do(ctx, func() {
		if s.still == nil {
			err = ErrInvalidState
			return
		}
		still = *s.still
	}); doErr != nil {
		return Still{}, doErr
	}
	return still, err
}

func (s *Session) Preview(ctx context.Context) (Preview, error) {
	var (
		preview Preview
		err     error
	)
	if doErr := s.do(ctx, func() {
		preview.State = s.state
		switch {
		case s.state == StateCaptured && s.still != nil:
			preview.Image = s.still.Image
		case s.state == StateLive:
			frame, ok := s.stream.Latest()
			if !ok {
				err = ErrInvalidState
				return
			}
			preview.Image = frame.Image
			preview.Mirror = s.device != nil && s.device.FrontFacing()
			preview.Detection = s.last
		default:
			err = ErrInvalidState
		}
	}); doErr != nil {
		return Preview{}, doErr
	}
	return preview, err
}

func (s *Session) handle(ev any) {
	switch e := ev.(type) {
	case acquiredEvent:
		if e.gen != s.gen || s.state != StateInitializing {
			if e.stream != nil {
				_ = e.stream.Close()
			}
			return
		}
		s.acquiring.stop()
		s.acquiring = nil

		if e.err != nil {
			s.state = StateIdle
			s.err = e.err
			s.log.Warn("Camera acquisition failed", zap.Error(e.err))
			s.metrics.ObserveCaptureSession("unavailable")
			return
		}

		device := e.stream.Device()
		s.stream = e.stream
		s.device = &device
		s.relaxed = e.relaxed
		s.err = nil
		s.state = StateLive
		s.startDetection()
		s.log.Info("Camera live", zap.String("device", device.ID), zap.Bool("relaxed", e.relaxed))

	case detectedEvent:
		if e.gen != s.gen || s.state != StateLive {
			return
		}
		s.last = e.detection
		s.lastFrame = e.frame
		s.analyzed++

	case loopExitedEvent:
		if e.gen != s.gen || s.state != StateLive {
			return
		}
		s.log.Warn("Video stream ended", zap.Error(e.err))
		s.teardown()
		s.state = StateIdle
		s.err = fmt.Errorf("%w: %v", ErrCameraUnavailable, e.err)
	}
}

func (s *Session) startAcquisition() {
	s.gen++
	s.err = nil
	s.state = StateInitializing

	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{cancel: cancel, done: make(chan struct{})}
	s.acquiring = w

	gen, deviceID := s.gen, s.deviceID
	go func() {
		defer close(w.done)
		s.acquire(ctx, gen, deviceID)
	}()
}

// acquire opens the camera with the preferred constraints and falls back to
// the minimal set once.
func (s *Session) acquire(ctx context.Context, gen uint64, deviceID string) {
	preferred := s.preferred
	preferred.DeviceID = deviceID

	relaxed := false
	stream, err := s.camera.Open(ctx, preferred)
	if err != nil && ctx.Err() == nil {
		s.log.Debug("Preferred constraints failed, relaxing", zap.Error(err))
		relaxed = true
		stream, err = s.camera.Open(ctx, preferred.Minimal())
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	select {
	case s.events <- acquiredEvent{gen: gen, stream: stream, relaxed: relaxed, err: err}:
	case <-ctx.Done():
		if stream != nil {
			_ = stream.Close()
		}
	}
}

func (s *Session) startDetection() {
	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{cancel: cancel, done: make(chan struct{})}
	s.detecting = w

	gen, stream := s.gen, s.stream
	go func() {
		defer close(w.done)
		err := s.detect(ctx, gen, stream)
		if ctx.Err() != nil {
			return
		}
		select {
		case s.events <- loopExitedEvent{gen: gen, err: err}:
		case <-ctx.Done():
		}
	}()
}

// detect analyses one frame at a time; the next frame is requested only
// after the session accepted the previous result.
func (s *Session) detect(ctx context.Context, gen uint64, stream Stream) error {
	for {
		frame, err := stream.NextFrame(ctx)
		if err != nil {
			return err
		}

		start := time.Now()
		detection, err := s.detector.Detect(ctx, frame.Image)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.log.Warn("Face detection failed", zap.Error(err))
			detection = Detection{}
		}
		s.metrics.ObserveDetection(start, detection.Present)

		select {
		case s.events <- detectedEvent{gen: gen, frame: frame, detection: detection}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// teardown stops acquisition and detection and releases the stream.
func (s *Session) teardown() {
	s.gen++

	s.acquiring.stop()
	s.acquiring = nil
	s.detecting.stop()
	s.detecting = nil

	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			s.log.Warn("Failed to release camera", zap.Error(err))
		}
		s.stream = nil
	}
	s.last = Detection{}
	s.lastFrame = Frame{}
}

func (s *Session) close(result string) {
	if s.state == StateClosed {
		return
	}
	s.teardown()
	if result != "confirmed" {
		s.still = nil
	}
	s.state = StateClosed
	s.metrics.ObserveCaptureSession(result)
	s.log.Info("Capture session closed", zap.String("result", result))
}

func (s *Session) status() Status {
	status := Status{
		ID:             s.id,
		State:          s.state,
		Relaxed:        s.relaxed,
		FacePresent:    s.last.Present,
		FramesAnalyzed: s.analyzed,
		StartedAt:      s.startedAt,
	}
	if s.device != nil {
		device := *s.device
		status.Device = &device
	}
	if s.err != nil {
		status.Error = s.err.Error()
	}
	if s.last.Present {
		status.Confidence = s.last.Confidence
		box := s.last.Box
		if s.lastFrame.Image != nil {
			bounds := s.lastFrame.Image.Bounds()
			if s.device != nil && s.device.FrontFacing() {
				box = mirrorBox(box, bounds)
			} else {
				box = box.Sub(bounds.Min)
			}
		}
		status.Box = &Box{X: box.Min.X, Y: box.Min.Y, Width: box.Dx(), Height: box.Dy()}
	}
	return status
}

func containsDevice(devices []Device, id string) bool {
	for _, d := range devices {
		if d.ID == id {
			return true
		}
	}
	return false
}
