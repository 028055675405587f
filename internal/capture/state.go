package capture

import (
	"errors"
)

type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateLive         State = "live"
	StateCaptured     State = "captured"
	StateClosed       State = "closed"
)

func (s State) String() string {
	return string(s)
}

var (
	ErrCameraUnavailable     = errors.New("camera unavailable")
	ErrNoFace                = errors.New("no face detected in the current frame")
	ErrInvalidState          = errors.New("operation not allowed in the current state")
	ErrSessionClosed         = errors.New("capture session closed")
	ErrSessionNotFound       = errors.New("capture session not found")
	ErrCameraBusy            = errors.New("camera already in use")
	ErrDeviceNotFound        = errors.New("video device not found")
	ErrConstraintUnsatisfied = errors.New("device cannot satisfy the requested constraints")
	ErrStreamClosed          = errors.New("video stream closed")
)
