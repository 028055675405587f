package capture

import (
	"context"
	"image"
	"sync"
	"time"
)

// mailbox holds the newest frame of a feed. Writers never block: a frame that
// was not taken before the next one arrives is overwritten and counted as dropped.
type mailbox struct {
	mu      sync.Mutex
	frame   Frame
	seq     uint64
	taken   uint64
	dropped uint64
	notify  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) put(img image.Image, at time.Time) uint64 {
	m.mu.Lock()
	if m.seq > m.taken {
		m.dropped++
	}
	m.seq++
	m.frame = Frame{Image: img, Seq: m.seq, At: at}
	seq := m.seq
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return seq
}

func (m *mailbox) latest() (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame, m.seq > 0
}

// next returns the newest frame with a sequence above after. It fails with
// ErrStreamClosed once closed or removed is closed.
func (m *mailbox) next(ctx context.Context, after uint64, closed, removed <-chan struct{}) (Frame, error) {
	for {
		m.mu.Lock()
		if m.seq > after {
			frame := m.frame
			m.taken = m.seq
			m.mu.Unlock()
			return frame, nil
		}
		m.mu.Unlock()

		select {
		case <-m.notify:
		case <-closed:
			return Frame{}, ErrStreamClosed
		case <-removed:
			return Frame{}, ErrStreamClosed
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		}
	}
}

func (m *mailbox) stats() (received, dropped uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq, m.dropped
}
