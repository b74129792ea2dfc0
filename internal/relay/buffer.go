package relay

import (
	"bytes"
	"time"
)

// windowBuffer coalesces backend audio into fixed time windows before it is
// written to the caller stream. The window check runs only when a frame
// arrives; there is no ticker. The first frame after a flush records the
// reference time, and any later frame arriving once the window has elapsed
// flushes everything accumulated so far, that frame included, as one write.
type windowBuffer struct {
	window time.Duration
	now    func() time.Time

	buf     bytes.Buffer
	started bool
	startAt time.Time
}

func newWindowBuffer(window time.Duration, now func() time.Time) *windowBuffer {
	return &windowBuffer{window: window, now: now}
}

// Append adds one frame and returns the full accumulated payload when the
// window has elapsed, nil otherwise.
func (b *windowBuffer) Append(frame []byte) []byte {
	b.buf.Write(frame)
	if !b.started {
		b.started = true
		b.startAt = b.now()
		return nil
	}
	if b.now().Sub(b.startAt) < b.window {
		return nil
	}
	return b.take()
}

// Drain returns whatever is buffered regardless of timing. Used at teardown so
// no received audio is ever lost.
func (b *windowBuffer) Drain() []byte {
	if b.buf.Len() == 0 {
		return nil
	}
	return b.take()
}

// Discard drops the accumulated audio, e.g. after a playback interruption.
func (b *windowBuffer) Discard() {
	b.buf.Reset()
	b.started = false
}

func (b *windowBuffer) Len() int {
	return b.buf.Len()
}

func (b *windowBuffer) take() []byte {
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	b.buf.Reset()
	b.started = false
	return out
}
