package relay

import (
	"bytes"
	"testing"
	"time"
)

type fakeClock struct {
	at time.Time
}

func (c *fakeClock) now() time.Time          { return c.at }
func (c *fakeClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func TestWindowBufferHoldsUntilWindowElapses(t *testing.T) {
	clock := &fakeClock{at: time.Unix(0, 0)}
	b := newWindowBuffer(100*time.Millisecond, clock.now)

	if got := b.Append([]byte("aaa")); got != nil {
		t.Fatalf("first frame flushed = %q, want nil", got)
	}
	clock.advance(50 * time.Millisecond)
	if got := b.Append([]byte("bbb")); got != nil {
		t.Fatalf("frame inside window flushed = %q, want nil", got)
	}
	clock.advance(50 * time.Millisecond)
	got := b.Append([]byte("ccc"))
	if !bytes.Equal(got, []byte("aaabbbccc")) {
		t.Fatalf("flush = %q, want %q", got, "aaabbbccc")
	}
	if b.Len() != 0 {
		t.Fatalf("Len() after flush = %d, want 0", b.Len())
	}
}

func TestWindowBufferChecksOnlyOnArrival(t *testing.T) {
	clock := &fakeClock{at: time.Unix(0, 0)}
	b := newWindowBuffer(100*time.Millisecond, clock.now)

	b.Append([]byte("x"))
	// A long silence with no frames never triggers a flush by itself.
	clock.advance(10 * time.Second)
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
	got := b.Append([]byte("y"))
	if !bytes.Equal(got, []byte("xy")) {
		t.Fatalf("flush = %q, want %q", got, "xy")
	}
}

func TestWindowBufferRestartsAfterFlush(t *testing.T) {
	clock := &fakeClock{at: time.Unix(0, 0)}
	b := newWindowBuffer(100*time.Millisecond, clock.now)

	b.Append([]byte("a"))
	clock.advance(150 * time.Millisecond)
	if got := b.Append([]byte("b")); got == nil {
		t.Fatalf("expected flush after window elapsed")
	}

	// The next frame opens a fresh window measured from its own arrival.
	if got := b.Append([]byte("c")); got != nil {
		t.Fatalf("first frame of new window flushed = %q, want nil", got)
	}
	clock.advance(99 * time.Millisecond)
	if got := b.Append([]byte("d")); got != nil {
		t.Fatalf("frame inside new window flushed = %q, want nil", got)
	}
	clock.advance(1 * time.Millisecond)
	if got := b.Append([]byte("e")); !bytes.Equal(got, []byte("cde")) {
		t.Fatalf("flush = %q, want %q", got, "cde")
	}
}

func TestWindowBufferConservesBytes(t *testing.T) {
	clock := &fakeClock{at: time.Unix(0, 0)}
	b := newWindowBuffer(100*time.Millisecond, clock.now)

	var in, out int
	frames := [][]byte{[]byte("one"), []byte("two"), []byte("three"), []byte("four")}
	for _, f := range frames {
		in += len(f)
		if flushed := b.Append(f); flushed != nil {
			out += len(flushed)
		}
		clock.advance(70 * time.Millisecond)
	}
	if tail := b.Drain(); tail != nil {
		out += len(tail)
	}
	if in != out {
		t.Fatalf("bytes out = %d, want %d", out, in)
	}
}

func TestWindowBufferDiscard(t *testing.T) {
	clock := &fakeClock{at: time.Unix(0, 0)}
	b := newWindowBuffer(100*time.Millisecond, clock.now)

	b.Append([]byte("stale"))
	b.Discard()
	if b.Len() != 0 {
		t.Fatalf("Len() after Discard = %d, want 0", b.Len())
	}
	if got := b.Drain(); got != nil {
		t.Fatalf("Drain() after Discard = %q, want nil", got)
	}

	// Discard also resets the window reference.
	if got := b.Append([]byte("fresh")); got != nil {
		t.Fatalf("first frame after Discard flushed = %q, want nil", got)
	}
}
