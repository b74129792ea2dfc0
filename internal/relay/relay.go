package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/antoniostano/voicebridge/internal/audio"
	"github.com/antoniostano/voicebridge/internal/backend"
	"github.com/antoniostano/voicebridge/internal/calls"
	"github.com/antoniostano/voicebridge/internal/dispatch"
	"github.com/antoniostano/voicebridge/internal/observability"
	"github.com/antoniostano/voicebridge/internal/protocol"
)

// BackendChannel is the duplex leg to the voice backend for one call.
type BackendChannel interface {
	SendAudio(chunk []byte) error
	SendControl(msg any) error
	Frames() <-chan backend.Frame
	Ready() bool
	Close() error
}

// SessionOpener creates the backend session for a call. Open failing is fatal
// to that call.
type SessionOpener interface {
	Open(ctx context.Context, callerID string, templateContext map[string]string) (BackendChannel, error)
}

// OpenerFunc adapts a function to the SessionOpener interface.
type OpenerFunc func(ctx context.Context, callerID string, templateContext map[string]string) (BackendChannel, error)

func (f OpenerFunc) Open(ctx context.Context, callerID string, templateContext map[string]string) (BackendChannel, error) {
	return f(ctx, callerID, templateContext)
}

// Dispatcher answers tool invocations over the backend channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, callerID string, inv protocol.ClientToolInvocation, out dispatch.Sender)
}

type Config struct {
	FlushWindow       time.Duration
	BackendSampleRate int
	// CallerSampleRate enables resampling on both legs when it differs from the
	// backend rate. 0 means the legs share a rate and audio passes through.
	CallerSampleRate int
}

// Bridge holds the per-process collaborators shared by every call. All mutable
// state lives in the per-call session it spins up in RunCall.
type Bridge struct {
	opener     SessionOpener
	dispatcher Dispatcher
	tracker    *calls.Tracker
	metrics    *observability.Metrics
	cfg        Config
	now        func() time.Time
}

func NewBridge(opener SessionOpener, dispatcher Dispatcher, tracker *calls.Tracker, metrics *observability.Metrics, cfg Config) *Bridge {
	if cfg.FlushWindow <= 0 {
		cfg.FlushWindow = 100 * time.Millisecond
	}
	return &Bridge{
		opener:     opener,
		dispatcher: dispatcher,
		tracker:    tracker,
		metrics:    metrics,
		cfg:        cfg,
		now:        time.Now,
	}
}

// RunCall bridges one caller stream to one backend session and blocks until
// either leg ends. The returned error is non-nil only when the backend session
// could not be opened; transport teardown mid-call is a normal return.
func (b *Bridge) RunCall(ctx context.Context, callerID string, in io.Reader, out io.Writer) error {
	c := &call{
		callerID: callerID,
		bridge:   b,
		window:   newWindowBuffer(b.cfg.FlushWindow, b.now),
		channel:  make(chan BackendChannel, 1),
	}
	if b.cfg.CallerSampleRate > 0 && b.cfg.CallerSampleRate != b.cfg.BackendSampleRate {
		c.inResampler = audio.NewResampler(b.cfg.CallerSampleRate, b.cfg.BackendSampleRate)
		c.outResampler = audio.NewResampler(b.cfg.BackendSampleRate, b.cfg.CallerSampleRate)
	}

	b.tracker.Begin(callerID)
	b.metrics.ActiveCalls.Set(float64(b.tracker.ActiveCount()))
	b.metrics.CallEvents.WithLabelValues("started").Inc()
	defer func() {
		b.tracker.End(callerID)
		b.metrics.ActiveCalls.Set(float64(b.tracker.ActiveCount()))
		b.metrics.CallEvents.WithLabelValues("ended").Inc()
	}()

	return c.run(ctx, in, out)
}

// call owns all mutable state for one bridged call: the window buffer, the
// resampler remainders and the backend call ID. Only the run loop mutates them.
type call struct {
	callerID string
	bridge   *Bridge

	window       *windowBuffer
	inResampler  *audio.Resampler
	outResampler *audio.Resampler

	// channel hands the opened backend leg to the inbound pump. Audio read
	// before it arrives is dropped, by design, rather than queued.
	channel chan BackendChannel

	backendCallID string
}

func (c *call) run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.pumpInbound(ctx, in, cancel)

	ch, err := c.bridge.opener.Open(ctx, c.callerID, c.templateContext())
	if err != nil {
		c.bridge.metrics.CallEvents.WithLabelValues("open_failed").Inc()
		return fmt.Errorf("open backend session for %s: %w", c.callerID, err)
	}
	c.channel <- ch
	defer ch.Close()

	_ = c.bridge.tracker.SetActive(c.callerID)
	c.bridge.metrics.CallEvents.WithLabelValues("backend_connected").Inc()

	flusher, _ := out.(http.Flusher)
	frames := ch.Frames()
	for {
		select {
		case <-ctx.Done():
			// Caller leg ended; close the backend leg and drain its reader.
			_ = ch.Close()
			for range frames {
			}
			return nil
		case frame, ok := <-frames:
			if !ok {
				// Backend closed. Hand over whatever the window still holds so
				// received audio is never lost, then end the caller stream.
				if tail := c.window.Drain(); tail != nil {
					_ = c.writeOut(out, flusher, tail)
				}
				return nil
			}
			if frame.Binary {
				if err := c.handleAudio(frame.Data, out, flusher); err != nil {
					log.Printf("call %s: caller stream write failed: %v", c.callerID, err)
					_ = ch.Close()
					for range frames {
					}
					return nil
				}
			} else {
				c.handleControl(ctx, frame.Data, ch)
			}
		}
	}
}

// pumpInbound moves caller audio to the backend for the lifetime of the caller
// stream. Chunks arriving before the channel is ready, or after it closed, are
// dropped without queueing; buffering here would only add latency.
func (c *call) pumpInbound(ctx context.Context, in io.Reader, cancel context.CancelFunc) {
	// Caller stream end or error tears down the whole relay.
	defer cancel()

	var ch BackendChannel
	buf := make([]byte, 4096)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if ch == nil {
				select {
				case ch = <-c.channel:
				default:
				}
			}
			if ch != nil && ch.Ready() {
				chunk := buf[:n]
				if c.inResampler != nil {
					chunk = c.inResampler.Process(chunk)
				}
				if len(chunk) > 0 {
					if werr := ch.SendAudio(chunk); werr != nil {
						return
					}
					c.bridge.metrics.AudioBytes.WithLabelValues("inbound").Add(float64(len(chunk)))
				}
			} else {
				c.bridge.metrics.InboundDroppedChunk.Inc()
			}
		}
		if err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (c *call) handleAudio(frame []byte, out io.Writer, flusher http.Flusher) error {
	chunk := frame
	if c.outResampler != nil {
		chunk = c.outResampler.Process(chunk)
	}
	if len(chunk) == 0 {
		return nil
	}
	flushed := c.window.Append(chunk)
	if flushed == nil {
		return nil
	}
	return c.writeOut(out, flusher, flushed)
}

func (c *call) writeOut(out io.Writer, flusher http.Flusher, payload []byte) error {
	if _, err := out.Write(payload); err != nil {
		return err
	}
	if flusher != nil {
		flusher.Flush()
	}
	c.bridge.metrics.AudioFlushes.Inc()
	c.bridge.metrics.AudioBytes.WithLabelValues("outbound").Add(float64(len(payload)))
	return nil
}

// handleControl applies one control frame to the call state. A malformed frame
// is a protocol violation by the backend and must not take the session down.
func (c *call) handleControl(ctx context.Context, data []byte, ch BackendChannel) {
	msg, err := protocol.ParseServerMessage(data)
	if errors.Is(err, protocol.ErrUnknownType) {
		c.bridge.metrics.ControlFrames.WithLabelValues("unknown").Inc()
		log.Printf("call %s: ignoring control frame: %v", c.callerID, err)
		return
	}
	if err != nil {
		c.bridge.metrics.ProtocolErrors.Inc()
		log.Printf("call %s: unparseable control frame: %v", c.callerID, err)
		return
	}

	switch m := msg.(type) {
	case protocol.CallStarted:
		c.bridge.metrics.ControlFrames.WithLabelValues(string(protocol.TypeCallStarted)).Inc()
		c.backendCallID = m.CallID
		_ = c.bridge.tracker.SetBackendCall(c.callerID, m.CallID)
		log.Printf("call %s: backend call %s started", c.callerID, m.CallID)
	case protocol.State:
		c.bridge.metrics.ControlFrames.WithLabelValues(string(protocol.TypeState)).Inc()
	case protocol.Transcript:
		c.bridge.metrics.ControlFrames.WithLabelValues(string(protocol.TypeTranscript)).Inc()
		if m.Final {
			log.Printf("call %s: %s transcript (%s): %s", c.callerID, m.Role, m.Medium, m.Text)
		}
	case protocol.ClientToolInvocation:
		c.bridge.metrics.ControlFrames.WithLabelValues(string(protocol.TypeClientToolInvocation)).Inc()
		// Each invocation completes independently; results may interleave.
		go c.bridge.dispatcher.Dispatch(ctx, c.callerID, m, ch)
	case protocol.PlaybackClearBuffer:
		c.bridge.metrics.ControlFrames.WithLabelValues(string(protocol.TypePlaybackClearBuffer)).Inc()
		c.window.Discard()
		if c.outResampler != nil {
			c.outResampler.Reset()
		}
	case protocol.ServerError:
		c.bridge.metrics.ControlFrames.WithLabelValues(string(protocol.TypeError)).Inc()
		log.Printf("call %s: backend reported error: %s", c.callerID, string(data))
	}
}

func (c *call) templateContext() map[string]string {
	return map[string]string{
		"callerId":               c.callerID,
		backend.DateTimeVariable: "",
	}
}
