package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/voicebridge/internal/tools"
)

// ErrNoJoinURL is returned when the create-call response lacks a join endpoint.
// It is fatal to the call; no retry is attempted.
var ErrNoJoinURL = errors.New("create call response missing joinUrl")

type Config struct {
	BaseURL        string
	APIKey         string
	SystemPrompt   string
	VoiceName      string
	SampleRate     int
	ClientBufferMS int
	DialTimeout    time.Duration

	TemplateTimezone string
	TemplateLanguage string
}

// Opener creates backend sessions. One Open per call; the returned channel is
// single use and never reconnects.
type Opener struct {
	cfg        Config
	defs       []tools.Definition
	httpClient *http.Client
	loc        *time.Location
	now        func() time.Time
}

func NewOpener(cfg Config, defs []tools.Definition) (*Opener, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	loc, err := time.LoadLocation(cfg.TemplateTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid template timezone: %w", err)
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &Opener{
		cfg:        cfg,
		defs:       defs,
		httpClient: &http.Client{Timeout: cfg.DialTimeout},
		loc:        loc,
		now:        time.Now,
	}, nil
}

type serverWebSocketMedium struct {
	InputSampleRate    int `json:"inputSampleRate"`
	OutputSampleRate   int `json:"outputSampleRate"`
	ClientBufferSizeMs int `json:"clientBufferSizeMs"`
}

type createCallRequest struct {
	SystemPrompt    string             `json:"systemPrompt,omitempty"`
	Voice           string             `json:"voice,omitempty"`
	TemplateContext map[string]string  `json:"templateContext,omitempty"`
	Medium          map[string]any     `json:"medium"`
	SelectedTools   []tools.Definition `json:"selectedTools,omitempty"`
}

type createCallResponse struct {
	CallID  string `json:"callId"`
	JoinURL string `json:"joinUrl"`
}

// Open creates the backend call and dials its duplex websocket. The template
// context's datetime variable is resolved first so the backend receives prose
// rather than a raw timestamp. Any failure here is fatal to the caller's call.
func (o *Opener) Open(ctx context.Context, callerID string, templateContext map[string]string) (*Channel, error) {
	resolved := ResolveTemplateContext(templateContext, o.now(), o.loc, o.cfg.TemplateLanguage)

	payload := createCallRequest{
		SystemPrompt:    o.cfg.SystemPrompt,
		Voice:           o.cfg.VoiceName,
		TemplateContext: resolved,
		Medium: map[string]any{
			"serverWebSocket": serverWebSocketMedium{
				InputSampleRate:    o.cfg.SampleRate,
				OutputSampleRate:   o.cfg.SampleRate,
				ClientBufferSizeMs: o.cfg.ClientBufferMS,
			},
		},
		SelectedTools: o.defs,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(o.cfg.BaseURL, "/")+"/api/calls", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", o.cfg.APIKey)

	res, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create call request failed for %s: %w", callerID, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("create call response read failed: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("create call returned %d: %s", res.StatusCode, strings.TrimSpace(string(data)))
	}

	var created createCallResponse
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("create call response decode failed: %w", err)
	}
	if strings.TrimSpace(created.JoinURL) == "" {
		return nil, ErrNoJoinURL
	}

	dialer := websocket.Dialer{HandshakeTimeout: o.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, created.JoinURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial join endpoint: %w", err)
	}

	ch := &Channel{
		conn:   conn,
		frames: make(chan Frame, 256),
	}
	ch.ready.Store(true)
	go ch.readLoop()
	return ch, nil
}

// Frame is one unit received from the duplex channel: raw audio when Binary,
// otherwise a JSON control message.
type Frame struct {
	Binary bool
	Data   []byte
}

// Channel is the open duplex leg to the backend for one call.
type Channel struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	frames    chan Frame
	ready     atomic.Bool
}

// SendAudio forwards one caller audio chunk as a binary frame.
func (c *Channel) SendAudio(chunk []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

// SendControl sends one JSON control frame.
func (c *Channel) SendControl(msg any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Frames yields everything the backend sends until the channel closes.
func (c *Channel) Frames() <-chan Frame {
	return c.frames
}

// Ready reports whether audio may be forwarded. False before the handshake
// completes and after either side closes.
func (c *Channel) Ready() bool {
	return c.ready.Load()
}

func (c *Channel) Close() error {
	var retErr error
	c.closeOnce.Do(func() {
		c.ready.Store(false)
		retErr = c.conn.Close()
	})
	return retErr
}

func (c *Channel) readLoop() {
	defer func() {
		c.ready.Store(false)
		c.closeOnce.Do(func() {
			_ = c.conn.Close()
		})
		close(c.frames)
	}()
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			c.frames <- Frame{Binary: true, Data: data}
		case websocket.TextMessage:
			c.frames <- Frame{Data: data}
		}
	}
}
