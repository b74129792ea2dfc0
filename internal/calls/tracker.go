package calls

import (
	"errors"
	"sort"
	"sync"
	"time"
)

type Status string

const (
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
)

var ErrNotFound = errors.New("call not found")

// Call is the lifetime-bounded pairing of one caller stream with one backend
// session. Nothing here survives the connection.
type Call struct {
	CallerID      string    `json:"caller_id"`
	BackendCallID string    `json:"backend_call_id,omitempty"`
	Status        Status    `json:"status"`
	StartedAt     time.Time `json:"started_at"`
}

// Tracker keeps the set of live calls for metrics and the observability
// endpoint. Each call is owned by its relay; the tracker only mirrors state.
type Tracker struct {
	mu    sync.RWMutex
	calls map[string]*Call
}

func NewTracker() *Tracker {
	return &Tracker{calls: make(map[string]*Call)}
}

func (t *Tracker) Begin(callerID string) *Call {
	c := &Call{
		CallerID:  callerID,
		Status:    StatusConnecting,
		StartedAt: time.Now().UTC(),
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[callerID] = c
	return clone(c)
}

func (t *Tracker) SetActive(callerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[callerID]
	if !ok {
		return ErrNotFound
	}
	c.Status = StatusActive
	return nil
}

func (t *Tracker) SetBackendCall(callerID, backendCallID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[callerID]
	if !ok {
		return ErrNotFound
	}
	c.BackendCallID = backendCallID
	return nil
}

func (t *Tracker) Get(callerID string) (*Call, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.calls[callerID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

// End removes the call. Ended calls are not retained anywhere.
func (t *Tracker) End(callerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.calls, callerID)
}

func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.calls)
}

// Snapshot returns the live calls sorted by start time.
func (t *Tracker) Snapshot() []*Call {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Call, 0, len(t.calls))
	for _, c := range t.calls {
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func clone(c *Call) *Call {
	out := *c
	return &out
}
