// Package session implements the router described in spec §4.3: one
// instance per duplex connection, demultiplexing inbound frames into
// the top-level request handler, pending existence-probe replies, or
// pending call replies, and serializing the outbound half.
package session

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PendingKind distinguishes an existence-probe reply from a call
// reply in the registry, per spec §3 "Pending-call entry".
type PendingKind int

const (
	KindProbe PendingKind = iota
	KindCall
)

// Reply is what a pending entry's resolver delivers. Exactly one of
// the following holds: Exists is set (probe reply), Result/Error is
// set (call reply), TimedOut is true (deadline elapsed), or Closed is
// true (session torn down while the entry was outstanding).
type Reply struct {
	Exists   bool
	HasError bool
	Error    string
	Result   json.RawMessage
	TimedOut bool
	Closed   bool
}

type pendingEntry struct {
	kind  PendingKind
	ch    chan Reply
	timer *time.Timer
}

// ErrSessionClosed is returned by Send once the router has shut down.
var ErrSessionClosed = errors.New("session closed")

// Router owns one session's pending-id registry and serialized
// outbound writer. RequestHandler is invoked (in its own goroutine,
// per spec §4.3 "the router spawns a task per top-level request") for
// every inbound frame classified as a top-level request.
type Router struct {
	log            zerolog.Logger
	writeFn        func([]byte) error
	RequestHandler func(raw json.RawMessage)

	mu      sync.Mutex
	pending map[string]*pendingEntry
	outCh   chan []byte
	closed  chan struct{}
	closeOnce sync.Once
}

// NewRouter builds a router whose outbound writes go through writeFn,
// which must itself be safe to call repeatedly and in sequence (a raw
// websocket.Conn.WriteMessage call qualifies; it is never called
// concurrently because writeLoop is the only caller).
func NewRouter(writeFn func([]byte) error, log zerolog.Logger) *Router {
	r := &Router{
		log:     log,
		writeFn: writeFn,
		pending: make(map[string]*pendingEntry),
		outCh:   make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
	go r.writeLoop()
	return r
}

func (r *Router) writeLoop() {
	for {
		select {
		case frame := <-r.outCh:
			if err := r.writeFn(frame); err != nil {
				r.log.Warn().Err(err).Msg("outbound write failed, closing session")
				r.Close()
				return
			}
		case <-r.closed:
			return
		}
	}
}

// Send marshals v and enqueues it on the single serialized outbound
// channel (spec §4.3 "Write discipline").
func (r *Router) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case r.outCh <- data:
		return nil
	case <-r.closed:
		return ErrSessionClosed
	}
}

// Register allocates a fresh id, adds it to the pending registry with
// the given deadline, and returns the id and the channel its eventual
// Reply arrives on. The channel receives exactly one Reply: a
// classified delivery, a TimedOut reply once the deadline elapses, or
// a Closed reply if the session is torn down first.
func (r *Router) Register(kind PendingKind, timeout time.Duration) (string, chan Reply) {
	id := uuid.NewString()
	ch := make(chan Reply, 1)
	entry := &pendingEntry{kind: kind, ch: ch}

	r.mu.Lock()
	r.pending[id] = entry
	r.mu.Unlock()

	entry.timer = time.AfterFunc(timeout, func() { r.resolve(id, Reply{TimedOut: true}) })
	return id, ch
}

// Deliver routes a classified reply to the pending entry registered
// under id, provided its kind matches. A kind mismatch is logged and
// dropped; the entry is left registered until its own deadline (spec
// §4.3 "Pending registry"). Returns false if id is unknown or the kind
// didn't match.
func (r *Router) Deliver(id string, kind PendingKind, reply Reply) bool {
	r.mu.Lock()
	entry, ok := r.pending[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	if entry.kind != kind {
		r.mu.Unlock()
		r.log.Warn().Str("id", id).Msg("reply kind mismatch, dropping")
		return false
	}
	delete(r.pending, id)
	r.mu.Unlock()

	entry.timer.Stop()
	entry.ch <- reply
	return true
}

func (r *Router) resolve(id string, reply Reply) {
	r.mu.Lock()
	entry, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()
	if ok {
		entry.ch <- reply
	}
}

// HandleFrame classifies one inbound JSON frame per spec §4.3 and
// dispatches it: a top-level request is handed to RequestHandler in
// its own goroutine; a probe/call reply is delivered to its pending
// entry; anything else is logged and ignored.
func (r *Router) HandleFrame(raw []byte) {
	var shape struct {
		ID     string          `json:"id"`
		Action string          `json:"action"`
		Exists *bool           `json:"exists"`
		Result json.RawMessage `json:"result"`
		Error  *string         `json:"error"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		r.log.Warn().Err(err).Msg("malformed frame, ignoring")
		return
	}

	switch {
	case shape.Action != "":
		if r.RequestHandler != nil {
			go r.RequestHandler(json.RawMessage(raw))
		}
	case shape.Exists != nil:
		r.Deliver(shape.ID, KindProbe, Reply{Exists: *shape.Exists})
	case shape.Result != nil || shape.Error != nil:
		reply := Reply{}
		if shape.Error != nil {
			reply.HasError = true
			reply.Error = *shape.Error
		}
		if shape.Result != nil {
			// Kept as raw bytes so a later order-preserving decode (see
			// value.FromJSONBytes) can still recover the sender's key
			// order for an Object-shaped result.
			reply.Result = shape.Result
		}
		r.Deliver(shape.ID, KindCall, reply)
	default:
		r.log.Debug().Str("raw", string(raw)).Msg("unclassifiable frame, ignoring")
	}
}

// Close tears the router down, releasing every outstanding pending
// entry with a Closed reply (spec §5 "Cancellation": "Pending
// resolvers are released with a SessionClosed signal").
func (r *Router) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
		r.mu.Lock()
		entries := r.pending
		r.pending = make(map[string]*pendingEntry)
		r.mu.Unlock()
		for _, entry := range entries {
			entry.timer.Stop()
			entry.ch <- Reply{Closed: true}
		}
	})
}
