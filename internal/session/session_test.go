package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*Router, func() [][]byte) {
	var mu sync.Mutex
	var frames [][]byte
	r := NewRouter(func(b []byte) error {
		mu.Lock()
		defer mu.Unlock()
		cp := append([]byte(nil), b...)
		frames = append(frames, cp)
		return nil
	}, zerolog.Nop())
	t.Cleanup(r.Close)
	return r, func() [][]byte {
		mu.Lock()
		defer mu.Unlock()
		return frames
	}
}

func TestRegisterAndDeliverMatchingKind(t *testing.T) {
	r, _ := newTestRouter(t)
	id, ch := r.Register(KindProbe, time.Second)

	ok := r.Deliver(id, KindProbe, Reply{Exists: true})
	require.True(t, ok)

	select {
	case reply := <-ch:
		assert.True(t, reply.Exists)
	case <-time.After(time.Second):
		t.Fatal("reply never delivered")
	}
}

func TestDeliverKindMismatchIsDropped(t *testing.T) {
	r, _ := newTestRouter(t)
	id, ch := r.Register(KindProbe, time.Second)

	ok := r.Deliver(id, KindCall, Reply{Result: json.RawMessage("1")})
	assert.False(t, ok)

	select {
	case <-ch:
		t.Fatal("mismatched reply should not be delivered")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeliverUnknownIDReturnsFalse(t *testing.T) {
	r, _ := newTestRouter(t)
	assert.False(t, r.Deliver("nonexistent", KindProbe, Reply{Exists: true}))
}

func TestRegisterTimesOut(t *testing.T) {
	r, _ := newTestRouter(t)
	_, ch := r.Register(KindCall, 10*time.Millisecond)

	select {
	case reply := <-ch:
		assert.True(t, reply.TimedOut)
	case <-time.After(time.Second):
		t.Fatal("entry never timed out")
	}
}

func TestCloseReleasesPendingWithClosedReply(t *testing.T) {
	r, _ := newTestRouter(t)
	_, ch := r.Register(KindProbe, time.Minute)

	r.Close()

	select {
	case reply := <-ch:
		assert.True(t, reply.Closed)
	case <-time.After(time.Second):
		t.Fatal("close did not release pending entry")
	}
}

func TestSendAfterCloseReturnsError(t *testing.T) {
	r, _ := newTestRouter(t)
	r.Close()
	err := r.Send(map[string]any{"a": 1})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestHandleFrameDispatchesRequestAction(t *testing.T) {
	r, _ := newTestRouter(t)
	done := make(chan json.RawMessage, 1)
	r.RequestHandler = func(raw json.RawMessage) { done <- raw }

	r.HandleFrame([]byte(`{"id":"1","action":"execute","code":"return 1;"}`))

	select {
	case raw := <-done:
		assert.Contains(t, string(raw), `"action":"execute"`)
	case <-time.After(time.Second):
		t.Fatal("request handler never invoked")
	}
}

func TestHandleFrameRoutesProbeReply(t *testing.T) {
	r, _ := newTestRouter(t)
	id, ch := r.Register(KindProbe, time.Second)

	r.HandleFrame([]byte(`{"id":"` + id + `","exists":true}`))

	select {
	case reply := <-ch:
		assert.True(t, reply.Exists)
	case <-time.After(time.Second):
		t.Fatal("probe reply never routed")
	}
}

func TestHandleFrameRoutesCallReplyWithError(t *testing.T) {
	r, _ := newTestRouter(t)
	id, ch := r.Register(KindCall, time.Second)

	r.HandleFrame([]byte(`{"id":"` + id + `","error":"boom"}`))

	select {
	case reply := <-ch:
		assert.True(t, reply.HasError)
		assert.Equal(t, "boom", reply.Error)
	case <-time.After(time.Second):
		t.Fatal("call error reply never routed")
	}
}

func TestHandleFrameIgnoresUnclassifiable(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RequestHandler = func(json.RawMessage) { t.Fatal("should not be called") }
	r.HandleFrame([]byte(`{"noise":true}`))
}

func TestSendWritesFrame(t *testing.T) {
	r, frames := newTestRouter(t)
	require.NoError(t, r.Send(map[string]any{"id": "1", "success": true, "result": 15}))

	require.Eventually(t, func() bool { return len(frames()) == 1 }, time.Second, 5*time.Millisecond)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(frames()[0], &decoded))
	assert.Equal(t, "1", decoded["id"])
}
