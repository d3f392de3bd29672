package bridge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hexput/runtime/internal/rterr"
	"github.com/hexput/runtime/internal/session"
	"github.com/hexput/runtime/internal/value"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClientRouter wires a Router whose outbound frames are fed back
// into HandleFrame by respond, simulating a client on the other end
// of the connection.
func newClientRouter(t *testing.T, respond func(frame map[string]any) (reply map[string]any, ok bool)) *session.Router {
	var r *session.Router
	r = session.NewRouter(func(raw []byte) error {
		var frame map[string]any
		if err := json.Unmarshal(raw, &frame); err != nil {
			return err
		}
		if reply, ok := respond(frame); ok {
			data, err := json.Marshal(reply)
			if err != nil {
				return err
			}
			r.HandleFrame(data)
		}
		return nil
	}, zerolog.Nop())
	t.Cleanup(r.Close)
	return r
}

func TestCallRemoteHappyPath(t *testing.T) {
	router := newClientRouter(t, func(frame map[string]any) (map[string]any, bool) {
		switch frame["action"] {
		case "is_function_exists":
			return map[string]any{"id": frame["id"], "exists": true}, true
		default:
			args := frame["arguments"].([]any)
			a, b := args[0].(float64), args[1].(float64)
			return map[string]any{"id": frame["id"], "result": a * b}, true
		}
	})
	b := New(router, time.Second, time.Second)

	result, err := b.CallRemote("calc", []value.Value{value.Number(3), value.Number(4)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 12.0, result.Number)
}

func TestCallRemoteFunctionNotFound(t *testing.T) {
	router := newClientRouter(t, func(frame map[string]any) (map[string]any, bool) {
		return map[string]any{"id": frame["id"], "exists": false}, true
	})
	b := New(router, time.Second, time.Second)

	_, err := b.CallRemote("nope", nil, nil)
	require.Error(t, err)
	assert.True(t, rterr.Is(err, rterr.KindFunctionNotFound))
}

func TestCallRemoteProbeTimeout(t *testing.T) {
	router := newClientRouter(t, func(frame map[string]any) (map[string]any, bool) {
		return nil, false // never answer
	})
	b := New(router, 20*time.Millisecond, time.Second)

	_, err := b.CallRemote("slow", nil, nil)
	require.Error(t, err)
	assert.True(t, rterr.Is(err, rterr.KindFunctionNotFound))
}

func TestCallRemoteCallTimeout(t *testing.T) {
	router := newClientRouter(t, func(frame map[string]any) (map[string]any, bool) {
		if frame["action"] == "is_function_exists" {
			return map[string]any{"id": frame["id"], "exists": true}, true
		}
		return nil, false // stall the call phase
	})
	b := New(router, time.Second, 20*time.Millisecond)

	_, err := b.CallRemote("hangs", nil, nil)
	require.Error(t, err)
	assert.True(t, rterr.Is(err, rterr.KindTimeout))
}

func TestCallRemoteRemoteError(t *testing.T) {
	router := newClientRouter(t, func(frame map[string]any) (map[string]any, bool) {
		if frame["action"] == "is_function_exists" {
			return map[string]any{"id": frame["id"], "exists": true}, true
		}
		return map[string]any{"id": frame["id"], "error": "boom"}, true
	})
	b := New(router, time.Second, time.Second)

	_, err := b.CallRemote("explodes", nil, nil)
	require.Error(t, err)
	assert.True(t, rterr.Is(err, rterr.KindRemoteError))
}

func TestCallRemoteAttachesSecretContextOnlyToCallFrame(t *testing.T) {
	var sawSecretOnProbe, sawSecretOnCall bool
	router := newClientRouter(t, func(frame map[string]any) (map[string]any, bool) {
		_, hasSecret := frame["secret_context"]
		if frame["action"] == "is_function_exists" {
			sawSecretOnProbe = hasSecret
			return map[string]any{"id": frame["id"], "exists": true}, true
		}
		sawSecretOnCall = hasSecret
		return map[string]any{"id": frame["id"], "result": nil}, true
	})
	b := New(router, time.Second, time.Second)

	_, err := b.CallRemote("withSecret", nil, map[string]any{"apiKey": "K"})
	require.NoError(t, err)
	assert.False(t, sawSecretOnProbe)
	assert.True(t, sawSecretOnCall)
}
