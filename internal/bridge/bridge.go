// Package bridge implements the remote-function bridge of spec §4.4:
// a two-phase (existence probe, then call) async RPC that lets the
// interpreter suspend on an unresolved identifier until the client
// answers, without blocking the session's reader. It is the
// WebSocket-targeted descendant of the teacher's JSON-RPC-over-pipe
// pending-map pattern (internal/sandbox/bridge.go), generalized to
// route probes and calls through a session.Router's outbound channel
// and pending-id registry instead of a subprocess's stdin/stdout.
package bridge

import (
	"time"

	"github.com/hexput/runtime/internal/rterr"
	"github.com/hexput/runtime/internal/session"
	"github.com/hexput/runtime/internal/value"
)

// Default per-attempt timeouts (spec §4.4: "reference values T_probe =
// 5s, T_call = 30s"). Neither phase retries.
const (
	DefaultProbeTimeout = 5 * time.Second
	DefaultCallTimeout  = 30 * time.Second
)

// Bridge issues probe/call RPCs over a session's router.
type Bridge struct {
	router       *session.Router
	probeTimeout time.Duration
	callTimeout  time.Duration
}

// New builds a Bridge bound to router. Zero timeouts fall back to the
// spec's reference defaults.
func New(router *session.Router, probeTimeout, callTimeout time.Duration) *Bridge {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Bridge{router: router, probeTimeout: probeTimeout, callTimeout: callTimeout}
}

// CallRemote runs the four-step algorithm of spec §4.4: probe for
// existence, then call, translating the bridge's wire Reply shapes
// into a Value or one of FunctionNotFound / RemoteError / Timeout.
// secretContext is attached verbatim to the outbound call frame only
// (never to the probe frame) when non-nil, per spec §4.4 "Secret
// context".
func (b *Bridge) CallRemote(name string, args []value.Value, secretContext any) (value.Value, error) {
	probeID, probeCh := b.router.Register(session.KindProbe, b.probeTimeout)
	if err := b.router.Send(map[string]any{
		"id":            probeID,
		"action":        "is_function_exists",
		"function_name": name,
	}); err != nil {
		return value.Null, rterr.New(rterr.KindRemoteError, "sending existence probe for %q: %v", name, err)
	}

	probeReply := <-probeCh
	if probeReply.Closed {
		return value.Null, rterr.New(rterr.KindRemoteError, "session closed awaiting probe reply for %q", name)
	}
	if probeReply.TimedOut || !probeReply.Exists {
		return value.Null, rterr.New(rterr.KindFunctionNotFound, "%s", name)
	}

	callID, callCh := b.router.Register(session.KindCall, b.callTimeout)
	frame := map[string]any{
		"id":            callID,
		"function_name": name,
		"arguments":     argsToJSON(args),
	}
	if secretContext != nil {
		frame["secret_context"] = secretContext
	}
	if err := b.router.Send(frame); err != nil {
		return value.Null, rterr.New(rterr.KindRemoteError, "sending call for %q: %v", name, err)
	}

	callReply := <-callCh
	switch {
	case callReply.Closed:
		return value.Null, rterr.New(rterr.KindRemoteError, "session closed awaiting call reply for %q", name)
	case callReply.TimedOut:
		return value.Null, rterr.New(rterr.KindTimeout, "%s", name)
	case callReply.HasError:
		return value.Null, rterr.New(rterr.KindRemoteError, "%s", callReply.Error)
	default:
		v, err := value.FromJSONBytes(callReply.Result)
		if err != nil {
			return value.Null, rterr.New(rterr.KindRemoteError, "decoding result for %q: %v", name, err)
		}
		return v, nil
	}
}

func argsToJSON(args []value.Value) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = value.ToJSON(a)
	}
	return out
}
