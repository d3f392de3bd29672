// Package engine ties the session router to one parse/execute request:
// it is the top-level RequestHandler spec §4.3 describes the router
// spawning a goroutine for, generalizing the teacher's sandbox.Runtime
// (which wired a single Bridge to a single agent run) into a
// per-request dispatcher that builds a fresh interp.Interp for every
// `execute` frame, matching spec §3's "an interpreter run is bounded
// by one execute request."
package engine

import (
	"encoding/json"
	"time"

	"github.com/hexput/runtime/internal/bridge"
	"github.com/hexput/runtime/internal/interp"
	"github.com/hexput/runtime/internal/langast"
	"github.com/hexput/runtime/internal/langparse"
	"github.com/hexput/runtime/internal/rterr"
	"github.com/hexput/runtime/internal/scope"
	"github.com/hexput/runtime/internal/session"
	"github.com/hexput/runtime/internal/value"
	"github.com/rs/zerolog"
)

// Engine holds the per-connection defaults used to build each
// request's Bridge and Interp.
type Engine struct {
	log          zerolog.Logger
	probeTimeout time.Duration
	callTimeout  time.Duration
	maxDepth     int
}

// New builds an Engine. Zero timeouts/maxDepth fall back to
// internal/bridge and internal/interp's own defaults.
func New(log zerolog.Logger, probeTimeout, callTimeout time.Duration, maxDepth int) *Engine {
	return &Engine{log: log, probeTimeout: probeTimeout, callTimeout: callTimeout, maxDepth: maxDepth}
}

// request is the inbound top-level request envelope of spec §6: the
// `action` field selects parse or execute, the rest are interpreted
// per-action.
type request struct {
	ID      string          `json:"id"`
	Action  string          `json:"action"`
	Code    string          `json:"code"`
	Options map[string]bool `json:"options"`
	// Context is kept as each key's raw JSON bytes rather than
	// map[string]any so a nested object's key order survives into
	// scope.FromContextJSON (spec §3 "Object": insertion order preserved
	// for key enumeration) instead of being lost to Go's unordered maps.
	Context       map[string]json.RawMessage `json:"context"`
	SecretContext json.RawMessage            `json:"secret_context"`
}

type response struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler returns a session.Router.RequestHandler bound to this
// Engine and router: the router hands it every frame classified as a
// top-level request, and the handler replies over the same router.
func (e *Engine) Handler(router *session.Router) func(raw json.RawMessage) {
	return func(raw json.RawMessage) {
		var req request
		if err := json.Unmarshal(raw, &req); err != nil {
			e.log.Warn().Err(err).Msg("malformed request frame")
			return
		}
		reqLog := e.log.With().Str("request_id", req.ID).Str("action", req.Action).Logger()

		var resp response
		switch req.Action {
		case "parse":
			resp = e.handleParse(req)
		case "execute":
			resp = e.handleExecute(req, router)
		default:
			resp = response{ID: req.ID, Success: false, Error: rterr.New(rterr.KindInternalError, "unsupported action %q", req.Action).Error()}
		}
		if !resp.Success {
			reqLog.Debug().Str("error", resp.Error).Msg("request failed")
		}

		if err := router.Send(resp); err != nil {
			reqLog.Warn().Err(err).Msg("failed to send response")
		}
	}
}

func (e *Engine) handleParse(req request) response {
	flags := langast.ParseOptions(req.Options)
	block, err := langparse.Parse(req.Code, flags)
	if err != nil {
		return response{ID: req.ID, Success: false, Error: err.Error()}
	}
	return response{ID: req.ID, Success: true, Result: langast.ToJSON(block)}
}

func (e *Engine) handleExecute(req request, router *session.Router) response {
	flags := langast.ParseOptions(req.Options)
	block, err := langparse.Parse(req.Code, flags)
	if err != nil {
		return response{ID: req.ID, Success: false, Error: err.Error()}
	}

	var secretContext any
	if len(req.SecretContext) > 0 {
		if err := json.Unmarshal(req.SecretContext, &secretContext); err != nil {
			return response{ID: req.ID, Success: false, Error: rterr.New(rterr.KindInternalError, "invalid secret_context: %v", err).Error()}
		}
	}

	br := bridge.New(router, e.probeTimeout, e.callTimeout)
	ip := interp.New(br, flags, secretContext, e.maxDepth)

	result, err := ip.Execute(block, scope.FromContextJSON(req.Context))
	if err != nil {
		return response{ID: req.ID, Success: false, Error: err.Error()}
	}
	return response{ID: req.ID, Success: true, Result: value.ToJSON(result)}
}
