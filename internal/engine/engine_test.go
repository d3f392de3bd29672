package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hexput/runtime/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWiredRouter builds a router whose RequestHandler is this Engine's
// and whose outbound writes (both bridge probes/calls and the
// eventual response frame) are captured by collect, with respond
// simulating whatever the far end of the connection would answer for
// an outbound bridge frame.
func newWiredRouter(t *testing.T, e *Engine, respond func(frame map[string]any) (reply map[string]any, ok bool)) (*session.Router, chan map[string]any) {
	t.Helper()
	responses := make(chan map[string]any, 8)
	var router *session.Router
	router = session.NewRouter(func(raw []byte) error {
		var frame map[string]any
		if err := json.Unmarshal(raw, &frame); err != nil {
			return err
		}
		if _, isResponse := frame["success"]; isResponse {
			responses <- frame
			return nil
		}
		if reply, ok := respond(frame); ok {
			data, err := json.Marshal(reply)
			if err != nil {
				return err
			}
			router.HandleFrame(data)
		}
		return nil
	}, zerolog.Nop())
	router.RequestHandler = e.Handler(router)
	t.Cleanup(router.Close)
	return router, responses
}

func TestHandleParseReturnsAST(t *testing.T) {
	e := New(zerolog.Nop(), time.Second, time.Second, 0)
	router, responses := newWiredRouter(t, e, nil)

	req, _ := json.Marshal(map[string]any{"id": "p1", "action": "parse", "code": "return 1 + 2;"})
	router.HandleFrame(req)

	resp := <-responses
	assert.Equal(t, "p1", resp["id"])
	assert.Equal(t, true, resp["success"])
	result := resp["result"].(map[string]any)
	assert.Equal(t, "Block", result["kind"])
}

func TestHandleParseSyntaxErrorReported(t *testing.T) {
	e := New(zerolog.Nop(), time.Second, time.Second, 0)
	router, responses := newWiredRouter(t, e, nil)

	req, _ := json.Marshal(map[string]any{"id": "p2", "action": "parse", "code": "let = ;"})
	router.HandleFrame(req)

	resp := <-responses
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, resp["error"])
}

func TestHandleExecuteReturnsResult(t *testing.T) {
	e := New(zerolog.Nop(), time.Second, time.Second, 0)
	router, responses := newWiredRouter(t, e, nil)

	req, _ := json.Marshal(map[string]any{"id": "e1", "action": "execute", "code": "return 2 * 21;"})
	router.HandleFrame(req)

	resp := <-responses
	require.Equal(t, true, resp["success"])
	assert.Equal(t, 42.0, resp["result"])
}

func TestHandleExecuteSeedsContext(t *testing.T) {
	e := New(zerolog.Nop(), time.Second, time.Second, 0)
	router, responses := newWiredRouter(t, e, nil)

	req, _ := json.Marshal(map[string]any{
		"id": "e2", "action": "execute", "code": "return x + 1;",
		"context": map[string]any{"x": 9},
	})
	router.HandleFrame(req)

	resp := <-responses
	require.Equal(t, true, resp["success"])
	assert.Equal(t, 10.0, resp["result"])
}

func TestHandleExecuteRemoteCallViaBridge(t *testing.T) {
	e := New(zerolog.Nop(), time.Second, time.Second, 0)
	router, responses := newWiredRouter(t, e, func(frame map[string]any) (map[string]any, bool) {
		if frame["action"] == "is_function_exists" {
			return map[string]any{"id": frame["id"], "exists": true}, true
		}
		args := frame["arguments"].([]any)
		return map[string]any{"id": frame["id"], "result": args[0].(float64) + args[1].(float64)}, true
	})

	req, _ := json.Marshal(map[string]any{"id": "e3", "action": "execute", "code": "return add(1, 2);"})
	router.HandleFrame(req)

	resp := <-responses
	require.Equal(t, true, resp["success"])
	assert.Equal(t, 3.0, resp["result"])
}

func TestHandleExecuteRuntimeErrorReported(t *testing.T) {
	e := New(zerolog.Nop(), time.Second, time.Second, 0)
	router, responses := newWiredRouter(t, e, nil)

	req, _ := json.Marshal(map[string]any{"id": "e4", "action": "execute", "code": "return missing.field;"})
	router.HandleFrame(req)

	resp := <-responses
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "NameError")
}

func TestUnsupportedActionReportsError(t *testing.T) {
	e := New(zerolog.Nop(), time.Second, time.Second, 0)
	router, responses := newWiredRouter(t, e, nil)

	req, _ := json.Marshal(map[string]any{"id": "x1", "action": "is_function_exists", "function_name": "foo"})
	router.HandleFrame(req)

	resp := <-responses
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "unsupported action")
}
