package transport

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hexput/runtime/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeHTTPEchoesRequestResponse(t *testing.T) {
	srv := NewServer(zerolog.Nop(), func(router *session.Router) func(raw json.RawMessage) {
		return func(raw json.RawMessage) {
			var req map[string]any
			require.NoError(t, json.Unmarshal(raw, &req))
			router.Send(map[string]any{"id": req["id"], "success": true, "result": "ok"})
		}
	})

	ts := httptest.NewServer(srv)
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var greeting map[string]any
	require.NoError(t, conn.ReadJSON(&greeting))
	assert.Equal(t, "connection", greeting["type"])
	assert.Equal(t, "connected", greeting["status"])

	require.NoError(t, conn.WriteJSON(map[string]any{"id": "1", "action": "execute", "code": "return 1;"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp map[string]any
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "1", resp["id"])
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "ok", resp["result"])
}

func TestServeHTTPRoutesBridgeProbeReply(t *testing.T) {
	srv := NewServer(zerolog.Nop(), func(router *session.Router) func(raw json.RawMessage) {
		return func(raw json.RawMessage) {
			id, ch := router.Register(session.KindProbe, time.Second)
			router.Send(map[string]any{"id": id, "action": "is_function_exists", "function_name": "ping"})
			reply := <-ch
			router.Send(map[string]any{"probed": true, "exists": reply.Exists})
		}
	})

	ts := httptest.NewServer(srv)
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var greeting map[string]any
	require.NoError(t, conn.ReadJSON(&greeting))
	assert.Equal(t, "connection", greeting["type"])
	assert.Equal(t, "connected", greeting["status"])

	require.NoError(t, conn.WriteJSON(map[string]any{"id": "warm", "action": "noop"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var probe map[string]any
	require.NoError(t, conn.ReadJSON(&probe))
	probeID := probe["id"]

	require.NoError(t, conn.WriteJSON(map[string]any{"id": probeID, "exists": true}))

	var final map[string]any
	require.NoError(t, conn.ReadJSON(&final))
	assert.Equal(t, true, final["probed"])
	assert.Equal(t, true, final["exists"])
}
