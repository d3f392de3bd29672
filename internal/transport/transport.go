// Package transport upgrades incoming HTTP connections to WebSocket
// (spec §6 "Transport": "a single WebSocket connection is a session")
// and wires each one to a fresh session.Router, generalizing the
// teacher's sandbox Runtime/Bridge wiring (which paired one Bridge to
// one stdin/stdout subprocess) to one Router per accepted connection.
package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hexput/runtime/internal/session"
	"github.com/rs/zerolog"
)

// writeWait bounds how long a single outbound frame write may block
// before the connection is considered dead.
const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Scripts are run in a sandboxed interpreter and the bridge only
	// calls back into whatever client opened the connection, so there
	// is no session state an arbitrary origin could ride on; still,
	// operators embedding this behind a browser-reachable origin should
	// front it with their own CheckOrigin via a reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server accepts WebSocket connections and wires each to a
// session.Router whose RequestHandler is built by NewHandler.
type Server struct {
	log        zerolog.Logger
	NewHandler func(router *session.Router) func(raw json.RawMessage)
}

// NewServer builds a Server. newHandler is called once per accepted
// connection to build that connection's RequestHandler (typically
// (*engine.Engine).Handler, whose signature already matches
// session.Router.RequestHandler).
func NewServer(log zerolog.Logger, newHandler func(router *session.Router) func(raw json.RawMessage)) *Server {
	return &Server{log: log, NewHandler: newHandler}
}

// ServeHTTP upgrades the request to a WebSocket connection, then
// drives its read loop until the client disconnects or the router is
// otherwise closed. One goroutine per connection; the router owns a
// second goroutine for its serialized writer (internal/session).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sessionLog := s.log.With().Str("session_id", uuid.NewString()).Logger()

	router := session.NewRouter(func(frame []byte) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, frame)
	}, sessionLog)
	defer router.Close()

	if s.NewHandler != nil {
		router.RequestHandler = s.NewHandler(router)
	}

	// spec §6: the server greets every successful handshake before
	// entering the read loop so the client knows the session is live.
	if err := router.Send(map[string]any{"type": "connection", "status": "connected"}); err != nil {
		sessionLog.Warn().Err(err).Msg("failed to send connection greeting")
	}

	sessionLog.Info().Str("remote", r.RemoteAddr).Msg("session opened")
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			sessionLog.Info().Err(err).Str("remote", r.RemoteAddr).Msg("session closed")
			return
		}
		router.HandleFrame(raw)
	}
}
