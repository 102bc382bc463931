package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// transportWS names the socket adapter in logs, the connection registry, and
// health output.
const transportWS = "websocket"

// WSAdapter is the socket transport: a persistent bidirectional connection
// carrying framed text messages, each parsed independently as one JSON-RPC
// envelope. One socket may carry many in-flight requests; every envelope is
// handled on its own goroutine so a suspended tools/call never blocks the
// others, and responses carry the original id for client-side correlation.
// Responses may therefore complete out of order, which is the client's
// concern, not the gateway's.
type WSAdapter struct {
	gateway  *Gateway
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSAdapter creates the socket adapter.
func NewWSAdapter(g *Gateway) *WSAdapter {
	return &WSAdapter{
		gateway: g,
		upgrader: websocket.Upgrader{
			// The gateway's network boundary handles auth; origins are not
			// filtered here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: g.logger.With(slog.String("component", "websocket")),
	}
}

// Handler returns the http.Handler that upgrades GET requests to socket
// connections and serves envelopes on them until the client disconnects.
func (a *WSAdapter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := a.upgrader.Upgrade(w, r, nil)
		if err != nil {
			a.logger.Error("failed to upgrade connection", slog.String("err", err.Error()))
			return
		}

		proto := a.gateway.NewSession(transportWS)
		a.gateway.Registry().Add(proto.ID(), transportWS)
		a.logger.Info("client connected", slog.String("sessionID", proto.ID()))

		// gorilla/websocket allows at most one concurrent writer; writeMu
		// serializes responses from the per-envelope goroutines.
		var writeMu sync.Mutex
		write := func(msg *JSONRPCMessage) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteJSON(msg); err != nil {
				a.logger.Warn("failed to write response",
					slog.String("sessionID", proto.ID()),
					slog.String("err", err.Error()))
			}
		}

		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				break
			}

			var msg JSONRPCMessage
			if err := json.Unmarshal(frame, &msg); err != nil {
				a.logger.Warn("failed to parse frame", slog.String("err", err.Error()))
				write(ParseErrorResponse(err))
				continue
			}

			go func() {
				resp := a.gateway.HandleEnvelope(context.Background(), proto, msg)
				if resp == nil {
					return
				}
				write(resp)
			}()
		}

		a.gateway.Registry().Remove(proto.ID())
		a.logger.Info("client disconnected", slog.String("sessionID", proto.ID()))
		_ = conn.Close()
	})
}
