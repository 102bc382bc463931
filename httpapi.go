package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// transportHTTP names the request/response adapter in logs and health output.
const transportHTTP = "http"

// HTTPAdapter is the discrete request/response transport: each POST carries
// exactly one JSON-RPC envelope and receives exactly one JSON response in the
// same exchange. Notifications are acknowledged with 204 No Content, since no
// id exists to pair a response envelope with.
//
// The transport is stateless, so handshake state lives in a single
// process-global protocol session that is never reset between requests.
type HTTPAdapter struct {
	gateway *Gateway
	session *ProtocolSession
	logger  *slog.Logger
}

// NewHTTPAdapter creates the HTTP adapter with its process-global session.
func NewHTTPAdapter(g *Gateway) *HTTPAdapter {
	return &HTTPAdapter{
		gateway: g,
		session: g.NewSession(transportHTTP),
		logger:  g.logger.With(slog.String("component", "http")),
	}
}

// Session returns the adapter's process-global protocol session.
func (a *HTTPAdapter) Session() *ProtocolSession { return a.session }

// Handler returns the http.Handler accepting one envelope per POST.
func (a *HTTPAdapter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var msg JSONRPCMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			a.logger.Warn("failed to decode request body", slog.String("err", err.Error()))
			writeJSON(w, http.StatusOK, ParseErrorResponse(err))
			return
		}

		resp := a.gateway.HandleEnvelope(r.Context(), a.session, msg)
		if resp == nil {
			// Notification: nothing to send back.
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	})
}

// HandleHealth returns the liveness endpoint, exposed outside the protocol
// for operational monitoring.
func (a *HTTPAdapter) HandleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, a.gateway.Health())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
