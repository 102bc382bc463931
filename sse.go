package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/tmaxmax/go-sse"
)

// transportSSE names the streaming adapter in logs, the connection registry,
// and health output.
const transportSSE = "sse"

// SSEAdapter is the streaming transport: one long-lived server-push channel
// per client established over GET, with a companion POST endpoint for
// client-to-server envelopes. Responses to requests posted on the companion
// endpoint are multiplexed back onto the client's stream using the protocol's
// "message" event framing.
//
// The adapter only frames and parses; method handling is delegated to the
// gateway's shared envelope core.
type SSEAdapter struct {
	gateway    *Gateway
	messageURL string
	logger     *slog.Logger

	mu      sync.Mutex
	streams map[string]*sseStream
}

type sseStream struct {
	sess  *sse.Session
	proto *ProtocolSession

	// go-sse sessions are not safe for concurrent sends; mu serializes
	// Send+Flush pairs across the handler goroutines that share one stream.
	mu sync.Mutex
}

// NewSSEAdapter creates the streaming adapter. messageURL is the absolute or
// relative URL of the companion POST endpoint, advertised to each client in
// the initial "endpoint" event.
func NewSSEAdapter(g *Gateway, messageURL string) *SSEAdapter {
	return &SSEAdapter{
		gateway:    g,
		messageURL: messageURL,
		logger:     g.logger.With(slog.String("component", "sse")),
		streams:    make(map[string]*sseStream),
	}
}

// HandleConnect returns the http.Handler for establishing streams over GET
// requests. The handler upgrades the connection to SSE, binds a fresh
// protocol session, tells the client its companion endpoint, and keeps the
// channel open until the client disconnects.
func (a *SSEAdapter) HandleConnect() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sse.Upgrade(w, r)
		if err != nil {
			nErr := fmt.Errorf("failed to upgrade session: %w", err)
			a.logger.Error("failed to upgrade session", slog.String("err", nErr.Error()))
			http.Error(w, nErr.Error(), http.StatusInternalServerError)
			return
		}

		proto := a.gateway.NewSession(transportSSE)
		stream := &sseStream{sess: sess, proto: proto}

		// Tell the client where to post its envelopes for this stream.
		endpoint := fmt.Sprintf("%s?sessionID=%s", a.messageURL, proto.ID())
		msg := sse.Message{Type: sse.Type("endpoint")}
		msg.AppendData(endpoint)
		if err := sess.Send(&msg); err != nil {
			a.logger.Error("failed to write endpoint event", slog.String("err", err.Error()))
			return
		}
		if err := sess.Flush(); err != nil {
			a.logger.Error("failed to flush endpoint event", slog.String("err", err.Error()))
			return
		}

		a.mu.Lock()
		a.streams[proto.ID()] = stream
		a.mu.Unlock()
		a.gateway.Registry().Add(proto.ID(), transportSSE)
		a.logger.Info("client connected", slog.String("sessionID", proto.ID()))

		// Block so the connection stays open until the client goes away.
		<-r.Context().Done()

		a.mu.Lock()
		delete(a.streams, proto.ID())
		a.mu.Unlock()
		a.gateway.Registry().Remove(proto.ID())
		a.logger.Info("client disconnected", slog.String("sessionID", proto.ID()))
	})
}

// HandleMessage returns the http.Handler for the companion POST endpoint. The
// handler expects a sessionID query parameter naming an open stream and a
// JSON-encoded envelope body. The envelope is handled asynchronously and any
// response is pushed onto the stream; the POST itself is acknowledged with
// 202 Accepted.
func (a *SSEAdapter) HandleMessage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessID := r.URL.Query().Get("sessionID")
		if sessID == "" {
			http.Error(w, "missing sessionID query parameter", http.StatusBadRequest)
			return
		}

		a.mu.Lock()
		stream, ok := a.streams[sessID]
		a.mu.Unlock()
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}

		var msg JSONRPCMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			a.logger.Warn("failed to decode message", slog.String("err", err.Error()))
			a.push(stream, ParseErrorResponse(err))
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		// Handle off the request goroutine: a forwarded tools/call may
		// suspend up to the call timeout, and the POST must not hang with it.
		go func() {
			resp := a.gateway.HandleEnvelope(context.Background(), stream.proto, msg)
			if resp == nil {
				return
			}
			a.push(stream, resp)
		}()

		w.WriteHeader(http.StatusAccepted)
	})
}

func (a *SSEAdapter) push(stream *sseStream, msg *JSONRPCMessage) {
	bs, err := json.Marshal(msg)
	if err != nil {
		a.logger.Error("failed to marshal message", slog.String("err", err.Error()))
		return
	}

	sseMsg := &sse.Message{Type: sse.Type("message")}
	sseMsg.AppendData(string(bs))

	stream.mu.Lock()
	defer stream.mu.Unlock()

	if err := stream.sess.Send(sseMsg); err != nil {
		a.logger.Warn("failed to send message", slog.String("err", err.Error()))
		return
	}
	if err := stream.sess.Flush(); err != nil {
		a.logger.Warn("failed to flush message", slog.String("err", err.Error()))
	}
}
