package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// errNoWorkbench is returned by Send when no workbench connection is open.
var errNoWorkbench = errors.New("no workbench connected")

// WorkbenchBridge is the production Executor: the workbench host application
// dials its socket endpoint, execution requests go out over that socket, and
// reply frames coming back are fed to the gateway's pending-call table. At
// most one workbench is attached at a time; a newly dialing workbench
// replaces the previous connection.
type WorkbenchBridge struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
	resolve  func(ExecutionReply)

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWorkbenchBridge creates a bridge with no workbench attached. Wire the
// reply path with OnReply before serving the handler.
func NewWorkbenchBridge(logger *slog.Logger) *WorkbenchBridge {
	return &WorkbenchBridge{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "workbench-bridge")),
	}
}

// OnReply sets the sink for inbound executor replies, normally
// Gateway.ResolveReply.
func (b *WorkbenchBridge) OnReply(fn func(ExecutionReply)) {
	b.resolve = fn
}

// Handler returns the http.Handler the workbench dials to attach itself.
func (b *WorkbenchBridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Error("failed to upgrade connection", slog.String("err", err.Error()))
			return
		}

		b.mu.Lock()
		if b.conn != nil {
			b.logger.Warn("replacing existing workbench connection")
			_ = b.conn.Close()
		}
		b.conn = conn
		b.mu.Unlock()

		b.logger.Info("workbench connected", slog.String("remote", conn.RemoteAddr().String()))

		for {
			var reply ExecutionReply
			if err := conn.ReadJSON(&reply); err != nil {
				break
			}
			if b.resolve == nil {
				b.logger.Warn("dropping reply: no resolver wired",
					slog.String("requestID", reply.RequestID))
				continue
			}
			b.resolve(reply)
		}

		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
		}
		b.mu.Unlock()

		b.logger.Info("workbench disconnected")
		_ = conn.Close()
	})
}

// Send implements Executor by writing one execution request frame to the
// attached workbench.
func (b *WorkbenchBridge) Send(_ context.Context, req ExecutionRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return errNoWorkbench
	}
	if err := b.conn.WriteJSON(req); err != nil {
		return err
	}
	return nil
}

// Connected implements Executor.
func (b *WorkbenchBridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}
