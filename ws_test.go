package gateway_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seqconsole/seqconsole"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWSMessage(t *testing.T, conn *websocket.Conn) gateway.JSONRPCMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg gateway.JSONRPCMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return msg
}

func TestWSAdapterRoundTrip(t *testing.T) {
	gw := testGateway(t, nil)
	srv := httptest.NewServer(gateway.NewWSAdapter(gw).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)

	err := conn.WriteJSON(gateway.JSONRPCMessage{
		JSONRPC: gateway.JSONRPCVersion,
		ID:      "ws-1",
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"echo","arguments":{"text":"over ws"}}`),
	})
	if err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}

	msg := readWSMessage(t, conn)
	if msg.ID != "ws-1" {
		t.Errorf("got id %q, want ws-1", msg.ID)
	}
	if msg.Error != nil {
		t.Fatalf("unexpected error: %v", msg.Error)
	}
	var result gateway.CallToolResult
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		t.Fatalf("failed to unmarshal tool result: %v", err)
	}
	if !strings.Contains(result.Content[0].Text, "over ws") {
		t.Errorf("result %q does not echo the argument", result.Content[0].Text)
	}
}

func TestWSAdapterParseError(t *testing.T) {
	gw := testGateway(t, nil)
	srv := httptest.NewServer(gateway.NewWSAdapter(gw).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}

	msg := readWSMessage(t, conn)
	if msg.Error == nil || msg.Error.Code != -32700 {
		t.Fatalf("got %+v, want parse error -32700", msg.Error)
	}

	// The connection survives a malformed frame.
	if err := conn.WriteJSON(gateway.JSONRPCMessage{
		JSONRPC: gateway.JSONRPCVersion,
		ID:      "after",
		Method:  "tools/list",
	}); err != nil {
		t.Fatalf("failed to write frame after parse error: %v", err)
	}
	msg = readWSMessage(t, conn)
	if msg.ID != "after" {
		t.Errorf("got id %q, want after", msg.ID)
	}
}

func TestWSAdapterConcurrentCalls(t *testing.T) {
	exec := newFakeExecutor(true)
	gw := testGateway(t, exec)
	srv := httptest.NewServer(gateway.NewWSAdapter(gw).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)

	// Two client-side calls on one socket; both suspend awaiting the
	// workbench.
	for _, id := range []string{"call-a", "call-b"} {
		err := conn.WriteJSON(gateway.JSONRPCMessage{
			JSONRPC: gateway.JSONRPCVersion,
			ID:      gateway.MustString(id),
			Method:  "tools/call",
			Params:  json.RawMessage(`{"name":"render_chart","arguments":{"series":[1],"title":"` + id + `"}}`),
		})
		if err != nil {
			t.Fatalf("failed to write frame %s: %v", id, err)
		}
	}

	first := exec.nextRequest(t)
	second := exec.nextRequest(t)

	// Resolve out of order; each response must still carry its own request id
	// and its own payload.
	gw.ResolveReply(gateway.ExecutionReply{
		RequestID: second.RequestID,
		Success:   true,
		Result:    json.RawMessage(`{"slot":"second"}`),
	})
	gw.ResolveReply(gateway.ExecutionReply{
		RequestID: first.RequestID,
		Success:   true,
		Result:    json.RawMessage(`{"slot":"first"}`),
	})

	got := make(map[string]string, 2)
	for i := 0; i < 2; i++ {
		msg := readWSMessage(t, conn)
		var result gateway.CallToolResult
		if err := json.Unmarshal(msg.Result, &result); err != nil {
			t.Fatalf("failed to unmarshal tool result: %v", err)
		}
		if result.IsError {
			t.Fatalf("call %s failed: %s", msg.ID, result.Content[0].Text)
		}
		got[string(msg.ID)] = result.Content[0].Text
	}

	if len(got) != 2 {
		t.Fatalf("got responses for ids %v, want call-a and call-b", got)
	}
	for _, id := range []string{"call-a", "call-b"} {
		if _, ok := got[id]; !ok {
			t.Errorf("no response for id %s", id)
		}
	}
}

func TestWSAdapterRegistersConnection(t *testing.T) {
	gw := testGateway(t, nil)
	srv := httptest.NewServer(gateway.NewWSAdapter(gw).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)

	waitFor(t, func() bool { return gw.Registry().Count() == 1 })
	if snapshot := gw.Registry().Snapshot(); snapshot["websocket"] != 1 {
		t.Errorf("got snapshot %v, want one websocket connection", snapshot)
	}

	conn.Close()
	waitFor(t, func() bool { return gw.Registry().Count() == 0 })
}

// waitFor polls cond until it holds or a deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}
