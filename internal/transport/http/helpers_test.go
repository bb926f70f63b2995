package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/strangerchat-server/internal/config"
	"github.com/vovakirdan/strangerchat-server/internal/core"
	"github.com/vovakirdan/strangerchat-server/internal/proto"
)

// frame is an outbound envelope with the payload left raw.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.Presence.Interval = 0
	cfg.Client.RatePerSecond = 0
	return &cfg
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func startTestServer(t *testing.T, cfg *config.Config, history HistoryReader, access *AccessList) *httptest.Server {
	t.Helper()

	hub := core.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server, err := NewServer(hub, history, access, cfg, nopLogger())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s: %v", typ, err)
		}
		raw = payload
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: raw}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// readUntil skips frames until match returns true.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	for {
		var f frame
		if err := wsjson.Read(readCtx, conn, &f); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) frame {
	t.Helper()
	return readUntil(t, ctx, conn, func(f frame) bool {
		return f.Type == proto.OutboundTypeEvent && f.Event == event
	})
}

func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) *proto.Error {
	t.Helper()
	f := readUntil(t, ctx, conn, func(f frame) bool { return f.Type == proto.OutboundTypeError })
	if f.Error == nil {
		t.Fatal("error frame without error body")
	}
	return f.Error
}
