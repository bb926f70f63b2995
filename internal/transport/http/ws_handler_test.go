package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/strangerchat-server/internal/core"
	"github.com/vovakirdan/strangerchat-server/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, testConfig(), nil, nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "ok" || body.Waiting != 0 || body.ActivePairs != 0 {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestWebSocketPairAndMessage(t *testing.T) {
	ts := startTestServer(t, testConfig(), nil, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA := dial(t, ctx, ts)
	connB := dial(t, ctx, ts)

	send(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{UserID: "alice", Interests: []string{"Music"}})
	readEvent(t, ctx, connA, proto.EventWaiting)

	send(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{UserID: "bob", Interests: []string{"music", "chess"}})

	var paired proto.EventPairedData
	f := readEvent(t, ctx, connB, proto.EventPaired)
	if err := json.Unmarshal(f.Data, &paired); err != nil {
		t.Fatalf("unmarshal paired: %v", err)
	}
	if paired.PartnerID != "alice" || len(paired.SharedInterests) != 1 || paired.SharedInterests[0] != "music" {
		t.Fatalf("unexpected paired payload: %+v", paired)
	}
	readEvent(t, ctx, connA, proto.EventPaired)

	// The payload userId is informational; the bound id is used as sender.
	send(t, ctx, connA, proto.InboundTypeMessage, proto.MessageData{Text: "hi there", UserID: "mallory"})

	var msg proto.EventMessageData
	f = readEvent(t, ctx, connB, proto.EventMessage)
	if err := json.Unmarshal(f.Data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if msg.From != "alice" || msg.Text != "hi there" || msg.TS == 0 {
		t.Fatalf("unexpected message payload: %+v", msg)
	}

	send(t, ctx, connA, proto.InboundTypeTyping, proto.TypingData{UserID: "alice"})
	readEvent(t, ctx, connB, proto.EventStrangerTyping)
}

func TestWebSocketCloseNotifiesPartner(t *testing.T) {
	ts := startTestServer(t, testConfig(), nil, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA := dial(t, ctx, ts)
	connB := dial(t, ctx, ts)

	send(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{UserID: "alice"})
	readEvent(t, ctx, connA, proto.EventWaiting)
	send(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{UserID: "bob"})
	readEvent(t, ctx, connB, proto.EventPaired)

	connA.Close(websocket.StatusNormalClosure, "bye")

	readEvent(t, ctx, connB, proto.EventStrangerLeft)
	readUntil(t, ctx, connB, func(f frame) bool {
		if f.Event != proto.EventOnlineStats {
			return false
		}
		var s proto.EventOnlineStatsData
		return json.Unmarshal(f.Data, &s) == nil && s == proto.EventOnlineStatsData{OnlineUsers: 1}
	})
}

func TestWebSocketRejectsBadFramesAndKeepsConnection(t *testing.T) {
	ts := startTestServer(t, testConfig(), nil, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, ts)

	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if perr := readError(t, ctx, conn); perr.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request, got %+v", perr)
	}

	send(t, ctx, conn, "teleport", nil)
	if perr := readError(t, ctx, conn); perr.Code != core.ErrCodeInvalidMessage {
		t.Fatalf("expected invalid_message, got %+v", perr)
	}

	send(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{})
	if perr := readError(t, ctx, conn); perr.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request for missing userId, got %+v", perr)
	}

	send(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{UserID: "alice"})
	readEvent(t, ctx, conn, proto.EventWaiting)
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Client.RatePerSecond = 0.001
	cfg.Client.Burst = 1
	ts := startTestServer(t, cfg, nil, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, ts)
	send(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{UserID: "alice"})
	readEvent(t, ctx, conn, proto.EventWaiting)

	send(t, ctx, conn, proto.InboundTypeLeave, nil)
	if perr := readError(t, ctx, conn); perr.Code != core.ErrCodeRateLimited {
		t.Fatalf("expected rate_limited, got %+v", perr)
	}
}

func TestWebSocketRejoinReplacesSession(t *testing.T) {
	ts := startTestServer(t, testConfig(), nil, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	first := dial(t, ctx, ts)
	send(t, ctx, first, proto.InboundTypeJoin, proto.JoinData{UserID: "alice"})
	readEvent(t, ctx, first, proto.EventWaiting)

	second := dial(t, ctx, ts)
	send(t, ctx, second, proto.InboundTypeJoin, proto.JoinData{UserID: "alice"})
	readEvent(t, ctx, second, proto.EventWaiting)

	if perr := readError(t, ctx, first); perr.Code != core.ErrCodeSessionReplaced {
		t.Fatalf("expected session_replaced, got %+v", perr)
	}
}
