package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/strangerchat-server/internal/proto"
)

// frame is an outbound envelope with the payload left raw.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run connects two strangers, waits until they are paired and checks that a
// message from one reaches the other.
func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "WebSocket address")
	interest := flag.String("interest", "smoke", "interest both clients join with")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	suffix := time.Now().UnixNano()
	alice, err := dial(ctx, *addr)
	if err != nil {
		return err
	}
	defer alice.Close(websocket.StatusNormalClosure, "bye")
	bob, err := dial(ctx, *addr)
	if err != nil {
		return err
	}
	defer bob.Close(websocket.StatusNormalClosure, "bye")

	aliceID := fmt.Sprintf("smoke-a-%d", suffix)
	bobID := fmt.Sprintf("smoke-b-%d", suffix)

	if err := send(ctx, alice, proto.InboundTypeJoin, proto.JoinData{UserID: aliceID, Interests: []string{*interest}}); err != nil {
		return err
	}
	if _, err := await(ctx, alice, proto.EventWaiting); err != nil {
		return err
	}
	if err := send(ctx, bob, proto.InboundTypeJoin, proto.JoinData{UserID: bobID, Interests: []string{*interest}}); err != nil {
		return err
	}

	f, err := await(ctx, bob, proto.EventPaired)
	if err != nil {
		return err
	}
	var paired proto.EventPairedData
	if err := json.Unmarshal(f.Data, &paired); err != nil {
		return fmt.Errorf("unmarshal paired: %w", err)
	}
	fmt.Printf("Paired: %s <-> %s shared=%v\n", bobID, paired.PartnerID, paired.SharedInterests)

	if err := send(ctx, alice, proto.InboundTypeMessage, proto.MessageData{Text: *text}); err != nil {
		return err
	}
	f, err = await(ctx, bob, proto.EventMessage)
	if err != nil {
		return err
	}
	var msg proto.EventMessageData
	if err := json.Unmarshal(f.Data, &msg); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	fmt.Printf("EventMessage: from=%s text=%q ts=%d\n", msg.From, msg.Text, msg.TS)
	if msg.From != aliceID || msg.Text != *text {
		return fmt.Errorf("unexpected message %+v", msg)
	}

	if err := send(ctx, alice, proto.InboundTypeLeave, nil); err != nil {
		return err
	}
	if _, err := await(ctx, bob, proto.EventStrangerLeft); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func dial(ctx context.Context, addr string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		raw = payload
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: raw}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

// await reads frames until the named event arrives. Error frames abort.
func await(ctx context.Context, conn *websocket.Conn, event string) (frame, error) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return f, fmt.Errorf("read waiting for %s: %w", event, err)
		}
		fmt.Printf("Received outbound: type=%s event=%s\n", f.Type, f.Event)
		if f.Type == proto.OutboundTypeError && f.Error != nil {
			return f, fmt.Errorf("server error %s: %s", f.Error.Code, f.Error.Msg)
		}
		if f.Event == event {
			return f, nil
		}
	}
}
