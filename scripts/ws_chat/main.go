package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/vovakirdan/strangerchat-server/internal/proto"
)

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "WebSocket address")
	user := flag.String("user", "", "user id to join with (random when empty)")
	interests := flag.String("interests", "", "comma separated interests")
	flag.Parse()

	if *user == "" {
		*user = uuid.NewString()
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) {
		var raw json.RawMessage
		if data != nil {
			payload, err := json.Marshal(data)
			if err != nil {
				log.Printf("marshal %s: %v", typ, err)
				return
			}
			raw = payload
		}
		if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: raw}); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	send(proto.InboundTypeJoin, proto.JoinData{
		UserID:    *user,
		Interests: splitInterests(*interests),
		Protocol:  proto.ProtocolVersion,
	})

	fmt.Printf("Connected to %s as %s\n", *addr, *user)
	fmt.Println("Type messages and press Enter to send. /next for a new stranger, /leave to stop. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, send, *user)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func splitInterests(raw string) []string {
	var out []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if f.Type == proto.OutboundTypeError && f.Error != nil {
			fmt.Printf("! %s: %s\n", f.Error.Code, f.Error.Msg)
			continue
		}

		switch f.Event {
		case proto.EventWaiting:
			fmt.Println("* looking for a stranger...")
		case proto.EventPaired:
			var evt proto.EventPairedData
			if err := json.Unmarshal(f.Data, &evt); err != nil {
				log.Printf("unmarshal paired: %v", err)
				continue
			}
			if len(evt.SharedInterests) > 0 {
				fmt.Printf("* connected to a stranger, you both like %s\n", strings.Join(evt.SharedInterests, ", "))
			} else {
				fmt.Println("* connected to a stranger, say hi")
			}
		case proto.EventMessage:
			var evt proto.EventMessageData
			if err := json.Unmarshal(f.Data, &evt); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			fmt.Printf("stranger: %s\n", evt.Text)
		case proto.EventStrangerTyping:
			fmt.Println("* stranger is typing...")
		case proto.EventStrangerLeft:
			fmt.Println("* stranger left. /next to find someone new")
		case proto.EventOnlineStats:
			var evt proto.EventOnlineStatsData
			if err := json.Unmarshal(f.Data, &evt); err == nil {
				fmt.Printf("* online=%d waiting=%d chats=%d\n", evt.OnlineUsers, evt.WaitingUsers, evt.ActiveChats)
			}
		case proto.EventStrangerStoppedTyping:
		default:
			fmt.Printf("event=%s data=%s\n", f.Event, string(f.Data))
		}
	}
}

func writeLoop(ctx context.Context, send func(typ string, data any), user string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			switch text {
			case "":
				continue
			case "/next":
				send(proto.InboundTypeNext, nil)
			case "/leave":
				send(proto.InboundTypeLeave, nil)
			case "/join":
				send(proto.InboundTypeJoin, proto.JoinData{UserID: user})
			default:
				send(proto.InboundTypeMessage, proto.MessageData{Text: text, UserID: user})
			}
		}
	}
}
