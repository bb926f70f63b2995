package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/strangerchat-server/internal/config"
	"github.com/vovakirdan/strangerchat-server/internal/core"
	"github.com/vovakirdan/strangerchat-server/internal/proto"
	"github.com/vovakirdan/strangerchat-server/internal/utils"
)

// Coordinator is the part of the hub the transport needs.
type Coordinator interface {
	RegisterClient(c *core.Client)
	UnregisterClient(c *core.Client)
	Stats(ctx context.Context) (core.Stats, error)
}

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub            Coordinator
	log            *zerolog.Logger
	mapper         *inboundMapper
	originPatterns []string
	readLimit      int64
	buffer         int
	ratePerSecond  float64
	burst          int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Coordinator, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:            hub,
		log:            logger,
		mapper:         newInboundMapper(cfg.Matching.MaxInterests),
		originPatterns: originHosts(cfg.CORS.AllowedOrigins),
		readLimit:      cfg.MaxMessageBytes,
		buffer:         cfg.Client.Buffer,
		ratePerSecond:  cfg.Client.RatePerSecond,
		burst:          cfg.Client.Burst,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	client := core.NewClient(utils.NewID(), h.buffer)
	client.RemoteAddr = r.RemoteAddr
	h.hub.RegisterClient(client)
	// Both loops have returned by the time this runs, so nothing writes to
	// client.Commands after it is closed.
	defer h.hub.UnregisterClient(client)

	h.log.Debug().Str("client_id", client.ID).Str("remote_addr", client.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Debug().Str("client_id", client.ID).Msg("ws disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.ratePerSecond, h.burst)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			if writeErr := writeError(ctx, conn, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed frame"}); writeErr != nil {
				return writeErr
			}
			continue
		}

		if !allow(limiter) {
			h.log.Debug().Str("client_id", client.ID).Str("type", inbound.Type).Msg("inbound frame rate limited")
			if err := writeError(ctx, conn, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "slow down"}); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := h.mapper.toCommand(inbound)
		if protoErr != nil {
			h.log.Debug().Str("client_id", client.ID).Str("type", inbound.Type).Str("code", protoErr.Code).
				Msg("rejected inbound frame")
			if err := writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Debug().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, perr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: perr})
}

// originHosts converts configured browser origins into the host patterns
// websocket.Accept matches against.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			hosts = append(hosts, "*")
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			hosts = append(hosts, origin)
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
