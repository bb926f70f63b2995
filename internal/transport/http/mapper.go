package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/strangerchat-server/internal/core"
	"github.com/vovakirdan/strangerchat-server/internal/proto"
)

// inboundMapper turns client envelopes into hub commands.
type inboundMapper struct {
	validate     *validator.Validate
	maxInterests int
}

func newInboundMapper(maxInterests int) *inboundMapper {
	return &inboundMapper{
		validate:     validator.New(),
		maxInterests: maxInterests,
	}
}

// toCommand returns either a command for the hub or an error to send back.
// Neither closes the connection.
func (m *inboundMapper) toCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if perr := m.decode(inbound.Data, &join); perr != nil {
			return nil, perr
		}
		if join.Protocol != 0 && join.Protocol != proto.ProtocolVersion {
			return nil, &proto.Error{
				Code: core.ErrCodeUnsupportedVersion,
				Msg:  fmt.Sprintf("protocol %d is not supported, use %d", join.Protocol, proto.ProtocolVersion),
			}
		}
		if m.maxInterests > 0 && len(join.Interests) > m.maxInterests {
			return nil, &proto.Error{
				Code: core.ErrCodeBadRequest,
				Msg:  fmt.Sprintf("at most %d interests allowed", m.maxInterests),
			}
		}
		return &core.Command{Kind: core.CommandJoin, UserID: join.UserID, Interests: join.Interests}, nil
	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if perr := m.decode(inbound.Data, &msg); perr != nil {
			return nil, perr
		}
		// From and CreatedAt are stamped by the hub.
		return &core.Command{Kind: core.CommandSendMessage, Message: core.Message{Text: msg.Text}}, nil
	case proto.InboundTypeTyping, proto.InboundTypeStoppedTyping:
		var typing proto.TypingData
		if perr := m.decode(inbound.Data, &typing); perr != nil {
			return nil, perr
		}
		kind := core.CommandTyping
		if inbound.Type == proto.InboundTypeStoppedTyping {
			kind = core.CommandStoppedTyping
		}
		return &core.Command{Kind: kind}, nil
	case proto.InboundTypeLeave:
		return &core.Command{Kind: core.CommandLeave}, nil
	case proto.InboundTypeNext:
		return &core.Command{Kind: core.CommandNext}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

// decode unmarshals and validates a payload. A missing payload decodes to the
// zero value, which validation then judges.
func (m *inboundMapper) decode(data json.RawMessage, v any) *proto.Error {
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if err := json.Unmarshal(data, v); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed payload"}
		}
	}
	if err := m.validate.Struct(v); err != nil {
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: validationMessage(err)}
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid payload"
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventWaiting:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventWaiting}
	case core.EventPaired:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPaired,
			Data: proto.EventPairedData{
				PartnerID:       event.PartnerID,
				SharedInterests: event.SharedInterests,
			},
		}
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessage,
			Data: proto.EventMessageData{
				Text: event.Message.Text,
				From: event.Message.From,
				TS:   event.Message.CreatedAt.UnixMilli(),
			},
		}
	case core.EventStrangerTyping:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventStrangerTyping}
	case core.EventStrangerStoppedTyping:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventStrangerStoppedTyping}
	case core.EventStrangerLeft:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventStrangerLeft}
	case core.EventOnlineStats:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventOnlineStats,
			Data:  statsPayload(event.Stats),
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func statsPayload(s core.Stats) proto.EventOnlineStatsData {
	return proto.EventOnlineStatsData{
		OnlineUsers:  s.OnlineUsers,
		WaitingUsers: s.WaitingUsers,
		ActiveChats:  s.ActiveChats,
	}
}
