// Package history records anonymous statistics about ended chats. Ended
// pairings travel from the hub over the in-process bus to a recorder that
// writes them to a store.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/strangerchat-server/internal/bus"
	"github.com/vovakirdan/strangerchat-server/internal/core"
	"github.com/vovakirdan/strangerchat-server/internal/store"
)

// TopicSessionEnded carries one sessionEnded payload per ended pairing.
const TopicSessionEnded = "session.ended"

// sessionEnded is the bus payload. It carries no user ids.
type sessionEnded struct {
	SharedInterests []string  `json:"sharedInterests,omitempty"`
	Reason          string    `json:"reason"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt"`
}

type publisher interface {
	Publish(topic string, payload []byte) error
}

type subscriber interface {
	Subscribe(ctx context.Context, topic string, handler bus.Handler) error
}

// Sink forwards ended sessions from the hub to the bus.
type Sink struct {
	pub publisher
	log *zerolog.Logger
}

var _ core.SessionSink = (*Sink)(nil)

// NewSink returns a core.SessionSink publishing to pub.
func NewSink(pub publisher, logger *zerolog.Logger) *Sink {
	return &Sink{pub: pub, log: logger}
}

// SessionEnded implements core.SessionSink.
func (s *Sink) SessionEnded(r core.SessionRecord) {
	payload, err := json.Marshal(sessionEnded{
		SharedInterests: r.SharedInterests,
		Reason:          r.Reason,
		StartedAt:       r.StartedAt,
		EndedAt:         r.EndedAt,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("encode ended session")
		return
	}
	if err := s.pub.Publish(TopicSessionEnded, payload); err != nil {
		s.log.Warn().Err(err).Msg("publish ended session")
	}
}

// Recorder persists ended sessions received from the bus.
type Recorder struct {
	store store.SessionStore
	log   *zerolog.Logger
}

// NewRecorder creates a recorder writing to st.
func NewRecorder(st store.SessionStore, logger *zerolog.Logger) *Recorder {
	return &Recorder{store: st, log: logger}
}

// Start subscribes to ended sessions until ctx is done.
func (r *Recorder) Start(ctx context.Context, sub subscriber) error {
	if err := sub.Subscribe(ctx, TopicSessionEnded, r.handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicSessionEnded, err)
	}
	return nil
}

func (r *Recorder) handle(ctx context.Context, payload []byte) error {
	var ev sessionEnded
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode ended session: %w", err)
	}
	sess := &store.Session{
		SharedInterests: ev.SharedInterests,
		Reason:          ev.Reason,
		StartedAt:       ev.StartedAt,
		EndedAt:         ev.EndedAt,
	}
	if err := r.store.RecordSession(ctx, sess); err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	r.log.Debug().Int64("session_id", sess.ID).Str("reason", sess.Reason).
		Dur("duration", sess.Duration()).Msg("session recorded")
	return nil
}
