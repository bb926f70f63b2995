package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Session end reasons reported to the SessionSink.
const (
	ReasonDisconnect = "disconnect"
	ReasonLeave      = "leave"
	ReasonNext       = "next"
	ReasonReplaced   = "replaced"
)

// SessionRecord describes a pairing that just ended.
type SessionRecord struct {
	UserA           string
	UserB           string
	SharedInterests []string
	StartedAt       time.Time
	EndedAt         time.Time
	EndedBy         string
	Reason          string
}

// SessionSink receives ended sessions. It is called from the hub goroutine
// and must not block.
type SessionSink interface {
	SessionEnded(SessionRecord)
}

type envelopeKind int

const (
	envAttach envelopeKind = iota
	envCommand
	envDetach
)

type envelope struct {
	kind   envelopeKind
	client *Client
	cmd    *Command
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.log = logger
		}
	}
}

// WithMatcher sets the partner selection policy. FIFO is the default.
func WithMatcher(m Matcher) Option {
	return func(h *Hub) {
		if m != nil {
			h.matcher = m
		}
	}
}

// WithPresenceInterval re-broadcasts stats on a timer. Zero disables the timer;
// stats are still pushed whenever membership changes.
func WithPresenceInterval(d time.Duration) Option {
	return func(h *Hub) {
		h.presenceInterval = d
	}
}

// WithInterestLimits caps interest tags per user and tag length.
func WithInterestLimits(maxCount, maxLen int) Option {
	return func(h *Hub) {
		h.maxInterests = maxCount
		h.maxInterestLen = maxLen
	}
}

// WithSessionSink reports every ended pairing to sink.
func WithSessionSink(sink SessionSink) Option {
	return func(h *Hub) {
		h.sink = sink
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// Hub coordinates pairing and presence. All state below the channels is owned
// by the Run goroutine and every command runs to completion before the next.
type Hub struct {
	inbox   chan envelope
	queries chan func()
	done    chan struct{}

	log              *zerolog.Logger
	matcher          Matcher
	sink             SessionSink
	presenceInterval time.Duration
	maxInterests     int
	maxInterestLen   int
	now              func() time.Time

	registry      *Registry
	pool          *WaitingPool
	pairs         *PairingTable
	users         map[string]*user
	bound         map[*Client]string
	presenceDirty bool
}

// NewHub creates a new hub. Call Run to start processing.
func NewHub(opts ...Option) *Hub {
	nop := zerolog.Nop()
	h := &Hub{
		inbox:          make(chan envelope, 64),
		queries:        make(chan func()),
		done:           make(chan struct{}),
		log:            &nop,
		matcher:        FIFOMatcher{},
		maxInterests:   DefaultMaxInterests,
		maxInterestLen: DefaultMaxInterestLen,
		now:            time.Now,
		registry:       NewRegistry(),
		pool:           NewWaitingPool(),
		pairs:          NewPairingTable(),
		users:          make(map[string]*user),
		bound:          make(map[*Client]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.pool.now = h.now
	return h
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var tick <-chan time.Time
	if h.presenceInterval > 0 {
		ticker := time.NewTicker(h.presenceInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-h.inbox:
			h.handle(env)
			h.flushPresence()
		case fn := <-h.queries:
			fn()
		case <-tick:
			h.broadcastStats()
		}
	}
}

// RegisterClient starts forwarding c's commands to the hub. The hub attaches
// the connection before any of its commands and detaches it after the last one.
func (h *Hub) RegisterClient(c *Client) {
	go h.pump(c)
}

// UnregisterClient closes c's command stream; the hub then treats the
// connection as disconnected. Safe to call more than once.
func (h *Hub) UnregisterClient(c *Client) {
	c.closeCommands()
}

// Stats returns the current presence counts.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := h.do(ctx, func() { s = h.stats() })
	return s, err
}

// do runs fn on the hub goroutine and waits for it.
func (h *Hub) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		fn()
		close(finished)
	}
	select {
	case h.queries <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) pump(c *Client) {
	if !h.deliver(envelope{kind: envAttach, client: c}) {
		return
	}
	for cmd := range c.Commands {
		if cmd == nil {
			continue
		}
		if !h.deliver(envelope{kind: envCommand, client: c, cmd: cmd}) {
			return
		}
	}
	h.deliver(envelope{kind: envDetach, client: c})
}

func (h *Hub) deliver(env envelope) bool {
	select {
	case h.inbox <- env:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) handle(env envelope) {
	switch env.kind {
	case envAttach:
		if h.registry.Attach(env.client) {
			h.send(env.client, &Event{Kind: EventOnlineStats, Stats: h.stats()})
		}
	case envDetach:
		h.disconnect(env.client)
	case envCommand:
		h.dispatch(env.client, env.cmd)
	}
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoin:
		h.join(c, cmd.UserID, cmd.Interests)
	case CommandSendMessage:
		h.relayMessage(c, cmd.Message)
	case CommandTyping:
		h.relayToPartner(c, EventStrangerTyping)
	case CommandStoppedTyping:
		h.relayToPartner(c, EventStrangerStoppedTyping)
	case CommandLeave:
		h.leave(c)
	case CommandNext:
		h.next(c)
	default:
		h.log.Warn().Str("client_id", c.ID).Int("kind", int(cmd.Kind)).Msg("unknown command")
	}
}

func (h *Hub) join(c *Client, userID string, rawInterests []string) {
	if userID == "" {
		h.log.Debug().Str("client_id", c.ID).Msg("join without user id ignored")
		return
	}
	interests := NormalizeInterests(rawInterests, h.maxInterests, h.maxInterestLen)

	if current, ok := h.bound[c]; ok {
		if current != userID {
			h.log.Debug().Str("client_id", c.ID).Str("user_id", current).Str("requested", userID).
				Msg("join with a different user id ignored")
			return
		}
		u := h.users[userID]
		if u.state != StateIdle {
			h.log.Debug().Str("user_id", userID).Stringer("state", u.state).Msg("join ignored: already active")
			return
		}
		u.interests = interests
		h.search(userID)
		return
	}

	if prev, ok := h.registry.Lookup(userID); ok && prev != c {
		h.replace(prev, userID)
	}
	h.registry.Register(userID, c)
	h.bound[c] = userID
	h.users[userID] = &user{state: StateIdle, interests: interests}
	h.markPresence()

	h.log.Info().Str("client_id", c.ID).Str("user_id", userID).Strs("interests", interests).Msg("user joined")
	h.search(userID)
}

// search pairs an idle user with a waiting candidate or puts it in the pool.
func (h *Hub) search(id string) {
	u := h.users[id]
	if candidate, ok := h.pool.DequeueMatch(id, u.interests, h.matcher); ok {
		h.markPresence()
		if h.pair(id, candidate) {
			return
		}
	}

	h.pool.Enqueue(id, u.interests)
	u.state = StateWaiting
	h.markPresence()
	h.sendTo(id, &Event{Kind: EventWaiting})
	h.log.Debug().Str("user_id", id).Int("waiting", h.pool.Len()).Msg("user waiting")
}

func (h *Hub) pair(id string, candidate WaitingEntry) bool {
	u := h.users[id]
	other, ok := h.users[candidate.UserID]
	if !ok {
		h.log.Error().Str("user_id", candidate.UserID).Msg("invariant violation: waiting user has no record")
		return false
	}

	shared := SharedInterests(u.interests, candidate.Interests)
	p, err := h.pairs.Create(id, candidate.UserID, shared, h.now())
	if err != nil {
		h.log.Error().Err(err).Str("user_id", id).Str("partner_id", candidate.UserID).
			Msg("invariant violation: pairing rejected")
		h.pool.Enqueue(candidate.UserID, candidate.Interests)
		return false
	}
	u.state = StatePaired
	other.state = StatePaired
	h.markPresence()

	h.sendTo(p.A, &Event{Kind: EventPaired, PartnerID: p.B, SharedInterests: p.SharedInterests})
	h.sendTo(p.B, &Event{Kind: EventPaired, PartnerID: p.A, SharedInterests: p.SharedInterests})
	h.log.Info().Str("user_id", p.A).Str("partner_id", p.B).Strs("shared_interests", p.SharedInterests).
		Msg("users paired")
	return true
}

func (h *Hub) relayMessage(c *Client, msg Message) {
	id, ok := h.bound[c]
	if !ok {
		h.log.Debug().Str("client_id", c.ID).Msg("message before join ignored")
		return
	}
	partner, ok := h.pairs.Partner(id)
	if !ok {
		h.log.Debug().Str("user_id", id).Msg("message without partner ignored")
		return
	}
	msg.From = id
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = h.now()
	}
	if !h.sendTo(partner, &Event{Kind: EventMessage, Message: msg}) {
		h.log.Debug().Str("user_id", id).Str("partner_id", partner).Msg("partner unreachable, message dropped")
	}
}

func (h *Hub) relayToPartner(c *Client, kind EventKind) {
	id, ok := h.bound[c]
	if !ok {
		return
	}
	partner, ok := h.pairs.Partner(id)
	if !ok {
		return
	}
	h.sendTo(partner, &Event{Kind: kind})
}

func (h *Hub) leave(c *Client) {
	id, ok := h.bound[c]
	if !ok {
		return
	}
	if h.users[id].state == StateIdle {
		h.log.Debug().Str("user_id", id).Msg("leave while idle ignored")
		return
	}
	h.unwind(id, ReasonLeave)
	h.log.Info().Str("user_id", id).Msg("user left chat")
}

func (h *Hub) next(c *Client) {
	id, ok := h.bound[c]
	if !ok {
		return
	}
	if h.users[id].state == StateWaiting {
		// Already waiting.
		return
	}
	h.unwind(id, ReasonNext)
	h.search(id)
}

func (h *Hub) disconnect(c *Client) {
	if !h.registry.Detach(c) {
		return
	}
	defer close(c.Events)

	id, ok := h.bound[c]
	if !ok {
		return
	}
	delete(h.bound, c)
	if !h.registry.Unregister(id, c) {
		return
	}
	h.unwind(id, ReasonDisconnect)
	delete(h.users, id)
	h.markPresence()
	h.log.Info().Str("client_id", c.ID).Str("user_id", id).Msg("user disconnected")
}

// replace evicts the connection currently bound to id so a newer connection
// can take over the same user id.
func (h *Hub) replace(prev *Client, id string) {
	h.unwind(id, ReasonReplaced)
	h.registry.Unregister(id, prev)
	delete(h.bound, prev)
	delete(h.users, id)
	h.markPresence()
	h.send(prev, &Event{
		Kind:  EventError,
		Error: coreError(ErrCodeSessionReplaced, "session resumed on another connection"),
	})
	h.log.Info().Str("client_id", prev.ID).Str("user_id", id).Msg("connection replaced")
}

// unwind takes id out of the pool and out of any pairing, notifying the
// former partner. id ends up idle.
func (h *Hub) unwind(id, reason string) {
	if h.pool.Remove(id) {
		h.markPresence()
	}
	if p, ok := h.pairs.Destroy(id); ok {
		partner := p.Other(id)
		if pu, ok := h.users[partner]; ok {
			pu.state = StateIdle
		}
		h.markPresence()
		h.recordSession(p, id, reason)
		h.sendTo(partner, &Event{Kind: EventStrangerLeft})
		h.log.Info().Str("user_id", id).Str("partner_id", partner).Str("reason", reason).Msg("pairing ended")
	}
	if u, ok := h.users[id]; ok {
		u.state = StateIdle
	}
}

func (h *Hub) recordSession(p Pairing, endedBy, reason string) {
	if h.sink == nil {
		return
	}
	h.sink.SessionEnded(SessionRecord{
		UserA:           p.A,
		UserB:           p.B,
		SharedInterests: p.SharedInterests,
		StartedAt:       p.CreatedAt,
		EndedAt:         h.now(),
		EndedBy:         endedBy,
		Reason:          reason,
	})
}

// sendTo delivers ev to id's live connection. Returns false if id is
// unreachable or its buffer is full.
func (h *Hub) sendTo(id string, ev *Event) bool {
	c, ok := h.registry.Lookup(id)
	if !ok {
		return false
	}
	return h.send(c, ev)
}

func (h *Hub) send(c *Client, ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		// Drop if slow consumer.
		h.log.Warn().Str("client_id", c.ID).Stringer("event", ev.Kind).Msg("client buffer full, event dropped")
		return false
	}
}
