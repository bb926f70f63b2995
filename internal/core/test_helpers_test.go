package core

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drainEvents collects events until ch has been quiet for the given duration.
func drainEvents(ch <-chan *Event, quiet time.Duration) []*Event {
	var out []*Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-time.After(quiet):
			return out
		}
	}
}

func countKind(events []*Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func startHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(opts...)
	go hub.Run(ctx)
	return hub
}

func connect(hub *Hub, id string) *Client {
	c := NewClient(id, 64)
	hub.RegisterClient(c)
	return c
}

func joinAs(c *Client, userID string, interests ...string) {
	c.Commands <- &Command{Kind: CommandJoin, UserID: userID, Interests: interests}
}

func waitForStats(t *testing.T, hub *Hub, want Stats) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	var got Stats
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		s, err := hub.Stats(ctx)
		cancel()
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		got = s
		if got == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("stats never reached %+v, last %+v", want, got)
}

// assertInvariants checks pool/pairing exclusivity, pairing symmetry, state
// consistency and the stats bound on the hub goroutine.
func assertInvariants(t *testing.T, hub *Hub) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var problems []string
	if err := hub.do(ctx, func() { problems = hub.invariantProblems() }); err != nil {
		t.Fatalf("inspect hub: %v", err)
	}
	for _, p := range problems {
		t.Errorf("invariant: %s", p)
	}
}

func (h *Hub) invariantProblems() []string {
	var problems []string
	for _, entry := range h.pool.Entries() {
		if _, paired := h.pairs.Partner(entry.UserID); paired {
			problems = append(problems, fmt.Sprintf("%s is both waiting and paired", entry.UserID))
		}
		if _, ok := h.registry.Lookup(entry.UserID); !ok {
			problems = append(problems, fmt.Sprintf("%s is waiting without a connection", entry.UserID))
		}
	}
	for id := range h.pairs.byUser {
		partner, _ := h.pairs.Partner(id)
		if back, ok := h.pairs.Partner(partner); !ok || back != id {
			problems = append(problems, fmt.Sprintf("pairing %s -> %s is not symmetric", id, partner))
		}
		if _, ok := h.registry.Lookup(id); !ok {
			problems = append(problems, fmt.Sprintf("%s is paired without a connection", id))
		}
	}
	for id, u := range h.users {
		waiting := h.pool.Contains(id)
		_, paired := h.pairs.Partner(id)
		switch {
		case u.state == StateWaiting && (!waiting || paired),
			u.state == StatePaired && (!paired || waiting),
			u.state == StateIdle && (waiting || paired):
			problems = append(problems, fmt.Sprintf("%s state %s disagrees with membership", id, u.state))
		}
	}
	s := h.stats()
	if s.ActiveChats*2+s.WaitingUsers > s.OnlineUsers {
		problems = append(problems, fmt.Sprintf("stats out of bounds: %+v", s))
	}
	return problems
}
