package core

import (
	"container/list"
	"time"
)

// WaitingEntry is a user waiting for a partner.
type WaitingEntry struct {
	UserID     string
	Interests  []string
	EnqueuedAt time.Time
}

// WaitingPool is an insertion-ordered set of waiting users.
// Oldest entries come first. Not safe for concurrent use.
type WaitingPool struct {
	order *list.List
	index map[string]*list.Element
	now   func() time.Time
}

// NewWaitingPool constructs an empty pool.
func NewWaitingPool() *WaitingPool {
	return &WaitingPool{
		order: list.New(),
		index: make(map[string]*list.Element),
		now:   time.Now,
	}
}

// Enqueue appends id to the back of the pool unless it is already waiting.
func (p *WaitingPool) Enqueue(id string, interests []string) bool {
	if _, exists := p.index[id]; exists {
		return false
	}
	p.index[id] = p.order.PushBack(WaitingEntry{
		UserID:     id,
		Interests:  interests,
		EnqueuedAt: p.now(),
	})
	return true
}

// Remove drops id from the pool. Returns false if it was not waiting.
func (p *WaitingPool) Remove(id string) bool {
	el, exists := p.index[id]
	if !exists {
		return false
	}
	p.order.Remove(el)
	delete(p.index, id)
	return true
}

// DequeueMatch asks m to pick a partner for id among the waiting entries and
// removes the chosen entry. id itself is never offered as a candidate.
func (p *WaitingPool) DequeueMatch(id string, interests []string, m Matcher) (WaitingEntry, bool) {
	if p.order.Len() == 0 {
		return WaitingEntry{}, false
	}
	candidates := make([]WaitingEntry, 0, p.order.Len())
	for el := p.order.Front(); el != nil; el = el.Next() {
		entry := el.Value.(WaitingEntry)
		if entry.UserID == id {
			continue
		}
		candidates = append(candidates, entry)
	}

	chosen, ok := m.Select(WaitingEntry{UserID: id, Interests: interests}, candidates)
	if !ok || !p.Remove(chosen.UserID) {
		return WaitingEntry{}, false
	}
	return chosen, true
}

// Contains reports whether id is waiting.
func (p *WaitingPool) Contains(id string) bool {
	_, exists := p.index[id]
	return exists
}

// Len is the number of waiting users.
func (p *WaitingPool) Len() int {
	return p.order.Len()
}

// Entries returns the waiting users, oldest first.
func (p *WaitingPool) Entries() []WaitingEntry {
	out := make([]WaitingEntry, 0, p.order.Len())
	for el := p.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(WaitingEntry))
	}
	return out
}
