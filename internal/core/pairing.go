package core

import (
	"fmt"
	"time"
)

// Pairing is an active one-on-one session between A and B.
type Pairing struct {
	A               string
	B               string
	SharedInterests []string
	CreatedAt       time.Time
}

// Other returns the side of the pairing that is not id.
func (p Pairing) Other(id string) string {
	if p.A == id {
		return p.B
	}
	return p.A
}

// PairingTable is the single source of truth for who is paired with whom.
// Both sides point at the same record, so the relation stays symmetric.
// Not safe for concurrent use.
type PairingTable struct {
	byUser map[string]*Pairing
}

// NewPairingTable constructs an empty table.
func NewPairingTable() *PairingTable {
	return &PairingTable{byUser: make(map[string]*Pairing)}
}

// Create records a pairing between a and b. It never overwrites: if either
// side already has a partner the table is left untouched.
func (t *PairingTable) Create(a, b string, shared []string, at time.Time) (Pairing, error) {
	if a == b {
		return Pairing{}, fmt.Errorf("%w: %s", ErrSelfPairing, a)
	}
	if p, ok := t.byUser[a]; ok {
		return Pairing{}, fmt.Errorf("%w: %s is with %s", ErrAlreadyPaired, a, p.Other(a))
	}
	if p, ok := t.byUser[b]; ok {
		return Pairing{}, fmt.Errorf("%w: %s is with %s", ErrAlreadyPaired, b, p.Other(b))
	}
	p := &Pairing{A: a, B: b, SharedInterests: shared, CreatedAt: at}
	t.byUser[a] = p
	t.byUser[b] = p
	return *p, nil
}

// Partner returns id's partner.
func (t *PairingTable) Partner(id string) (string, bool) {
	p, ok := t.byUser[id]
	if !ok {
		return "", false
	}
	return p.Other(id), true
}

// Get returns the pairing id belongs to.
func (t *PairingTable) Get(id string) (Pairing, bool) {
	p, ok := t.byUser[id]
	if !ok {
		return Pairing{}, false
	}
	return *p, true
}

// Destroy removes id's pairing from both sides and returns it.
func (t *PairingTable) Destroy(id string) (Pairing, bool) {
	p, ok := t.byUser[id]
	if !ok {
		return Pairing{}, false
	}
	delete(t.byUser, p.A)
	delete(t.byUser, p.B)
	return *p, true
}

// Len is the number of active pairs.
func (t *PairingTable) Len() int {
	return len(t.byUser) / 2
}
