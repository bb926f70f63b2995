package core

import "fmt"

// Matching policy names accepted by NewMatcher.
const (
	PolicyFIFO     = "fifo"
	PolicyInterest = "interest"
)

// Matcher picks a partner for a joining user among waiting candidates.
// Candidates are ordered oldest first and never include the joiner.
type Matcher interface {
	Select(joiner WaitingEntry, candidates []WaitingEntry) (WaitingEntry, bool)
}

// NewMatcher returns the matcher for the named policy.
func NewMatcher(policy string, fallback bool) (Matcher, error) {
	switch policy {
	case PolicyFIFO, "":
		return FIFOMatcher{}, nil
	case PolicyInterest:
		return InterestMatcher{Fallback: fallback}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
}

// FIFOMatcher pairs the joiner with whoever has waited longest.
type FIFOMatcher struct{}

// Select implements Matcher.
func (FIFOMatcher) Select(_ WaitingEntry, candidates []WaitingEntry) (WaitingEntry, bool) {
	if len(candidates) == 0 {
		return WaitingEntry{}, false
	}
	return candidates[0], true
}

// InterestMatcher prefers the oldest candidate sharing at least one interest.
// With Fallback set it otherwise takes the oldest candidate; without it, only
// two users that both gave no interests may pair without overlap.
type InterestMatcher struct {
	Fallback bool
}

// Select implements Matcher.
func (m InterestMatcher) Select(joiner WaitingEntry, candidates []WaitingEntry) (WaitingEntry, bool) {
	if len(candidates) == 0 {
		return WaitingEntry{}, false
	}
	if len(joiner.Interests) > 0 {
		for _, c := range candidates {
			if len(SharedInterests(joiner.Interests, c.Interests)) > 0 {
				return c, true
			}
		}
	}
	if m.Fallback {
		return candidates[0], true
	}
	if len(joiner.Interests) == 0 {
		for _, c := range candidates {
			if len(c.Interests) == 0 {
				return c, true
			}
		}
	}
	return WaitingEntry{}, false
}
