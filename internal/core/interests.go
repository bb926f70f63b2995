package core

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const (
	// DefaultMaxInterests caps how many tags a user may join with.
	DefaultMaxInterests = 10
	// DefaultMaxInterestLen caps the length of one tag, in runes.
	DefaultMaxInterestLen = 32
)

// NormalizeInterests trims, case-folds and de-duplicates tags, keeping the
// first occurrence order. Empty tags and tags that are not valid UTF-8 are
// dropped and the result is capped to maxCount tags of at most maxLen runes. Non-positive limits disable the cap.
func NormalizeInterests(raw []string, maxCount, maxLen int) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		if !utf8.ValidString(tag) {
			continue
		}
		key := foldInterest(tag)
		if maxLen > 0 {
			if runes := []rune(key); len(runes) > maxLen {
				key = strings.TrimSpace(string(runes[:maxLen]))
			}
		}
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
		if maxCount > 0 && len(out) == maxCount {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SharedInterests is the case-insensitive intersection of a and b in a's order.
func SharedInterests(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	other := make(map[string]struct{}, len(b))
	for _, tag := range b {
		other[foldInterest(tag)] = struct{}{}
	}
	var shared []string
	for _, tag := range a {
		if _, ok := other[foldInterest(tag)]; ok {
			shared = append(shared, tag)
		}
	}
	return shared
}

func foldInterest(tag string) string {
	// Caser values carry state, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(tag))
}
