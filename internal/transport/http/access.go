package http

import (
	"fmt"
	"net/netip"
	"strings"
	"sync"
)

var loopbackPrefixes = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
}

// AccessList is a hot-reloadable client IP allow-list. Loopback clients are
// always allowed.
type AccessList struct {
	mu       sync.RWMutex
	enabled  bool
	allowAll bool
	prefixes []netip.Prefix
}

// NewAccessList parses entries (single IPs, CIDR ranges, "localhost" or "*").
func NewAccessList(enabled bool, entries []string) (*AccessList, error) {
	a := &AccessList{}
	if err := a.Update(enabled, entries); err != nil {
		return nil, err
	}
	return a, nil
}

// Update swaps in a new list. On a parse error the current list is kept.
func (a *AccessList) Update(enabled bool, entries []string) error {
	var (
		allowAll bool
		prefixes []netip.Prefix
	)
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		switch {
		case entry == "":
			continue
		case entry == "*":
			allowAll = true
		case strings.EqualFold(entry, "localhost"):
			prefixes = append(prefixes, loopbackPrefixes...)
		case strings.Contains(entry, "/"):
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return fmt.Errorf("access list entry %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
		default:
			addr, err := netip.ParseAddr(entry)
			if err != nil {
				return fmt.Errorf("access list entry %q: %w", entry, err)
			}
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}

	a.mu.Lock()
	a.enabled = enabled
	a.allowAll = allowAll
	a.prefixes = prefixes
	a.mu.Unlock()
	return nil
}

// Allowed reports whether a client at ip may connect.
func (a *AccessList) Allowed(ip string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.enabled || a.allowAll {
		return true
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.WithZone("").Unmap()
	if addr.IsLoopback() {
		return true
	}
	for _, p := range a.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
