package core

// Registry maps user ids to their live connection and tracks every attached
// connection for presence fan-out. It is owned by the hub goroutine and is not
// safe for concurrent use.
type Registry struct {
	byUser map[string]*Client
	conns  map[*Client]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]*Client),
		conns:  make(map[*Client]struct{}),
	}
}

// Attach records a live connection. Returns true if newly added.
func (r *Registry) Attach(c *Client) bool {
	if _, exists := r.conns[c]; exists {
		return false
	}
	r.conns[c] = struct{}{}
	return true
}

// Detach forgets a live connection. Returns true if it was attached.
func (r *Registry) Detach(c *Client) bool {
	if _, exists := r.conns[c]; !exists {
		return false
	}
	delete(r.conns, c)
	return true
}

// Register binds id to c, replacing any previous connection, and returns the
// connection it replaced (nil if none or if it was c already).
func (r *Registry) Register(id string, c *Client) *Client {
	prev := r.byUser[id]
	r.byUser[id] = c
	if prev == c {
		return nil
	}
	return prev
}

// Unregister removes id only while it is still bound to c, so a late
// disconnect from a replaced connection cannot evict its successor.
func (r *Registry) Unregister(id string, c *Client) bool {
	if cur, ok := r.byUser[id]; !ok || cur != c {
		return false
	}
	delete(r.byUser, id)
	return true
}

// Lookup returns the live connection for id.
func (r *Registry) Lookup(id string) (*Client, bool) {
	c, ok := r.byUser[id]
	return c, ok
}

// Len is the number of bound user ids.
func (r *Registry) Len() int {
	return len(r.byUser)
}

// Connections is the number of attached connections, bound or not.
func (r *Registry) Connections() int {
	return len(r.conns)
}

// ForEach calls fn for every attached connection.
func (r *Registry) ForEach(fn func(c *Client)) {
	for c := range r.conns {
		fn(c)
	}
}
