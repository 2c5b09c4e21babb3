package storage

import "context"

// Namespaced prefixes every key with a fixed namespace so that several
// clients can share one backend without seeing each other's values.
type Namespaced struct {
	inner  Store
	prefix string
}

// Namespace scopes s to ns. Keys are stored as "ns:key".
func Namespace(s Store, ns string) *Namespaced {
	return &Namespaced{inner: s, prefix: ns + ":"}
}

// Get reads key from the client's namespace.
func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

// Set writes key into the client's namespace.
func (n *Namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

// Delete removes key from the client's namespace.
func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

// Close is a no-op; the shared backend is owned by whoever opened it.
func (n *Namespaced) Close() error { return nil }
