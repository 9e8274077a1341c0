package ports

// SessionStore keeps per-browser state keyed by session id.
type SessionStore[V any] interface {
	Get(id string) (V, bool)
	Add(id string, v V)
	Len() int
}
