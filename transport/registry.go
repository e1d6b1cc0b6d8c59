package transport

import "sync"

// The registry maps port identifiers to their owning transport so two
// transports never drive the same device. Opening a port that already
// has an owner stops the prior owner first.
var (
	registryMu sync.Mutex
	registry   = map[string]*Transport{}
)

func takeover(portID string) {
	registryMu.Lock()
	prior := registry[portID]
	registryMu.Unlock()

	if prior != nil {
		prior.Stop()
	}
}

func register(t *Transport) {
	registryMu.Lock()
	registry[t.id] = t
	registryMu.Unlock()
}

func unregister(t *Transport) {
	registryMu.Lock()
	if registry[t.id] == t {
		delete(registry, t.id)
	}
	registryMu.Unlock()
}

// Owner returns the transport currently bound to portID, if any.
func Owner(portID string) (*Transport, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	t, ok := registry[portID]
	return t, ok
}
