package middleware

import "github.com/aretw0/flume/pkg/ports"

// Middleware allows wrapping a BlueprintStore to add behavior.
type Middleware func(ports.BlueprintStore) ports.BlueprintStore

// Chain wraps store with mws. The first middleware is the outermost: it sees
// Save calls first and Load results last.
func Chain(store ports.BlueprintStore, mws ...Middleware) ports.BlueprintStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
