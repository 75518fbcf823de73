package loader

import (
	"context"
	"sync"

	"dcf_builder/pkg/core/engine"
)

// Active holds the engine currently serving requests and swaps it on demand.
type Active struct {
	mu   sync.RWMutex
	eng  engine.Engine
	opts Options
}

// NewActive wraps a loaded engine. opts are reused when switching.
func NewActive(e engine.Engine, opts Options) *Active {
	return &Active{eng: e, opts: opts}
}

func (a *Active) Engine() engine.Engine {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.eng
}

// Switch loads exactly the requested kind. On failure the current engine
// stays in place.
func (a *Active) Switch(ctx context.Context, kind Kind) (engine.Engine, error) {
	opts := a.opts
	opts.Preferred = kind
	opts.AllowFallback = false
	e, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.eng = e
	a.mu.Unlock()
	return e, nil
}

// Kinds lists the candidate kinds in order.
func (a *Active) Kinds() []Kind {
	candidates := a.opts.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	out := make([]Kind, len(candidates))
	for i, c := range candidates {
		out[i] = c.Kind
	}
	return out
}
