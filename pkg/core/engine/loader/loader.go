// Package loader selects a numeric backend for the NPV/IRR kernel. Candidates
// are tried in order, preferred kind first; each one must pass a parity
// self-check against the reference backend before it is handed out.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"dcf_builder/pkg/core/engine"
	"dcf_builder/pkg/core/engine/exact"
	"dcf_builder/pkg/core/engine/fast"
)

// ErrEngineUnavailable is returned when no candidate could be loaded.
var ErrEngineUnavailable = errors.New("no numeric engine available")

// Kind names a backend.
type Kind string

const (
	KindFast  Kind = "fast"
	KindExact Kind = "exact"
)

// ParseKind accepts "fast" or "exact" (case-insensitive). Empty means fast.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(KindFast):
		return KindFast, nil
	case string(KindExact):
		return KindExact, nil
	}
	return "", fmt.Errorf("unknown engine kind %q", s)
}

// Factory builds a backend. It may do expensive one-off initialization.
type Factory func(ctx context.Context) (engine.Engine, error)

// Candidate is one backend the loader may try.
type Candidate struct {
	Kind    Kind
	Factory Factory
}

// DefaultCandidates lists the built-in backends, accelerated first.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Kind: KindFast, Factory: func(context.Context) (engine.Engine, error) { return fast.New(), nil }},
		{Kind: KindExact, Factory: func(context.Context) (engine.Engine, error) { return exact.New(), nil }},
	}
}

type Options struct {
	Preferred     Kind
	AllowFallback bool
	SkipSelfCheck bool
	// Candidates defaults to DefaultCandidates.
	Candidates []Candidate
}

// Load returns the first candidate that builds and passes its self-check.
func Load(ctx context.Context, opts Options) (engine.Engine, error) {
	candidates := opts.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	ordered := order(candidates, opts.Preferred, opts.AllowFallback)
	if len(ordered) == 0 {
		return nil, fmt.Errorf("%w: no candidate of kind %q", ErrEngineUnavailable, opts.Preferred)
	}

	var errs []error
	for _, c := range ordered {
		e, err := c.Factory(ctx)
		if err == nil && !opts.SkipSelfCheck {
			err = selfCheck(ctx, e)
		}
		if err != nil {
			log.Warn().Str("engine", string(c.Kind)).Err(err).Msg("engine candidate rejected")
			errs = append(errs, fmt.Errorf("%s: %w", c.Kind, err))
			continue
		}
		log.Info().Str("engine", e.Name()).Msg("numeric engine selected")
		return e, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, errors.Join(errs...))
}

func order(candidates []Candidate, preferred Kind, fallback bool) []Candidate {
	if preferred == "" {
		if fallback {
			return candidates
		}
		return candidates[:1]
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Kind == preferred {
			out = append(out, c)
		}
	}
	if !fallback {
		return out
	}
	for _, c := range candidates {
		if c.Kind != preferred {
			out = append(out, c)
		}
	}
	return out
}

func selfCheck(ctx context.Context, e engine.Engine) error {
	reports, err := engine.CheckParity(ctx, exact.New(), e, engine.SampleInputs())
	if err != nil {
		return fmt.Errorf("self-check: %w", err)
	}
	for _, r := range reports {
		if !r.OK() {
			return fmt.Errorf("self-check: sample %d out of tolerance (npv delta %s, irr delta %d bps)",
				r.Index, r.NPVDelta.String(), r.IRRDeltaBps)
		}
	}
	return nil
}
