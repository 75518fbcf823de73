package loader

import (
	"context"
	"errors"
	"testing"

	"dcf_builder/pkg/core/engine"
	"dcf_builder/pkg/core/engine/exact"
	"dcf_builder/pkg/core/money"
)

// skewed answers every NPV one unit too high.
type skewed struct{ engine.Engine }

func (s skewed) Name() string { return "skewed" }

func (s skewed) NPV(ctx context.Context, in engine.Input) (engine.Output, error) {
	out, err := s.Engine.NPV(ctx, in)
	if err != nil {
		return out, err
	}
	m, _ := out.NPV.Money()
	out.NPV = m.Add(money.FromNumber(1)).Wire()
	return out, nil
}

func broken(context.Context) (engine.Engine, error) {
	return nil, errors.New("module failed to initialize")
}

func exactFactory(context.Context) (engine.Engine, error) { return exact.New(), nil }

func TestLoadPrefersFast(t *testing.T) {
	e, err := Load(context.Background(), Options{Preferred: KindFast, AllowFallback: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.Name() != "fast" {
		t.Errorf("engine = %s, want fast", e.Name())
	}
}

func TestLoadFallsBackOnFactoryError(t *testing.T) {
	e, err := Load(context.Background(), Options{
		Preferred:     KindFast,
		AllowFallback: true,
		Candidates: []Candidate{
			{Kind: KindFast, Factory: broken},
			{Kind: KindExact, Factory: exactFactory},
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.Name() != "exact" {
		t.Errorf("engine = %s, want exact", e.Name())
	}
}

func TestLoadRejectsEngineFailingSelfCheck(t *testing.T) {
	e, err := Load(context.Background(), Options{
		Preferred:     KindFast,
		AllowFallback: true,
		Candidates: []Candidate{
			{Kind: KindFast, Factory: func(context.Context) (engine.Engine, error) { return skewed{exact.New()}, nil }},
			{Kind: KindExact, Factory: exactFactory},
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.Name() != "exact" {
		t.Errorf("engine = %s, want exact", e.Name())
	}
}

func TestLoadWithoutFallbackReportsUnavailable(t *testing.T) {
	_, err := Load(context.Background(), Options{
		Preferred: KindFast,
		Candidates: []Candidate{
			{Kind: KindFast, Factory: broken},
			{Kind: KindExact, Factory: exactFactory},
		},
	})
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" EXACT "); err != nil || k != KindExact {
		t.Errorf("ParseKind(EXACT) = %q, %v", k, err)
	}
	if k, err := ParseKind(""); err != nil || k != KindFast {
		t.Errorf("ParseKind(\"\") = %q, %v", k, err)
	}
	if _, err := ParseKind("wasm"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestActiveSwitch(t *testing.T) {
	ctx := context.Background()
	opts := Options{
		Candidates: []Candidate{
			{Kind: KindFast, Factory: broken},
			{Kind: KindExact, Factory: exactFactory},
		},
	}
	a := NewActive(exact.New(), opts)

	if _, err := a.Switch(ctx, KindFast); !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("Expected ErrEngineUnavailable, got %v", err)
	}
	if a.Engine().Name() != "exact" {
		t.Errorf("Expected exact to stay active after failed switch, got %s", a.Engine().Name())
	}

	e, err := a.Switch(ctx, KindExact)
	if err != nil {
		t.Fatalf("switch to exact failed: %v", err)
	}
	if e.Name() != "exact" || a.Engine() != e {
		t.Errorf("Expected the new exact engine to be active")
	}
	if kinds := a.Kinds(); len(kinds) != 2 || kinds[0] != KindFast {
		t.Errorf("Expected [fast exact], got %v", kinds)
	}
}
