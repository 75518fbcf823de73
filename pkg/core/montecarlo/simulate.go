// Package montecarlo runs seeded simulations of the valuation, perturbing the
// forecast and context with sampled driver values.
package montecarlo

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/valuation"
)

// Options tunes execution. Results do not depend on Workers.
type Options struct {
	// Workers bounds concurrent valuations; 0 means GOMAXPROCS.
	Workers int
}

// Run simulates the configured number of iterations and summarizes the
// enterprise-value distribution.
//
// All draws are taken from the seeded generator up front, iteration by
// iteration and driver by driver, so iteration i always consumes the i-th
// block of the stream. Valuations then run on a bounded worker pool, each on
// private copies of the inputs.
func Run(ctx context.Context, forecast []model.ForecastPeriod, vctx model.ValuationContext, opts Options) (model.MonteCarloResult, error) {
	cfg := vctx.MonteCarlo
	if cfg.Iterations <= 0 {
		return summarize(nil), nil
	}

	seed := model.DefaultSeed
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	gen, err := NewGenerator(cfg.Generator, seed)
	if err != nil {
		return model.MonteCarloResult{}, err
	}

	draws := make([][]float64, cfg.Iterations)
	for i := range draws {
		draws[i] = make([]float64, len(cfg.Drivers))
		for j, d := range cfg.Drivers {
			draws[i][j] = Sample(d, gen)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	samples := make([]float64, cfg.Iterations)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range draws {
		if err := gctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, c := Perturb(forecast, vctx, cfg.Drivers, draws[i])
			samples[i] = valuation.EnterpriseValue(f, c, valuation.ComputeOptions{})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.MonteCarloResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.MonteCarloResult{}, err
	}

	return summarize(samples), nil
}

// Perturb applies one iteration's draws to fresh copies of the inputs:
// revenue scales every period, margin adds to every EBIT margin, working
// capital stretches receivable and inventory days while shrinking payable
// days, capex scales both capex percentages and discount rate adds to the
// context rate.
func Perturb(forecast []model.ForecastPeriod, vctx model.ValuationContext, drivers []model.MonteCarloDriver, values []float64) ([]model.ForecastPeriod, model.ValuationContext) {
	f := model.CloneForecast(forecast)
	c := vctx.Clone()

	for j, d := range drivers {
		v := values[j]
		switch d.Key {
		case model.DriverRevenue:
			for i := range f {
				f[i].Revenue *= 1 + v/100
			}
		case model.DriverMargin:
			for i := range f {
				f[i].EBITMargin += v
			}
		case model.DriverWorkingCapital:
			c.WorkingCapital.ARDays *= 1 + v/100
			c.WorkingCapital.InventoryDays *= 1 + v/100
			c.WorkingCapital.APDays *= 1 - v/100
		case model.DriverCapex:
			c.Capex.MaintenanceCapexPctRevenue *= 1 + v/100
			c.Capex.GrowthCapexPctRevenue *= 1 + v/100
		case model.DriverDiscountRate:
			c.DiscountRate = model.Float(valuation.BaseDiscountRate(c) + v)
		}
	}
	return f, c
}
