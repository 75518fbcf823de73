// Package sensitivity sweeps the valuation over WACC × terminal-value inputs.
package sensitivity

import (
	"context"

	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/valuation"
)

// Run values the case at every configured WACC paired with every terminal
// growth rate (when Gordon is enabled) and every exit multiple (when the exit
// method is enabled). Each point is an independent valuation with the WACC as
// the discount-rate override. The context is checked between points; on
// cancellation the partial results are dropped and ctx.Err() returned.
func Run(ctx context.Context, forecast []model.ForecastPeriod, vctx model.ValuationContext) ([]model.SensitivityResult, error) {
	tv := vctx.TerminalValue
	cfg := vctx.Sensitivity

	size := 0
	if tv.Gordon.Enabled {
		size += len(cfg.WACCValues) * len(cfg.TerminalGrowthRates)
	}
	if tv.ExitMultiple.Enabled {
		size += len(cfg.WACCValues) * len(cfg.ExitMultiples)
	}
	results := make([]model.SensitivityResult, 0, size)

	for _, wacc := range cfg.WACCValues {
		opts := valuation.ComputeOptions{DiscountRate: model.Float(wacc)}

		if tv.Gordon.Enabled {
			for _, growth := range cfg.TerminalGrowthRates {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				ev := valuation.EnterpriseValue(forecast, vctx.WithGordonGrowth(growth), opts)
				results = append(results, model.SensitivityResult{
					Axis:            model.AxisGrowth,
					WACC:            wacc,
					TerminalGrowth:  growth,
					ExitMultiple:    tv.ExitMultiple.Multiple,
					EnterpriseValue: ev,
				})
			}
		}

		if tv.ExitMultiple.Enabled {
			for _, multiple := range cfg.ExitMultiples {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				pointOpts := opts
				pointOpts.ExitMultiple = model.Float(multiple)
				ev := valuation.EnterpriseValue(forecast, vctx, pointOpts)
				results = append(results, model.SensitivityResult{
					Axis:            model.AxisExitMultiple,
					WACC:            wacc,
					TerminalGrowth:  tv.Gordon.GrowthRate,
					ExitMultiple:    multiple,
					EnterpriseValue: ev,
				})
			}
		}
	}
	return results, nil
}
