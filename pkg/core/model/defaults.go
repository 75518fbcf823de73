package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultSeed seeds Monte Carlo runs that do not configure one.
const DefaultSeed uint32 = 1_234_567

// NewID returns a fresh identifier for scenarios, segments and cases.
func NewID() string {
	return uuid.NewString()
}

// DefaultState returns the starter case for a company whose forecast begins in
// year: six periods of steady growth, base/bull/bear scenarios and two
// business segments.
func DefaultState(year int) BuilderState {
	forecast := make([]ForecastPeriod, 6)
	for i := range forecast {
		forecast[i] = ForecastPeriod{
			Label:      fmt.Sprintf("FY%d", year+i),
			YearOffset: float64(i + 1),
			Revenue:    500 + float64(i)*60,
			EBITMargin: 18 + float64(i)*0.5,
		}
	}

	scenarios := []ScenarioDefinition{
		{ID: NewID(), Label: "Base"},
		{ID: NewID(), Label: "Bull", Adjustments: ScenarioAdjustments{
			RevenueGrowthDeltaPct: 2,
			MarginDeltaPct:        1,
			ExitMultipleDelta:     1,
			DiscountRateDeltaPct:  -0.5,
		}},
		{ID: NewID(), Label: "Bear", Adjustments: ScenarioAdjustments{
			RevenueGrowthDeltaPct: -2,
			MarginDeltaPct:        -1.5,
			ExitMultipleDelta:     -1,
			DiscountRateDeltaPct:  0.75,
		}},
	}

	ctx := ValuationContext{
		AsOf:              time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).Format(DateLayout),
		Compounding:       CompoundingAnnual,
		MidYearConvention: true,
		DiscountRate:      Float(9),
		TerminalValue: TerminalValueSettings{
			Gordon: GordonSettings{Enabled: true, GrowthRate: 2.5, SanityCap: Float(4)},
			ExitMultiple: ExitMultipleSettings{
				Enabled:       true,
				Metric:        MetricEBITDA,
				Multiple:      11,
				ReferenceYear: Int(len(forecast) - 1),
			},
			ApplyBoth: true,
		},
		WorkingCapital: WorkingCapitalSettings{
			OpeningNetWorkingCapital: 120,
			ARDays:                   45,
			APDays:                   30,
			InventoryDays:            50,
			OtherCurrentAssets:       35,
			OtherCurrentLiabilities:  25,
		},
		Capex: CapexSettings{
			OpeningNetPPE:              420,
			MaintenanceCapexPctRevenue: 4.5,
			GrowthCapexPctRevenue:      3,
			DepreciationPctRevenue:     4.2,
		},
		Leases: LeaseSettings{
			OperatingLeaseLiability: 90,
			DiscountRate:            5,
			AverageLeaseTermYears:   8,
			AnnualLeaseExpense:      18,
		},
		Tax: TaxSettings{
			StatutoryRate:     24,
			CashTaxRate:       20,
			NOLOpening:        55,
			NOLAnnualUsageCap: Float(30),
			DeferredTaxRate:   Float(10),
		},
		WACC: WACCInputs{
			RiskFreeRate:       3.5,
			MarketRiskPremium:  5,
			SizePremium:        1,
			CountryRiskPremium: 0.5,
			BetaLevered:        1.1,
			TargetDebtToEquity: 0.6,
			CostOfDebtPreTax:   5.2,
			TaxRate:            24,
		},
		Sensitivity: SensitivityConfig{
			WACCValues:          []float64{7, 8, 9, 10, 11},
			TerminalGrowthRates: []float64{1.5, 2, 2.5, 3},
			ExitMultiples:       []float64{9, 10, 11, 12},
		},
		MonteCarlo: MonteCarloConfig{
			Iterations: 250,
			Drivers: []MonteCarloDriver{
				{Key: DriverRevenue, Distribution: DistributionNormal, Mean: 3, StdDev: Float(2)},
				{Key: DriverMargin, Distribution: DistributionNormal, Mean: 0, StdDev: Float(1)},
				{Key: DriverWorkingCapital, Distribution: DistributionTriangular, Mean: 0, Min: Float(-5), Mode: Float(0), Max: Float(5)},
			},
			Seed: func() *uint32 { s := uint32(42); return &s }(),
		},
		Scenarios: scenarios,
		Segments: []SegmentInput{
			{ID: NewID(), Label: "Core SaaS", Revenue: 420, EBITDAMargin: 32, InvestedCapital: 310, ExitMultiple: Float(14)},
			{ID: NewID(), Label: "Payments", Revenue: 180, EBITDAMargin: 25, InvestedCapital: 140, ExitMultiple: Float(11)},
		},
		Peers:             []CompsPeer{},
		NetDebt:           260,
		SharesOutstanding: 145,
		EquityAdjustments: []EquityAdjustment{
			{Label: "Non-operating Assets", Amount: 45},
			{Label: "Minority Interest", Amount: -25},
		},
		Metadata: Metadata{
			CompanyName: "Example Co.",
			Ticker:      "EXCO",
			Currency:    "USD",
			ConfigPath:  "configs/base.yaml",
		},
	}

	return BuilderState{
		Forecast:         forecast,
		Context:          ctx,
		ActiveScenarioID: scenarios[0].ID,
	}
}
