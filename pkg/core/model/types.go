// Package model holds the valuation inputs and outputs shared by every
// calculator. Percentages are in percent units (2.5 means 2.5%) and amounts
// are in millions of the reporting currency unless a field says otherwise.
//
// Inputs are values: helpers that change a context or forecast return a new
// copy and leave the receiver untouched. Optional fields are pointers and are
// never written through, so copies may share them.
package model

// Compounding is the discounting frequency.
type Compounding string

const (
	CompoundingAnnual  Compounding = "annual"
	CompoundingMonthly Compounding = "monthly"
)

// Frequency returns compounding periods per year.
func (c Compounding) Frequency() float64 {
	if c == CompoundingMonthly {
		return 12
	}
	return 1
}

// ForecastPeriod is one projected year.
type ForecastPeriod struct {
	Label                  string   `json:"label" yaml:"label"`
	YearOffset             float64  `json:"yearOffset" yaml:"yearOffset"`
	Revenue                float64  `json:"revenue" yaml:"revenue"`
	EBITMargin             float64  `json:"ebitMargin" yaml:"ebitMargin"`
	EBITDAMargin           *float64 `json:"ebitdaMargin,omitempty" yaml:"ebitdaMargin,omitempty"`
	OtherOperatingIncome   *float64 `json:"otherOperatingIncome,omitempty" yaml:"otherOperatingIncome,omitempty"`
	WorkingCapitalOverride *float64 `json:"workingCapitalOverride,omitempty" yaml:"workingCapitalOverride,omitempty"`
	CapexOverride          *float64 `json:"capexOverride,omitempty" yaml:"capexOverride,omitempty"`
	DepreciationOverride   *float64 `json:"depreciationOverride,omitempty" yaml:"depreciationOverride,omitempty"`
}

type GordonSettings struct {
	Enabled    bool     `json:"enabled" yaml:"enabled"`
	GrowthRate float64  `json:"growthRate" yaml:"growthRate"`
	SanityCap  *float64 `json:"sanityCap,omitempty" yaml:"sanityCap,omitempty"`
}

// ExitMetric is the operating metric an exit multiple applies to.
type ExitMetric string

const (
	MetricEBITDA  ExitMetric = "ebitda"
	MetricEBIT    ExitMetric = "ebit"
	MetricRevenue ExitMetric = "revenue"
)

type ExitMultipleSettings struct {
	Enabled  bool       `json:"enabled" yaml:"enabled"`
	Metric   ExitMetric `json:"metric" yaml:"metric"`
	Multiple float64    `json:"multiple" yaml:"multiple"`
	// ReferenceYear indexes the forecast; nil means the final period.
	ReferenceYear *int `json:"referenceYear,omitempty" yaml:"referenceYear,omitempty"`
}

type TerminalValueSettings struct {
	Gordon       GordonSettings       `json:"gordon" yaml:"gordon"`
	ExitMultiple ExitMultipleSettings `json:"exitMultiple" yaml:"exitMultiple"`
	ApplyBoth    bool                 `json:"applyBoth" yaml:"applyBoth"`
}

type WorkingCapitalSettings struct {
	OpeningNetWorkingCapital float64 `json:"openingNetWorkingCapital" yaml:"openingNetWorkingCapital"`
	ARDays                   float64 `json:"arDays" yaml:"arDays"`
	APDays                   float64 `json:"apDays" yaml:"apDays"`
	InventoryDays            float64 `json:"inventoryDays" yaml:"inventoryDays"`
	OtherCurrentAssets       float64 `json:"otherCurrentAssets" yaml:"otherCurrentAssets"`
	OtherCurrentLiabilities  float64 `json:"otherCurrentLiabilities" yaml:"otherCurrentLiabilities"`
}

type CapexSettings struct {
	OpeningNetPPE              float64  `json:"openingNetPpe" yaml:"openingNetPpe"`
	MaintenanceCapexPctRevenue float64  `json:"maintenanceCapexPctRevenue" yaml:"maintenanceCapexPctRevenue"`
	GrowthCapexPctRevenue      float64  `json:"growthCapexPctRevenue" yaml:"growthCapexPctRevenue"`
	DepreciationPctRevenue     float64  `json:"depreciationPctRevenue" yaml:"depreciationPctRevenue"`
	MaintenanceShare           *float64 `json:"maintenanceShare,omitempty" yaml:"maintenanceShare,omitempty"`
}

type LeaseSettings struct {
	OperatingLeaseLiability float64 `json:"operatingLeaseLiability" yaml:"operatingLeaseLiability"`
	DiscountRate            float64 `json:"discountRate" yaml:"discountRate"`
	AverageLeaseTermYears   float64 `json:"averageLeaseTermYears" yaml:"averageLeaseTermYears"`
	AnnualLeaseExpense      float64 `json:"annualLeaseExpense" yaml:"annualLeaseExpense"`
}

type TaxSettings struct {
	StatutoryRate     float64  `json:"statutoryRate" yaml:"statutoryRate"`
	CashTaxRate       float64  `json:"cashTaxRate" yaml:"cashTaxRate"`
	NOLOpening        float64  `json:"nolOpening" yaml:"nolOpening"`
	NOLAnnualUsageCap *float64 `json:"nolAnnualUsageCap,omitempty" yaml:"nolAnnualUsageCap,omitempty"`
	DeferredTaxRate   *float64 `json:"deferredTaxRate,omitempty" yaml:"deferredTaxRate,omitempty"`
}

// WACCInputs are the capital-structure assumptions behind the discount rate.
type WACCInputs struct {
	RiskFreeRate       float64  `json:"riskFreeRate" yaml:"riskFreeRate"`
	MarketRiskPremium  float64  `json:"marketRiskPremium" yaml:"marketRiskPremium"`
	SizePremium        float64  `json:"sizePremium" yaml:"sizePremium"`
	CountryRiskPremium float64  `json:"countryRiskPremium" yaml:"countryRiskPremium"`
	BetaLevered        float64  `json:"betaLevered" yaml:"betaLevered"`
	BetaUnlevered      *float64 `json:"betaUnlevered,omitempty" yaml:"betaUnlevered,omitempty"`
	TargetDebtToEquity float64  `json:"targetDebtToEquity" yaml:"targetDebtToEquity"`
	CostOfDebtPreTax   float64  `json:"costOfDebtPreTax" yaml:"costOfDebtPreTax"`
	TaxRate            float64  `json:"taxRate" yaml:"taxRate"`
}

// ScenarioAdjustments are additive deltas. Zero means no change.
type ScenarioAdjustments struct {
	RevenueGrowthDeltaPct float64 `json:"revenueGrowthDeltaPct,omitempty" yaml:"revenueGrowthDeltaPct,omitempty"`
	MarginDeltaPct        float64 `json:"marginDeltaPct,omitempty" yaml:"marginDeltaPct,omitempty"`
	ExitMultipleDelta     float64 `json:"exitMultipleDelta,omitempty" yaml:"exitMultipleDelta,omitempty"`
	DiscountRateDeltaPct  float64 `json:"discountRateDeltaPct,omitempty" yaml:"discountRateDeltaPct,omitempty"`
}

type ScenarioDefinition struct {
	ID          string              `json:"id" yaml:"id"`
	Label       string              `json:"label" yaml:"label"`
	Adjustments ScenarioAdjustments `json:"adjustments" yaml:"adjustments"`
}

type SensitivityConfig struct {
	WACCValues          []float64 `json:"waccValues" yaml:"waccValues"`
	TerminalGrowthRates []float64 `json:"terminalGrowthRates" yaml:"terminalGrowthRates"`
	ExitMultiples       []float64 `json:"exitMultiples" yaml:"exitMultiples"`
}

// DriverKey names the input a Monte Carlo driver perturbs.
type DriverKey string

const (
	DriverRevenue        DriverKey = "revenue"
	DriverMargin         DriverKey = "margin"
	DriverWorkingCapital DriverKey = "workingCapital"
	DriverCapex          DriverKey = "capex"
	DriverDiscountRate   DriverKey = "discountRate"
)

type Distribution string

const (
	DistributionNormal     Distribution = "normal"
	DistributionLognormal  Distribution = "lognormal"
	DistributionTriangular Distribution = "triangular"
)

type MonteCarloDriver struct {
	Key          DriverKey    `json:"key" yaml:"key"`
	Distribution Distribution `json:"distribution" yaml:"distribution"`
	Mean         float64      `json:"mean" yaml:"mean"`
	StdDev       *float64     `json:"stdDev,omitempty" yaml:"stdDev,omitempty"`
	Min          *float64     `json:"min,omitempty" yaml:"min,omitempty"`
	Mode         *float64     `json:"mode,omitempty" yaml:"mode,omitempty"`
	Max          *float64     `json:"max,omitempty" yaml:"max,omitempty"`
}

type MonteCarloConfig struct {
	Iterations int                `json:"iterations" yaml:"iterations"`
	Drivers    []MonteCarloDriver `json:"drivers" yaml:"drivers"`
	Seed       *uint32            `json:"seed,omitempty" yaml:"seed,omitempty"`
	// Generator is "mulberry32" (default) or "pcg".
	Generator string `json:"generator,omitempty" yaml:"generator,omitempty"`
}

type SegmentInput struct {
	ID              string   `json:"id" yaml:"id"`
	Label           string   `json:"label" yaml:"label"`
	Revenue         float64  `json:"revenue" yaml:"revenue"`
	EBITDAMargin    float64  `json:"ebitdaMargin" yaml:"ebitdaMargin"`
	InvestedCapital float64  `json:"investedCapital" yaml:"investedCapital"`
	ExitMultiple    *float64 `json:"exitMultiple,omitempty" yaml:"exitMultiple,omitempty"`
}

type CompsPeer struct {
	Ticker          string  `json:"ticker" yaml:"ticker"`
	EnterpriseValue float64 `json:"enterpriseValue" yaml:"enterpriseValue"`
	EBITDA          float64 `json:"ebitda" yaml:"ebitda"`
	Revenue         float64 `json:"revenue" yaml:"revenue"`
}

// EquityAdjustment is added to equity value; negative amounts reduce it.
type EquityAdjustment struct {
	Label  string  `json:"label" yaml:"label"`
	Amount float64 `json:"amount" yaml:"amount"`
}

type Metadata struct {
	CompanyName string `json:"companyName,omitempty" yaml:"companyName,omitempty"`
	Ticker      string `json:"ticker,omitempty" yaml:"ticker,omitempty"`
	Analyst     string `json:"analyst,omitempty" yaml:"analyst,omitempty"`
	Currency    string `json:"currency,omitempty" yaml:"currency,omitempty"`
	GitCommit   string `json:"gitCommit,omitempty" yaml:"gitCommit,omitempty"`
	ConfigPath  string `json:"configPath,omitempty" yaml:"configPath,omitempty"`
}

// ValuationContext aggregates every assumption block of a valuation.
type ValuationContext struct {
	AsOf              string      `json:"asOf" yaml:"asOf"`
	Compounding       Compounding `json:"compounding" yaml:"compounding"`
	MidYearConvention bool        `json:"midYearConvention" yaml:"midYearConvention"`
	// DiscountRate in percent; nil falls back to the computed WACC.
	DiscountRate *float64 `json:"discountRate,omitempty" yaml:"discountRate,omitempty"`

	TerminalValue  TerminalValueSettings  `json:"terminalValue" yaml:"terminalValue"`
	WorkingCapital WorkingCapitalSettings `json:"workingCapital" yaml:"workingCapital"`
	Capex          CapexSettings          `json:"capex" yaml:"capex"`
	Leases         LeaseSettings          `json:"leases" yaml:"leases"`
	Tax            TaxSettings            `json:"tax" yaml:"tax"`
	WACC           WACCInputs             `json:"wacc" yaml:"wacc"`
	Sensitivity    SensitivityConfig      `json:"sensitivity" yaml:"sensitivity"`
	MonteCarlo     MonteCarloConfig       `json:"monteCarlo" yaml:"monteCarlo"`

	Scenarios         []ScenarioDefinition `json:"scenarios" yaml:"scenarios"`
	Segments          []SegmentInput       `json:"segments" yaml:"segments"`
	Peers             []CompsPeer          `json:"peers" yaml:"peers"`
	NetDebt           float64              `json:"netDebt" yaml:"netDebt"`
	SharesOutstanding float64              `json:"sharesOutstanding" yaml:"sharesOutstanding"`
	EquityAdjustments []EquityAdjustment   `json:"equityAdjustments,omitempty" yaml:"equityAdjustments,omitempty"`
	Metadata          Metadata             `json:"metadata" yaml:"metadata"`
}

// --- Outputs ---

// DerivedCashflow is the free cash flow of one period with its breakdown and
// the running balances after the period.
type DerivedCashflow struct {
	Period                    ForecastPeriod `json:"period"`
	FreeCashFlow              float64        `json:"freeCashFlow"`
	EBIT                      float64        `json:"ebit"`
	NOPAT                     float64        `json:"nopat"`
	ChangeInNetWorkingCapital float64        `json:"changeInNetWorkingCapital"`
	Depreciation              float64        `json:"depreciation"`
	Capex                     float64        `json:"capex"`
	LeaseInterest             float64        `json:"leaseInterest"`
	LeaseAmortization         float64        `json:"leaseAmortization"`
	TaxPaid                   float64        `json:"taxPaid"`
	EndingNetWorkingCapital   float64        `json:"endingNetWorkingCapital"`
	EndingNetPPE              float64        `json:"endingNetPpe"`
	NOLBalance                float64        `json:"nolBalance"`
}

type TerminalMethod string

const (
	TerminalGordon TerminalMethod = "gordon"
	TerminalExit   TerminalMethod = "exit"
)

type TerminalValueOutput struct {
	Method          TerminalMethod `json:"method"`
	Value           float64        `json:"value"`
	ImpliedMultiple *float64       `json:"impliedMultiple,omitempty"`
	Warning         string         `json:"warning,omitempty"`
}

type WACCBreakdown struct {
	LeveredBeta        float64 `json:"leveredBeta"`
	CostOfEquity       float64 `json:"costOfEquity"`
	CostOfDebtAfterTax float64 `json:"costOfDebtAfterTax"`
	WeightOfEquity     float64 `json:"weightOfEquity"`
	WeightOfDebt       float64 `json:"weightOfDebt"`
	WACC               float64 `json:"wacc"`
}

type EVBridgeItem struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Impact float64 `json:"impact"`
}

type CompsCheck struct {
	MedianEVEBITDA         *float64 `json:"medianEvEbitda,omitempty"`
	MedianEVSales          *float64 `json:"medianEvSales,omitempty"`
	ImpliedPremiumVsMedian *float64 `json:"impliedPremiumVsMedian,omitempty"`
}

type SOTPSegmentValue struct {
	Segment SegmentInput `json:"segment"`
	Value   float64      `json:"value"`
	Weight  float64      `json:"weight"`
}

type SOTPOutput struct {
	TotalValue float64            `json:"totalValue"`
	Segments   []SOTPSegmentValue `json:"segments"`
}

type RunMetadata struct {
	RunID        string `json:"runId"`
	TimestampISO string `json:"timestampIso"`
	ScenarioID   string `json:"scenarioId,omitempty"`
	GitCommit    string `json:"gitCommit,omitempty"`
	ConfigPath   string `json:"configPath,omitempty"`
}

// ValuationOutputs is the full result of one valuation run.
type ValuationOutputs struct {
	Cashflows            []DerivedCashflow     `json:"cashflows"`
	PresentValue         float64               `json:"presentValue"`
	TerminalValues       []TerminalValueOutput `json:"terminalValues"`
	TerminalPresentValue float64               `json:"terminalPresentValue"`
	EnterpriseValue      float64               `json:"enterpriseValue"`
	EquityValue          float64               `json:"equityValue"`
	PerShare             float64               `json:"perShare"`
	DiscountRate         float64               `json:"discountRate"`
	WACCBreakdown        WACCBreakdown         `json:"waccBreakdown"`
	Validations          []string              `json:"validations"`
	EVBridge             []EVBridgeItem        `json:"evBridge"`
	CompsCheck           *CompsCheck           `json:"compsCheck,omitempty"`
	SOTP                 *SOTPOutput           `json:"sotp,omitempty"`
	RunMetadata          RunMetadata           `json:"runMetadata"`
}

// SweepAxis tells which terminal-value input a sensitivity point varied.
type SweepAxis string

const (
	AxisGrowth       SweepAxis = "growth"
	AxisExitMultiple SweepAxis = "exitMultiple"
)

// SensitivityResult is one sweep point.
type SensitivityResult struct {
	Axis            SweepAxis `json:"axis"`
	WACC            float64   `json:"wacc"`
	TerminalGrowth  float64   `json:"terminalGrowth"`
	ExitMultiple    float64   `json:"exitMultiple"`
	EnterpriseValue float64   `json:"enterpriseValue"`
}

type MonteCarloResult struct {
	Iterations int       `json:"iterations"`
	Median     float64   `json:"median"`
	P10        float64   `json:"p10"`
	P90        float64   `json:"p90"`
	Mean       float64   `json:"mean"`
	StdDev     float64   `json:"stdDev"`
	Samples    []float64 `json:"samples"`
}
