package valuation

import "dcf_builder/pkg/core/model"

// BuildEVBridge itemizes enterprise value. Impact is each line's share of EV,
// zero when EV is zero.
func BuildEVBridge(presentValue, terminalPresentValue, enterpriseValue, netDebt float64) []model.EVBridgeItem {
	share := func(v float64) float64 {
		if enterpriseValue == 0 {
			return 0
		}
		return v / enterpriseValue
	}
	return []model.EVBridgeItem{
		{Label: "PV of Forecast", Value: presentValue, Impact: share(presentValue)},
		{Label: "PV of Terminal Value", Value: terminalPresentValue, Impact: share(terminalPresentValue)},
		{Label: "Net Debt", Value: -netDebt, Impact: share(-netDebt)},
	}
}
