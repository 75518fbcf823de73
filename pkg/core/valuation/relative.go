package valuation

import (
	"math"
	"sort"

	"dcf_builder/pkg/core/model"
)

// PeerMultiples holds one comparable's trading multiples.
type PeerMultiples struct {
	Ticker    string
	EVEBITDA  float64
	EVRevenue float64
}

// CalculatePeerMultiples derives EV/EBITDA and EV/Revenue per peer. Denominators
// are floored at 1 so tiny or negative metrics cannot blow up the ratio.
func CalculatePeerMultiples(peers []model.CompsPeer) []PeerMultiples {
	out := make([]PeerMultiples, 0, len(peers))
	for _, p := range peers {
		out = append(out, PeerMultiples{
			Ticker:    p.Ticker,
			EVEBITDA:  p.EnterpriseValue / math.Max(p.EBITDA, 1),
			EVRevenue: p.EnterpriseValue / math.Max(p.Revenue, 1),
		})
	}
	return out
}

// ComputeCompsCheck compares the DCF enterprise value with the peer set.
// Returns nil when there are no peers.
func ComputeCompsCheck(peers []model.CompsPeer, enterpriseValue float64) *model.CompsCheck {
	if len(peers) == 0 {
		return nil
	}
	var evEBITDA, evSales []float64
	for _, m := range CalculatePeerMultiples(peers) {
		if isFinite(m.EVEBITDA) {
			evEBITDA = append(evEBITDA, m.EVEBITDA)
		}
		if isFinite(m.EVRevenue) {
			evSales = append(evSales, m.EVRevenue)
		}
	}

	check := &model.CompsCheck{
		MedianEVEBITDA: median(evEBITDA),
		MedianEVSales:  median(evSales),
	}
	if check.MedianEVEBITDA != nil && enterpriseValue != 0 {
		premium := enterpriseValue/math.Max(*check.MedianEVEBITDA, 1) - 1
		check.ImpliedPremiumVsMedian = &premium
	}
	return check
}

func median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	m := sorted[mid]
	if len(sorted)%2 == 0 {
		m = (sorted[mid-1] + sorted[mid]) / 2
	}
	return &m
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
