package montecarlo

import (
	"math"

	"dcf_builder/pkg/core/model"
)

// Sample draws one value for the driver. Missing parameters default to
// stdDev = 10% of the mean (normal), 0.1 in log space (log-normal) and
// min/mode/max = 50%/100%/150% of the mean (triangular). Unknown
// distributions return the mean without consuming draws.
func Sample(d model.MonteCarloDriver, g Generator) float64 {
	switch d.Distribution {
	case model.DistributionNormal:
		return gaussian(d.Mean, orDefault(d.StdDev, d.Mean*0.1), g)
	case model.DistributionLognormal:
		return math.Exp(gaussian(math.Log(math.Max(d.Mean, 1e-6)), orDefault(d.StdDev, 0.1), g))
	case model.DistributionTriangular:
		return triangular(
			orDefault(d.Min, d.Mean*0.5),
			orDefault(d.Mode, d.Mean),
			orDefault(d.Max, d.Mean*1.5),
			g,
		)
	}
	return d.Mean
}

// gaussian uses the Box-Muller transform. Zero draws are rejected so the
// logarithm stays finite.
func gaussian(mean, stdDev float64, g Generator) float64 {
	u := 0.0
	for u == 0 {
		u = g.Float64()
	}
	v := 0.0
	for v == 0 {
		v = g.Float64()
	}
	z := math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
	return mean + z*stdDev
}

// triangular samples by inverting the CDF.
func triangular(lo, mode, hi float64, g Generator) float64 {
	u := g.Float64()
	c := (mode - lo) / (hi - lo)
	if u < c {
		return lo + math.Sqrt(u*(hi-lo)*(mode-lo))
	}
	return hi - math.Sqrt((1-u)*(hi-lo)*(hi-mode))
}

func orDefault(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}
