package montecarlo

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"dcf_builder/pkg/core/model"
)

// summarize sorts the samples in place and computes the result statistics.
func summarize(samples []float64) model.MonteCarloResult {
	if samples == nil {
		samples = []float64{}
	}
	sort.Float64s(samples)

	res := model.MonteCarloResult{
		Iterations: len(samples),
		Median:     Percentile(samples, 0.5),
		P10:        Percentile(samples, 0.1),
		P90:        Percentile(samples, 0.9),
		Samples:    samples,
	}
	if len(samples) == 0 {
		return res
	}
	res.Mean = stat.Mean(samples, nil)
	if len(samples) > 1 {
		// sample standard deviation, n-1 denominator
		res.StdDev = stat.StdDev(samples, nil)
	}
	return res
}

// Percentile interpolates linearly between order statistics of sorted
// values at rank p in [0, 1]. Empty input gives 0.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := float64(len(sorted)-1) * p
	lower := math.Floor(idx)
	upper := math.Ceil(idx)
	if lower == upper {
		return sorted[int(lower)]
	}
	w := idx - lower
	return sorted[int(lower)]*(1-w) + sorted[int(upper)]*w
}
