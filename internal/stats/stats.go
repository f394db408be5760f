// Package stats computes descriptive statistics over small numeric columns.
package stats

import (
	"math"
	"sort"
)

// Summary mirrors a describe() table: count, mean, sample standard deviation,
// extremes and the 25/50/75 percentiles with linear interpolation.
type Summary struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Q25    float64 `json:"q25" yaml:"q25"`
	Median float64 `json:"median" yaml:"median"`
	Q75    float64 `json:"q75" yaml:"q75"`
	Max    float64 `json:"max" yaml:"max"`
}

// Describe summarizes values. Std is NaN when fewer than two values are
// present; every field except Count is NaN for an empty input.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, Std: nan, Min: nan, Q25: nan, Median: nan, Q75: nan, Max: nan}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := Mean(sorted)
	return Summary{
		Count:  len(sorted),
		Mean:   mean,
		Std:    SampleStddev(sorted, mean),
		Min:    sorted[0],
		Q25:    Percentile(sorted, 25),
		Median: Percentile(sorted, 50),
		Q75:    Percentile(sorted, 75),
		Max:    sorted[len(sorted)-1],
	}
}

// DescribeInts converts and summarizes integer values.
func DescribeInts(values []int) Summary {
	fs := make([]float64, len(values))
	for i, v := range values {
		fs[i] = float64(v)
	}
	return Describe(fs)
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// SampleStddev uses the n-1 denominator.
func SampleStddev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		diff := v - mean
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between closest ranks. values need not be sorted.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := values
	if !sort.Float64sAreSorted(values) {
		sorted = make([]float64, len(values))
		copy(sorted, values)
		sort.Float64s(sorted)
	}
	if len(sorted) == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	pos := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	weight := pos - float64(lower)
	return sorted[lower] + weight*(sorted[upper]-sorted[lower])
}
