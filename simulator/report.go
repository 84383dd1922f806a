package simulator

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample of durations in seconds.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_s"`
	StdDev float64 `json:"stddev_s"`
	Min    float64 `json:"min_s"`
	P50    float64 `json:"p50_s"`
	P90    float64 `json:"p90_s"`
	P99    float64 `json:"p99_s"`
	Max    float64 `json:"max_s"`
}

// Summarize computes a Summary of xs. xs is not modified.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return Summary{
		Count:  len(sorted),
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		P50:    stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

// Report aggregates the outcome of a simulation run.
type Report struct {
	Trials   int            `json:"trials"`
	Outcomes map[string]int `json:"outcomes"`
	Pickup   Summary        `json:"pickup"`
	Trip     Summary        `json:"trip"`
	Total    Summary        `json:"total"`
	// Drivers counts how often each driver was assigned.
	Drivers map[string]int `json:"drivers"`
}
