// Package series holds the per-well production history consumed by the
// decline estimator.
//
// A history is a sequence of samples keyed by producing day (days since first
// production). Sampling may be irregular, unsorted or duplicated, and a sample
// may carry no rate at all when the upstream record had no data for that day.
package series

import (
	"math"

	"github.com/arloliu/arps/internal/hash"
)

// Sample is one production observation.
type Sample struct {
	// Day is the producing day, days since first production.
	Day int
	// Rate is the observed rate. Only meaningful when Valid is true.
	Rate float64
	// Valid reports whether the sample carries a usable rate.
	Valid bool
}

// Observed returns a sample with a rate. Negative or non-finite rates are
// stored as missing.
func Observed(day int, rate float64) Sample {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return Missing(day)
	}

	return Sample{Day: day, Rate: rate, Valid: true}
}

// Missing returns a no-data sample for the given day.
func Missing(day int) Sample {
	return Sample{Day: day}
}

// Usable reports whether the sample can take part in a fit.
func (s Sample) Usable() bool {
	return s.Valid && s.Day >= 0 && s.Rate >= 0 && !math.IsNaN(s.Rate) && !math.IsInf(s.Rate, 0)
}

// Well is the production history of a single well.
type Well struct {
	ID      string
	Status  string
	Samples []Sample
}

// Key returns the xxHash64 key of the well identifier.
func (w Well) Key() uint64 {
	return hash.WellKey(w.ID)
}

// Points extracts the usable samples as parallel day/rate slices, preserving
// input order.
func Points(samples []Sample) (days, rates []float64) {
	days = make([]float64, 0, len(samples))
	rates = make([]float64, 0, len(samples))
	for _, s := range samples {
		if !s.Usable() {
			continue
		}
		days = append(days, float64(s.Day))
		rates = append(rates, s.Rate)
	}

	return days, rates
}

// CountUsable returns the number of samples that can take part in a fit.
func CountUsable(samples []Sample) int {
	n := 0
	for _, s := range samples {
		if s.Usable() {
			n++
		}
	}

	return n
}

// DayRange returns the first and last producing day among usable samples.
// ok is false when there is no usable sample.
func DayRange(samples []Sample) (first, last int, ok bool) {
	for _, s := range samples {
		if !s.Usable() {
			continue
		}
		if !ok {
			first, last, ok = s.Day, s.Day, true
			continue
		}
		first = min(first, s.Day)
		last = max(last, s.Day)
	}

	return first, last, ok
}
