package analysis

import "math"

// Histogram is a fixed-width binning of a sample.
type Histogram struct {
	Min, Max float64
	Width    float64
	Counts   []int
}

// NewHistogram bins values into n equal bins spanning their range. NaN
// and infinite values are ignored.
func NewHistogram(values []float64, n int) *Histogram {
	if n < 1 {
		n = 1
	}
	h := &Histogram{Min: math.Inf(1), Max: math.Inf(-1), Counts: make([]int, n)}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		h.Min = math.Min(h.Min, v)
		h.Max = math.Max(h.Max, v)
	}
	if math.IsInf(h.Min, 1) {
		h.Min, h.Max = 0, 0
		return h
	}

	h.Width = (h.Max - h.Min) / float64(n)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		b := n - 1
		if h.Width > 0 {
			b = int((v - h.Min) / h.Width)
		}
		if b >= n {
			b = n - 1
		}
		h.Counts[b]++
	}
	return h
}

// Floats returns the counts as float64, the form plotting libraries take.
func (h *Histogram) Floats() []float64 {
	out := make([]float64, len(h.Counts))
	for i, c := range h.Counts {
		out[i] = float64(c)
	}
	return out
}

func (h *Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}
