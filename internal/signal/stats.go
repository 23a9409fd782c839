package signal

import (
	"math"
	"sort"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}

// variance is the population variance (ddof=0).
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	s := 0.0
	for _, v := range xs {
		d := v - m
		s += d * d
	}
	return s / float64(len(xs))
}

func stddev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return 0.5 * (cp[mid-1] + cp[mid])
}

func rms(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += v * v
	}
	return math.Sqrt(s / float64(len(xs)))
}

// skewness is the adjusted Fisher-Pearson sample skewness (G1). Returns NaN
// for constant series or fewer than three samples.
func skewness(xs []float64) float64 {
	n := float64(len(xs))
	if n < 3 {
		return math.NaN()
	}
	m := mean(xs)
	m2, m3 := 0.0, 0.0
	for _, v := range xs {
		d := v - m
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return math.NaN()
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}

// kurtosis is the sample-adjusted excess kurtosis. Returns NaN for constant
// series or fewer than four samples.
func kurtosis(xs []float64) float64 {
	n := float64(len(xs))
	if n < 4 {
		return math.NaN()
	}
	m := mean(xs)
	m2, m4 := 0.0, 0.0
	for _, v := range xs {
		d := v - m
		d2 := d * d
		m2 += d2
		m4 += d2 * d2
	}
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return math.NaN()
	}
	g2 := m4/(m2*m2) - 3
	return ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3))
}

// fillEdges replaces NaN entries by propagating the nearest valid value
// backward, then forward. The slice is modified in place.
func fillEdges(xs []float64) {
	// backward fill: nearest valid value after the gap
	lastValid := math.NaN()
	for i := len(xs) - 1; i >= 0; i-- {
		if math.IsNaN(xs[i]) {
			xs[i] = lastValid
		} else {
			lastValid = xs[i]
		}
	}
	// forward fill for trailing gaps
	lastValid = math.NaN()
	for i := range xs {
		if math.IsNaN(xs[i]) {
			xs[i] = lastValid
		} else {
			lastValid = xs[i]
		}
	}
	// fully-NaN series collapses to zero
	for i := range xs {
		if math.IsNaN(xs[i]) {
			xs[i] = 0
		}
	}
}
