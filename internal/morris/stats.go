package morris

import "math"

// RunningAverage returns the cumulative mean of values: out[i] is the mean
// of values[0..i].
func RunningAverage(values []float64) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		out[i] = sum / float64(i+1)
	}
	return out
}

// Summarise computes mu, mu* and the sample standard deviation of a set of
// elementary effects. Sigma is NaN for fewer than two effects.
func Summarise(effects []float64) (mu, muStar, sigma float64) {
	n := float64(len(effects))
	if n == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	for _, e := range effects {
		mu += e
		muStar += math.Abs(e)
	}
	mu /= n
	muStar /= n

	if len(effects) < 2 {
		return mu, muStar, math.NaN()
	}
	ss := 0.0
	for _, e := range effects {
		d := e - mu
		ss += d * d
	}
	return mu, muStar, math.Sqrt(ss / (n - 1))
}

func constant(values []float64) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values[1:] {
		if !sameFloat(v, values[0]) {
			return false
		}
	}
	return true
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
