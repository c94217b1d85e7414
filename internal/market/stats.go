package market

import "math"

// Averages reduces the two statistics windows into the persisted price pair,
// both rounded to 2 decimal places.
//
// The two windows treat null observations differently and the asymmetry is a
// preserved upstream contract: the closed window excludes nulls from the
// average entirely, while the live window substitutes 0 for a null, which
// still counts toward the denominator. An empty window averages to 0.
func (s *Statistics) Averages() (p90, p48 float64) {
	return averageClosed(s.Closed), averageLive(s.Live)
}

func averageClosed(points []PricePoint) float64 {
	var sum float64
	var n int
	for _, pt := range points {
		if pt.AvgPrice == nil {
			continue
		}
		sum += *pt.AvgPrice
		n++
	}
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func averageLive(points []PricePoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, pt := range points {
		if pt.AvgPrice != nil {
			sum += *pt.AvgPrice
		}
	}
	return round2(sum / float64(len(points)))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
