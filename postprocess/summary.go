package postprocess

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the spread of confidence scores over a set of
// detection results.  Callers can use it to judge detection quality and
// decide whether to rerun with a more lenient confidence threshold.
type Summary struct {
	// Count is the number of surviving detections
	Count int
	// Min and Max are the lowest and highest retained confidence scores
	Min float64
	Max float64
	// Mean and StdDev describe the retained score distribution
	Mean   float64
	StdDev float64
}

// Summarise calculates the confidence score statistics for a set of
// detection results.  An empty result set returns a zero Summary.
func Summarise(results []DetectResult) Summary {

	if len(results) == 0 {
		return Summary{}
	}

	probs := make([]float64, len(results))

	for i, res := range results {
		probs[i] = float64(res.Probability)
	}

	mean, std := stat.MeanStdDev(probs, nil)

	// StdDev is NaN for a single sample
	if len(probs) == 1 {
		std = 0
	}

	return Summary{
		Count:  len(results),
		Min:    floats.Min(probs),
		Max:    floats.Max(probs),
		Mean:   mean,
		StdDev: std,
	}
}
