package postprocess

import (
	"math"
	"testing"
)

func TestSummarise(t *testing.T) {

	results := []DetectResult{
		{Probability: 0.9},
		{Probability: 0.95},
		{Probability: 1.0},
	}

	s := Summarise(results)

	if s.Count != 3 {
		t.Errorf("expected count 3, got %d", s.Count)
	}

	if math.Abs(s.Min-0.9) > 1e-6 || math.Abs(s.Max-1.0) > 1e-6 {
		t.Errorf("expected min 0.9 and max 1.0, got min %f, max %f", s.Min, s.Max)
	}

	if math.Abs(s.Mean-0.95) > 1e-6 {
		t.Errorf("expected mean 0.95, got %f", s.Mean)
	}

	if s.StdDev <= 0 {
		t.Errorf("expected positive stddev, got %f", s.StdDev)
	}
}

func TestSummariseSingle(t *testing.T) {

	s := Summarise([]DetectResult{{Probability: 0.9}})

	if s.Count != 1 || s.StdDev != 0 {
		t.Errorf("single result summary wrong: %+v", s)
	}
}

func TestSummariseEmpty(t *testing.T) {

	s := Summarise(nil)

	if s.Count != 0 || s.Min != 0 || s.Max != 0 {
		t.Errorf("empty summary should be zero valued: %+v", s)
	}
}
