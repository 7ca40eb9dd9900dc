package stats

import (
	"math"
	"testing"
)

func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestDescriptiveStatsKnownSample(t *testing.T) {
	v := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	d := DescriptiveStats(v)
	if d.N != 8 {
		t.Fatalf("N = %d, want 8", d.N)
	}
	if !approxEqual(d.Mean, 5, 1e-9) {
		t.Fatalf("Mean = %v, want 5", d.Mean)
	}
	// Population variance here is 4, sample variance (n-1) is 32/7.
	wantStddev := math.Sqrt(32.0 / 7.0)
	if !approxEqual(d.Stddev, wantStddev, 1e-9) {
		t.Fatalf("Stddev = %v, want %v", d.Stddev, wantStddev)
	}
	if d.Min != 2 || d.Max != 9 {
		t.Fatalf("Min/Max = %v/%v, want 2/9", d.Min, d.Max)
	}
}

func TestDescriptiveStatsEmptySample(t *testing.T) {
	d := DescriptiveStats(nil)
	if d.N != 0 || d.Mean != 0 {
		t.Fatalf("empty sample should yield the zero value, got %+v", d)
	}
}

func TestWelchTTestDetectsCleanSeparation(t *testing.T) {
	a := []float64{10, 11, 9, 10, 12, 11, 10}
	b := []float64{1, 2, 0, 1, 3, 2, 1}
	res := WelchTTest(a, b, 0.05)
	if !res.Significant {
		t.Fatalf("expected a clearly-separated sample pair to be significant, got %+v", res)
	}
	if res.T <= 0 {
		t.Fatalf("t = %v, want positive (a's mean is higher)", res.T)
	}
	if res.EffectLabel != "large" {
		t.Fatalf("EffectLabel = %q, want large for such a wide separation", res.EffectLabel)
	}
}

func TestWelchTTestIdenticalSamplesAreNotSignificant(t *testing.T) {
	a := []float64{5, 5, 5, 5, 5}
	b := []float64{5, 5, 5, 5, 5}
	res := WelchTTest(a, b, 0.05)
	if res.Significant {
		t.Fatalf("identical samples must not be significant, got %+v", res)
	}
	if res.EffectSize != 0 {
		t.Fatalf("EffectSize = %v, want 0", res.EffectSize)
	}
}

func TestMannWhitneyUCleanSeparation(t *testing.T) {
	a := []float64{10, 11, 9, 10, 12, 11, 10}
	b := []float64{1, 2, 0, 1, 3, 2, 1}
	res := MannWhitneyU(a, b, 0.05)
	if !res.Significant {
		t.Fatalf("expected significance for fully-separated samples, got %+v", res)
	}
	if res.EffectSize <= 0 {
		t.Fatalf("EffectSize = %v, want positive (a ranks higher)", res.EffectSize)
	}
}

func TestMannWhitneyUTiedSamplesNotSignificant(t *testing.T) {
	a := []float64{3, 3, 3, 3}
	b := []float64{3, 3, 3, 3}
	res := MannWhitneyU(a, b, 0.05)
	if res.Significant {
		t.Fatalf("fully-tied samples must not be significant, got %+v", res)
	}
}

func TestCompareOverallWinnerCountsPerMetricWins(t *testing.T) {
	samplesA := map[string][]float64{
		MetricSuccessRate:      {0.9, 0.95, 0.92, 0.93},
		MetricAntiPatternCount: {5, 6, 5, 7},
	}
	samplesB := map[string][]float64{
		MetricSuccessRate:      {0.4, 0.45, 0.42, 0.43},
		MetricAntiPatternCount: {1, 2, 1, 1},
	}
	result := Compare(samplesA, samplesB, 0.05)

	var successWinner, antiPatternWinner string
	for _, m := range result.Metrics {
		switch m.Metric {
		case MetricSuccessRate:
			successWinner = m.Winner
		case MetricAntiPatternCount:
			antiPatternWinner = m.Winner
		}
	}
	if successWinner != "A" {
		t.Fatalf("successRate winner = %q, want A (higher mean)", successWinner)
	}
	if antiPatternWinner != "B" {
		t.Fatalf("antiPatternCount winner = %q, want B (lower mean wins this metric)", antiPatternWinner)
	}
}

func TestCompareTieWhenNoSamples(t *testing.T) {
	result := Compare(map[string][]float64{}, map[string][]float64{}, 0.05)
	if result.Winner != "tie" {
		t.Fatalf("Winner = %q, want tie with no data on either side", result.Winner)
	}
}
