package reputation

import (
	"math"
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

func TestUpdateDimensionAppliesEWMAWithDecay(t *testing.T) {
	t1 := mustTime(t, "2024-01-15T12:00:00Z")
	t2 := mustTime(t, "2024-01-16T12:00:00Z")

	d1 := UpdateDimension(nil, 0.8, t1)
	if d1.Score != 0.8 {
		t.Errorf("d1.Score = %v, want 0.8", d1.Score)
	}
	if d1.Confidence != 0.09 {
		t.Errorf("d1.Confidence = %v, want 0.09", d1.Confidence)
	}
	if d1.SampleSize != 1 {
		t.Errorf("d1.SampleSize = %v, want 1", d1.SampleSize)
	}
	if !d1.LastSignal.Equal(t1) {
		t.Errorf("d1.LastSignal = %v, want %v", d1.LastSignal, t1)
	}

	d2 := UpdateDimension(&d1, 1.0, t2)
	if math.Abs(d2.Score-0.83) > 0.0005 {
		t.Errorf("d2.Score = %v, want ~0.83", d2.Score)
	}
	if d2.SampleSize != 2 {
		t.Errorf("d2.SampleSize = %v, want 2", d2.SampleSize)
	}
	if d2.Confidence != 0.17 {
		t.Errorf("d2.Confidence = %v, want 0.17", d2.Confidence)
	}
}

func TestEWMABoundsProperty(t *testing.T) {
	now := time.Now()
	cases := []struct {
		initialScore float64
		signal       float64
	}{
		{0.3, 0.9}, {0.9, 0.1}, {0.5, 0.5}, {0.0, 1.0}, {1.0, 0.0},
	}
	for _, c := range cases {
		d := Dimension{Score: c.initialScore, Confidence: 0.5, SampleSize: 5, LastSignal: now}
		decayed := decayTowardBaseline(d.Score, d.LastSignal, now)
		updated := UpdateDimension(&d, c.signal, now)

		lo := math.Min(c.signal, decayed)
		hi := math.Max(c.signal, decayed)
		if updated.Score < lo-0.0005 || updated.Score > hi+0.0005 {
			t.Errorf("score %v outside bounds [%v, %v] for initial=%v signal=%v", updated.Score, lo, hi, c.initialScore, c.signal)
		}
	}
}

func TestDecayConvergesToBaseline(t *testing.T) {
	d := Dimension{Score: 0.9, SampleSize: 3, LastSignal: time.Now().Add(-24 * time.Hour)}

	prevDistance := math.Abs(d.Score - Baseline)
	for _, months := range []int{1, 6, 24, 120, 600} {
		future := d.LastSignal.Add(time.Duration(months) * 30 * 24 * time.Hour)
		decayed := DecayedScore(d, future)
		distance := math.Abs(decayed - Baseline)
		if distance > prevDistance+1e-9 {
			t.Errorf("decay not monotonic: months=%d distance=%v prev=%v", months, distance, prevDistance)
		}
		prevDistance = distance
	}
	if prevDistance > 0.01 {
		t.Errorf("decay did not converge near baseline after 600 months: distance=%v", prevDistance)
	}
}

func TestDecayedScoreAbsentDimension(t *testing.T) {
	d := Dimension{}
	if got := DecayedScore(d, time.Now()); got != Baseline {
		t.Errorf("DecayedScore(absent) = %v, want %v", got, Baseline)
	}
}
