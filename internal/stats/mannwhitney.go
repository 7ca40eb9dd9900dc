package stats

import (
	"math"
	"sort"
)

// MannWhitneyResult is the output of a Mann-Whitney U test.
type MannWhitneyResult struct {
	U           float64 `json:"u"`
	PValue      float64 `json:"pValue"`
	Significant bool    `json:"significant"`
	EffectSize  float64 `json:"effectSize"`
	EffectLabel string  `json:"effectLabel"`
}

type rankedSample struct {
	value float64
	group int // 0 = a, 1 = b
	rank  float64
}

// MannWhitneyU runs the rank-based Mann-Whitney U test on samples a and b
// at significance level alpha, using the normal approximation for the
// p-value (with a tie correction) and the rank-biserial correlation as
// effect size.
func MannWhitneyU(a, b []float64, alpha float64) MannWhitneyResult {
	na, nb := len(a), len(b)
	if na == 0 || nb == 0 {
		return MannWhitneyResult{EffectLabel: "negligible"}
	}

	pooled := make([]rankedSample, 0, na+nb)
	for _, v := range a {
		pooled = append(pooled, rankedSample{value: v, group: 0})
	}
	for _, v := range b {
		pooled = append(pooled, rankedSample{value: v, group: 1})
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].value < pooled[j].value })

	tieCorrection := assignRanks(pooled)

	var rankSumA float64
	for _, s := range pooled {
		if s.group == 0 {
			rankSumA += s.rank
		}
	}

	fna, fnb := float64(na), float64(nb)
	uA := rankSumA - fna*(fna+1)/2
	uB := fna*fnb - uA
	u := math.Min(uA, uB)

	meanU := fna * fnb / 2
	n := fna + fnb
	varU := fna * fnb * (n + 1 - tieCorrection/(n*(n-1))) / 12
	if varU < 0 {
		varU = 0
	}

	var z float64
	if varU > 0 {
		// Continuity correction: shrink |u - meanU| by 0.5 toward zero.
		diff := uA - meanU
		if diff > 0 {
			diff -= 0.5
		} else if diff < 0 {
			diff += 0.5
		}
		z = diff / math.Sqrt(varU)
	}
	p := 2 * (1 - standardNormalCDF(math.Abs(z)))
	if p > 1 {
		p = 1
	}

	effect := rankBiserial(uA, fna, fnb)
	return MannWhitneyResult{
		U: u, PValue: p, Significant: p < alpha,
		EffectSize: effect, EffectLabel: effectLabel(effect),
	}
}

// assignRanks mutates pooled in place with midranks (averaging ranks
// across ties) and returns the Σ(t³-t) tie-correction term used by the
// normal-approximation variance.
func assignRanks(pooled []rankedSample) float64 {
	var tieCorrection float64
	i := 0
	for i < len(pooled) {
		j := i + 1
		for j < len(pooled) && pooled[j].value == pooled[i].value {
			j++
		}
		avgRank := (float64(i+1) + float64(j)) / 2
		for k := i; k < j; k++ {
			pooled[k].rank = avgRank
		}
		t := float64(j - i)
		tieCorrection += t*t*t - t
		i = j
	}
	return tieCorrection
}

// rankBiserial computes the rank-biserial correlation effect size from
// uA (U statistic for sample a).
func rankBiserial(uA, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	return 2*(uA/(na*nb)) - 1
}

// standardNormalCDF returns Φ(z) via the stdlib error function.
func standardNormalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}
