package stats

// Metric names for the closed comparator set.
const (
	MetricSuccessRate            = "successRate"
	MetricTotalTokens            = "totalTokens"
	MetricTasksSucceeded         = "tasksSucceeded"
	MetricTasksAttempted         = "tasksAttempted"
	MetricAntiPatternCount       = "antiPatternCount"
	MetricAvgTaskDurationMs      = "avgTaskDurationMs"
	MetricFinalOverallReputation = "finalOverallReputation"
	MetricTrustStability         = "trustStability"
)

// Metrics lists the closed, fixed comparator metric set.
var Metrics = []string{
	MetricSuccessRate, MetricTotalTokens, MetricTasksSucceeded, MetricTasksAttempted,
	MetricAntiPatternCount, MetricAvgTaskDurationMs, MetricFinalOverallReputation, MetricTrustStability,
}

// lowerIsBetter is the single metric where the comparison is inverted:
// for antiPatternCount, the experiment with the lower mean wins.
var lowerIsBetter = map[string]bool{MetricAntiPatternCount: true}

// MetricComparison is the full statistical comparison for one metric.
type MetricComparison struct {
	Metric      string            `json:"metric"`
	Descriptive map[string]Descriptive `json:"descriptive"` // "A", "B"
	Welch       WelchResult       `json:"welch"`
	MannWhitney MannWhitneyResult `json:"mannWhitney"`
	Winner      string            `json:"winner"` // "A", "B", or "tie"
}

// ComparisonResult is the overall two-experiment comparison.
type ComparisonResult struct {
	Alpha   float64             `json:"alpha"`
	Metrics []MetricComparison  `json:"metrics"`
	Winner  string              `json:"winner"` // "A", "B", or "tie"
}

// Compare runs the full statistical comparator over experiments A and B,
// given their per-metric sample vectors. alpha defaults to 0.05 if <= 0.
func Compare(samplesA, samplesB map[string][]float64, alpha float64) ComparisonResult {
	if alpha <= 0 {
		alpha = 0.05
	}

	result := ComparisonResult{Alpha: alpha}
	winsA, winsB := 0, 0
	for _, metric := range Metrics {
		a := samplesA[metric]
		b := samplesB[metric]

		welch := WelchTTest(a, b, alpha)
		mw := MannWhitneyU(a, b, alpha)
		winner := metricWinner(metric, a, b, welch)

		result.Metrics = append(result.Metrics, MetricComparison{
			Metric: metric,
			Descriptive: map[string]Descriptive{
				"A": DescriptiveStats(a),
				"B": DescriptiveStats(b),
			},
			Welch:       welch,
			MannWhitney: mw,
			Winner:      winner,
		})

		switch winner {
		case "A":
			winsA++
		case "B":
			winsB++
		}
	}

	switch {
	case winsA == winsB:
		result.Winner = "tie"
	case winsA > winsB:
		result.Winner = "A"
	default:
		result.Winner = "B"
	}
	return result
}

// metricWinner decides a single metric's winner: A wins if its mean is
// significantly greater than B's at alpha (via the Welch test already
// run), except antiPatternCount where the lower mean wins.
func metricWinner(metric string, a, b []float64, welch WelchResult) string {
	if !welch.Significant {
		return "tie"
	}
	meanA, meanB := Mean(a), Mean(b)
	aGreater := meanA > meanB
	if lowerIsBetter[metric] {
		aGreater = meanA < meanB
	}
	if aGreater {
		return "A"
	}
	return "B"
}
