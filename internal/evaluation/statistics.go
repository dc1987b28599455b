package evaluation

import "math"

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStdDev is the sample standard deviation.
func calculateStdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	mean := calculateMean(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// CalculateRunSummary fills the average score and success rate of a run.
func CalculateRunSummary(r *Run) {
	if len(r.Results) == 0 {
		return
	}

	var totalScore float64
	var successful int
	for _, result := range r.Results {
		totalScore += result.Score
		if result.Success {
			successful++
		}
	}

	r.AverageScore = totalScore / float64(len(r.Results))
	r.SuccessRate = float64(successful) / float64(len(r.Results)) * 100
}

// CalculateEvaluationStats aggregates the individual runs of a result.
func CalculateEvaluationStats(result *Result) {
	if len(result.IndividualRuns) == 0 {
		return
	}

	var scores, successRates, durations []float64
	perCase := make(map[string][]float64)
	for _, run := range result.IndividualRuns {
		scores = append(scores, run.AverageScore)
		successRates = append(successRates, run.SuccessRate)
		durations = append(durations, run.TotalDuration.Seconds())

		for _, tr := range run.Results {
			perCase[tr.TestCase] = append(perCase[tr.TestCase], tr.Score)
		}
	}

	result.AggregatedStats = Stats{
		AverageScore:       calculateMean(scores),
		ScoreStdDev:        calculateStdDev(scores),
		AverageSuccessRate: calculateMean(successRates),
		SuccessRateStdDev:  calculateStdDev(successRates),
		AverageDuration:    calculateMean(durations),
		DurationStdDev:     calculateStdDev(durations),
	}

	result.TestCaseStats = make(map[string]TestCaseStats, len(perCase))
	for name, caseScores := range perCase {
		result.TestCaseStats[name] = TestCaseStats{
			TestCaseName: name,
			AverageScore: calculateMean(caseScores),
			ScoreStdDev:  calculateStdDev(caseScores),
		}
	}
}
