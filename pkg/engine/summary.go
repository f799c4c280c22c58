package engine

// Summarize aggregates a completed batch into its summary statistics. It is
// a pure function of the assessment slice; the orchestrator calls it only
// after every item has joined.
func Summarize(results []RiskAssessment) BatchSummary {
	summary := BatchSummary{
		TotalEmails: len(results),
		RiskLevels: map[RiskLevel]int{
			RiskCritical: 0,
			RiskHigh:     0,
			RiskMedium:   0,
			RiskLow:      0,
		},
		IndicatorCounts: map[IndicatorKind]int{},
	}
	if len(results) == 0 {
		return summary
	}

	var total float64
	min, max := results[0].Score, results[0].Score

	for _, r := range results {
		if r.IsPhishing {
			summary.PhishingDetected++
		}
		summary.RiskLevels[r.Level]++

		total += r.Score
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}

		for _, ind := range r.Indicators {
			summary.IndicatorCounts[ind.Kind]++
		}

		if r.Level == RiskHigh || r.Level == RiskCritical {
			summary.HighRiskEmails = append(summary.HighRiskEmails, HighRiskEmail{
				Sender:    r.Metadata.Sender,
				Subject:   r.Metadata.Subject,
				RiskScore: r.Score,
				RiskLevel: r.Level,
			})
		}
	}

	summary.PhishingRate = round1(float64(summary.PhishingDetected) / float64(len(results)) * 100.0)
	summary.Scores = ScoreStats{
		Average: round1(total / float64(len(results))),
		Maximum: max,
		Minimum: min,
	}
	return summary
}
