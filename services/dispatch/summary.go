package dispatch

import (
	"github.com/sendblast/sendblast/internal/models"
)

// Summarize reduces per-recipient results to batch totals. Failure details
// keep the order of the results slice.
func (s *dispatchService) Summarize(results []models.SendResult) *models.BatchSummary {
	summary := &models.BatchSummary{
		Total:    len(results),
		Failures: []models.FailureDetail{},
	}

	for _, result := range results {
		if result.Succeeded() {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, models.FailureDetail{
			Recipient: result.Recipient,
			Kind:      result.Failure,
			Reason:    result.Reason,
		})
	}

	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Succeeded) / float64(summary.Total) * 100
	}

	return summary
}
