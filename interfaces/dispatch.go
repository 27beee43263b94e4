package interfaces

import (
	"context"

	"github.com/sendblast/sendblast/internal/models"
)

type DispatchService interface {
	// Dispatch sends the job to every recipient using the job's strategy and
	// returns one result per recipient. When progress is non-nil the engine
	// emits one event per completed recipient and closes the channel before
	// returning; the caller must drain it or size it to hold every event.
	Dispatch(ctx context.Context, job *models.DispatchJob, progress chan<- models.ProgressEvent) []models.SendResult
	// Summarize reduces a result set to batch totals.
	Summarize(results []models.SendResult) *models.BatchSummary
}
