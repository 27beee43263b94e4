package models

import (
	"time"

	"github.com/sendblast/sendblast/internal/enum"
)

// DispatchJob describes one batch send: who to reach, what to say, and how
// fast to go. Delay bounds apply to the throttled strategy only; MaxWorkers
// applies to the parallel strategy only.
type DispatchJob struct {
	ID         string
	Recipients []string
	Subject    string
	Body       string
	Attachment *Attachment
	Strategy   enum.DeliveryStrategy
	MinDelay   time.Duration
	MaxDelay   time.Duration
	MaxWorkers int
}

// ProgressEvent reports one completed recipient. Completed is 1-based and
// strictly increasing per dispatch; the last event has Completed == Total.
type ProgressEvent struct {
	Completed int        `json:"completed"`
	Total     int        `json:"total"`
	Result    SendResult `json:"result"`
}
