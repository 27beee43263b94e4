package models

import (
	"github.com/sendblast/sendblast/internal/enum"
)

// SendResult is the terminal outcome for one recipient. Exactly one is
// produced per recipient in a dispatch, whatever happens on the wire.
type SendResult struct {
	Recipient string           `json:"recipient"`
	Status    enum.SendStatus  `json:"status"`
	Failure   enum.FailureKind `json:"failure,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}

func (r SendResult) Succeeded() bool {
	return r.Status == enum.SendStatusSent
}

func SentResult(recipient string) SendResult {
	return SendResult{
		Recipient: recipient,
		Status:    enum.SendStatusSent,
	}
}

func FailedResult(recipient string, kind enum.FailureKind, reason string) SendResult {
	return SendResult{
		Recipient: recipient,
		Status:    enum.SendStatusFailed,
		Failure:   kind,
		Reason:    reason,
	}
}

type FailureDetail struct {
	Recipient string           `json:"recipient"`
	Kind      enum.FailureKind `json:"kind"`
	Reason    string           `json:"reason"`
}

// BatchSummary is the aggregate view of a finished dispatch.
type BatchSummary struct {
	Total       int             `json:"total"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	SuccessRate float64         `json:"successRate"`
	Failures    []FailureDetail `json:"failures"`
}
