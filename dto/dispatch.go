package dto

import (
	"github.com/sendblast/sendblast/internal/models"
)

// DispatchRequest is bound from a multipart form so a CV can ride along in
// the same request. Recipients arrive as a JSON-encoded array of addresses.
type DispatchRequest struct {
	Recipients string `form:"recipients"`
	Strategy   string `form:"strategy"`
	Subject    string `form:"subject"`
	Body       string `form:"body"`
}

type DispatchResponse struct {
	BatchID        string               `json:"batchId"`
	Strategy       string               `json:"strategy"`
	Results        []models.SendResult  `json:"results"`
	Summary        *models.BatchSummary `json:"summary"`
	ElapsedSeconds float64              `json:"elapsedSeconds"`
}
