package handlers

import (
	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/services"
)

type APIHandlers struct {
	Recipients  *RecipientsHandler
	Dispatch    *DispatchHandler
	CoverLetter *CoverLetterHandler
	Status      *StatusHandler
}

func InitHandlers(cfg *config.Config, s *services.Services, log logger.Logger) *APIHandlers {
	return &APIHandlers{
		Recipients:  NewRecipientsHandler(s, log),
		Dispatch:    NewDispatchHandler(cfg, s, log),
		CoverLetter: NewCoverLetterHandler(cfg, s, log),
		Status:      NewStatusHandler(cfg, log),
	}
}
