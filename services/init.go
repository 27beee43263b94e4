package services

import (
	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/interfaces"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/services/dispatch"
	"github.com/sendblast/sendblast/services/parser"
	"github.com/sendblast/sendblast/services/samplecv"
	"github.com/sendblast/sendblast/services/smtp"
	"github.com/sendblast/sendblast/services/template"
)

type Services struct {
	ParserService   interfaces.ParserService
	TemplateService interfaces.TemplateService
	SMTPService     interfaces.SMTPService
	DispatchService interfaces.DispatchService
	SampleCVService interfaces.SampleCVService
}

func InitServices(cfg *config.Config, log logger.Logger) *Services {
	smtpService := smtp.NewSMTPService(cfg.SMTPConfig, cfg.SenderConfig, log)

	return &Services{
		ParserService:   parser.NewParserService(log),
		TemplateService: template.NewTemplateService(cfg.ContentConfig, cfg.SenderConfig, log),
		SMTPService:     smtpService,
		DispatchService: dispatch.NewDispatchService(cfg.DispatchConfig, cfg.SenderConfig, smtpService, log),
		SampleCVService: samplecv.NewSampleCVService(log),
	}
}
