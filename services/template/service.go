package template

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/interfaces"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/tracing"
)

// defaultCoverLetter covers for a missing or unreadable template file so a
// batch can always go out with a sensible body.
const defaultCoverLetter = `Dear Hiring Manager,

I am writing to express my interest in the {job_title} position at your organization.

Please find my CV attached for your review. I am excited about the opportunity to contribute to your team.

Thank you for considering my application.

Best regards,
{sender_name}`

const (
	placeholderSenderName        = "{sender_name}"
	placeholderJobTitle          = "{job_title}"
	placeholderCompanyPreference = "{company_preference}"
)

type templateService struct {
	content *config.ContentConfig
	sender  *config.SenderConfig
	log     logger.Logger
}

func NewTemplateService(content *config.ContentConfig, sender *config.SenderConfig, log logger.Logger) interfaces.TemplateService {
	return &templateService{
		content: content,
		sender:  sender,
		log:     log,
	}
}

func (s *templateService) RenderCoverLetter(ctx context.Context) string {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TemplateService.RenderCoverLetter")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	template := defaultCoverLetter
	raw, err := os.ReadFile(s.content.CoverLetterPath)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("cover letter template not readable at %s, using built-in default: %v", s.content.CoverLetterPath, err)
	} else {
		template = string(raw)
	}

	return s.substitute(template)
}

func (s *templateService) DefaultSubject() string {
	return fmt.Sprintf("Application for %s Position", s.content.JobTitle)
}

func (s *templateService) substitute(template string) string {
	out := strings.ReplaceAll(template, placeholderSenderName, s.sender.Name)
	out = strings.ReplaceAll(out, placeholderJobTitle, s.content.JobTitle)
	out = strings.ReplaceAll(out, placeholderCompanyPreference, s.content.CompanyPreference)
	return out
}
