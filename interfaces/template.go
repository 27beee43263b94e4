package interfaces

import "context"

type TemplateService interface {
	// RenderCoverLetter returns the cover letter body with all placeholders
	// substituted from configuration.
	RenderCoverLetter(ctx context.Context) string
	// DefaultSubject is the subject line used when a batch does not set one.
	DefaultSubject() string
}
