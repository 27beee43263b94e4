package interfaces

import (
	"context"

	"github.com/sendblast/sendblast/internal/models"
)

// SMTPSession is an authenticated submission channel. Sessions are not safe
// for concurrent use; each goroutine must hold its own.
type SMTPSession interface {
	Send(ctx context.Context, message *models.OutboundMessage) error
	Close() error
}

type SMTPService interface {
	// NewSession dials the configured server, negotiates STARTTLS and
	// authenticates. The returned session is ready to send.
	NewSession(ctx context.Context) (SMTPSession, error)
}
