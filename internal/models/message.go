package models

import (
	"fmt"
	"mime"
	"time"

	"github.com/sendblast/sendblast/internal/utils"
)

const (
	DefaultAttachmentFilename    = "cv.pdf"
	DefaultAttachmentContentType = "application/pdf"
)

// Attachment is a request-scoped file attached to an outbound message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// NewCVAttachment wraps raw PDF bytes with the default CV naming.
func NewCVAttachment(content []byte) *Attachment {
	return &Attachment{
		Filename:    DefaultAttachmentFilename,
		ContentType: DefaultAttachmentContentType,
		Content:     content,
	}
}

// OutboundMessage is a single email ready for MIME encoding and submission.
type OutboundMessage struct {
	MessageID   string
	FromName    string
	FromAddress string
	To          string
	Subject     string
	Body        string
	Attachment  *Attachment
}

func NewOutboundMessage(fromName, fromAddress, to, subject, body string, attachment *Attachment) *OutboundMessage {
	return &OutboundMessage{
		MessageID:   utils.GenerateMessageID(utils.ExtractDomainFromEmail(fromAddress), to),
		FromName:    fromName,
		FromAddress: fromAddress,
		To:          to,
		Subject:     subject,
		Body:        body,
		Attachment:  attachment,
	}
}

func (m *OutboundMessage) HasAttachment() bool {
	return m.Attachment != nil && len(m.Attachment.Content) > 0
}

// BuildHeaders assembles the RFC 5322 header set for the message. Header
// values with non-ASCII content are Q-encoded.
func (m *OutboundMessage) BuildHeaders() map[string]string {
	headers := map[string]string{
		"To":           m.To,
		"Subject":      mime.QEncoding.Encode("UTF-8", m.Subject),
		"Message-ID":   m.MessageID,
		"Date":         time.Now().Format(time.RFC1123Z),
		"MIME-Version": "1.0",
	}

	if m.FromName != "" {
		headers["From"] = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", m.FromName), m.FromAddress)
	} else {
		headers["From"] = m.FromAddress
	}

	return headers
}
