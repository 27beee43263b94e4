package smtp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"

	"github.com/pkg/errors"

	"github.com/sendblast/sendblast/internal/models"
)

// headerOrder fixes the serialization order of top-level headers so two
// encodings of the same message stay comparable.
var headerOrder = []string{"From", "To", "Subject", "Message-ID", "Date", "MIME-Version", "Content-Type"}

// EncodeMessage renders the message as a multipart/mixed MIME document: a
// quoted-printable text part plus, when an attachment is present, one
// base64 part carrying Content-Disposition: attachment.
func EncodeMessage(message *models.OutboundMessage) (*bytes.Buffer, error) {
	if message == nil {
		return nil, errors.New("message cannot be nil")
	}

	buffer := bytes.NewBuffer(nil)
	writer := multipart.NewWriter(buffer)

	headers := message.BuildHeaders()
	headers["Content-Type"] = "multipart/mixed; boundary=" + writer.Boundary()
	writeHeaders(headers, buffer)

	if err := addTextPart(writer, message.Body); err != nil {
		return nil, err
	}

	if message.HasAttachment() {
		if err := addAttachment(writer, message.Attachment); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize message")
	}

	return buffer, nil
}

func writeHeaders(headers map[string]string, buffer *bytes.Buffer) {
	for _, k := range headerOrder {
		if v, ok := headers[k]; ok {
			buffer.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
		}
	}
	buffer.WriteString("\r\n")
}

func addTextPart(writer *multipart.Writer, content string) error {
	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create text part")
	}

	qp := quotedprintable.NewWriter(textPart)
	if _, err = qp.Write([]byte(content)); err != nil {
		return errors.Wrap(err, "failed to write text content")
	}
	return qp.Close()
}

func addAttachment(writer *multipart.Writer, attachment *models.Attachment) error {
	filename := attachment.Filename
	if filename == "" {
		filename = models.DefaultAttachmentFilename
	}
	contentType := attachment.ContentType
	if contentType == "" {
		contentType = models.DefaultAttachmentContentType
	}

	attachmentPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("%s; name=%q", contentType, filename)},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", filename)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create attachment part")
	}

	return writeBase64(attachmentPart, attachment.Content)
}

// writeBase64 encodes content in 76-character lines per RFC 2045.
func writeBase64(w io.Writer, content []byte) error {
	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 0 {
		n := 76
		if len(encoded) < n {
			n = len(encoded)
		}
		if _, err := io.WriteString(w, encoded[:n]); err != nil {
			return errors.Wrap(err, "failed to write attachment content")
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return errors.Wrap(err, "failed to write attachment content")
		}
		encoded = encoded[n:]
	}
	return nil
}
