package smtp

import (
	"bytes"
	"testing"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendblast/sendblast/internal/models"
)

func TestEncodeMessageWithAttachment(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake document body")
	message := models.NewOutboundMessage(
		"Jane Doe",
		"jane@sender.io",
		"hiring@techcorp.com",
		"Application for Software Engineer Position",
		"Dear Hiring Manager,\n\nPlease find my CV attached.",
		models.NewCVAttachment(pdf),
	)

	buffer, err := EncodeMessage(message)
	require.NoError(t, err)

	env, err := enmime.ReadEnvelope(bytes.NewReader(buffer.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, "hiring@techcorp.com", env.GetHeader("To"))
	assert.Equal(t, "Application for Software Engineer Position", env.GetHeader("Subject"))
	assert.Contains(t, env.GetHeader("From"), "Jane Doe")
	assert.Contains(t, env.GetHeader("From"), "jane@sender.io")
	assert.Regexp(t, `^<\d+\.[a-z0-9]{12}\.[0-9a-f]{8}@sender\.io>$`, env.GetHeader("Message-ID"))

	_, err = time.Parse(time.RFC1123Z, env.GetHeader("Date"))
	assert.NoError(t, err)

	assert.Contains(t, env.Text, "Please find my CV attached.")

	require.Len(t, env.Attachments, 1)
	attachment := env.Attachments[0]
	assert.Equal(t, "cv.pdf", attachment.FileName)
	assert.Equal(t, "application/pdf", attachment.ContentType)
	assert.Equal(t, pdf, attachment.Content)
}

func TestEncodeMessageWithoutAttachment(t *testing.T) {
	message := models.NewOutboundMessage(
		"Jane Doe",
		"jane@sender.io",
		"jobs@startup.io",
		"Hello",
		"Just the text body.",
		nil,
	)

	buffer, err := EncodeMessage(message)
	require.NoError(t, err)

	env, err := enmime.ReadEnvelope(bytes.NewReader(buffer.Bytes()))
	require.NoError(t, err)

	assert.Contains(t, env.Text, "Just the text body.")
	assert.Empty(t, env.Attachments)
}

func TestEncodeMessageEncodesNonASCII(t *testing.T) {
	message := models.NewOutboundMessage(
		"Zoë Müller",
		"zoe@sender.io",
		"hr@firma.de",
		"Bewerbung für die Stelle",
		"Sehr geehrte Damen und Herren, ich bewerbe mich für die ausgeschriebene Stelle.",
		nil,
	)

	buffer, err := EncodeMessage(message)
	require.NoError(t, err)

	env, err := enmime.ReadEnvelope(bytes.NewReader(buffer.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, "Bewerbung für die Stelle", env.GetHeader("Subject"))
	assert.Contains(t, env.GetHeader("From"), "Zoë Müller")
	assert.Contains(t, env.Text, "ausgeschriebene Stelle")
}

func TestEncodeMessageNilMessage(t *testing.T) {
	buffer, err := EncodeMessage(nil)
	assert.Error(t, err)
	assert.Nil(t, buffer)
}

func TestEncodeMessageDefaultsAttachmentNaming(t *testing.T) {
	message := models.NewOutboundMessage(
		"Jane Doe",
		"jane@sender.io",
		"jobs@startup.io",
		"Hello",
		"Body.",
		&models.Attachment{Content: []byte("raw bytes")},
	)

	buffer, err := EncodeMessage(message)
	require.NoError(t, err)

	env, err := enmime.ReadEnvelope(bytes.NewReader(buffer.Bytes()))
	require.NoError(t, err)

	require.Len(t, env.Attachments, 1)
	assert.Equal(t, models.DefaultAttachmentFilename, env.Attachments[0].FileName)
	assert.Equal(t, models.DefaultAttachmentContentType, env.Attachments[0].ContentType)
}
