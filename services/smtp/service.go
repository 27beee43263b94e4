package smtp

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/interfaces"
	"github.com/sendblast/sendblast/internal/enum"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/models"
	"github.com/sendblast/sendblast/internal/tracing"
)

type smtpService struct {
	cfg    *config.SMTPConfig
	sender *config.SenderConfig
	log    logger.Logger
}

func NewSMTPService(cfg *config.SMTPConfig, sender *config.SenderConfig, log logger.Logger) interfaces.SMTPService {
	return &smtpService{
		cfg:    cfg,
		sender: sender,
		log:    log,
	}
}

// NewSession dials the relay, negotiates transport security and
// authenticates. Errors carry their failure classification for Classify.
func (s *smtpService) NewSession(ctx context.Context) (interfaces.SMTPSession, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "SMTPService.NewSession")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("smtp_server", s.cfg.Host)
	span.LogKV("smtp_port", s.cfg.Port)

	var client *smtp.Client
	var conn net.Conn
	var err error

	switch enum.DecodeTransportSecurity(s.cfg.Security) {
	case enum.SecurityTLS:
		client, conn, err = s.connectTLS()
	default:
		client, conn, err = s.connectSTARTTLS()
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	auth := smtp.PlainAuth("", s.sender.Email, s.sender.Password, s.cfg.Host)
	if err = client.Auth(auth); err != nil {
		client.Close()
		err = errors.Wrapf(ErrAuthenticationFailed, "%v", err)
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &smtpSession{
		client:      client,
		conn:        conn,
		sendTimeout: s.cfg.SendTimeout(),
		log:         s.log,
	}, nil
}

// connectSTARTTLS opens a plain connection and upgrades it before any
// credentials cross the wire.
func (s *smtpService) connectSTARTTLS() (*smtp.Client, net.Conn, error) {
	conn, err := net.DialTimeout("tcp", s.cfg.Address(), s.cfg.ConnectTimeout())
	if err != nil {
		return nil, nil, errors.Wrapf(ErrConnectionFailed, "failed to connect to SMTP server: %v", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, nil, errors.Wrapf(ErrConnectionFailed, "failed to create SMTP client: %v", err)
	}

	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		client.Close()
		return nil, nil, errors.Wrapf(ErrConnectionFailed, "failed to start TLS: %v", err)
	}

	return client, conn, nil
}

func (s *smtpService) connectTLS() (*smtp.Client, net.Conn, error) {
	dialer := &net.Dialer{Timeout: s.cfg.ConnectTimeout()}
	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
	}

	conn, err := tls.DialWithDialer(dialer, "tcp", s.cfg.Address(), tlsConfig)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrConnectionFailed, "failed to connect to SMTP server: %v", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, nil, errors.Wrapf(ErrConnectionFailed, "failed to create SMTP client: %v", err)
	}

	return client, conn, nil
}

type smtpSession struct {
	client      *smtp.Client
	conn        net.Conn
	sendTimeout time.Duration
	log         logger.Logger
}

// Send submits one message on the open session. It does not retry; protocol
// rejections leave the session usable for the next send.
func (s *smtpSession) Send(ctx context.Context, message *models.OutboundMessage) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "SMTPSession.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("message_id", message.MessageID)

	buffer, err := EncodeMessage(message)
	if err != nil {
		err = errors.Wrap(err, "failed to encode message")
		tracing.TraceErr(span, err)
		return err
	}

	if s.sendTimeout > 0 {
		s.conn.SetDeadline(time.Now().Add(s.sendTimeout))
		defer s.conn.SetDeadline(time.Time{})
	}

	if err = s.client.Mail(message.FromAddress); err != nil {
		err = errors.Wrap(err, "MAIL command failed")
		tracing.TraceErr(span, err)
		return s.resetAfter(err)
	}

	if err = s.client.Rcpt(message.To); err != nil {
		err = errors.Wrapf(err, "RCPT command failed for %s", message.To)
		tracing.TraceErr(span, err)
		return s.resetAfter(err)
	}

	dataWriter, err := s.client.Data()
	if err != nil {
		err = errors.Wrap(err, "DATA command failed")
		tracing.TraceErr(span, err)
		return s.resetAfter(err)
	}

	if _, err = dataWriter.Write(buffer.Bytes()); err != nil {
		dataWriter.Close()
		err = errors.Wrap(err, "failed to write message data")
		tracing.TraceErr(span, err)
		return err
	}

	if err = dataWriter.Close(); err != nil {
		err = errors.Wrap(err, "failed to close data writer")
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

// resetAfter issues RSET so a rejected transaction does not poison the next
// send on a shared session. The original error is returned unchanged.
func (s *smtpSession) resetAfter(err error) error {
	if resetErr := s.client.Reset(); resetErr != nil {
		s.log.Warnf("SMTP reset after failed send: %v", resetErr)
	}
	return err
}

func (s *smtpSession) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Quit(); err != nil {
		return s.client.Close()
	}
	return nil
}
