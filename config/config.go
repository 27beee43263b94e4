package config

import (
	"fmt"
	"os"
	"time"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/pkg/errors"

	"github.com/sendblast/sendblast/internal/utils"
)

type AppConfig struct {
	APIPort string `env:"PORT" envDefault:"8080"`
	APIKey  string `env:"API_KEY"`
}

type SMTPConfig struct {
	Host                  string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port                  int    `env:"SMTP_PORT" envDefault:"587"`
	Security              string `env:"SMTP_SECURITY" envDefault:"starttls"`
	ConnectTimeoutSeconds int    `env:"SMTP_CONNECT_TIMEOUT_SECONDS" envDefault:"30"`
	SendTimeoutSeconds    int    `env:"SMTP_SEND_TIMEOUT_SECONDS" envDefault:"60"`
}

func (c *SMTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *SMTPConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

func (c *SMTPConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSeconds) * time.Second
}

type SenderConfig struct {
	Email    string `env:"SENDER_EMAIL"`
	Password string `env:"SENDER_PASSWORD"`
	Name     string `env:"SENDER_NAME" envDefault:"Job Applicant"`
}

type DispatchConfig struct {
	MinDelaySeconds int `env:"MIN_DELAY" envDefault:"10"`
	MaxDelaySeconds int `env:"MAX_DELAY" envDefault:"15"`
	MaxWorkers      int `env:"MAX_WORKERS" envDefault:"10"`
}

func (c *DispatchConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelaySeconds) * time.Second
}

func (c *DispatchConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelaySeconds) * time.Second
}

type ContentConfig struct {
	JobTitle          string `env:"JOB_TITLE" envDefault:"Software Engineer"`
	CompanyPreference string `env:"COMPANY_PREFERENCE" envDefault:"your organization"`
	CVPath            string `env:"CV_PATH" envDefault:"cv.pdf"`
	CoverLetterPath   string `env:"COVER_LETTER_PATH" envDefault:"templates/cover_letter.txt"`
}

// HasDefaultCV reports whether a CV exists at the configured path, so a
// batch can go out without an uploaded file.
func (c *ContentConfig) HasDefaultCV() bool {
	_, err := os.Stat(c.CVPath)
	return err == nil
}

// Validate reports the first missing piece of configuration required for
// sending. The cover letter template is checked for presence here even
// though rendering falls back to a built-in default, so operators see the
// gap before a batch goes out.
func (c *Config) Validate() error {
	if c.SenderConfig.Email == "" {
		return errors.New("SENDER_EMAIL not configured")
	}
	syntax := mailvalidate.ValidateEmailSyntax(c.SenderConfig.Email)
	if !syntax.IsValid {
		return errors.Errorf("SENDER_EMAIL is not a valid address: %s", c.SenderConfig.Email)
	}
	if c.SenderConfig.Password == "" {
		return errors.New("SENDER_PASSWORD not configured")
	}
	if _, err := os.Stat(c.ContentConfig.CVPath); err != nil {
		return errors.Errorf("CV file not found at %s", c.ContentConfig.CVPath)
	}
	if _, err := os.Stat(c.ContentConfig.CoverLetterPath); err != nil {
		return errors.Errorf("cover letter template not found at %s", c.ContentConfig.CoverLetterPath)
	}
	return nil
}

// MaskedSenderEmail is the display-safe sender identity, e.g. "j***e@gmail.com".
func (c *Config) MaskedSenderEmail() string {
	if c.SenderConfig.Email == "" {
		return "Not configured"
	}
	masked := utils.MaskEmail(c.SenderConfig.Email)
	if masked == "" {
		return "Invalid email"
	}
	return masked
}
