package dto

type ConfigStatusResponse struct {
	Configured      bool   `json:"configured"`
	Error           string `json:"error,omitempty"`
	Sender          string `json:"sender"`
	SMTPServer      string `json:"smtpServer"`
	HasDefaultCV    bool   `json:"hasDefaultCv"`
	CVFile          string `json:"cvFile,omitempty"`
	MinDelaySeconds int    `json:"minDelaySeconds"`
	MaxDelaySeconds int    `json:"maxDelaySeconds"`
}
