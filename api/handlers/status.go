package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/dto"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/tracing"
)

type StatusHandler struct {
	cfg *config.Config
	log logger.Logger
}

func NewStatusHandler(cfg *config.Config, log logger.Logger) *StatusHandler {
	return &StatusHandler{
		cfg: cfg,
		log: log,
	}
}

// ConfigStatus reports whether the instance is ready to send, with the
// sender identity masked for display.
func (h *StatusHandler) ConfigStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "StatusHandler.ConfigStatus", c.Request.Header)
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		response := dto.ConfigStatusResponse{
			Configured:      true,
			Sender:          h.cfg.MaskedSenderEmail(),
			SMTPServer:      h.cfg.SMTPConfig.Address(),
			MinDelaySeconds: h.cfg.DispatchConfig.MinDelaySeconds,
			MaxDelaySeconds: h.cfg.DispatchConfig.MaxDelaySeconds,
		}
		if h.cfg.ContentConfig.HasDefaultCV() {
			response.HasDefaultCV = true
			response.CVFile = filepath.Base(h.cfg.ContentConfig.CVPath)
		}
		if err := h.cfg.Validate(); err != nil {
			tracing.TraceErr(span, err)
			response.Configured = false
			response.Error = err.Error()
		}

		c.JSON(http.StatusOK, response)
	}
}
