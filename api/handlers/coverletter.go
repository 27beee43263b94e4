package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/dto"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/tracing"
	"github.com/sendblast/sendblast/services"
)

type CoverLetterHandler struct {
	cfg      *config.Config
	services *services.Services
	log      logger.Logger
}

func NewCoverLetterHandler(cfg *config.Config, s *services.Services, log logger.Logger) *CoverLetterHandler {
	return &CoverLetterHandler{
		cfg:      cfg,
		services: s,
		log:      log,
	}
}

// Preview returns the rendered subject and body a recipient would receive,
// plus the attachment that would ride along.
func (h *CoverLetterHandler) Preview() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "CoverLetterHandler.Preview", c.Request.Header)
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		response := dto.CoverLetterResponse{
			Subject: h.services.TemplateService.DefaultSubject(),
			Body:    h.services.TemplateService.RenderCoverLetter(ctx),
		}
		if h.cfg.ContentConfig.HasDefaultCV() {
			response.Attachment = filepath.Base(h.cfg.ContentConfig.CVPath)
		}

		c.JSON(http.StatusOK, response)
	}
}
