package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/sendblast/sendblast/dto"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/tracing"
	"github.com/sendblast/sendblast/services"
)

type RecipientsHandler struct {
	services *services.Services
	log      logger.Logger
}

func NewRecipientsHandler(s *services.Services, log logger.Logger) *RecipientsHandler {
	return &RecipientsHandler{
		services: s,
		log:      log,
	}
}

// Parse extracts, deduplicates and validates addresses from free-form text.
func (h *RecipientsHandler) Parse() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "RecipientsHandler.Parse", c.Request.Header)
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var request dto.ParseRecipientsRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			respondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
			return
		}

		outcome := h.services.ParserService.Parse(ctx, request.Text)
		tracing.LogObjectAsJson(span, "result", outcome)

		c.JSON(http.StatusOK, dto.ParseRecipientsResponse{
			Valid:             outcome.Valid,
			Invalid:           outcome.Invalid,
			DuplicatesRemoved: outcome.DuplicatesRemoved,
			Count:             len(outcome.Valid),
		})
	}
}

// respondWithError reports the failure on the span and answers with a uniform
// error shape.
func respondWithError(c *gin.Context, span opentracing.Span, statusCode int, message string, err error) {
	tracing.TraceErr(span, err)
	c.JSON(statusCode, gin.H{"error": message, "details": err.Error()})
}
