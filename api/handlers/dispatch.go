package handlers

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	custom_err "github.com/sendblast/sendblast/api/errors"
	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/dto"
	"github.com/sendblast/sendblast/internal/enum"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/models"
	"github.com/sendblast/sendblast/internal/tracing"
	"github.com/sendblast/sendblast/services"
)

// cvFormField is the multipart field carrying an optional CV upload.
const cvFormField = "cv"

const maxCVSizeBytes = 10 << 20

type DispatchHandler struct {
	cfg      *config.Config
	services *services.Services
	log      logger.Logger
}

func NewDispatchHandler(cfg *config.Config, s *services.Services, log logger.Logger) *DispatchHandler {
	return &DispatchHandler{
		cfg:      cfg,
		services: s,
		log:      log,
	}
}

// Dispatch handles the HTTP request to send a batch of applications.
func (h *DispatchHandler) Dispatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "DispatchHandler.Dispatch", c.Request.Header)
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var request dto.DispatchRequest
		if err := c.ShouldBind(&request); err != nil {
			respondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
			return
		}

		if err := h.cfg.Validate(); err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Configuration error", err)
			return
		}

		recipients, errs := h.validateRequest(ctx, &request)
		if errs.HasErrors() {
			tracing.TraceErr(span, errs)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": errs.Error()})
			return
		}

		attachment, err := h.resolveAttachment(ctx, c)
		if err != nil {
			respondWithError(c, span, http.StatusBadRequest, "Invalid CV upload", err)
			return
		}
		if attachment == nil {
			respondWithError(c, span, http.StatusBadRequest, "No CV available", errors.New("please upload a CV file or configure a default"))
			return
		}

		subject := request.Subject
		if subject == "" {
			subject = h.services.TemplateService.DefaultSubject()
		}
		body := request.Body
		if body == "" {
			body = h.services.TemplateService.RenderCoverLetter(ctx)
		}

		job := &models.DispatchJob{
			Recipients: recipients,
			Subject:    subject,
			Body:       body,
			Attachment: attachment,
			Strategy:   enum.DecodeDeliveryStrategy(request.Strategy),
		}

		start := time.Now()
		results := h.services.DispatchService.Dispatch(ctx, job, nil)
		summary := h.services.DispatchService.Summarize(results)
		tracing.LogObjectAsJson(span, "summary", summary)

		c.JSON(http.StatusOK, dto.DispatchResponse{
			BatchID:        job.ID,
			Strategy:       job.Strategy.String(),
			Results:        results,
			Summary:        summary,
			ElapsedSeconds: time.Since(start).Seconds(),
		})
	}
}

// validateRequest decodes the recipients field and checks everything needed
// before a batch may start.
func (h *DispatchHandler) validateRequest(ctx context.Context, request *dto.DispatchRequest) ([]string, *custom_err.MultiErrors) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DispatchHandler.validateRequest")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	errs := custom_err.NewMultiErrors()

	var recipients []string
	if strings.TrimSpace(request.Recipients) == "" {
		errs.Add("recipients", "please provide a JSON array of recipient addresses", errors.New("recipients is empty"))
	} else if err := json.Unmarshal([]byte(request.Recipients), &recipients); err != nil {
		errs.Add("recipients", "recipients must be a JSON array of addresses", err)
	} else if len(recipients) == 0 {
		errs.Add("recipients", "please provide at least one recipient", errors.New("recipients array is empty"))
	}

	if request.Strategy != "" && enum.DecodeDeliveryStrategy(request.Strategy) == "" {
		errs.Add("strategy", "strategy must be one of throttled, fast, parallel", errors.Errorf("unknown strategy %q", request.Strategy))
	}

	return recipients, errs
}

// resolveAttachment prefers a CV uploaded with the request and falls back to
// the configured default. Returns nil with no error when neither exists; the
// caller decides whether that blocks the batch.
func (h *DispatchHandler) resolveAttachment(ctx context.Context, c *gin.Context) (*models.Attachment, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DispatchHandler.resolveAttachment")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	fileHeader, err := c.FormFile(cvFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return h.defaultAttachment(span)
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		err := errors.Errorf("unsupported CV type %q, only PDF is accepted", filepath.Ext(fileHeader.Filename))
		tracing.TraceErr(span, err)
		return nil, err
	}
	if fileHeader.Size > maxCVSizeBytes {
		err := errors.Errorf("CV file too large: %d bytes", fileHeader.Size)
		tracing.TraceErr(span, err)
		return nil, err
	}

	content, err := readUpload(fileHeader)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.LogKV("cv_source", "upload", "cv_filename", fileHeader.Filename)
	return &models.Attachment{
		Filename:    filepath.Base(fileHeader.Filename),
		ContentType: models.DefaultAttachmentContentType,
		Content:     content,
	}, nil
}

func (h *DispatchHandler) defaultAttachment(span opentracing.Span) (*models.Attachment, error) {
	if !h.cfg.ContentConfig.HasDefaultCV() {
		span.LogKV("cv_source", "none")
		return nil, nil
	}

	content, err := os.ReadFile(h.cfg.ContentConfig.CVPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read default CV at %s", h.cfg.ContentConfig.CVPath)
	}

	span.LogKV("cv_source", "default", "cv_filename", filepath.Base(h.cfg.ContentConfig.CVPath))
	return &models.Attachment{
		Filename:    filepath.Base(h.cfg.ContentConfig.CVPath),
		ContentType: models.DefaultAttachmentContentType,
		Content:     content,
	}, nil
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open uploaded CV")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read uploaded CV")
	}
	return content, nil
}
