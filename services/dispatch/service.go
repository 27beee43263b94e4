package dispatch

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/interfaces"
	"github.com/sendblast/sendblast/internal/enum"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/models"
	"github.com/sendblast/sendblast/internal/tracing"
	"github.com/sendblast/sendblast/services/smtp"
)

const defaultMaxWorkers = 10

const authFailedReason = "authentication failed"

func connectionLostReason(detail string) string {
	return fmt.Sprintf("connection error: %s", detail)
}

type dispatchService struct {
	smtp   interfaces.SMTPService
	sender *config.SenderConfig
	cfg    *config.DispatchConfig
	log    logger.Logger

	// sleep and jitter are swappable so throttling is testable without
	// real waiting.
	sleep  func(time.Duration)
	jitter func(min, max time.Duration) time.Duration
}

func NewDispatchService(cfg *config.DispatchConfig, sender *config.SenderConfig, smtpService interfaces.SMTPService, log logger.Logger) interfaces.DispatchService {
	return &dispatchService{
		smtp:   smtpService,
		sender: sender,
		cfg:    cfg,
		log:    log,
		sleep:  time.Sleep,
		jitter: uniformDelay,
	}
}

// uniformDelay draws from [min, max], both endpoints included.
func uniformDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// Dispatch runs one batch. Whatever happens on the wire, the returned slice
// has exactly one result per recipient and, when progress is non-nil,
// exactly one event per recipient has been emitted and the channel closed.
func (s *dispatchService) Dispatch(ctx context.Context, job *models.DispatchJob, progress chan<- models.ProgressEvent) []models.SendResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DispatchService.Dispatch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if progress != nil {
		defer close(progress)
	}

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	s.normalize(job)

	tracing.TagBatch(span, job.ID)
	tracing.TagStrategy(span, job.Strategy.String())
	tracing.TagRecipientCount(span, len(job.Recipients))

	if len(job.Recipients) == 0 {
		return []models.SendResult{}
	}

	s.log.Infof("dispatching batch %s: %d recipients, strategy %s", job.ID, len(job.Recipients), job.Strategy)

	var results []models.SendResult
	switch job.Strategy {
	case enum.StrategyParallel:
		results = s.runParallel(ctx, job, progress)
	default:
		results = s.runSequential(ctx, job, progress)
	}

	s.log.Infof("batch %s finished: %d results", job.ID, len(results))
	return results
}

// normalize fills strategy-dependent defaults. Fast is the throttled loop
// with the delay window forced shut.
func (s *dispatchService) normalize(job *models.DispatchJob) {
	if job.Strategy == "" {
		job.Strategy = enum.StrategyThrottled
	}

	switch job.Strategy {
	case enum.StrategyFast:
		job.MinDelay, job.MaxDelay = 0, 0
	case enum.StrategyThrottled:
		if job.MinDelay <= 0 && job.MaxDelay <= 0 {
			job.MinDelay = s.cfg.MinDelay()
			job.MaxDelay = s.cfg.MaxDelay()
		}
		if job.MaxDelay < job.MinDelay {
			job.MaxDelay = job.MinDelay
		}
	case enum.StrategyParallel:
		if job.MaxWorkers <= 0 {
			job.MaxWorkers = s.cfg.MaxWorkers
		}
		if job.MaxWorkers <= 0 {
			job.MaxWorkers = defaultMaxWorkers
		}
	}
}

// progressTracker owns the two pieces of state shared across workers: the
// completed counter and the result collection. Every mutation happens under
// one lock so progress events carry strictly increasing counts that match
// the order results were recorded.
type progressTracker struct {
	mu        sync.Mutex
	completed int
	total     int
	ch        chan<- models.ProgressEvent
	results   []models.SendResult
}

func newProgressTracker(total int, ch chan<- models.ProgressEvent) *progressTracker {
	return &progressTracker{
		total:   total,
		ch:      ch,
		results: make([]models.SendResult, 0, total),
	}
}

func (p *progressTracker) record(result models.SendResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.results = append(p.results, result)
	p.completed++
	if p.ch != nil {
		p.ch <- models.ProgressEvent{
			Completed: p.completed,
			Total:     p.total,
			Result:    result,
		}
	}
}

// sendOne builds and submits the message for a single recipient on an open
// session. It never panics through: unexpected conditions become a failed
// result so the batch keeps its one-result-per-recipient shape.
func (s *dispatchService) sendOne(ctx context.Context, session interfaces.SMTPSession, job *models.DispatchJob, recipient string) (result models.SendResult) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DispatchService.sendOne")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag(tracing.SpanTagRecipient, recipient)

	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("panic during send: %v", r)
			tracing.TraceErr(span, err)
			s.log.Errorf("recovered while sending to %s: %v", recipient, r)
			result = models.FailedResult(recipient, enum.FailureUnexpected, err.Error())
		}
	}()

	message := models.NewOutboundMessage(s.sender.Name, s.sender.Email, recipient, job.Subject, job.Body, job.Attachment)

	if err := session.Send(ctx, message); err != nil {
		tracing.TraceErr(span, err)
		kind, reason := smtp.Classify(err)
		s.log.Warnf("send to %s failed (%s): %s", recipient, kind, reason)
		return models.FailedResult(recipient, kind, reason)
	}

	s.log.Infof("sent to %s", recipient)
	return models.SentResult(recipient)
}
