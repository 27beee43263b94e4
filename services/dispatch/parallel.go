package dispatch

import (
	"context"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/sendblast/sendblast/internal/enum"
	"github.com/sendblast/sendblast/internal/models"
	"github.com/sendblast/sendblast/internal/tracing"
	"github.com/sendblast/sendblast/services/smtp"
)

// runParallel fans recipients out to a bounded pool of workers, each send on
// its own session so one recipient's failure cannot poison another's. No
// pacing delays here. Results come back in completion order.
func (s *dispatchService) runParallel(ctx context.Context, job *models.DispatchJob, progress chan<- models.ProgressEvent) []models.SendResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DispatchService.runParallel")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagBatch(span, job.ID)

	total := len(job.Recipients)
	workers := job.MaxWorkers
	if workers > total {
		workers = total
	}
	span.LogKV("workers", workers)

	tracker := newProgressTracker(total, progress)
	recipients := make(chan string)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for recipient := range recipients {
				tracker.record(s.sendIsolated(ctx, job, recipient))
			}
		}()
	}

	for _, recipient := range job.Recipients {
		recipients <- recipient
	}
	close(recipients)
	wg.Wait()

	return tracker.results
}

// sendIsolated opens a dedicated session for one recipient, sends, and tears
// the session down. Every failure, including a refused login, stays local to
// this recipient.
func (s *dispatchService) sendIsolated(ctx context.Context, job *models.DispatchJob, recipient string) (result models.SendResult) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DispatchService.sendIsolated")
	defer span.Finish()
	tracing.TagComponentWorker(span)
	span.SetTag(tracing.SpanTagRecipient, recipient)

	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("panic during send: %v", r)
			tracing.TraceErr(span, err)
			s.log.Errorf("recovered while sending to %s: %v", recipient, r)
			result = models.FailedResult(recipient, enum.FailureUnexpected, err.Error())
		}
	}()

	session, err := s.smtp.NewSession(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		kind, reason := smtp.Classify(err)
		s.log.Warnf("session for %s not established (%s): %s", recipient, kind, reason)
		return models.FailedResult(recipient, kind, reason)
	}
	defer session.Close()

	return s.sendOne(ctx, session, job, recipient)
}
