package dispatch

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/sendblast/sendblast/internal/enum"
	"github.com/sendblast/sendblast/internal/models"
	"github.com/sendblast/sendblast/internal/tracing"
	"github.com/sendblast/sendblast/services/smtp"
)

// runSequential sends to recipients in order over one shared session. Used
// by both the throttled and fast strategies; the only difference between
// them is the delay window, which normalize has already settled.
//
// Two failures end the batch early. A refused login poisons every attempt
// that would follow, so the triggering recipient and everyone after it are
// marked with the same authentication failure. A dropped connection kills
// the shared session; the recipient that hit it keeps their own outcome and
// the untried remainder is marked unreachable.
func (s *dispatchService) runSequential(ctx context.Context, job *models.DispatchJob, progress chan<- models.ProgressEvent) []models.SendResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DispatchService.runSequential")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagBatch(span, job.ID)

	total := len(job.Recipients)
	tracker := newProgressTracker(total, progress)

	session, err := s.smtp.NewSession(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		kind, detail := smtp.Classify(err)
		reason := detail
		switch kind {
		case enum.FailureAuthentication:
			reason = authFailedReason
		case enum.FailureConnection:
			reason = connectionLostReason(detail)
		}
		s.log.Errorf("batch %s: session not established: %s", job.ID, detail)
		return s.failRemaining(job.Recipients, tracker, kind, reason)
	}
	defer session.Close()

	for i, recipient := range job.Recipients {
		result := s.sendOne(ctx, session, job, recipient)

		if !result.Succeeded() && result.Failure == enum.FailureAuthentication {
			s.log.Errorf("batch %s: relay refused credentials, abandoning %d recipients", job.ID, total-i)
			return s.failRemaining(job.Recipients[i:], tracker, enum.FailureAuthentication, authFailedReason)
		}

		tracker.record(result)

		if !result.Succeeded() && result.Failure == enum.FailureConnection {
			s.log.Errorf("batch %s: session lost, abandoning %d recipients", job.ID, total-i-1)
			return s.failRemaining(job.Recipients[i+1:], tracker, enum.FailureConnection, connectionLostReason(result.Reason))
		}

		if i < total-1 && job.MaxDelay > 0 {
			s.sleep(s.jitter(job.MinDelay, job.MaxDelay))
		}
	}

	return tracker.results
}

// failRemaining records the same failure for every recipient in order, so
// cascaded outcomes still produce progress events one at a time.
func (s *dispatchService) failRemaining(recipients []string, tracker *progressTracker, kind enum.FailureKind, reason string) []models.SendResult {
	for _, recipient := range recipients {
		tracker.record(models.FailedResult(recipient, kind, reason))
	}
	return tracker.results
}
