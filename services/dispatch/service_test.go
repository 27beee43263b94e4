package dispatch

import (
	"context"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/interfaces"
	"github.com/sendblast/sendblast/internal/enum"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/models"
	"github.com/sendblast/sendblast/services/smtp"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

// scriptedSMTP fakes the relay. Outcomes are keyed by recipient; anything
// not scripted succeeds. All counters sit behind one mutex so parallel
// dispatches can hammer it safely.
type scriptedSMTP struct {
	mu        sync.Mutex
	dialErr   error
	sendErrs  map[string]error
	panicOn   map[string]bool
	sendDelay time.Duration

	dials     int
	sessions  int
	open      int
	maxOpen   int
	attempted []string
	sent      []string
}

func (f *scriptedSMTP) NewSession(ctx context.Context) (interfaces.SMTPSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dials++
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	f.sessions++
	f.open++
	if f.open > f.maxOpen {
		f.maxOpen = f.open
	}
	return &scriptedSession{service: f}, nil
}

type scriptedSession struct {
	service *scriptedSMTP
	closed  bool
}

func (s *scriptedSession) Send(ctx context.Context, message *models.OutboundMessage) error {
	f := s.service

	f.mu.Lock()
	recipient := message.To
	f.attempted = append(f.attempted, recipient)
	panics := f.panicOn[recipient]
	err := f.sendErrs[recipient]
	delay := f.sendDelay
	if err == nil && !panics {
		f.sent = append(f.sent, recipient)
	}
	f.mu.Unlock()

	if panics {
		panic("scripted send panic")
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (s *scriptedSession) Close() error {
	f := s.service
	f.mu.Lock()
	defer f.mu.Unlock()

	if !s.closed {
		s.closed = true
		f.open--
	}
	return nil
}

func newTestService(fake *scriptedSMTP) *dispatchService {
	svc := NewDispatchService(
		&config.DispatchConfig{MinDelaySeconds: 0, MaxDelaySeconds: 0, MaxWorkers: 4},
		&config.SenderConfig{Email: "sender@acme.io", Name: "Job Applicant"},
		fake,
		getLogger(),
	)
	return svc.(*dispatchService)
}

func smtpReply(code int, msg string) error {
	return &textproto.Error{Code: code, Msg: msg}
}

func recipientsOf(results []models.SendResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Recipient)
	}
	return out
}

func outcomesOf(results []models.SendResult) map[string]enum.SendStatus {
	out := make(map[string]enum.SendStatus, len(results))
	for _, r := range results {
		out[r.Recipient] = r.Status
	}
	return out
}

func TestDispatchSequentialAllSucceed(t *testing.T) {
	fake := &scriptedSMTP{}
	svc := newTestService(fake)

	recipients := []string{"a@x.io", "b@x.io", "c@x.io"}
	job := &models.DispatchJob{
		Recipients: recipients,
		Subject:    "Application",
		Body:       "Dear Hiring Manager",
		Strategy:   enum.StrategyFast,
	}

	results := svc.Dispatch(context.Background(), job, nil)

	require.Len(t, results, 3)
	assert.Equal(t, recipients, recipientsOf(results))
	for _, r := range results {
		assert.True(t, r.Succeeded())
		assert.Empty(t, r.Failure)
		assert.Empty(t, r.Reason)
	}
	assert.Equal(t, 1, fake.sessions, "sequential strategies share one session")
	assert.Equal(t, recipients, fake.sent)
}

func TestDispatchEmptyRecipients(t *testing.T) {
	fake := &scriptedSMTP{}
	svc := newTestService(fake)

	progress := make(chan models.ProgressEvent, 1)
	results := svc.Dispatch(context.Background(), &models.DispatchJob{Strategy: enum.StrategyFast}, progress)

	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, 0, fake.dials)

	_, open := <-progress
	assert.False(t, open, "progress channel must be closed even for an empty batch")
}

func TestDispatchAssignsBatchID(t *testing.T) {
	svc := newTestService(&scriptedSMTP{})

	job := &models.DispatchJob{Recipients: []string{"a@x.io"}, Strategy: enum.StrategyFast}
	svc.Dispatch(context.Background(), job, nil)

	assert.NotEmpty(t, job.ID)
}

func TestDispatchDefaultsToThrottled(t *testing.T) {
	fake := &scriptedSMTP{}
	svc := newTestService(fake)

	var slept []time.Duration
	svc.sleep = func(d time.Duration) { slept = append(slept, d) }

	job := &models.DispatchJob{
		Recipients: []string{"a@x.io", "b@x.io"},
		MinDelay:   10 * time.Millisecond,
		MaxDelay:   15 * time.Millisecond,
	}
	results := svc.Dispatch(context.Background(), job, nil)

	assert.Equal(t, enum.StrategyThrottled, job.Strategy)
	require.Len(t, results, 2)
	assert.Equal(t, 1, fake.sessions)
	assert.Len(t, slept, 1)
}

func TestSequentialTransportFailureContinues(t *testing.T) {
	fake := &scriptedSMTP{
		sendErrs: map[string]error{
			"b@x.io": smtpReply(550, "mailbox unavailable"),
		},
	}
	svc := newTestService(fake)

	job := &models.DispatchJob{
		Recipients: []string{"a@x.io", "b@x.io", "c@x.io"},
		Strategy:   enum.StrategyFast,
	}
	results := svc.Dispatch(context.Background(), job, nil)

	require.Len(t, results, 3)
	assert.True(t, results[0].Succeeded())
	assert.False(t, results[1].Succeeded())
	assert.Equal(t, enum.FailureTransport, results[1].Failure)
	assert.Contains(t, results[1].Reason, "550")
	assert.True(t, results[2].Succeeded(), "a rejected recipient must not stop the batch")
	assert.Equal(t, []string{"a@x.io", "b@x.io", "c@x.io"}, fake.attempted)
}

func TestSequentialAuthFailureAbortsBatch(t *testing.T) {
	fake := &scriptedSMTP{
		sendErrs: map[string]error{
			"b@x.io": smtpReply(535, "authentication credentials invalid"),
		},
	}
	svc := newTestService(fake)

	job := &models.DispatchJob{
		Recipients: []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io"},
		Strategy:   enum.StrategyFast,
	}
	results := svc.Dispatch(context.Background(), job, nil)

	require.Len(t, results, 4)
	assert.True(t, results[0].Succeeded())
	for _, r := range results[1:] {
		assert.False(t, r.Succeeded())
		assert.Equal(t, enum.FailureAuthentication, r.Failure)
		assert.Equal(t, "authentication failed", r.Reason)
	}
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, fake.attempted, "nothing is attempted after the relay refuses credentials")
}

func TestSequentialConnectionFailureAbortsRemainder(t *testing.T) {
	fake := &scriptedSMTP{
		sendErrs: map[string]error{
			"b@x.io": errors.Wrap(smtp.ErrConnectionFailed, "write tcp: broken pipe"),
		},
	}
	svc := newTestService(fake)

	job := &models.DispatchJob{
		Recipients: []string{"a@x.io", "b@x.io", "c@x.io"},
		Strategy:   enum.StrategyFast,
	}
	results := svc.Dispatch(context.Background(), job, nil)

	require.Len(t, results, 3)
	assert.True(t, results[0].Succeeded())

	assert.Equal(t, enum.FailureConnection, results[1].Failure)
	assert.Contains(t, results[1].Reason, "broken pipe", "the recipient that hit the drop keeps its own outcome")

	assert.Equal(t, enum.FailureConnection, results[2].Failure)
	assert.Contains(t, results[2].Reason, "connection error:")
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, fake.attempted)
}

func TestSequentialSessionOpenFailure(t *testing.T) {
	tests := []struct {
		name       string
		dialErr    error
		wantKind   enum.FailureKind
		wantReason string
	}{
		{
			name:       "relay unreachable",
			dialErr:    errors.Wrap(smtp.ErrConnectionFailed, "dial tcp: connection refused"),
			wantKind:   enum.FailureConnection,
			wantReason: "connection error:",
		},
		{
			name:       "credentials refused at login",
			dialErr:    errors.Wrap(smtp.ErrAuthenticationFailed, "535 5.7.8 bad credentials"),
			wantKind:   enum.FailureAuthentication,
			wantReason: "authentication failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &scriptedSMTP{dialErr: tt.dialErr}
			svc := newTestService(fake)

			job := &models.DispatchJob{
				Recipients: []string{"a@x.io", "b@x.io", "c@x.io"},
				Strategy:   enum.StrategyFast,
			}
			results := svc.Dispatch(context.Background(), job, nil)

			require.Len(t, results, 3, "every recipient gets a result even when no session opens")
			for _, r := range results {
				assert.Equal(t, tt.wantKind, r.Failure)
				assert.Contains(t, r.Reason, tt.wantReason)
			}
			assert.Empty(t, fake.attempted)
		})
	}
}

func TestSequentialRecoversFromPanic(t *testing.T) {
	fake := &scriptedSMTP{
		panicOn: map[string]bool{"b@x.io": true},
	}
	svc := newTestService(fake)

	job := &models.DispatchJob{
		Recipients: []string{"a@x.io", "b@x.io", "c@x.io"},
		Strategy:   enum.StrategyFast,
	}
	results := svc.Dispatch(context.Background(), job, nil)

	require.Len(t, results, 3)
	assert.True(t, results[0].Succeeded())
	assert.Equal(t, enum.FailureUnexpected, results[1].Failure)
	assert.Contains(t, results[1].Reason, "panic during send")
	assert.True(t, results[2].Succeeded())
}

func TestThrottledDelayBounds(t *testing.T) {
	fake := &scriptedSMTP{}
	svc := newTestService(fake)

	var slept []time.Duration
	svc.sleep = func(d time.Duration) { slept = append(slept, d) }

	job := &models.DispatchJob{
		Recipients: []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io"},
		Strategy:   enum.StrategyThrottled,
		MinDelay:   10 * time.Millisecond,
		MaxDelay:   15 * time.Millisecond,
	}
	svc.Dispatch(context.Background(), job, nil)

	require.Len(t, slept, 3, "one pause between consecutive sends, none after the last")
	for _, d := range slept {
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 15*time.Millisecond)
	}
}

func TestThrottledSleepsAfterFailuresToo(t *testing.T) {
	fake := &scriptedSMTP{
		sendErrs: map[string]error{
			"a@x.io": smtpReply(452, "too many recipients"),
		},
	}
	svc := newTestService(fake)

	var slept int
	svc.sleep = func(time.Duration) { slept++ }

	job := &models.DispatchJob{
		Recipients: []string{"a@x.io", "b@x.io"},
		Strategy:   enum.StrategyThrottled,
		MinDelay:   5 * time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
	svc.Dispatch(context.Background(), job, nil)

	assert.Equal(t, 1, slept, "pacing is uniform regardless of per-recipient outcome")
}

func TestFastSkipsDelays(t *testing.T) {
	fake := &scriptedSMTP{}
	svc := newTestService(fake)

	var slept int
	svc.sleep = func(time.Duration) { slept++ }

	job := &models.DispatchJob{
		Recipients: []string{"a@x.io", "b@x.io", "c@x.io"},
		Strategy:   enum.StrategyFast,
		MinDelay:   10 * time.Second,
		MaxDelay:   15 * time.Second,
	}
	results := svc.Dispatch(context.Background(), job, nil)

	require.Len(t, results, 3)
	assert.Zero(t, slept, "fast keeps the shared session but never pauses")
}

func TestUniformDelay(t *testing.T) {
	min, max := 10*time.Millisecond, 15*time.Millisecond
	for i := 0; i < 200; i++ {
		d := uniformDelay(min, max)
		assert.GreaterOrEqual(t, d, min)
		assert.LessOrEqual(t, d, max)
	}
	assert.Equal(t, min, uniformDelay(min, min))
	assert.Equal(t, min, uniformDelay(min, 5*time.Millisecond), "inverted window collapses to min")
}

func TestParallelAllSucceed(t *testing.T) {
	fake := &scriptedSMTP{}
	svc := newTestService(fake)

	recipients := []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io"}
	job := &models.DispatchJob{
		Recipients: recipients,
		Strategy:   enum.StrategyParallel,
	}
	results := svc.Dispatch(context.Background(), job, nil)

	require.Len(t, results, 5)
	outcomes := outcomesOf(results)
	for _, recipient := range recipients {
		assert.Equal(t, enum.SendStatusSent, outcomes[recipient])
	}
	assert.Equal(t, 5, fake.sessions, "parallel gives every recipient its own session")
}

func TestParallelIsolatesAuthFailure(t *testing.T) {
	fake := &scriptedSMTP{
		sendErrs: map[string]error{
			"b@x.io": smtpReply(535, "authentication credentials invalid"),
		},
	}
	svc := newTestService(fake)

	job := &models.DispatchJob{
		Recipients: []string{"a@x.io", "b@x.io", "c@x.io"},
		Strategy:   enum.StrategyParallel,
	}
	results := svc.Dispatch(context.Background(), job, nil)

	require.Len(t, results, 3)
	outcomes := outcomesOf(results)
	assert.Equal(t, enum.SendStatusSent, outcomes["a@x.io"])
	assert.Equal(t, enum.SendStatusFailed, outcomes["b@x.io"])
	assert.Equal(t, enum.SendStatusSent, outcomes["c@x.io"], "auth failure stays local to its recipient in parallel mode")

	for _, r := range results {
		if r.Recipient == "b@x.io" {
			assert.Equal(t, enum.FailureAuthentication, r.Failure)
		}
	}
}

func TestParallelBoundsWorkers(t *testing.T) {
	fake := &scriptedSMTP{sendDelay: 2 * time.Millisecond}
	svc := newTestService(fake)

	recipients := make([]string, 0, 12)
	for _, local := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		recipients = append(recipients, local+"@x.io")
	}
	job := &models.DispatchJob{
		Recipients: recipients,
		Strategy:   enum.StrategyParallel,
		MaxWorkers: 3,
	}
	results := svc.Dispatch(context.Background(), job, nil)

	require.Len(t, results, 12)
	assert.Equal(t, 12, fake.sessions)
	assert.LessOrEqual(t, fake.maxOpen, 3, "no more sessions open at once than workers")
}

func TestParallelRecoversFromPanic(t *testing.T) {
	fake := &scriptedSMTP{
		panicOn: map[string]bool{"c@x.io": true},
	}
	svc := newTestService(fake)

	job := &models.DispatchJob{
		Recipients: []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io"},
		Strategy:   enum.StrategyParallel,
	}
	results := svc.Dispatch(context.Background(), job, nil)

	require.Len(t, results, 4)
	outcomes := outcomesOf(results)
	assert.Equal(t, enum.SendStatusFailed, outcomes["c@x.io"])
	for _, r := range results {
		if r.Recipient == "c@x.io" {
			assert.Equal(t, enum.FailureUnexpected, r.Failure)
			assert.Contains(t, r.Reason, "panic during send")
		} else {
			assert.True(t, r.Succeeded())
		}
	}
}

func TestStrategiesAgreeOnOutcomes(t *testing.T) {
	// Per-recipient failures only: batch-fatal semantics legitimately
	// differ between sequential and parallel.
	script := map[string]error{
		"b@x.io": smtpReply(550, "mailbox unavailable"),
		"d@x.io": smtpReply(451, "greylisted, try again later"),
	}
	recipients := []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io"}

	run := func(strategy enum.DeliveryStrategy) map[string]enum.SendStatus {
		fake := &scriptedSMTP{sendErrs: script}
		svc := newTestService(fake)
		results := svc.Dispatch(context.Background(), &models.DispatchJob{
			Recipients: recipients,
			Strategy:   strategy,
		}, nil)
		require.Len(t, results, 5)
		return outcomesOf(results)
	}

	throttled := run(enum.StrategyThrottled)
	fast := run(enum.StrategyFast)
	parallel := run(enum.StrategyParallel)

	assert.Equal(t, throttled, fast)
	assert.Equal(t, throttled, parallel)
	assert.Equal(t, enum.SendStatusFailed, throttled["b@x.io"])
	assert.Equal(t, enum.SendStatusFailed, throttled["d@x.io"])
	assert.Equal(t, enum.SendStatusSent, throttled["e@x.io"])
}

func TestProgressEventsSequential(t *testing.T) {
	fake := &scriptedSMTP{
		sendErrs: map[string]error{
			"b@x.io": smtpReply(550, "mailbox unavailable"),
		},
	}
	svc := newTestService(fake)

	recipients := []string{"a@x.io", "b@x.io", "c@x.io"}
	progress := make(chan models.ProgressEvent, len(recipients))
	svc.Dispatch(context.Background(), &models.DispatchJob{
		Recipients: recipients,
		Strategy:   enum.StrategyFast,
	}, progress)

	var events []models.ProgressEvent
	for event := range progress {
		events = append(events, event)
	}

	require.Len(t, events, 3)
	for i, event := range events {
		assert.Equal(t, i+1, event.Completed)
		assert.Equal(t, 3, event.Total)
		assert.Equal(t, recipients[i], event.Result.Recipient, "sequential progress follows recipient order")
	}
	assert.False(t, events[1].Result.Succeeded())
}

func TestProgressEventsParallel(t *testing.T) {
	fake := &scriptedSMTP{sendDelay: time.Millisecond}
	svc := newTestService(fake)

	recipients := []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io", "f@x.io"}
	progress := make(chan models.ProgressEvent, len(recipients))
	svc.Dispatch(context.Background(), &models.DispatchJob{
		Recipients: recipients,
		Strategy:   enum.StrategyParallel,
		MaxWorkers: 3,
	}, progress)

	count := 0
	for event := range progress {
		count++
		assert.Equal(t, count, event.Completed, "completed count increases by one per event")
		assert.Equal(t, len(recipients), event.Total)
	}
	assert.Equal(t, len(recipients), count)
}

func TestProgressCoversCascadedFailures(t *testing.T) {
	fake := &scriptedSMTP{
		dialErr: errors.Wrap(smtp.ErrConnectionFailed, "dial tcp: connection refused"),
	}
	svc := newTestService(fake)

	recipients := []string{"a@x.io", "b@x.io", "c@x.io"}
	progress := make(chan models.ProgressEvent, len(recipients))
	svc.Dispatch(context.Background(), &models.DispatchJob{
		Recipients: recipients,
		Strategy:   enum.StrategyThrottled,
	}, progress)

	count := 0
	for event := range progress {
		count++
		assert.Equal(t, count, event.Completed)
		assert.False(t, event.Result.Succeeded())
	}
	assert.Equal(t, 3, count, "recipients failed without an attempt still produce progress")
}

func TestSummarize(t *testing.T) {
	svc := newTestService(&scriptedSMTP{})

	results := []models.SendResult{
		models.SentResult("a@x.io"),
		models.FailedResult("b@x.io", enum.FailureTransport, "550 mailbox unavailable"),
		models.SentResult("c@x.io"),
		models.FailedResult("d@x.io", enum.FailureConnection, "connection error: EOF"),
		models.SentResult("e@x.io"),
	}
	summary := svc.Summarize(results)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.InDelta(t, 60.0, summary.SuccessRate, 0.001)

	require.Len(t, summary.Failures, 2)
	assert.Equal(t, "b@x.io", summary.Failures[0].Recipient)
	assert.Equal(t, enum.FailureTransport, summary.Failures[0].Kind)
	assert.Equal(t, "d@x.io", summary.Failures[1].Recipient)
}

func TestSummarizeEmpty(t *testing.T) {
	svc := newTestService(&scriptedSMTP{})

	summary := svc.Summarize([]models.SendResult{})

	assert.Equal(t, 0, summary.Total)
	assert.Zero(t, summary.SuccessRate, "empty batch must not divide by zero")
	assert.NotNil(t, summary.Failures)
	assert.Empty(t, summary.Failures)
}

func TestSummarizeAllSucceeded(t *testing.T) {
	svc := newTestService(&scriptedSMTP{})

	summary := svc.Summarize([]models.SendResult{
		models.SentResult("a@x.io"),
		models.SentResult("b@x.io"),
	})

	assert.InDelta(t, 100.0, summary.SuccessRate, 0.001)
	assert.Empty(t, summary.Failures)
}
