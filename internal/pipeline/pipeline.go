package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
	"github.com/couchcryptid/pfas-dashboard-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw messages from the stream.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Transformer decodes a raw message into a measurement.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawMessage) (domain.Measurement, error)
}

// BatchAppender adds decoded measurements to the dataset.
type BatchAppender interface {
	AppendBatch(ctx context.Context, rows []domain.Measurement) error
}

// DeadLetterer quarantines payloads that cannot be decoded. Implementations
// must preserve the original bytes.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, raw domain.RawMessage, cause error) error
}

// Pipeline orchestrates the extract-transform-append ingest loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	appender    BatchAppender
	deadLetter  DeadLetterer
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
}

// New creates a Pipeline with the given stages and observability. deadLetter
// may be nil; undecodable payloads are then dropped after being counted.
func New(e BatchExtractor, t Transformer, a BatchAppender, deadLetter DeadLetterer, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		appender:    a,
		deadLetter:  deadLetter,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// Run executes the batch ingest loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("ingest pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ingest pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-append cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	appended, ok := p.transformAndAppend(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if appended > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	}
	return true
}

// transformAndAppend decodes each message in the batch, quarantines the
// failures, appends the successes, and commits offsets. Returns the number
// of appended rows and false if the pipeline should stop.
func (p *Pipeline) transformAndAppend(ctx context.Context, rawBatch []domain.RawMessage, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	rows := make([]domain.Measurement, 0, len(rawBatch))
	successfulRaws := make([]domain.RawMessage, 0, len(rawBatch))

	for _, raw := range rawBatch {
		m, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("transform failed, dead-lettering message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.quarantine(ctx, raw, err)
			p.commitOffset(ctx, raw)
			continue
		}
		rows = append(rows, m)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(rows) == 0 {
		return 0, true
	}

	if err := p.appender.AppendBatch(ctx, rows); err != nil {
		p.logger.Error("append batch failed", "error", err, "batch_size", len(rows))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.RowsAppended.Add(float64(len(rows)))

	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}

	return len(rows), true
}

// quarantine forwards an undecodable payload to the dead-letter topic. A
// dead-letter failure is logged but never blocks the loop; the offset is
// committed regardless so one poison message cannot wedge the partition.
func (p *Pipeline) quarantine(ctx context.Context, raw domain.RawMessage, cause error) {
	if p.deadLetter == nil {
		return
	}
	if err := p.deadLetter.DeadLetter(ctx, raw, cause); err != nil {
		p.logger.Error("dead-letter write failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		return
	}
	p.metrics.DeadLetters.Inc()
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
