package sqsdrain

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"go.uber.org/zap"
)

// sqsAPI is the slice of the SQS client the drainer needs.
type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

// Result holds the counters of one drain: how many poll cycles ran and how
// many messages the handler completed. It is scoped to a single Drain call;
// nothing carries over between invocations.
type Result struct {
	PollCycles        int
	MessagesProcessed int
}

// Drainer repeatedly pulls batches of messages from one queue, hands each
// message to the handler in delivery order, and removes handled batches with
// a single batched delete per cycle, while an injected remaining-time signal
// bounds how long it keeps going.
//
// Delivery is at least once. A handler error stops the drain and leaves the
// whole current batch undeleted; a delete failure is logged and swallowed
// because it only risks redelivery. Both paths mean a message can be handled
// more than once, never silently lost.
type Drainer struct {
	sqs       sqsAPI
	handler   Handler
	cfg       Config
	remaining RemainingTimeFunc
}

// NewDrainer validates the config and builds a Drainer on the given AWS
// config. The remaining-time source comes from the host; see
// RemainingFromContext for the usual deadline-backed one.
func NewDrainer(awsCfg aws.Config, cfg Config, handler Handler, remaining RemainingTimeFunc) (*Drainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, errors.New("a message handler is required")
	}
	if remaining == nil {
		return nil, errors.New("a remaining-time source is required")
	}
	return &Drainer{
		sqs:       sqs.NewFromConfig(awsCfg),
		handler:   handler,
		cfg:       cfg,
		remaining: remaining,
	}, nil
}

// Drain runs poll/process/delete cycles until the remaining-time budget
// drops to the safety margin, then returns the session counters. The budget
// is sampled only between cycles: a cycle that starts always runs to
// completion, so the margin must cover one full cycle's network calls.
//
// Poll and handler errors stop the drain and are returned with the counters
// accumulated so far; retrying is the harness's job. An empty batch is a
// normal cycle, not an error.
func (d *Drainer) Drain(ctx context.Context) (Result, error) {
	var res Result
	for d.remaining() > d.cfg.SafetyMargin {
		if err := d.cycle(ctx, &res); err != nil {
			return res, err
		}
	}
	zap.S().Infow("drain budget exhausted",
		"poll_cycles", res.PollCycles,
		"messages_processed", res.MessagesProcessed,
	)
	return res, nil
}

func (d *Drainer) cycle(ctx context.Context, res *Result) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "sqs_drain.cycle")
	defer span.Finish()

	logCycle := zap.S().Debugw
	if res.PollCycles%5 == 0 {
		logCycle = zap.S().Infow
	}
	logCycle("starting drain cycle",
		"poll_cycles", res.PollCycles,
		"messages_processed", res.MessagesProcessed,
	)

	output, err := d.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            &d.cfg.QueueURL,
		MaxNumberOfMessages: d.cfg.BatchSize,
		WaitTimeSeconds:     d.cfg.WaitTimeSeconds,
	})
	if err != nil {
		span.SetTag("success", false)
		span.SetTag("error", err)
		return fmt.Errorf("could not receive messages from SQS: %w", err)
	}
	res.PollCycles++

	batch := make([]*Message, 0, len(output.Messages))
	for _, m := range output.Messages {
		batch = append(batch, newMessage(m))
	}
	span.SetTag("batch_size", len(batch))
	zap.S().With(TraceFields(ctx)...).Debugw("received batch", "batch_size", len(batch))

	for _, m := range batch {
		if err := d.handler.Run(ctx, m); err != nil {
			span.SetTag("success", false)
			span.SetTag("error", err)
			return fmt.Errorf("handler failed for message %s: %w", m.ID, err)
		}
		res.MessagesProcessed++
	}

	if len(batch) > 0 {
		d.deleteBatch(ctx, batch)
	}
	span.SetTag("success", true)
	return nil
}

// TraceFields returns zap key/value pairs correlating a log line with the
// active APM span, if any.
func TraceFields(ctx context.Context) []interface{} {
	if span, ok := tracer.SpanFromContext(ctx); ok {
		return []interface{}{
			"dd.trace_id", span.Context().TraceID(),
			"dd.span_id", span.Context().SpanID(),
		}
	}
	return nil
}
