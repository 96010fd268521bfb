package sqsdrain

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"go.uber.org/zap"
)

// deleteBatch removes every message of a handled batch with one batched
// call. Failures are logged and swallowed, never propagated: an undeleted
// message is only redelivered later, which at-least-once semantics allow,
// whereas aborting the whole drain over a transient delete error would not.
func (d *Drainer) deleteBatch(ctx context.Context, batch []*Message) {
	span, ctx := tracer.StartSpanFromContext(ctx, "sqs_drain.delete_batch")
	defer span.Finish()

	entries := make([]types.DeleteMessageBatchRequestEntry, 0, len(batch))
	for _, m := range batch {
		if !m.deletable() {
			// No receipt handle means this delivery can never be deleted.
			// Fail the single entry locally instead of sending it.
			zap.S().With(TraceFields(ctx)...).Errorw(
				"message has no receipt handle, leaving it for redelivery",
				"message_id", m.ID,
			)
			continue
		}
		entries = append(entries, types.DeleteMessageBatchRequestEntry{
			Id:            aws.String(m.ID),
			ReceiptHandle: m.receipt,
		})
	}
	if len(entries) == 0 {
		return
	}

	output, err := d.sqs.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: &d.cfg.QueueURL,
		Entries:  entries,
	})
	if err != nil {
		span.SetTag("deleted", false)
		span.SetTag("error", err)
		zap.S().With(TraceFields(ctx)...).With(zap.Error(err)).Errorw(
			"unable to delete batch from the queue",
			"batch_size", len(entries),
		)
		return
	}

	for _, f := range output.Failed {
		zap.S().With(TraceFields(ctx)...).Errorw(
			"message was not deleted and will be redelivered",
			"message_id", aws.ToString(f.Id),
			"code", aws.ToString(f.Code),
		)
	}
	span.SetTag("deleted", true)
	zap.S().Debugw("batch deleted",
		"deleted", len(output.Successful),
		"failed", len(output.Failed),
	)
}
