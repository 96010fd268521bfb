package sqsdrain

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteBatch_SkipsEntriesWithoutReceipt(t *testing.T) {
	f := &fakeSQS{}
	d := newTestDrainer(f, nil, nil)

	batch := []*Message{
		newMessage(testMessage(0)),
		newMessage(types.Message{MessageId: aws.String("no-receipt"), Body: aws.String("{}")}),
		newMessage(testMessage(2)),
	}
	d.deleteBatch(context.Background(), batch)

	require.Len(t, f.deleteInputs, 1)
	entries := f.deleteInputs[0].Entries
	require.Len(t, entries, 2)
	assert.Equal(t, "msg-0", aws.ToString(entries[0].Id))
	assert.Equal(t, "msg-2", aws.ToString(entries[1].Id))
}

func TestDeleteBatch_NoCallWhenNothingDeletable(t *testing.T) {
	f := &fakeSQS{}
	d := newTestDrainer(f, nil, nil)

	batch := []*Message{
		newMessage(types.Message{MessageId: aws.String("no-receipt"), Body: aws.String("{}")}),
	}
	d.deleteBatch(context.Background(), batch)

	assert.Empty(t, f.deleteInputs)
}

func TestDeleteBatch_OneRequestPerBatch(t *testing.T) {
	f := &fakeSQS{}
	d := newTestDrainer(f, nil, nil)

	batch := make([]*Message, 0, MaxBatchSize)
	for _, m := range testMessages(MaxBatchSize) {
		batch = append(batch, newMessage(m))
	}
	d.deleteBatch(context.Background(), batch)

	require.Len(t, f.deleteInputs, 1)
	assert.Len(t, f.deleteInputs[0].Entries, MaxBatchSize)
}
