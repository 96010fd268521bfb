// Package producer is the send side of the queue client: single and batched
// message publishing to standard and FIFO SQS queues.
package producer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// maxBatchEntries is the SQS cap on entries per SendMessageBatch call.
const maxBatchEntries = 10

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
}

// Producer sends messages to one SQS queue.
type Producer struct {
	sqsAPI   sqsAPI
	queueURL string
	isFIFO   bool
}

// NewProducerStandard builds a Producer for a standard queue.
func NewProducerStandard(sqsAPI sqsAPI, queueURL string) *Producer {
	return &Producer{
		sqsAPI:   sqsAPI,
		queueURL: queueURL,
		isFIFO:   false,
	}
}

// NewProducerFIFO builds a Producer for a FIFO queue.
func NewProducerFIFO(sqsAPI sqsAPI, queueURL string) *Producer {
	return &Producer{
		sqsAPI:   sqsAPI,
		queueURL: queueURL,
		isFIFO:   true,
	}
}

// Message carries one payload to send. DeduplicationID and GroupID are FIFO
// fields and must be nil for standard queues.
type Message struct {
	Body            string
	DeduplicationID *string
	GroupID         *string
}

// BatchResult reports the per-entry outcome of one batched send, keyed by
// the caller-supplied entry ids.
type BatchResult struct {
	Successful []string
	Failed     []string
}

// SendMessage validates the message and sends it to the configured queue.
func (p *Producer) SendMessage(ctx context.Context, msg Message) error {
	if err := p.validate(msg); err != nil {
		return fmt.Errorf("invalid sqs message: %w", err)
	}

	_, err := p.sqsAPI.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               &p.queueURL,
		MessageBody:            &msg.Body,
		MessageDeduplicationId: msg.DeduplicationID,
		MessageGroupId:         msg.GroupID,
	})
	if err != nil {
		return fmt.Errorf("error sending message to queue %s, reason: %w", p.queueURL, err)
	}
	return nil
}

// SendMessageBatch sends up to ten messages in a single request and reports
// which entries the transport accepted. Entry ids are the batch indexes.
func (p *Producer) SendMessageBatch(ctx context.Context, msgs []Message) (*BatchResult, error) {
	if len(msgs) == 0 {
		return &BatchResult{}, nil
	}
	if len(msgs) > maxBatchEntries {
		return nil, fmt.Errorf("batch of %d exceeds the transport cap of %d", len(msgs), maxBatchEntries)
	}

	entries := make([]types.SendMessageBatchRequestEntry, 0, len(msgs))
	for i, msg := range msgs {
		if err := p.validate(msg); err != nil {
			return nil, fmt.Errorf("invalid sqs message at index %d: %w", i, err)
		}
		entries = append(entries, types.SendMessageBatchRequestEntry{
			Id:                     aws.String(strconv.Itoa(i)),
			MessageBody:            aws.String(msg.Body),
			MessageDeduplicationId: msg.DeduplicationID,
			MessageGroupId:         msg.GroupID,
		})
	}

	output, err := p.sqsAPI.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
		QueueUrl: &p.queueURL,
		Entries:  entries,
	})
	if err != nil {
		return nil, fmt.Errorf("error sending batch to queue %s, reason: %w", p.queueURL, err)
	}

	result := &BatchResult{}
	for _, s := range output.Successful {
		result.Successful = append(result.Successful, aws.ToString(s.Id))
	}
	for _, f := range output.Failed {
		result.Failed = append(result.Failed, aws.ToString(f.Id))
	}
	return result, nil
}

func (p *Producer) validate(msg Message) error {
	if msg.Body == "" {
		return errors.New("message body cannot be empty")
	}
	if p.isFIFO {
		if msg.GroupID == nil || *msg.GroupID == "" {
			return errors.New("FIFO queue requires a message group id")
		}
	} else if msg.GroupID != nil || msg.DeduplicationID != nil {
		return errors.New("FIFO fields set for a standard queue")
	}
	return nil
}
