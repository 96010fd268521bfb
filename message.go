package sqsdrain

import (
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Message is a single delivery pulled from the queue. The receipt handle that
// authorizes removing this delivery is kept unexported: it is only valid for
// the receive that produced it, and only the drainer's delete step reads it.
type Message struct {
	// ID is the queue-assigned message id, unique within a batch.
	ID string

	body    *string
	receipt *string
}

func newMessage(m types.Message) *Message {
	msg := &Message{body: m.Body, receipt: m.ReceiptHandle}
	if m.MessageId != nil {
		msg.ID = *m.MessageId
	}
	return msg
}

// Body returns the raw message payload.
func (m *Message) Body() []byte {
	if m.body == nil {
		return nil
	}
	return []byte(*m.body)
}

// Decode unmarshals the JSON payload into out.
func (m *Message) Decode(out interface{}) error {
	return json.Unmarshal(m.Body(), out)
}

func (m *Message) deletable() bool {
	return m.receipt != nil && *m.receipt != ""
}
