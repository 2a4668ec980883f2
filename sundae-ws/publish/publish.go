// Package publish feeds change events into the real time Kinesis stream.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"
)

// Envelope is the message format published to the real time events stream.
type Envelope struct {
	ID         string                 `json:"id,omitempty"`
	Attributes map[string]interface{} `json:"attributes"`
}

// Event converts the envelope into a change event.
func (e Envelope) Event() sundaews.Event {
	return sundaews.Event{
		Source:     "kinesis",
		ID:         e.ID,
		Attributes: e.Attributes,
	}
}

// Decode parses a Kinesis record body. Numbers are kept as json.Number.
func Decode(data []byte) (Envelope, error) {
	var envelope Envelope
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&envelope); err != nil {
		return Envelope{}, fmt.Errorf("unmarshalling kinesis record: %w", err)
	}
	return envelope, nil
}

// Publisher publishes change events to the real time Kinesis stream.
type Publisher struct {
	client     kinesisiface.KinesisAPI
	streamName string
	topicKey   string
}

// New creates a new Publisher.
func New(client kinesisiface.KinesisAPI, streamName, topicKey string) *Publisher {
	return &Publisher{
		client:     client,
		streamName: streamName,
		topicKey:   topicKey,
	}
}

// Build creates a new Publisher using the standard stream name for the given
// environment.
func Build(s *session.Session, env, topicKey string) *Publisher {
	return New(kinesis.New(s), StreamName(env), topicKey)
}

// StreamName returns the Kinesis stream name for the given environment.
func StreamName(env string) string {
	return env + "-sundae-realtime-events"
}

// Send publishes a resource's attributes. The topic value is used as the
// partition key so updates to one item stay ordered within the stream.
func (p *Publisher) Send(ctx context.Context, id string, attributes map[string]interface{}) error {
	envelope := Envelope{ID: id, Attributes: attributes}

	partitionKey, ok := envelope.Event().TopicValue(p.topicKey)
	if !ok || partitionKey == "" {
		return fmt.Errorf("publishing event %v: %w", id, sundaews.ErrMalformedEvent)
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshalling envelope: %w", err)
	}

	_, err = p.client.PutRecordWithContext(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(p.streamName),
		PartitionKey: aws.String(partitionKey),
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("publishing to kinesis stream %v: %w", p.streamName, err)
	}

	return nil
}
