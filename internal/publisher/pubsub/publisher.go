// Package pubsub implements a Google Cloud Pub/Sub event publisher.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// Publisher pushes collection events to a Pub/Sub topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New creates a Publisher and verifies the topic exists.
func New(ctx context.Context, projectID, topicName string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicName)
	ok, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicName, err)
	}
	if !ok {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub topic %q does not exist", topicName)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Publish marshals the payload to JSON and publishes it, blocking until the
// server acknowledges the message.
func (p *Publisher) Publish(ctx context.Context, _ string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close flushes the topic and releases the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
