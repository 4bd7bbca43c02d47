package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

// message is what every sink receives for one outbox row.
type message struct {
	Data       json.RawMessage   `json:"data"`
	Attributes map[string]string `json:"attributes"`
}

// sink delivers a message to a named topic and waits for the acknowledgement.
type sink interface {
	Name() string
	Ping(ctx context.Context) error
	Publish(ctx context.Context, topic string, msg message) error
}

type redisPublisher interface {
	Ping(ctx context.Context) error
	Publish(ctx context.Context, channel string, payload []byte) error
}

// redisSink fans events out over Redis PUBLISH, one channel per topic.
type redisSink struct {
	client redisPublisher
}

func newRedisSink(client redisPublisher) *redisSink {
	return &redisSink{client: client}
}

func (s *redisSink) Name() string { return "redis" }

func (s *redisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *redisSink) Publish(ctx context.Context, topic string, msg message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode redis message: %w", err)
	}
	return s.client.Publish(ctx, topic, body)
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// gcpSink publishes to Google Cloud Pub/Sub topics.
type gcpSink struct {
	client     pubSubClient
	publishers func(topic string) topicPublisher
}

func newGCPSink(client pubSubClient) *gcpSink {
	s := &gcpSink{client: client}
	s.publishers = func(topic string) topicPublisher {
		p := client.Publisher(topic)
		if p == nil {
			return nil
		}
		return &gcpPublisher{Publisher: p}
	}
	return s
}

func (s *gcpSink) Name() string { return "gcp" }

func (s *gcpSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *gcpSink) Publish(ctx context.Context, topic string, msg message) error {
	pub := s.publishers(topic)
	if pub == nil {
		return errPublisherMissing(topic)
	}
	result := pub.Publish(ctx, &gcppubsub.Message{Data: msg.Data, Attributes: msg.Attributes})
	if result == nil {
		return errPublisherMissing(topic)
	}
	_, err := result.Get(ctx)
	return err
}

var errNoPublisher = errors.New("publisher not configured")

func errPublisherMissing(topic string) error {
	return fmt.Errorf("%w for topic %s", errNoPublisher, topic)
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
