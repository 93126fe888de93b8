package matchhub

import (
	"context"
	"errors"
	"strings"
	"time"

	"linguamatch/backend/internal/models"
	"linguamatch/backend/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const requestField = "request"

// Delivery is one message read off the request stream, paired with the
// stream id needed to acknowledge it.
type Delivery struct {
	ID      string
	Request models.MatchRequest
}

// RequestSource is what the worker consumes. The redelivery scheduler writes
// back through the Publisher half of the same stream.
type RequestSource interface {
	Fetch(ctx context.Context) ([]Delivery, error)
	Ack(id string) error
}

// RequestStream is the at-least-once request channel, backed by a Redis
// stream with a consumer group. Unacknowledged entries survive consumer
// restarts and are redelivered from the pending list before new ones.
type RequestStream struct {
	rdb      *redis.Client
	ctx      context.Context
	stream   string
	group    string
	consumer string
	maxLen   int64

	// readPending is set until the pending-entries backlog from a prior
	// run has been drained.
	readPending bool
}

func NewRequestStream(rdb *redis.Client, stream, group, consumer string, maxLen int64) *RequestStream {
	return &RequestStream{
		rdb:         rdb,
		ctx:         context.Background(),
		stream:      stream,
		group:       group,
		consumer:    consumer,
		maxLen:      maxLen,
		readPending: true,
	}
}

// EnsureGroup creates the stream and consumer group if they do not exist yet.
func (s *RequestStream) EnsureGroup() error {
	err := s.rdb.XGroupCreateMkStream(s.ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Publish appends a request to the stream. Both fresh API submissions and
// scheduler redeliveries go through here.
func (s *RequestStream) Publish(req *models.MatchRequest) error {
	return s.rdb.XAdd(s.ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{requestField: *req},
	}).Err()
}

// Fetch reads the next batch for this consumer, blocking briefly when the
// stream is idle. Messages that cannot be decoded are acknowledged and
// skipped; a malformed entry must not wedge the consumer.
func (s *RequestStream) Fetch(ctx context.Context) ([]Delivery, error) {
	cursor := ">"
	block := time.Second
	if s.readPending {
		cursor = "0"
		block = 0
	}

	res, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, cursor},
		Count:    16,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		s.readPending = false
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var deliveries []Delivery
	for _, stream := range res {
		for _, msg := range stream.Messages {
			raw, ok := msg.Values[requestField].(string)
			if !ok {
				logger.Warn("Dropping stream entry without request payload", "id", msg.ID)
				_ = s.Ack(msg.ID)
				continue
			}
			var req models.MatchRequest
			if err := req.UnmarshalBinary([]byte(raw)); err != nil {
				logger.Warn("Dropping undecodable stream entry", "id", msg.ID, "error", err)
				_ = s.Ack(msg.ID)
				continue
			}
			deliveries = append(deliveries, Delivery{ID: msg.ID, Request: req})
		}
	}

	if s.readPending && len(deliveries) == 0 {
		s.readPending = false
	}
	return deliveries, nil
}

// Ack marks a delivery as fully handled so it is never redelivered.
func (s *RequestStream) Ack(id string) error {
	return s.rdb.XAck(s.ctx, s.stream, s.group, id).Err()
}
