package kafka

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/molstandardizer/internal/config"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topic           string
	AutoOffsetReset string
	FetchMaxBytes   int
	RetryConfig     RetryConfig
}

// ConsumerConfigFrom derives consumer settings for the request topic.
func ConsumerConfigFrom(k config.KafkaConfig, w config.WorkerConfig) ConsumerConfig {
	dlq := w.DLQTopic
	if dlq == "" {
		dlq = DeadLetterTopic(w.RequestTopic)
	}
	return ConsumerConfig{
		Brokers:         k.Brokers,
		GroupID:         k.GroupID,
		Topic:           w.RequestTopic,
		AutoOffsetReset: k.AutoOffsetReset,
		RetryConfig: RetryConfig{
			MaxRetries:      w.MaxRetries,
			RetryBackoff:    w.RetryBackoff,
			DeadLetterTopic: dlq,
		},
	}
}

// ConsumerStats is a snapshot of consumer counters.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Failed       int64
	Retried      int64
	DeadLettered int64
	Lag          int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes dead letters.
type Publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
}

// Consumer reads one topic in a consumer group and hands every message to a
// handler.  Failed messages are retried with exponential backoff and then
// published to the dead-letter topic; the offset is committed either way so
// one poisoned record never stalls the partition.
type Consumer struct {
	reader  ReaderInterface
	config  ConsumerConfig
	logger  logging.Logger
	handler MessageHandler
	dlq     Publisher

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed, processed, failed, retried, deadLettered, lag atomic.Int64
}

// NewConsumer creates a consumer.  dlq may be nil, in which case exhausted
// messages are logged and dropped.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, dlq Publisher, logger logging.Logger) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, errors.New(errors.ErrCodeValidation, "handler required")
	}
	if cfg.FetchMaxBytes == 0 {
		cfg.FetchMaxBytes = 10 * 1024 * 1024
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       cfg.FetchMaxBytes,
		MaxWait:        500 * time.Millisecond,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	return newConsumerWithReader(kafka.NewReader(readerCfg), cfg, handler, dlq, logger), nil
}

func newConsumerWithReader(r ReaderInterface, cfg ConsumerConfig, handler MessageHandler, dlq Publisher, logger logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Consumer{reader: r, config: cfg, handler: handler, dlq: dlq, logger: logger}
}

// Start starts the consume loop in the background.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("kafka consumer started",
		logging.String("group", c.config.GroupID),
		logging.String("topic", c.config.Topic))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.consumed.Add(1)
		if m.HighWaterMark > 0 {
			c.lag.Store(m.HighWaterMark - m.Offset - 1)
		}

		msg := &Message{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       m.Key,
			Value:     m.Value,
			Timestamp: m.Time,
			Headers:   make(map[string]string, len(m.Headers)),
		}
		for _, h := range m.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		if err := c.processMessage(ctx, msg); err != nil {
			// Interrupted mid-retry: leave the offset uncommitted so the
			// message is redelivered.
			return
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", logging.Int64("offset", m.Offset), logging.Err(err))
		}
	}
}

// processMessage returns an error only when ctx ends before the message is
// handled or dead-lettered.
func (c *Consumer) processMessage(ctx context.Context, msg *Message) error {
	err := c.handler(ctx, msg)
	if err == nil {
		c.processed.Add(1)
		return nil
	}

	attempts := 1
	if !IsPermanent(err) {
		maxRetries := c.config.RetryConfig.MaxRetries
		backoff := c.config.RetryConfig.RetryBackoff
		if backoff == 0 {
			backoff = time.Second
		}
		maxBackoff := c.config.RetryConfig.MaxRetryBackoff
		if maxBackoff == 0 {
			maxBackoff = 30 * time.Second
		}

		for i := 0; i < maxRetries; i++ {
			c.retried.Add(1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}

			attempts++
			if err = c.handler(ctx, msg); err == nil {
				c.processed.Add(1)
				return nil
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	c.failed.Add(1)
	c.logger.Error("message processing failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", attempts),
		logging.Err(err))
	c.deadLetter(ctx, msg, err, attempts)
	return nil
}

func (c *Consumer) deadLetter(ctx context.Context, msg *Message, cause error, attempts int) {
	if c.dlq == nil || c.config.RetryConfig.DeadLetterTopic == "" {
		return
	}
	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderError] = cause.Error()
	headers[HeaderAttempts] = strconv.Itoa(attempts)

	dl := &ProducerMessage{
		Topic:   c.config.RetryConfig.DeadLetterTopic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
	if err := c.dlq.Publish(ctx, dl); err != nil {
		c.logger.Error("dead-letter publish failed", logging.Err(err))
		return
	}
	c.deadLettered.Add(1)
}

// IsPermanent reports whether err marks a message that can never succeed,
// such as an undecodable payload.  Permanent failures skip the retries.
func IsPermanent(err error) bool {
	return errors.IsCode(err, errors.ErrCodeValidation) || errors.IsCode(err, errors.ErrCodeSerialization)
}

// Stats returns a snapshot of the consumer counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Processed:    c.processed.Load(),
		Failed:       c.failed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
		Lag:          c.lag.Load(),
	}
}

// Running reports whether the consume loop has been started and not closed.
func (c *Consumer) Running() bool {
	return c.running.Load()
}

// Close stops the loop, waits for the in-flight message and closes the
// reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	err := c.reader.Close()
	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

// ValidateConsumerConfig validates configuration.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "GroupID required")
	}
	if cfg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic required")
	}
	if cfg.AutoOffsetReset != "" && cfg.AutoOffsetReset != "earliest" && cfg.AutoOffsetReset != "latest" {
		return errors.New(errors.ErrCodeValidation, "invalid AutoOffsetReset")
	}
	if cfg.RetryConfig.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	return nil
}
