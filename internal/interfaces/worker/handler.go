// Package worker adapts the standardization service to the Kafka request
// topic: it decodes requests, standardizes them and publishes the results.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/molstandardizer/internal/application/standardization"
	"github.com/turtacn/molstandardizer/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/pkg/errors"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

// Message outcomes reported to metrics.
const (
	OutcomeInvalid = "invalid"
	OutcomeRetry   = "retry"
)

// ResultPublisher publishes standardization results.
type ResultPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}, headers map[string]string) error
}

// Metrics is the part of the worker metrics the handler records.
type Metrics interface {
	RecordMessage(topic, outcome string, d time.Duration)
	TrackInFlight(source string) func()
}

// Handler standardizes one request message per call.
type Handler struct {
	svc         standardization.Service
	publisher   ResultPublisher
	resultTopic string
	metrics     Metrics
	logger      logging.Logger
}

// NewHandler creates a handler that publishes to resultTopic.
func NewHandler(svc standardization.Service, publisher ResultPublisher, resultTopic string, metrics Metrics, log logging.Logger) (*Handler, error) {
	if svc == nil {
		return nil, errors.InvalidParam("standardization service is required")
	}
	if publisher == nil {
		return nil, errors.InvalidParam("result publisher is required")
	}
	if resultTopic == "" {
		return nil, errors.InvalidParam("result topic is required")
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Handler{svc: svc, publisher: publisher, resultTopic: resultTopic, metrics: metrics, logger: log}, nil
}

// Handle satisfies kafka.MessageHandler.  Undecodable and invalid requests
// fail permanently; infrastructure failures are returned for retry.  A
// record that timed out or crashed the pipeline is published with status
// "error" since retrying it would fail the same way.
func (h *Handler) Handle(ctx context.Context, msg *kafka.Message) error {
	start := time.Now()
	done := h.metrics.TrackInFlight("kafka")
	defer done()

	outcome, err := h.handle(ctx, msg)
	h.metrics.RecordMessage(msg.Topic, outcome, time.Since(start))
	return err
}

func (h *Handler) handle(ctx context.Context, msg *kafka.Message) (string, error) {
	req, err := DecodeRequest(msg)
	if err != nil {
		h.logger.Warn("undecodable standardize request",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		return OutcomeInvalid, err
	}

	res, err := h.svc.StandardizeRecord(ctx, req)
	if err != nil {
		switch {
		case res == nil:
			return OutcomeInvalid, err
		case ctx.Err() != nil || !isRecordFailure(err):
			return OutcomeRetry, err
		}
		h.logger.Warn("record failed", logging.String("id", res.ID), logging.Err(err))
	}

	headers := map[string]string{
		kafka.HeaderRequestID: res.ID,
		kafka.HeaderStatus:    string(res.Status),
	}
	if err := h.publisher.PublishJSON(ctx, h.resultTopic, res.ID, res, headers); err != nil {
		return OutcomeRetry, err
	}
	h.logger.Debug("result published",
		logging.String("id", res.ID),
		logging.String("status", string(res.Status)),
		logging.Bool("cached", res.Cached))
	return string(res.Status), nil
}

// DecodeRequest reads a JSON request from msg.  A request without an id
// takes the request_id header, then the message key.
func DecodeRequest(msg *kafka.Message) (*dto.StandardizeRequest, error) {
	var req dto.StandardizeRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding standardize request")
	}
	if req.ID == "" {
		req.ID = msg.Headers[kafka.HeaderRequestID]
	}
	if req.ID == "" {
		req.ID = string(msg.Key)
	}
	return &req, nil
}

func isRecordFailure(err error) bool {
	return errors.IsCode(err, errors.ErrCodeTimeout) || errors.IsCode(err, errors.ErrCodeInternal)
}

type nopMetrics struct{}

func (nopMetrics) RecordMessage(string, string, time.Duration) {}
func (nopMetrics) TrackInFlight(string) func()                 { return func() {} }
