package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/devsergyo/sales-commissions/pkg/idempotency"
	"github.com/devsergyo/sales-commissions/pkg/logger"
	"github.com/devsergyo/sales-commissions/pkg/mailer"
	"github.com/devsergyo/sales-commissions/pkg/metrics"
)

const (
	ConsumerName = "report-mailer"

	defaultMaxAttempts = 3
	defaultSendTimeout = 30 * time.Second
	defaultAttemptTTL  = 72 * time.Hour
)

// AttemptCounter counts failed sends per task across redeliveries.
type AttemptCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	AttemptKey(scope, taskID string) string
}

type ConsumerParams struct {
	Subscription *gcppubsub.Subscriber
	Idempotency  *idempotency.Manager
	Attempts     AttemptCounter
	Sender       mailer.Sender
	Renderer     *Renderer
	Logger       *logger.Logger
	Metrics      *metrics.MailerMetrics
	MaxAttempts  int
	RetryBackoff time.Duration
	SendTimeout  time.Duration
	AttemptTTL   time.Duration
}

// Consumer drains report envelopes and sends them as email. A failed send is
// redelivered until MaxAttempts failures, then dropped.
type Consumer struct {
	subscription *gcppubsub.Subscriber
	idempotency  *idempotency.Manager
	attempts     AttemptCounter
	sender       mailer.Sender
	renderer     *Renderer
	logg         *logger.Logger
	metrics      *metrics.MailerMetrics
	maxAttempts  int
	retryBackoff time.Duration
	sendTimeout  time.Duration
	attemptTTL   time.Duration
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Idempotency == nil {
		return nil, errors.New("idempotency manager required")
	}
	if params.Attempts == nil {
		return nil, errors.New("attempt counter required")
	}
	if params.Sender == nil {
		return nil, errors.New("mail sender required")
	}
	if params.Renderer == nil {
		return nil, errors.New("email renderer required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	sendTimeout := params.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	attemptTTL := params.AttemptTTL
	if attemptTTL <= 0 {
		attemptTTL = defaultAttemptTTL
	}
	return &Consumer{
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		attempts:     params.Attempts,
		sender:       params.Sender,
		renderer:     params.Renderer,
		logg:         params.Logger,
		metrics:      params.Metrics,
		maxAttempts:  maxAttempts,
		retryBackoff: params.RetryBackoff,
		sendTimeout:  sendTimeout,
		attemptTTL:   attemptTTL,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return errors.New("report email subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		fields := map[string]any{
			"message_id": msg.ID,
			"kind":       msg.Attributes["kind"],
			"task_id":    msg.Attributes["task_id"],
		}
		if msg.DeliveryAttempt != nil {
			fields["delivery_attempt"] = *msg.DeliveryAttempt
		}
		result := c.process(c.logg.WithFields(ctx, fields), msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, data []byte) processResult {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(ctx, "delivery.decode_failed", err)
		c.metrics.IncSend("unknown", metrics.OutcomeDropped)
		return processResult{ack: true}
	}
	kind := string(envelope.Kind)
	ctx = c.logg.WithFields(ctx, map[string]any{
		"task_id":   envelope.TaskID.String(),
		"kind":      kind,
		"recipient": envelope.Recipient,
	})
	if err := envelope.Validate(); err != nil {
		c.logg.Error(ctx, "delivery.invalid_envelope", err)
		c.metrics.IncSend(kind, metrics.OutcomeDropped)
		return processResult{ack: true}
	}

	claimed, err := c.idempotency.Claim(ctx, ConsumerName, envelope.TaskID)
	if err != nil {
		c.logg.Error(ctx, "delivery.idempotency_failed", err)
		return processResult{nack: true}
	}
	if !claimed {
		c.logg.Info(ctx, "delivery.already_handled")
		return processResult{ack: true}
	}

	msg, err := c.renderer.Render(envelope)
	if err != nil {
		c.logg.Error(ctx, "delivery.render_failed", err)
		c.metrics.IncSend(kind, metrics.OutcomeDropped)
		return processResult{ack: true}
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	err = c.sender.Send(sendCtx, msg)
	cancel()
	if err == nil {
		c.metrics.IncSend(kind, metrics.OutcomeSent)
		c.logg.Info(ctx, "delivery.sent")
		return processResult{ack: true}
	}

	return c.handleSendFailure(ctx, envelope, err)
}

func (c *Consumer) handleSendFailure(ctx context.Context, envelope Envelope, sendErr error) processResult {
	kind := string(envelope.Kind)
	if err := c.idempotency.Release(ctx, ConsumerName, envelope.TaskID); err != nil {
		c.logg.Error(ctx, "delivery.release_failed", err)
	}

	key := c.attempts.AttemptKey(ConsumerName, envelope.TaskID.String())
	failures, err := c.attempts.IncrWithTTL(ctx, key, c.attemptTTL)
	if err != nil {
		c.logg.Error(ctx, "delivery.attempt_count_failed", err)
		c.metrics.IncSend(kind, metrics.OutcomeRetried)
		return processResult{nack: true}
	}

	ctx = c.logg.WithField(ctx, "failures", failures)
	if failures >= int64(c.maxAttempts) {
		c.logg.Error(ctx, "delivery.dropped", sendErr)
		c.metrics.IncSend(kind, metrics.OutcomeDropped)
		return processResult{ack: true}
	}

	c.logg.Warn(c.logg.WithField(ctx, "error", sendErr.Error()), "delivery.send_failed")
	c.metrics.IncSend(kind, metrics.OutcomeRetried)
	c.wait(ctx, c.retryBackoff)
	return processResult{nack: true}
}

// wait holds the message before nacking so redelivery honors the retry backoff.
func (c *Consumer) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
