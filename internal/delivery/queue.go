package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/devsergyo/sales-commissions/internal/reports"
	"github.com/devsergyo/sales-commissions/pkg/logger"
)

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubQueue publishes report envelopes to the report email topic.
type PubSubQueue struct {
	pub  publisher
	logg *logger.Logger
	now  func() time.Time
}

var _ reports.Queue = (*PubSubQueue)(nil)

func NewPubSubQueue(p *gcppubsub.Publisher, logg *logger.Logger) (*PubSubQueue, error) {
	if p == nil {
		return nil, errors.New("report email publisher required")
	}
	return newQueue(&gcpPublisher{Publisher: p}, logg)
}

func newQueue(pub publisher, logg *logger.Logger) (*PubSubQueue, error) {
	if pub == nil {
		return nil, errors.New("publisher required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &PubSubQueue{pub: pub, logg: logg, now: time.Now}, nil
}

// Enqueue returns once Pub/Sub acknowledged the message or ctx expired.
func (q *PubSubQueue) Enqueue(ctx context.Context, recipient string, payload reports.Payload) (reports.TaskHandle, error) {
	envelope := Envelope{
		TaskID:     uuid.New(),
		Kind:       payload.Kind,
		Recipient:  recipient,
		EnqueuedAt: q.now().UTC(),
		Report:     payload,
	}
	if err := envelope.Validate(); err != nil {
		return reports.TaskHandle{}, fmt.Errorf("invalid report envelope: %w", err)
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return reports.TaskHandle{}, fmt.Errorf("encode report envelope: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"kind":    string(envelope.Kind),
			"task_id": envelope.TaskID.String(),
		},
	}
	result := q.pub.Publish(ctx, msg)
	if result == nil {
		return reports.TaskHandle{}, errors.New("publisher returned no result")
	}
	messageID, err := result.Get(ctx)
	if err != nil {
		return reports.TaskHandle{}, fmt.Errorf("publish report email: %w", err)
	}

	logCtx := q.logg.WithFields(ctx, map[string]any{
		"task_id":    envelope.TaskID.String(),
		"message_id": messageID,
		"kind":       envelope.Kind,
	})
	q.logg.Debug(logCtx, "delivery.enqueued")
	return reports.TaskHandle{ID: envelope.TaskID.String()}, nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
