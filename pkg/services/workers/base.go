package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// BaseWorker pull-consumes a durable JetStream consumer.
type BaseWorker struct {
	name     string
	js       nats.JetStreamContext
	mu       sync.Mutex
	sub      *nats.Subscription
	consumer string
	stream   string
	subject  string
	logger   logrus.FieldLogger
}

func NewBaseWorker(name string, js nats.JetStreamContext, stream, consumer, subject string, logger logrus.FieldLogger) *BaseWorker {
	return &BaseWorker{
		name:     name,
		js:       js,
		consumer: consumer,
		stream:   stream,
		subject:  subject,
		logger:   logger.WithField("worker", name),
	}
}

func (w *BaseWorker) Name() string {
	return w.name
}

func (w *BaseWorker) Stop() error {
	w.mu.Lock()
	sub := w.sub
	w.mu.Unlock()

	if sub != nil {
		return sub.Drain()
	}
	return nil
}

// processMessages fetches batches until ctx is done. Messages the handler
// fails on are nacked for redelivery.
func (w *BaseWorker) processMessages(ctx context.Context, handler func(*nats.Msg) error) error {
	sub, err := w.js.PullSubscribe(w.subject, w.consumer,
		nats.ManualAck(),
		nats.Bind(w.stream, w.consumer),
	)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.sub = sub
	w.mu.Unlock()

	w.logger.WithFields(logrus.Fields{"stream": w.stream, "consumer": w.consumer}).Info("Starting worker")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker stopping")
			return ctx.Err()
		default:
			msgs, err := sub.Fetch(10, nats.MaxWait(2*time.Second))
			if err != nil && !errors.Is(err, nats.ErrTimeout) {
				if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
					return err
				}
				w.logger.WithError(err).Warn("Error fetching messages")
				continue
			}

			for _, msg := range msgs {
				if err := handler(msg); err != nil {
					w.logger.WithError(err).WithField("subject", msg.Subject).Warn("Failed to handle message")
					_ = msg.Nak()
					continue
				}
				if err := msg.Ack(); err != nil {
					w.logger.WithError(err).Warn("Error acknowledging message")
				}
			}
		}
	}
}
