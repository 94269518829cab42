package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/Principal/internal/logger"
	"github.com/Strob0t/Principal/internal/port/messagequeue"
)

// Ingress feeds requests published on requests.submit into the dispatch
// queue and announces each accepted one on requests.accepted.
type Ingress struct {
	mq    messagequeue.Queue
	queue *DispatchQueue
}

// NewIngress creates an ingress from mq into queue.
func NewIngress(mq messagequeue.Queue, queue *DispatchQueue) *Ingress {
	return &Ingress{mq: mq, queue: queue}
}

// Start subscribes to requests.submit. The returned function unsubscribes.
func (in *Ingress) Start(ctx context.Context) (func(), error) {
	cancel, err := in.mq.Subscribe(ctx, messagequeue.SubjectRequestSubmit, in.handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", messagequeue.SubjectRequestSubmit, err)
	}
	slog.Info("request ingress started", "subject", messagequeue.SubjectRequestSubmit)
	return cancel, nil
}

// handle returns an error only when the message should be redelivered,
// which is the case for a saturated queue. Requests that can never be
// accepted are logged and acknowledged.
func (in *Ingress) handle(ctx context.Context, _ string, data []byte) error {
	var p messagequeue.RequestSubmitPayload
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("ingress: undecodable request", append(logger.Attrs(ctx), "error", err)...)
		return nil
	}

	ack, err := in.queue.Submit(ctx, &p.Request)
	switch {
	case err == nil:
	case IsRetryable(err):
		return err
	default:
		slog.Warn("ingress: request refused", append(logger.Attrs(ctx), "req_id", p.ID, "error", err)...)
		return nil
	}

	out, _ := json.Marshal(messagequeue.RequestAcceptedPayload{RequestID: ack.RequestID, ProcessingID: ack.ProcessingID})
	if err := in.mq.Publish(ctx, messagequeue.SubjectRequestAccepted, out); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("ingress: publish accepted failed", append(logger.Attrs(ctx), "req_id", ack.RequestID, "error", err)...)
	}
	return nil
}
