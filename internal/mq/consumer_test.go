package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeAcknowledger records how a delivery was settled.
type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func testConsumer(handlers map[MessageType]Handler) *Consumer {
	return NewConsumer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), ConsumerConfig{
		Queue:    QueueStepsReady,
		Handlers: handlers,
	})
}

func envelope(t *testing.T, msgType MessageType, payload any) []byte {
	t.Helper()
	body, err := json.Marshal(Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return body
}

// --- Settlement Tests ---

func TestConsumer_Settle_Ack(t *testing.T) {
	handled := false
	c := testConsumer(map[MessageType]Handler{
		MessageTypeStepReady: func(ctx context.Context, msg *Message) error {
			handled = true
			return nil
		},
	})

	ack := &fakeAcknowledger{}
	c.settle(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         envelope(t, MessageTypeStepReady, map[string]any{"chain_id": uuid.New().String()}),
	})

	if !handled {
		t.Fatal("handler should run")
	}
	if !ack.acked || ack.nacked {
		t.Error("successful handling should ack the delivery")
	}
}

func TestConsumer_Settle_HandlerError_Requeues(t *testing.T) {
	c := testConsumer(map[MessageType]Handler{
		MessageTypeStepReady: func(ctx context.Context, msg *Message) error {
			return errors.New("transient failure")
		},
	})

	ack := &fakeAcknowledger{}
	c.settle(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         envelope(t, MessageTypeStepReady, nil),
	})

	if !ack.nacked || !ack.requeued {
		t.Error("handler error should nack with requeue")
	}
}

func TestConsumer_Settle_MalformedEnvelope_DeadLetters(t *testing.T) {
	c := testConsumer(map[MessageType]Handler{
		MessageTypeStepReady: func(ctx context.Context, msg *Message) error {
			t.Error("handler should not run for a malformed envelope")
			return nil
		},
	})

	ack := &fakeAcknowledger{}
	c.settle(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte("not json"),
	})

	if !ack.nacked || ack.requeued {
		t.Error("malformed envelope should nack without requeue")
	}
}

func TestConsumer_Settle_UnknownType_DeadLetters(t *testing.T) {
	c := testConsumer(map[MessageType]Handler{
		MessageTypeStepReady: func(ctx context.Context, msg *Message) error {
			t.Error("handler should not run for an unrouted type")
			return nil
		},
	})

	ack := &fakeAcknowledger{}
	c.settle(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         envelope(t, MessageType("chain.unknown"), nil),
	})

	if !ack.nacked || ack.requeued {
		t.Error("unrouted type should nack without requeue")
	}
}

// --- Payload Tests ---

func TestParsePayload(t *testing.T) {
	chainID := uuid.New()
	runID := uuid.New()

	msg := &Message{
		Type: MessageTypeStepReady,
		Payload: map[string]any{
			"chain_id": chainID.String(),
			"run_id":   runID.String(),
		},
	}

	payload, err := ParsePayload[StepReadyPayload](msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.ChainID != chainID || payload.RunID != runID {
		t.Errorf("expected (%s, %s), got (%s, %s)", chainID, runID, payload.ChainID, payload.RunID)
	}
}

func TestParsePayload_Malformed(t *testing.T) {
	msg := &Message{
		Type:    MessageTypeStepReady,
		Payload: map[string]any{"chain_id": "not-a-uuid"},
	}

	if _, err := ParsePayload[StepReadyPayload](msg); err == nil {
		t.Error("expected an error for a malformed payload")
	}
}
