package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultPrefetch = 1

// Handler обрабатывает одно сообщение известного типа.
// Non-nil ошибка возвращает сообщение в очередь для повторной доставки.
type Handler func(ctx context.Context, msg *Message) error

// Consumer потребляет очередь и маршрутизирует сообщения по типу.
//
// Политика подтверждений централизована здесь:
//   - битый конверт или неизвестный тип — nack без requeue (уходит в DLQ)
//   - ошибка обработчика — nack с requeue
//   - nil от обработчика — ack
//
// Обработчики сами не трогают подтверждения.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handlers map[MessageType]Handler
	prefetch int

	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	// Queue — очередь для потребления.
	Queue Queue

	// Handlers — обработчики по типу сообщения. Типы без обработчика
	// уходят в DLQ.
	Handlers map[MessageType]Handler

	// Prefetch — окно неподтверждённых доставок (default: 1).
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	return &Consumer{
		conn:     conn,
		logger:   logger,
		queue:    cfg.Queue,
		handlers: cfg.Handlers,
		prefetch: prefetch,
	}
}

// Start запускает цикл потребления. Блокирует до отмены ctx.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		deliveries, err := c.openStream()
		if err != nil {
			c.logger.Error("failed to open consume stream", "queue", c.queue, "error", err)
			if !c.awaitRedial(ctx) {
				return ctx.Err()
			}
			continue
		}

		c.logger.Info("consumer started", "queue", c.queue)

		if err := c.pump(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("delivery stream closed, waiting for redial", "queue", c.queue)
			if !c.awaitRedial(ctx) {
				return ctx.Err()
			}
		}
	}
}

// Stop останавливает consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

// openStream настраивает prefetch и начинает потребление очереди.
func (c *Consumer) openStream() (<-chan amqp.Delivery, error) {
	var deliveries <-chan amqp.Delivery

	err := c.conn.WithChannel(func(ch *amqp.Channel) error {
		if err := ch.Qos(c.prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}

		d, err := ch.Consume(
			string(c.queue),
			"",    // consumer tag (auto-generated)
			false, // auto-ack: подтверждаем после обработки
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("consume %s: %w", c.queue, err)
		}
		deliveries = d
		return nil
	})
	return deliveries, err
}

// awaitRedial ждёт переподключения или отмены ctx.
func (c *Consumer) awaitRedial(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.conn.RedialNotify():
		c.logger.Info("reconnected, resuming consumer", "queue", c.queue)
		return true
	}
}

// pump читает доставки из потока до его закрытия или отмены ctx.
func (c *Consumer) pump(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery stream closed")
			}
			c.settle(ctx, raw)
		}
	}
}

// settle маршрутизирует одну доставку и подтверждает её по исходу.
func (c *Consumer) settle(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("malformed message envelope, dead-lettering",
			"queue", c.queue,
			"error", err,
			"body", string(raw.Body),
		)
		raw.Nack(false, false)
		return
	}

	handler, ok := c.handlers[msg.Type]
	if !ok {
		c.logger.Error("no handler for message type, dead-lettering",
			"queue", c.queue,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		raw.Nack(false, false)
		return
	}

	c.logger.Debug("received message",
		"queue", c.queue,
		"message_id", msg.ID,
		"type", msg.Type,
	)

	if err := handler(ctx, &msg); err != nil {
		c.logger.Error("handler failed, requeueing",
			"queue", c.queue,
			"message_id", msg.ID,
			"type", msg.Type,
			"error", err,
		)
		raw.Nack(false, true)
		return
	}

	raw.Ack(false)
}

// ParsePayload парсит payload сообщения в указанный тип.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	// Payload после Unmarshal конверта — map; прогоняем через JSON заново
	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
