package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shaiso/Catena/internal/chain"
	"github.com/shaiso/Catena/internal/mq"
	"github.com/shaiso/Catena/internal/telemetry"
)

// Dispatcher — планировщик шагов поверх RabbitMQ.
//
// Dispatcher — центральный компонент процесса, который:
//   - Принимает запросы планирования от цепочек (chain.Scheduler)
//   - Публикует step.ready с новым RunID на каждый шаг
//   - Потребляет steps.ready и re-enter'ит цепочку по доставке
//   - Держит реестр активных цепочек и вычищает завершённые
type Dispatcher struct {
	publisher *mq.Publisher
	conn      *mq.Connection

	// Active chains — цепочки в процессе выполнения (chainID → handle)
	chains map[uuid.UUID]chain.Handle
	mu     sync.RWMutex

	consumer *mq.Consumer

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Dispatcher.
type Config struct {
	// Publisher — публикация step.ready.
	Publisher *mq.Publisher

	// Conn — соединение для consumer'а.
	Conn *mq.Connection

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Dispatcher.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		publisher: cfg.Publisher,
		conn:      cfg.Conn,
		chains:    make(map[uuid.UUID]chain.Handle),
		logger:    logger,
	}
}

// ScheduleNext реализует chain.Scheduler.
//
// Регистрирует цепочку в активных (если ещё не) и публикует step.ready
// с новым RunID. Сам шаг выполнится, когда consumer получит сообщение.
func (d *Dispatcher) ScheduleNext(ctx context.Context, h chain.Handle) error {
	if d.IsStopped() {
		return ErrDispatcherStopped
	}

	d.register(h)

	runID := uuid.New()
	if err := d.publisher.PublishStepReady(ctx, h.ID(), runID); err != nil {
		return fmt.Errorf("publish step.ready: %w", err)
	}

	telemetry.StepsScheduled.Inc()

	d.logger.Debug("step scheduled",
		"chain_id", h.ID(),
		"run_id", runID,
	)
	return nil
}

// Start запускает consumer очереди steps.ready.
func (d *Dispatcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancelFunc = cancel

	d.logger.Info("starting dispatcher")

	d.consumer = mq.NewConsumer(d.conn, d.logger, mq.ConsumerConfig{
		Queue: mq.QueueStepsReady,
		Handlers: map[mq.MessageType]mq.Handler{
			mq.MessageTypeStepReady: d.handleStepReady,
		},
		Prefetch: 10,
	})

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("step consumer error", "error", err)
		}
	}()

	d.logger.Info("dispatcher started")
	return nil
}

// Stop останавливает Dispatcher.
func (d *Dispatcher) Stop() {
	d.stoppedMu.Lock()
	d.stopped = true
	d.stoppedMu.Unlock()

	d.logger.Info("stopping dispatcher...")

	if d.cancelFunc != nil {
		d.cancelFunc()
	}
	if d.consumer != nil {
		d.consumer.Stop()
	}

	d.wg.Wait()

	d.logger.Info("dispatcher stopped",
		"active_chains", d.ActiveChainsCount(),
	)
}

// IsStopped проверяет, остановлен ли Dispatcher.
func (d *Dispatcher) IsStopped() bool {
	d.stoppedMu.RLock()
	defer d.stoppedMu.RUnlock()
	return d.stopped
}

// handleStepReady обрабатывает событие о готовом к выполнению шаге.
func (d *Dispatcher) handleStepReady(ctx context.Context, msg *mq.Message) error {
	payload, err := mq.ParsePayload[mq.StepReadyPayload](msg)
	if err != nil {
		// Requeue не поможет — подтверждаем и выбрасываем
		d.logger.Error("failed to parse step.ready payload, dropping", "error", err)
		return nil
	}

	logger := telemetry.WithChainID(d.logger, payload.ChainID.String())

	h := d.lookup(payload.ChainID)
	if h == nil {
		// Цепочка завершена или процесс перезапущен — сообщение
		// подтверждаем, перезапускать нечего.
		logger.Debug("step.ready for unknown chain, dropping",
			"run_id", payload.RunID,
		)
		return nil
	}

	logger.Debug("received step.ready event", "run_id", payload.RunID)

	h.RunScheduledUnit(ctx, payload.RunID)

	// Терминальные цепочки вычищаем из реестра
	if !h.IsPending() {
		d.unregister(payload.ChainID)
	}

	return nil
}

// register добавляет цепочку в активные. Повторная регистрация — no-op.
func (d *Dispatcher) register(h chain.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.chains[h.ID()]; exists {
		return
	}
	d.chains[h.ID()] = h
}

// unregister удаляет цепочку из активных.
func (d *Dispatcher) unregister(chainID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.chains, chainID)
}

// lookup возвращает handle активной цепочки или nil.
func (d *Dispatcher) lookup(chainID uuid.UUID) chain.Handle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.chains[chainID]
}

// IsChainActive проверяет, находится ли цепочка в реестре.
func (d *Dispatcher) IsChainActive(chainID uuid.UUID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, exists := d.chains[chainID]
	return exists
}

// ActiveChainsCount возвращает количество активных цепочек.
func (d *Dispatcher) ActiveChainsCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.chains)
}
