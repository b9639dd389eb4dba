package chain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Step — единица асинхронной работы в цепочке.
//
// Run получает payload предыдущего шага и resolver, через который шаг
// обязан сообщить результат ровно один раз — синхронно внутри Run или
// позже из работы, которую шаг запустил. Возврат non-nil ошибки до
// вызова resolver'а трактуется как неявный Reject с этой ошибкой.
type Step[P any] interface {
	Run(ctx context.Context, input P, res Resolver[P]) error
}

// StepFunc — адаптер функции к интерфейсу Step.
type StepFunc[P any] func(ctx context.Context, input P, res Resolver[P]) error

// Run вызывает f.
func (f StepFunc[P]) Run(ctx context.Context, input P, res Resolver[P]) error {
	return f(ctx, input, res)
}

// ErrorHandler — единица восстановления после reject.
//
// Получает ошибку, текущий payload и error-resolver: Resolve означает
// восстановление (значение обработчика становится итоговым payload),
// Reject — финализацию с новой ошибкой.
// Возврат non-nil ошибки до вызова resolver'а финализирует цепочку
// с ИСХОДНОЙ ошибкой (не с ошибкой обработчика).
type ErrorHandler[P any] interface {
	Run(ctx context.Context, cause error, input P, res Resolver[P]) error
}

// ErrorHandlerFunc — адаптер функции к интерфейсу ErrorHandler.
type ErrorHandlerFunc[P any] func(ctx context.Context, cause error, input P, res Resolver[P]) error

// Run вызывает f.
func (f ErrorHandlerFunc[P]) Run(ctx context.Context, cause error, input P, res Resolver[P]) error {
	return f(ctx, cause, input, res)
}

// Finalizer — завершающая единица очистки.
//
// Вызывается ровно 0 или 1 раз на цепочку, последним действием:
// err == nil при FULFILLED, non-nil при REJECTED. Паники финализатора
// не подавляются — они уходят на границу вызова Scheduler'а.
type Finalizer[P any] func(ctx context.Context, payload P, err error)

// Chain — оркестратор последовательной асинхронной цепочки.
//
// Владеет упорядоченным списком шагов, обработчиками ошибок,
// финализатором, Context'ом и курсором. Создаётся один раз,
// конфигурируется fluent-вызовами Then/Catch/Finally, запускается
// один раз через Execute и затем re-enter'ится Scheduler'ом,
// пока не достигнет терминального состояния.
//
// Инварианты:
//   - Шаги выполняются строго в порядке добавления, по одному,
//     никогда не перекрываясь для одного экземпляра цепочки
//   - Курсор монотонно растёт и никогда не сбрасывается
//   - Цепочка достигает терминального состояния ровно один раз;
//     после этого все re-entrant вызовы — тихие no-op
type Chain[P any] struct {
	id        uuid.UUID
	scheduler Scheduler
	logger    *slog.Logger
	context   *Context[P]

	mu        sync.Mutex
	steps     []Step[P]
	handlers  []ErrorHandler[P]
	finalizer Finalizer[P]
	cursor    int
	state     State
	started   bool

	// scheduledCursor — курсор, для которого планирование уже запрошено.
	// Защищает Execute от двойного планирования одного шага.
	scheduledCursor int
}

// Config — конфигурация Chain.
type Config[P any] struct {
	// Scheduler — внешний планировщик шагов (default: NewGoScheduler()).
	Scheduler Scheduler

	// InitialPayload — начальный payload (вход первого шага).
	InitialPayload P

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// New создаёт новую цепочку в состоянии PENDING.
func New[P any](cfg Config[P]) *Chain[P] {
	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = NewGoScheduler()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Chain[P]{
		id:              uuid.New(),
		scheduler:       scheduler,
		logger:          logger,
		context:         &Context[P]{},
		state:           StatePending,
		scheduledCursor: -1,
	}
	c.context.setPayload(cfg.InitialPayload)
	return c
}

// ID возвращает идентификатор цепочки.
func (c *Chain[P]) ID() uuid.UUID {
	return c.id
}

// Context возвращает Context цепочки.
func (c *Chain[P]) Context() *Context[P] {
	return c.context
}

// State возвращает текущее состояние.
func (c *Chain[P]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsPending проверяет, что цепочка ещё не завершена.
func (c *Chain[P]) IsPending() bool {
	return c.State() == StatePending
}

// IsFulfilled проверяет, что цепочка завершена успешно.
func (c *Chain[P]) IsFulfilled() bool {
	return c.State() == StateFulfilled
}

// IsRejected проверяет, что цепочка завершена с ошибкой.
func (c *Chain[P]) IsRejected() bool {
	return c.State() == StateRejected
}

// Then добавляет шаг в конец цепочки.
// После Execute добавление игнорируется.
func (c *Chain[P]) Then(step Step[P]) *Chain[P] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		c.logger.Warn("step appended after execute, ignored", "chain_id", c.id)
		return c
	}
	c.steps = append(c.steps, step)
	return c
}

// Catch добавляет обработчик ошибок.
// Пробуется только ПЕРВЫЙ зарегистрированный обработчик — осознанная
// политика минимального fan-out, не итерация по всем.
func (c *Chain[P]) Catch(h ErrorHandler[P]) *Chain[P] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		c.logger.Warn("error handler appended after execute, ignored", "chain_id", c.id)
		return c
	}
	c.handlers = append(c.handlers, h)
	return c
}

// Finally устанавливает финализатор (не более одного).
func (c *Chain[P]) Finally(fn Finalizer[P]) *Chain[P] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		c.logger.Warn("finalizer set after execute, ignored", "chain_id", c.id)
		return c
	}
	if c.finalizer != nil {
		c.logger.Warn("finalizer replaced", "chain_id", c.id)
	}
	c.finalizer = fn
	return c
}

// Execute запускает цепочку: просит Scheduler выполнить шаг 0.
//
// Идемпотентен: повторный вызов при уже запрошенном планировании
// текущего курсора — no-op, шаг не планируется дважды. Вызов на
// терминальной цепочке — no-op. Цепочка без шагов сразу переходит
// в FULFILLED с начальным payload.
func (c *Chain[P]) Execute(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return nil
	}
	c.started = true

	if len(c.steps) == 0 {
		c.mu.Unlock()
		c.finalizeFulfilled(ctx)
		return nil
	}

	if c.scheduledCursor >= c.cursor {
		// Планирование для текущего курсора уже запрошено
		c.mu.Unlock()
		return nil
	}
	c.scheduledCursor = c.cursor
	c.mu.Unlock()

	c.logger.Debug("chain started",
		"chain_id", c.id,
		"steps", c.Len(),
	)
	return c.scheduleNext(ctx)
}

// Len возвращает количество шагов.
func (c *Chain[P]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.steps)
}

// RunScheduledUnit выполняет один запланированный шаг.
//
// Вызывается Scheduler'ом (возможно на другом worker'е, возможно
// сильно позже). runID — идентификатор этого асинхронного вызова,
// перезаписывает Context.RunID. Вызов для терминальной цепочки —
// тихий no-op: Scheduler может доставить сообщение уже после
// завершения.
func (c *Chain[P]) RunScheduledUnit(ctx context.Context, runID uuid.UUID) {
	c.mu.Lock()
	if c.state != StatePending || c.cursor >= len(c.steps) {
		c.mu.Unlock()
		return
	}
	step := c.steps[c.cursor]
	cursor := c.cursor
	c.mu.Unlock()

	c.context.setRunID(runID)

	c.logger.Debug("running step",
		"chain_id", c.id,
		"run_id", runID,
		"cursor", cursor,
	)

	res := newStepResolver(c)
	c.invokeStep(ctx, step, res)
}

// invokeStep вызывает шаг и превращает его синхронный сбой
// (ошибка или panic до использования resolver'а) в неявный Reject.
func (c *Chain[P]) invokeStep(ctx context.Context, step Step[P], res *stepResolver[P]) {
	defer func() {
		if r := recover(); r != nil {
			c.implicitReject(ctx, res, fmt.Errorf("%w: %v", ErrUnitPanic, r))
		}
	}()

	if err := step.Run(ctx, c.context.Payload(), res); err != nil {
		c.implicitReject(ctx, res, err)
	}
}

// implicitReject выполняет Reject от имени шага, который не вызвал
// resolver сам. Если resolver уже использован, сбой только логируется —
// состояние цепочки определено первым вызовом.
func (c *Chain[P]) implicitReject(ctx context.Context, res Resolver[P], err error) {
	if rerr := res.Reject(ctx, err); rerr != nil {
		c.logger.Warn("step failed after consuming its resolver",
			"chain_id", c.id,
			"error", err,
		)
	}
}

// resolveStep фиксирует успешный результат шага и продолжает цепочку.
func (c *Chain[P]) resolveStep(ctx context.Context, value P) error {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.context.setPayload(value)
	return c.continueChain(ctx)
}

// continueChain продвигает курсор: планирует следующий шаг
// или финализирует цепочку как FULFILLED.
func (c *Chain[P]) continueChain(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return nil
	}
	c.cursor++

	if c.cursor < len(c.steps) {
		c.scheduledCursor = c.cursor
		c.mu.Unlock()
		return c.scheduleNext(ctx)
	}
	c.mu.Unlock()

	c.finalizeFulfilled(ctx)
	return nil
}

// enterErrorHandling запускает каскад обработки ошибок.
//
// Пробуется только первый обработчик. Если обработчиков нет или сам
// обработчик синхронно падает, цепочка финализируется как REJECTED
// с исходной ошибкой. Упавший шаг не перезапускается: resolve
// обработчика завершает цепочку его значением, оставшиеся шаги
// не выполняются.
func (c *Chain[P]) enterErrorHandling(ctx context.Context, cause error) {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return
	}
	var handler ErrorHandler[P]
	if len(c.handlers) > 0 {
		handler = c.handlers[0]
	}
	c.mu.Unlock()

	c.context.setLastError(cause)

	if handler == nil {
		c.finalizeRejected(ctx, cause)
		return
	}

	c.logger.Debug("running error handler",
		"chain_id", c.id,
		"error", cause,
	)

	res := newErrorResolver(c)
	c.invokeHandler(ctx, handler, res, cause)
}

// recover завершает цепочку после успешного восстановления обработчиком:
// значение обработчика становится итоговым payload, курсор уводится за
// последний шаг (монотонно, без сброса), цепочка финализируется как
// FULFILLED. Шаги после упавшего не выполняются.
func (c *Chain[P]) recover(ctx context.Context, value P) {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return
	}
	c.cursor = len(c.steps)
	c.mu.Unlock()

	c.context.setPayload(value)

	c.logger.Debug("chain recovered by error handler", "chain_id", c.id)

	c.finalizeFulfilled(ctx)
}

// invokeHandler вызывает обработчик ошибок. Синхронный сбой обработчика
// (ошибка или panic до использования resolver'а) финализирует цепочку
// с исходной ошибкой, дальнейшие обработчики не пробуются.
func (c *Chain[P]) invokeHandler(ctx context.Context, h ErrorHandler[P], res *errorResolver[P], cause error) {
	handlerFailed := func(herr error) {
		if !res.tryConsume() {
			c.logger.Warn("error handler failed after consuming its resolver",
				"chain_id", c.id,
				"error", herr,
			)
			return
		}
		c.logger.Warn("error handler failed, rejecting with original error",
			"chain_id", c.id,
			"handler_error", herr,
			"original_error", cause,
		)
		c.finalizeRejected(ctx, cause)
	}

	defer func() {
		if r := recover(); r != nil {
			handlerFailed(fmt.Errorf("%w: %v", ErrUnitPanic, r))
		}
	}()

	if err := h.Run(ctx, cause, c.context.Payload(), res); err != nil {
		handlerFailed(err)
	}
}

// Resolve немедленно завершает цепочку как FULFILLED со значением value.
// На терминальной цепочке — тихий no-op.
func (c *Chain[P]) Resolve(ctx context.Context, value P) {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.context.setPayload(value)
	c.finalizeFulfilled(ctx)
}

// Reject фиксирует ошибку и входит в каскад обработки: при наличии
// обработчика цепочка может восстановиться. На терминальной цепочке —
// тихий no-op.
func (c *Chain[P]) Reject(ctx context.Context, err error) {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.enterErrorHandling(ctx, err)
}

// scheduleNext просит Scheduler выполнить следующий шаг.
// Ошибка планирования оставляет цепочку в PENDING: доставку должен
// повторить транспорт планировщика.
func (c *Chain[P]) scheduleNext(ctx context.Context) error {
	if err := c.scheduler.ScheduleNext(ctx, c); err != nil {
		c.logger.Error("failed to schedule next step",
			"chain_id", c.id,
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrScheduleFailed, err)
	}
	return nil
}

// finalizeFulfilled переводит цепочку в FULFILLED и запускает финализатор.
func (c *Chain[P]) finalizeFulfilled(ctx context.Context) {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return
	}
	c.state = StateFulfilled
	fin := c.finalizer
	c.mu.Unlock()

	c.logger.Debug("chain fulfilled", "chain_id", c.id)

	if fin != nil {
		fin(ctx, c.context.Payload(), nil)
	}
}

// finalizeRejected переводит цепочку в REJECTED и запускает финализатор.
// Паники финализатора не перехватываются.
func (c *Chain[P]) finalizeRejected(ctx context.Context, err error) {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return
	}
	c.state = StateRejected
	fin := c.finalizer
	c.mu.Unlock()

	c.context.setLastError(err)

	c.logger.Warn("chain rejected",
		"chain_id", c.id,
		"error", err,
	)

	if fin != nil {
		fin(ctx, c.context.Payload(), err)
	}
}
