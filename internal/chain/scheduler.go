package chain

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Handle — непрозрачная ссылка на цепочку, которую Scheduler
// re-invoke'ит позже. Цепочка реализует Handle сама.
type Handle interface {
	// ID возвращает идентификатор цепочки.
	ID() uuid.UUID

	// RunScheduledUnit выполняет один запланированный шаг.
	// runID — непрозрачный идентификатор этого вызова (для observability).
	RunScheduledUnit(ctx context.Context, runID uuid.UUID)

	// IsPending проверяет, что цепочка ещё не завершена.
	IsPending() bool
}

// Scheduler — внешний планировщик шагов.
//
// ScheduleNext обязан гарантировать eventual, однократный,
// не-reentrant вызов RunScheduledUnit на переданном Handle.
// Цепочка рассчитана на вызов один раз на запланированную единицу,
// но никогда конкурентно для одного экземпляра.
type Scheduler interface {
	ScheduleNext(ctx context.Context, h Handle) error
}

// GoScheduler — планировщик на горутинах для встраиваемого
// использования: каждая запланированная единица выполняется
// в отдельной горутине с новым run ID.
type GoScheduler struct {
	wg sync.WaitGroup
}

// NewGoScheduler создаёт новый GoScheduler.
func NewGoScheduler() *GoScheduler {
	return &GoScheduler{}
}

// ScheduleNext запускает следующий шаг асинхронно.
//
// Единица выполняется с контекстом, отвязанным от отмены вызывающего:
// вызывающий возвращается сразу (например, HTTP-хендлер), и отмена его
// контекста не должна обрывать уже запланированные шаги. Values
// контекста сохраняются.
func (s *GoScheduler) ScheduleNext(ctx context.Context, h Handle) error {
	unitCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		h.RunScheduledUnit(unitCtx, uuid.New())
	}()
	return nil
}

// Wait блокирует до завершения всех запланированных единиц.
// Используется для graceful shutdown и в тестах.
func (s *GoScheduler) Wait() {
	s.wg.Wait()
}
