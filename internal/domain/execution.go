package domain

import (
	"time"

	"github.com/google/uuid"
)

// Execution — журнальная запись одного исполнения pipeline'а.
//
// Execution создаётся когда:
// - Пользователь запускает pipeline вручную (через API/CLI)
// - Scheduler запускает pipeline по расписанию
//
// Запись фиксирует запуск и терминальный исход цепочки (audit trail).
// Она НЕ является состоянием самой цепочки: цепочка живёт в памяти
// и не восстанавливается из базы после рестарта.
type Execution struct {
	// ID — уникальный идентификатор execution.
	// Совпадает с ID цепочки, которая его выполняет.
	ID uuid.UUID `json:"id"`

	// Pipeline — имя pipeline'а, который выполняется.
	Pipeline string `json:"pipeline"`

	// Status — текущий статус исполнения.
	Status ExecutionStatus `json:"status"`

	// Input — начальный payload, переданный при запуске.
	Input map[string]any `json:"input,omitempty"`

	// Output — итоговый payload после FULFILLED.
	Output map[string]any `json:"output,omitempty"`

	// Trigger — источник запуска: "api", "cli", "schedule".
	Trigger string `json:"trigger,omitempty"`

	// StartedAt — время запуска цепочки (когда статус стал RUNNING).
	// Nil, если цепочка ещё не запущена.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время достижения терминального состояния.
	// Nil, если цепочка ещё выполняется.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если исполнение завершилось REJECTED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность исполнения.
// Возвращает 0, если execution ещё не завершён.
func (e *Execution) Duration() time.Duration {
	if e.StartedAt == nil || e.FinishedAt == nil {
		return 0
	}
	return e.FinishedAt.Sub(*e.StartedAt)
}

// IsFinished возвращает true, если execution завершён (в любом статусе).
func (e *Execution) IsFinished() bool {
	return e.Status.IsTerminal()
}

// MarkRunning переводит execution в статус RUNNING.
func (e *Execution) MarkRunning() {
	now := time.Now()
	e.Status = ExecutionStatusRunning
	e.StartedAt = &now
}

// MarkFulfilled переводит execution в статус FULFILLED с итоговым payload.
func (e *Execution) MarkFulfilled(output map[string]any) {
	now := time.Now()
	e.Status = ExecutionStatusFulfilled
	e.FinishedAt = &now
	e.Output = output
}

// MarkRejected переводит execution в статус REJECTED с ошибкой.
func (e *Execution) MarkRejected(err string) {
	now := time.Now()
	e.Status = ExecutionStatusRejected
	e.FinishedAt = &now
	e.Error = err
}
