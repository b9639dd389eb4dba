package domain

// ExecutionStatus — статус исполнения pipeline'а.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → FULFILLED
//	                  ↘ REJECTED
type ExecutionStatus string

const (
	// ExecutionStatusPending — execution создан, но цепочка ещё не запущена.
	ExecutionStatusPending ExecutionStatus = "PENDING"

	// ExecutionStatusRunning — цепочка выполняется.
	ExecutionStatusRunning ExecutionStatus = "RUNNING"

	// ExecutionStatusFulfilled — цепочка завершилась успешно.
	ExecutionStatusFulfilled ExecutionStatus = "FULFILLED"

	// ExecutionStatusRejected — цепочка завершилась с ошибкой.
	ExecutionStatusRejected ExecutionStatus = "REJECTED"
)

// IsTerminal возвращает true, если статус финальный (execution завершён).
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusFulfilled, ExecutionStatusRejected:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление ExecutionStatus.
func (s ExecutionStatus) String() string {
	return string(s)
}
