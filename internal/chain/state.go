package chain

// State — состояние цепочки.
//
// Жизненный цикл:
//
//	PENDING → FULFILLED
//	        ↘ REJECTED
//
// Из терминального состояния переходов нет: любая операция,
// которая изменила бы состояние завершённой цепочки, — тихий no-op.
type State string

const (
	// StatePending — цепочка создана или выполняется.
	StatePending State = "PENDING"

	// StateFulfilled — цепочка успешно завершена.
	StateFulfilled State = "FULFILLED"

	// StateRejected — цепочка завершена с ошибкой.
	StateRejected State = "REJECTED"
)

// IsTerminal возвращает true, если состояние финальное.
func (s State) IsTerminal() bool {
	switch s {
	case StateFulfilled, StateRejected:
		return true
	default:
		return false
	}
}
