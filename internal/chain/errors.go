package chain

import "errors"

// Ошибки цепочки.
var (
	// ErrResolverMisuse — resolver вызван повторно после resolve/reject.
	ErrResolverMisuse = errors.New("resolver already consumed")

	// ErrUnitPanic — шаг или обработчик завершился паникой.
	ErrUnitPanic = errors.New("unit panicked")

	// ErrScheduleFailed — Scheduler не смог запланировать следующий шаг.
	ErrScheduleFailed = errors.New("failed to schedule next step")
)
