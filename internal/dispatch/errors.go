package dispatch

import "errors"

// Ошибки диспетчера.
var (
	// ErrDispatcherStopped — диспетчер остановлен, планирование невозможно.
	ErrDispatcherStopped = errors.New("dispatcher stopped")
)
