package chain

import (
	"sync"

	"github.com/google/uuid"
)

// Context — мутируемый носитель данных одной цепочки.
//
// Содержит:
//   - Payload — последнее успешно полученное значение
//   - LastError — последняя зафиксированная ошибка (после reject)
//   - RunID — идентификатор текущего асинхронного вызова,
//     назначается Scheduler'ом и перезаписывается на каждом re-entry
//
// Payload и LastError никогда не "актуальны" одновременно:
// reject записывает LastError, последующий resolve обработчика
// возвращает владение Payload'у. Старая ошибка из памяти не стирается —
// какое поле авторитетно, решает терминальное состояние цепочки.
type Context[P any] struct {
	mu      sync.RWMutex
	payload P
	lastErr error
	runID   uuid.UUID
}

// Payload возвращает текущее значение.
func (c *Context[P]) Payload() P {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.payload
}

// LastError возвращает последнюю зафиксированную ошибку.
// Nil, пока ни одного reject не было.
func (c *Context[P]) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// RunID возвращает идентификатор текущего асинхронного вызова.
func (c *Context[P]) RunID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runID
}

func (c *Context[P]) setPayload(v P) {
	c.mu.Lock()
	c.payload = v
	c.mu.Unlock()
}

func (c *Context[P]) setLastError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Context[P]) setRunID(id uuid.UUID) {
	c.mu.Lock()
	c.runID = id
	c.mu.Unlock()
}
