package chain

import (
	"context"
	"sync"
)

// Resolver — capability, передаваемая запущенному шагу для сообщения
// результата ровно один раз.
//
// Повторный вызов Resolve или Reject (в любой комбинации) возвращает
// ErrResolverMisuse и не изменяет состояние цепочки: тихая перезапись
// маскировала бы баги в шагах.
type Resolver[P any] interface {
	// Resolve сообщает об успехе шага со значением для следующего шага.
	Resolve(ctx context.Context, value P) error

	// Reject сообщает о неудаче шага.
	Reject(ctx context.Context, err error) error
}

// oneShot — одноразовый guard для resolver'ов.
type oneShot struct {
	mu       sync.Mutex
	consumed bool
}

// tryConsume атомарно помечает guard использованным.
// Возвращает false, если он уже был использован.
func (o *oneShot) tryConsume() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.consumed {
		return false
	}
	o.consumed = true
	return true
}

// stepResolver — resolver обычного шага.
//
// Resolve продолжает цепочку со следующего шага,
// Reject передаёт управление каскаду обработки ошибок.
type stepResolver[P any] struct {
	oneShot
	chain *Chain[P]
}

func newStepResolver[P any](c *Chain[P]) *stepResolver[P] {
	return &stepResolver[P]{chain: c}
}

func (r *stepResolver[P]) Resolve(ctx context.Context, value P) error {
	if !r.tryConsume() {
		return ErrResolverMisuse
	}
	return r.chain.resolveStep(ctx, value)
}

func (r *stepResolver[P]) Reject(ctx context.Context, err error) error {
	if !r.tryConsume() {
		return ErrResolverMisuse
	}
	r.chain.enterErrorHandling(ctx, err)
	return nil
}

// errorResolver — resolver обработчика ошибок.
//
// Цели продолжения отличаются от обычного resolver'а:
// Resolve означает "обработчик восстановился — значение обработчика
// становится итоговым payload, цепочка завершается FULFILLED"
// (упавший шаг и шаги после него не выполняются и не перезапускаются),
// Reject — "восстановление невозможно — финализируем цепочку как
// REJECTED с ошибкой обработчика".
type errorResolver[P any] struct {
	oneShot
	chain *Chain[P]
}

func newErrorResolver[P any](c *Chain[P]) *errorResolver[P] {
	return &errorResolver[P]{chain: c}
}

func (r *errorResolver[P]) Resolve(ctx context.Context, value P) error {
	if !r.tryConsume() {
		return ErrResolverMisuse
	}
	r.chain.recover(ctx, value)
	return nil
}

func (r *errorResolver[P]) Reject(ctx context.Context, err error) error {
	if !r.tryConsume() {
		return ErrResolverMisuse
	}
	r.chain.finalizeRejected(ctx, err)
	return nil
}
