package pipeline

import (
	"fmt"

	"github.com/shaiso/Catena/internal/chain"
)

// Payload — документ, проходящий через шаги pipeline'а.
type Payload = map[string]any

// Builder — фабрика шага по его конфигурации.
type Builder func(config map[string]any) (chain.Step[Payload], error)

// Registry — реестр типов шагов.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry создаёт реестр с типами шагов по умолчанию.
//
// Регистрирует: http, delay, transform.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.Register("http", NewHTTPStep)
	r.Register("delay", NewDelayStep)
	r.Register("transform", NewTransformStep)
	return r
}

// Register добавляет фабрику для типа шага.
func (r *Registry) Register(stepType string, builder Builder) {
	r.builders[stepType] = builder
}

// Has проверяет, зарегистрирован ли тип шага.
func (r *Registry) Has(stepType string) bool {
	_, ok := r.builders[stepType]
	return ok
}

// Build создаёт шаг по описанию.
func (r *Registry) Build(spec StepSpec) (chain.Step[Payload], error) {
	builder, ok := r.builders[spec.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStepType, spec.Type)
	}

	step, err := builder(spec.Config)
	if err != nil {
		return nil, fmt.Errorf("build step %s: %w", spec.Name, err)
	}
	return step, nil
}

// Types возвращает список зарегистрированных типов шагов.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.builders))
	for t := range r.builders {
		types = append(types, t)
	}
	return types
}
