package pipeline

import (
	"context"
	"maps"

	"github.com/shaiso/Catena/internal/chain"
)

// TransformStep — шаг типа "transform".
//
// Рендерит шаблоны конфигурации против текущего payload и записывает
// результат обратно — трансформация данных между шагами без I/O.
//
// Config:
//   - set (map[string]any): ключи и значения для записи в payload.
//     Строковые значения поддерживают шаблоны.
//   - drop ([]string): ключи для удаления из payload.
type TransformStep struct {
	set  map[string]any
	drop []string
}

// NewTransformStep создаёт transform-шаг.
func NewTransformStep(config map[string]any) (chain.Step[Payload], error) {
	step := &TransformStep{}

	if set, ok := config["set"].(map[string]any); ok {
		step.set = set
	}

	if drop, ok := config["drop"].([]any); ok {
		for _, key := range drop {
			if s, ok := key.(string); ok {
				step.drop = append(step.drop, s)
			}
		}
	}

	return step, nil
}

// Run применяет трансформацию к payload.
func (s *TransformStep) Run(ctx context.Context, input Payload, res chain.Resolver[Payload]) error {
	output := maps.Clone(input)
	if output == nil {
		output = make(Payload)
	}

	for key, val := range s.set {
		rendered, err := RenderValue(val, input)
		if err != nil {
			return err
		}
		output[key] = rendered
	}

	for _, key := range s.drop {
		delete(output, key)
	}

	return res.Resolve(ctx, output)
}
