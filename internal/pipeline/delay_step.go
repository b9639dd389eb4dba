package pipeline

import (
	"context"
	"maps"
	"time"

	"github.com/shaiso/Catena/internal/chain"
)

// DelayStep — шаг типа "delay".
//
// Ожидает указанное количество секунд. Поддерживает отмену через context.
//
// Config:
//   - duration_sec (number): длительность задержки в секундах (default: 1)
type DelayStep struct {
	duration time.Duration
}

// NewDelayStep создаёт delay-шаг.
func NewDelayStep(config map[string]any) (chain.Step[Payload], error) {
	durationSec := 1.0
	if val, ok := config["duration_sec"]; ok {
		switch v := val.(type) {
		case float64:
			durationSec = v
		case int:
			durationSec = float64(v)
		}
	}

	if durationSec <= 0 {
		durationSec = 1
	}

	return &DelayStep{
		duration: time.Duration(durationSec * float64(time.Second)),
	}, nil
}

// Run выполняет задержку.
func (s *DelayStep) Run(ctx context.Context, input Payload, res chain.Resolver[Payload]) error {
	select {
	case <-time.After(s.duration):
		output := maps.Clone(input)
		if output == nil {
			output = make(Payload)
		}
		output["delayed_sec"] = s.duration.Seconds()
		return res.Resolve(ctx, output)

	case <-ctx.Done():
		return ctx.Err()
	}
}
