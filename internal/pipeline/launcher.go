package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/shaiso/Catena/internal/chain"
	"github.com/shaiso/Catena/internal/domain"
	"github.com/shaiso/Catena/internal/telemetry"
)

// ExecutionStore — журнал исполнений.
// Реализация: repo.ExecutionRepo.
type ExecutionStore interface {
	Create(ctx context.Context, exec *domain.Execution) error
	Update(ctx context.Context, exec *domain.Execution) error
}

// Launcher хранит зарегистрированные pipeline'ы и запускает их.
//
// Launch инстанцирует Spec в chain.Chain[Payload]: шаги — через реестр
// типов, on_failure — как обработчик ошибок цепочки, финализатор —
// запись терминального исхода в журнал.
type Launcher struct {
	registry  *Registry
	scheduler chain.Scheduler
	store     ExecutionStore
	logger    *slog.Logger

	mu    sync.RWMutex
	specs map[string]*Spec
}

// LauncherConfig — конфигурация Launcher.
type LauncherConfig struct {
	// Registry — реестр типов шагов (default: NewRegistry()).
	Registry *Registry

	// Scheduler — планировщик шагов для создаваемых цепочек
	// (default: chain.NewGoScheduler()).
	Scheduler chain.Scheduler

	// Store — журнал исполнений. Nil — исходы не журналируются.
	Store ExecutionStore

	// Logger
	Logger *slog.Logger
}

// NewLauncher создаёт новый Launcher.
func NewLauncher(cfg LauncherConfig) *Launcher {
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = chain.NewGoScheduler()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Launcher{
		registry:  registry,
		scheduler: scheduler,
		store:     cfg.Store,
		logger:    logger,
		specs:     make(map[string]*Spec),
	}
}

// Register валидирует и регистрирует pipeline.
func (l *Launcher) Register(spec *Spec) error {
	if err := spec.Validate(l.registry); err != nil {
		return fmt.Errorf("validate pipeline %s: %w", spec.Name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.specs[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePipeline, spec.Name)
	}
	l.specs[spec.Name] = spec

	l.logger.Info("pipeline registered",
		"pipeline", spec.Name,
		"steps", len(spec.Steps),
		"has_on_failure", spec.OnFailure != nil,
	)
	return nil
}

// Get возвращает зарегистрированный pipeline по имени.
func (l *Launcher) Get(name string) (*Spec, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	spec, ok := l.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPipelineNotFound, name)
	}
	return spec, nil
}

// List возвращает все зарегистрированные pipeline'ы, по имени.
func (l *Launcher) List() []*Spec {
	l.mu.RLock()
	defer l.mu.RUnlock()

	specs := make([]*Spec, 0, len(l.specs))
	for _, spec := range l.specs {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Launch запускает pipeline с начальным payload.
//
// Создаёт запись execution, строит цепочку и отдаёт её планировщику.
// Возвращает сразу после Execute — исход придёт асинхронно и попадёт
// в журнал через финализатор.
func (l *Launcher) Launch(ctx context.Context, name string, input Payload, trigger string) (*domain.Execution, error) {
	spec, err := l.Get(name)
	if err != nil {
		return nil, err
	}

	if input == nil {
		input = make(Payload)
	}

	c := chain.New(chain.Config[Payload]{
		Scheduler:      l.scheduler,
		InitialPayload: input,
		Logger:         telemetry.WithPipeline(l.logger, spec.Name),
	})

	// 1. Шаги — в порядке описания
	for _, stepSpec := range spec.Steps {
		step, err := l.registry.Build(stepSpec)
		if err != nil {
			return nil, err
		}
		c.Then(step)
	}

	// 2. on_failure — обработчик ошибок цепочки
	if spec.OnFailure != nil {
		step, err := l.registry.Build(*spec.OnFailure)
		if err != nil {
			return nil, err
		}
		c.Catch(recoveryHandler{step: step})
	}

	// 3. Запись в журнале
	exec := &domain.Execution{
		ID:        c.ID(),
		Pipeline:  spec.Name,
		Status:    domain.ExecutionStatusPending,
		Input:     input,
		Trigger:   trigger,
		CreatedAt: time.Now(),
	}
	exec.MarkRunning()

	if l.store != nil {
		if err := l.store.Create(ctx, exec); err != nil {
			return nil, fmt.Errorf("create execution: %w", err)
		}
	}

	execLogger := telemetry.WithExecutionID(
		telemetry.WithPipeline(l.logger, spec.Name), exec.ID.String())

	// 4. Финализатор — терминальный исход в журнал и метрики
	c.Finally(l.finalize(exec, c, execLogger))

	telemetry.ExecutionsStarted.WithLabelValues(spec.Name).Inc()

	execLogger.Info("pipeline launched", "trigger", trigger)

	// 5. Первый шаг — планировщику
	if err := c.Execute(ctx); err != nil {
		return exec, fmt.Errorf("execute chain: %w", err)
	}

	return exec, nil
}

// finalize возвращает финализатор цепочки: фиксирует исход в журнале
// и обновляет метрики.
func (l *Launcher) finalize(exec *domain.Execution, c *chain.Chain[Payload], logger *slog.Logger) chain.Finalizer[Payload] {
	return func(ctx context.Context, payload Payload, err error) {
		if err != nil {
			exec.MarkRejected(err.Error())
		} else {
			exec.MarkFulfilled(payload)
			// FULFILLED при наличии lastError — восстановление обработчиком
			if c.Context().LastError() != nil {
				telemetry.ChainRecoveries.Inc()
			}
		}

		telemetry.ExecutionsFinished.WithLabelValues(exec.Pipeline, exec.Status.String()).Inc()
		telemetry.ExecutionDuration.WithLabelValues(exec.Pipeline).Observe(exec.Duration().Seconds())

		if l.store != nil {
			if uerr := l.store.Update(ctx, exec); uerr != nil {
				logger.Error("failed to journal execution outcome", "error", uerr)
			}
		}

		if err != nil {
			logger.Warn("execution rejected",
				"duration", exec.Duration(),
				"error", err,
			)
			return
		}
		logger.Info("execution fulfilled", "duration", exec.Duration())
	}
}

// recoveryHandler адаптирует шаг on_failure к обработчику ошибок цепочки.
// Шаг получает payload с текстом ошибки под ключом "error".
type recoveryHandler struct {
	step chain.Step[Payload]
}

// Run вызывает шаг восстановления.
func (h recoveryHandler) Run(ctx context.Context, cause error, input Payload, res chain.Resolver[Payload]) error {
	enriched := maps.Clone(input)
	if enriched == nil {
		enriched = make(Payload)
	}
	enriched["error"] = cause.Error()

	return h.step.Run(ctx, enriched, res)
}
