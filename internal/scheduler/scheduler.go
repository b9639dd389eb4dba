package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Catena/internal/domain"
	"github.com/shaiso/Catena/internal/pipeline"
)

const defaultTickInterval = time.Second

// Launcher — запуск pipeline'ов по имени.
// Реализация: pipeline.Launcher.
type Launcher interface {
	List() []*pipeline.Spec
	Launch(ctx context.Context, name string, input pipeline.Payload, trigger string) (*domain.Execution, error)
}

// entry — pipeline с расписанием и вычисленным временем запуска.
type entry struct {
	pipeline string
	cronExpr string
	timezone string
	input    map[string]any
	nextDue  time.Time
}

// Scheduler запускает pipeline'ы с расписанием по cron.
type Scheduler struct {
	launcher     Launcher
	logger       *slog.Logger
	tickInterval time.Duration

	mu      sync.Mutex
	entries []*entry

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Scheduler.
type Config struct {
	// Launcher — реестр и запуск pipeline'ов.
	Launcher Launcher

	// TickInterval — интервал проверки расписаний (default: 1s).
	TickInterval time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		launcher:     cfg.Launcher,
		logger:       logger,
		tickInterval: tickInterval,
	}
}

// Reload перечитывает расписания из зарегистрированных pipeline'ов.
//
// Pipeline'ы с невалидным cron-выражением пропускаются с ошибкой в логе.
// Вызывается при старте и может вызываться повторно.
func (s *Scheduler) Reload(now time.Time) {
	var entries []*entry

	for _, spec := range s.launcher.List() {
		if spec.Schedule == nil {
			continue
		}

		next, err := CalculateNext(spec.Schedule.Cron, spec.Schedule.Timezone, now)
		if err != nil {
			s.logger.Error("invalid schedule, skipping pipeline",
				"pipeline", spec.Name,
				"cron", spec.Schedule.Cron,
				"error", err,
			)
			continue
		}

		entries = append(entries, &entry{
			pipeline: spec.Name,
			cronExpr: spec.Schedule.Cron,
			timezone: spec.Schedule.Timezone,
			input:    spec.Schedule.Input,
			nextDue:  next,
		})

		s.logger.Info("schedule registered",
			"pipeline", spec.Name,
			"cron", spec.Schedule.Cron,
			"next_due", next,
		)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

// Start запускает цикл тиков.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	s.Reload(time.Now())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tickLoop(ctx)
	}()

	s.logger.Info("scheduler started",
		"schedules", s.EntriesCount(),
		"tick_interval", s.tickInterval,
	)
}

// Stop останавливает Scheduler.
func (s *Scheduler) Stop() {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// EntriesCount возвращает количество активных расписаний.
func (s *Scheduler) EntriesCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// tickLoop — цикл проверки расписаний.
func (s *Scheduler) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick выполняет один тик планировщика: запускает все due pipeline'ы
// и продвигает их next_due. Ошибка одного расписания не блокирует
// обработку остальных.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	due := s.takeDue(now)

	for _, e := range due {
		if err := s.fire(ctx, e); err != nil {
			s.logger.Error("failed to fire schedule",
				"pipeline", e.pipeline,
				"error", err,
			)
		}
	}
}

// takeDue возвращает due записи, сразу же продвигая их next_due —
// одно время срабатывания запускается не более одного раза.
func (s *Scheduler) takeDue(now time.Time) []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*entry
	for _, e := range s.entries {
		if e.nextDue.After(now) {
			continue
		}

		next, err := CalculateNext(e.cronExpr, e.timezone, now)
		if err != nil {
			// Выражение уже проходило парсинг в Reload
			s.logger.Error("failed to advance schedule",
				"pipeline", e.pipeline,
				"error", err,
			)
			continue
		}
		e.nextDue = next

		due = append(due, e)
	}
	return due
}

// fire запускает один pipeline по расписанию.
func (s *Scheduler) fire(ctx context.Context, e *entry) error {
	exec, err := s.launcher.Launch(ctx, e.pipeline, e.input, "schedule")
	if err != nil {
		return fmt.Errorf("launch %s: %w", e.pipeline, err)
	}

	s.logger.Info("scheduled pipeline launched",
		"pipeline", e.pipeline,
		"execution_id", exec.ID,
		"next_due", e.nextDue,
	)
	return nil
}
