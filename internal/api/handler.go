package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Catena/internal/domain"
	"github.com/shaiso/Catena/internal/pipeline"
	"github.com/shaiso/Catena/internal/repo"
)

// Executions — чтение журнала исполнений.
// Реализация: repo.ExecutionRepo.
type Executions interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error)
	List(ctx context.Context, filter repo.ExecutionFilter) ([]domain.Execution, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	launcher   *pipeline.Launcher
	executions Executions
	logger     *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Launcher   *pipeline.Launcher
	Executions Executions
	Logger     *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		launcher:   cfg.Launcher,
		executions: cfg.Executions,
		logger:     cfg.Logger,
	}
}
