package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Catena/internal/domain"
)

// ExecutionRepo — репозиторий журнала исполнений.
type ExecutionRepo struct {
	pool *pgxpool.Pool
}

// NewExecutionRepo создаёт новый ExecutionRepo.
func NewExecutionRepo(pool *pgxpool.Pool) *ExecutionRepo {
	return &ExecutionRepo{pool: pool}
}

// Create создаёт новую запись execution.
func (r *ExecutionRepo) Create(ctx context.Context, exec *domain.Execution) error {
	inputJSON, err := json.Marshal(exec.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}

	query := `
		INSERT INTO executions (id, pipeline, status, input, trigger, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query,
		exec.ID,
		exec.Pipeline,
		exec.Status,
		inputJSON,
		nullString(exec.Trigger),
		exec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// GetByID возвращает execution по ID.
func (r *ExecutionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	query := `
		SELECT id, pipeline, status, input, output, trigger,
		       started_at, finished_at, error, created_at
		FROM executions
		WHERE id = $1
	`
	return scanExecution(r.pool.QueryRow(ctx, query, id))
}

// List возвращает список executions с фильтрацией.
func (r *ExecutionRepo) List(ctx context.Context, filter ExecutionFilter) ([]domain.Execution, error) {
	query := `
		SELECT id, pipeline, status, input, output, trigger,
		       started_at, finished_at, error, created_at
		FROM executions
		WHERE ($1::text IS NULL OR pipeline = $1)
		  AND ($2::text IS NULL OR status = $2::execution_status)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Pipeline),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var execs []domain.Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		execs = append(execs, *exec)
	}
	return execs, rows.Err()
}

// Update обновляет статус, тайминги и исход execution.
func (r *ExecutionRepo) Update(ctx context.Context, exec *domain.Execution) error {
	outputJSON, err := json.Marshal(exec.Output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	query := `
		UPDATE executions
		SET status = $2, output = $3, started_at = $4, finished_at = $5, error = $6
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		exec.ID,
		exec.Status,
		outputJSON,
		exec.StartedAt,
		exec.FinishedAt,
		nullString(exec.Error),
	)
	if err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// ExecutionFilter — параметры фильтрации executions.
type ExecutionFilter struct {
	Pipeline string
	Status   domain.ExecutionStatus
	Limit    int
	Offset   int
}

// scanExecution сканирует одну строку в Execution.
// pgx.Row и pgx.Rows разделяют метод Scan, поэтому хватает одного хелпера.
func scanExecution(row pgx.Row) (*domain.Execution, error) {
	var exec domain.Execution
	var inputJSON, outputJSON []byte
	var trigger *string
	var execError *string

	err := row.Scan(
		&exec.ID,
		&exec.Pipeline,
		&exec.Status,
		&inputJSON,
		&outputJSON,
		&trigger,
		&exec.StartedAt,
		&exec.FinishedAt,
		&execError,
		&exec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan execution: %w", err)
	}

	if inputJSON != nil {
		if err := json.Unmarshal(inputJSON, &exec.Input); err != nil {
			return nil, fmt.Errorf("unmarshal input: %w", err)
		}
	}
	if outputJSON != nil {
		if err := json.Unmarshal(outputJSON, &exec.Output); err != nil {
			return nil, fmt.Errorf("unmarshal output: %w", err)
		}
	}

	if trigger != nil {
		exec.Trigger = *trigger
	}
	if execError != nil {
		exec.Error = *execError
	}

	return &exec, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
