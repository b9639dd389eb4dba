package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Catena/internal/domain"
	"github.com/shaiso/Catena/internal/pipeline"
)

// Pipeline DTOs

// StepResponse — описание шага pipeline'а.
type StepResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ScheduleResponse — расписание автозапуска pipeline'а.
type ScheduleResponse struct {
	Cron     string `json:"cron"`
	Timezone string `json:"timezone,omitempty"`
}

// PipelineResponse — ответ с pipeline.
type PipelineResponse struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Steps       []StepResponse    `json:"steps"`
	OnFailure   *StepResponse     `json:"on_failure,omitempty"`
	Schedule    *ScheduleResponse `json:"schedule,omitempty"`
}

// PipelineFromSpec конвертирует pipeline.Spec в PipelineResponse.
func PipelineFromSpec(s *pipeline.Spec) PipelineResponse {
	resp := PipelineResponse{
		Name:        s.Name,
		Description: s.Description,
		Steps:       make([]StepResponse, len(s.Steps)),
	}
	for i, step := range s.Steps {
		resp.Steps[i] = StepResponse{Name: step.Name, Type: step.Type}
	}
	if s.OnFailure != nil {
		resp.OnFailure = &StepResponse{Name: s.OnFailure.Name, Type: s.OnFailure.Type}
	}
	if s.Schedule != nil {
		resp.Schedule = &ScheduleResponse{Cron: s.Schedule.Cron, Timezone: s.Schedule.Timezone}
	}
	return resp
}

// Execution DTOs

// StartExecutionRequest — запрос на запуск pipeline'а.
type StartExecutionRequest struct {
	Input map[string]any `json:"input,omitempty"`
}

// ExecutionResponse — ответ с execution.
type ExecutionResponse struct {
	ID         uuid.UUID      `json:"id"`
	Pipeline   string         `json:"pipeline"`
	Status     string         `json:"status"`
	Input      map[string]any `json:"input,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	Trigger    string         `json:"trigger,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ExecutionFromDomain конвертирует domain.Execution в ExecutionResponse.
func ExecutionFromDomain(e domain.Execution) ExecutionResponse {
	return ExecutionResponse{
		ID:         e.ID,
		Pipeline:   e.Pipeline,
		Status:     string(e.Status),
		Input:      e.Input,
		Output:     e.Output,
		Trigger:    e.Trigger,
		StartedAt:  e.StartedAt,
		FinishedAt: e.FinishedAt,
		Error:      e.Error,
		CreatedAt:  e.CreatedAt,
	}
}
