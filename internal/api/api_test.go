package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Catena/internal/chain"
	"github.com/shaiso/Catena/internal/domain"
	"github.com/shaiso/Catena/internal/pipeline"
	"github.com/shaiso/Catena/internal/repo"
)

// --- Test Helpers ---

type fakeExecutions struct {
	execs map[uuid.UUID]domain.Execution
}

func (f *fakeExecutions) GetByID(_ context.Context, id uuid.UUID) (*domain.Execution, error) {
	exec, ok := f.execs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &exec, nil
}

func (f *fakeExecutions) List(_ context.Context, filter repo.ExecutionFilter) ([]domain.Execution, error) {
	var result []domain.Execution
	for _, exec := range f.execs {
		if filter.Pipeline != "" && exec.Pipeline != filter.Pipeline {
			continue
		}
		if filter.Status != "" && exec.Status != filter.Status {
			continue
		}
		result = append(result, exec)
	}
	return result, nil
}

// inlineScheduler runs the scheduled unit synchronously.
type inlineScheduler struct{}

func (inlineScheduler) ScheduleNext(ctx context.Context, h chain.Handle) error {
	h.RunScheduledUnit(ctx, uuid.New())
	return nil
}

func testServer(t *testing.T) (*httptest.Server, *fakeExecutions) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	launcher := pipeline.NewLauncher(pipeline.LauncherConfig{
		Scheduler: inlineScheduler{},
		Logger:    logger,
	})
	spec := &pipeline.Spec{
		Name:        "greet",
		Description: "test pipeline",
		Steps: []pipeline.StepSpec{
			{Name: "compose", Type: "transform", Config: map[string]any{
				"set": map[string]any{"greeting": "hello, {{.name}}"},
			}},
		},
	}
	if err := launcher.Register(spec); err != nil {
		t.Fatalf("failed to register pipeline: %v", err)
	}

	store := &fakeExecutions{execs: map[uuid.UUID]domain.Execution{}}

	handler := NewHandler(Config{
		Launcher:   launcher,
		Executions: store,
		Logger:     logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func decodeData[T any](t *testing.T, body io.Reader) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.Data
}

// --- Pipeline Endpoint Tests ---

func TestListPipelines(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/pipelines")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	pipelines := decodeData[[]PipelineResponse](t, resp.Body)
	if len(pipelines) != 1 || pipelines[0].Name != "greet" {
		t.Errorf("pipelines = %+v, want [greet]", pipelines)
	}
	if len(pipelines[0].Steps) != 1 || pipelines[0].Steps[0].Type != "transform" {
		t.Errorf("steps = %+v", pipelines[0].Steps)
	}
}

func TestGetPipeline_NotFound(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/pipelines/missing")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStartExecution(t *testing.T) {
	srv, _ := testServer(t)

	body := strings.NewReader(`{"input": {"name": "world"}}`)
	resp, err := http.Post(srv.URL+"/api/v1/pipelines/greet/executions", "application/json", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	exec := decodeData[ExecutionResponse](t, resp.Body)
	if exec.Pipeline != "greet" {
		t.Errorf("pipeline = %q, want %q", exec.Pipeline, "greet")
	}
	if exec.Trigger != "api" {
		t.Errorf("trigger = %q, want %q", exec.Trigger, "api")
	}
	if exec.ID == uuid.Nil {
		t.Error("execution id is empty")
	}
}

func TestStartExecution_UnknownPipeline(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/pipelines/missing/executions", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStartExecution_InvalidBody(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/pipelines/greet/executions", "application/json", strings.NewReader(`{broken`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

// --- Execution Endpoint Tests ---

func TestGetExecution(t *testing.T) {
	srv, store := testServer(t)

	id := uuid.New()
	store.execs[id] = domain.Execution{
		ID:       id,
		Pipeline: "greet",
		Status:   domain.ExecutionStatusFulfilled,
		Output:   map[string]any{"greeting": "hello, world"},
	}

	resp, err := http.Get(srv.URL + "/api/v1/executions/" + id.String())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	exec := decodeData[ExecutionResponse](t, resp.Body)
	if exec.Status != "FULFILLED" {
		t.Errorf("status = %q, want FULFILLED", exec.Status)
	}
	if exec.Output["greeting"] != "hello, world" {
		t.Errorf("output = %v", exec.Output)
	}
}

func TestGetExecution_InvalidID(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/executions/not-a-uuid")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetExecution_NotFound(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/executions/" + uuid.NewString())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetExecution_JournalDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(Config{
		Launcher: pipeline.NewLauncher(pipeline.LauncherConfig{Scheduler: inlineScheduler{}, Logger: logger}),
		Logger:   logger,
	})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/executions/" + uuid.NewString())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error.Code != ErrCodeUnavailable {
		t.Errorf("error code = %q, want %q", body.Error.Code, ErrCodeUnavailable)
	}
}

func TestListExecutions_Filter(t *testing.T) {
	srv, store := testServer(t)

	id1, id2 := uuid.New(), uuid.New()
	store.execs[id1] = domain.Execution{ID: id1, Pipeline: "greet", Status: domain.ExecutionStatusFulfilled}
	store.execs[id2] = domain.Execution{ID: id2, Pipeline: "other", Status: domain.ExecutionStatusRejected}

	resp, err := http.Get(srv.URL + "/api/v1/executions?pipeline=greet")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	execs := decodeData[[]ExecutionResponse](t, resp.Body)
	if len(execs) != 1 || execs[0].Pipeline != "greet" {
		t.Errorf("execs = %+v, want only greet", execs)
	}
}
