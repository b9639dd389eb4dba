package api

import (
	"encoding/json"
	"net/http"
)

// ListPipelines возвращает список зарегистрированных pipeline'ов.
// GET /api/v1/pipelines
func (h *Handler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	specs := h.launcher.List()

	result := make([]PipelineResponse, len(specs))
	for i, spec := range specs {
		result[i] = PipelineFromSpec(spec)
	}

	List(w, result, len(result))
}

// GetPipeline возвращает pipeline по имени.
// GET /api/v1/pipelines/{name}
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		BadRequest(w, "pipeline name is required")
		return
	}

	spec, err := h.launcher.Get(name)
	if HandleStoreError(w, h.logger, err, "pipeline not found") {
		return
	}

	Success(w, PipelineFromSpec(spec))
}

// StartExecution запускает pipeline и возвращает созданный execution.
// POST /api/v1/pipelines/{name}/executions
func (h *Handler) StartExecution(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		BadRequest(w, "pipeline name is required")
		return
	}

	var req StartExecutionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid request body")
			return
		}
	}

	exec, err := h.launcher.Launch(r.Context(), name, req.Input, "api")
	if HandleStoreError(w, h.logger, err, "pipeline not found") {
		return
	}

	Created(w, ExecutionFromDomain(*exec))
}
