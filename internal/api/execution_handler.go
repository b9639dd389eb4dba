package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Catena/internal/domain"
	"github.com/shaiso/Catena/internal/repo"
)

// ListExecutions возвращает список executions с фильтрацией.
// GET /api/v1/executions?pipeline=...&status=...&limit=...&offset=...
func (h *Handler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	if h.executions == nil {
		Unavailable(w, "execution journal is not available")
		return
	}

	filter := repo.ExecutionFilter{
		Pipeline: r.URL.Query().Get("pipeline"),
		Status:   domain.ExecutionStatus(r.URL.Query().Get("status")),
		Limit:    parseIntParam(r.URL.Query().Get("limit"), 50),
		Offset:   parseIntParam(r.URL.Query().Get("offset"), 0),
	}

	execs, err := h.executions.List(r.Context(), filter)
	if HandleStoreError(w, h.logger, err, "") {
		return
	}

	result := make([]ExecutionResponse, len(execs))
	for i, exec := range execs {
		result[i] = ExecutionFromDomain(exec)
	}

	List(w, result, len(result))
}

// GetExecution возвращает execution по ID.
// GET /api/v1/executions/{id}
func (h *Handler) GetExecution(w http.ResponseWriter, r *http.Request) {
	if h.executions == nil {
		Unavailable(w, "execution journal is not available")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid execution id")
		return
	}

	exec, err := h.executions.GetByID(r.Context(), id)
	if HandleStoreError(w, h.logger, err, "execution not found") {
		return
	}

	Success(w, ExecutionFromDomain(*exec))
}

// parseIntParam парсит строку в int с дефолтным значением.
func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
