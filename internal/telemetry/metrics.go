package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики Prometheus. Регистрируются в default registry при загрузке
// пакета и экспортируются на /metrics endpoint сервера.
var (
	// ExecutionsStarted — количество запущенных исполнений, по pipeline'ам.
	ExecutionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catena_executions_started_total",
		Help: "Total pipeline executions started",
	}, []string{"pipeline"})

	// ExecutionsFinished — количество завершённых исполнений,
	// по pipeline'ам и итоговому статусу (FULFILLED/REJECTED).
	ExecutionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catena_executions_finished_total",
		Help: "Total pipeline executions finished, by terminal status",
	}, []string{"pipeline", "status"})

	// ExecutionDuration — длительность исполнения от запуска до
	// терминального состояния, в секундах.
	ExecutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catena_execution_duration_seconds",
		Help:    "Pipeline execution duration from start to terminal state",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"pipeline"})

	// ChainRecoveries — количество цепочек, восстановленных
	// обработчиком ошибок.
	ChainRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catena_chain_recoveries_total",
		Help: "Total chains recovered by an error handler",
	})

	// StepsScheduled — количество шагов, отданных планировщику.
	StepsScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catena_steps_scheduled_total",
		Help: "Total step units handed to the scheduler",
	})

	// HTTPRequests — количество HTTP запросов к API, по маршрутам.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catena_http_requests_total",
		Help: "Total HTTP requests handled by the API",
	}, []string{"method", "path"})
)
