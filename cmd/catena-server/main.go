// Catena Server — оркестратор последовательных цепочек.
//
// Сервер:
//   - Загружает декларативные pipeline'ы из каталога
//   - Запускает их по HTTP API и по расписанию
//   - Шаги цепочек планируются через RabbitMQ (dispatcher)
//   - Терминальные исходы журналируются в PostgreSQL
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Catena/internal/api"
	"github.com/shaiso/Catena/internal/chain"
	"github.com/shaiso/Catena/internal/dispatch"
	"github.com/shaiso/Catena/internal/mq"
	"github.com/shaiso/Catena/internal/pipeline"
	"github.com/shaiso/Catena/internal/repo"
	"github.com/shaiso/Catena/internal/scheduler"
	"github.com/shaiso/Catena/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting catena-server")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool — журнал исполнений. Без базы сервер работает,
	// но исходы не журналируются.
	var store pipeline.ExecutionStore
	var executions api.Executions
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Warn("database not available, execution journal disabled", "error", err)
	} else {
		defer pool.Close()
		logger.Info("database connected")
		execRepo := repo.NewExecutionRepo(pool)
		store = execRepo
		executions = execRepo
	}

	// RabbitMQ — планирование шагов. Без брокера шаги выполняются
	// in-process горутинами.
	var stepScheduler chain.Scheduler
	var dispatcher *dispatch.Dispatcher
	mqConn, err := mq.NewConnection(mq.ConnectionConfig{
		URL:    os.Getenv("RABBITMQ_URL"),
		Logger: logger,
	})
	if err != nil {
		logger.Warn("RabbitMQ not available, scheduling steps in-process", "error", err)
		stepScheduler = chain.NewGoScheduler()
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Error("failed to setup topology", "error", err)
			os.Exit(1)
		}
		logger.Info("topology declared", "topology", mq.TopologyInfo())

		dispatcher = dispatch.New(dispatch.Config{
			Publisher: mq.NewPublisher(mqConn, logger),
			Conn:      mqConn,
			Logger:    logger,
		})
		if err := dispatcher.Start(ctx); err != nil {
			logger.Error("failed to start dispatcher", "error", err)
			os.Exit(1)
		}
		stepScheduler = dispatcher
	}

	// Launcher + pipelines из каталога
	launcher := pipeline.NewLauncher(pipeline.LauncherConfig{
		Scheduler: stepScheduler,
		Store:     store,
		Logger:    logger,
	})

	pipelinesPath := os.Getenv("PIPELINES_PATH")
	if pipelinesPath == "" {
		pipelinesPath = "./pipelines"
	}

	specs, err := pipeline.LoadDir(pipelinesPath)
	if err != nil {
		logger.Error("failed to load pipelines", "path", pipelinesPath, "error", err)
		os.Exit(1)
	}
	for _, spec := range specs {
		if err := launcher.Register(spec); err != nil {
			logger.Error("failed to register pipeline", "pipeline", spec.Name, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("pipelines loaded", "path", pipelinesPath, "count", len(specs))

	// Cron-планировщик для pipeline'ов с расписанием
	cronSched := scheduler.New(scheduler.Config{
		Launcher: launcher,
		Logger:   logger,
	})
	cronSched.Start(ctx)

	// API handler
	handler := api.NewHandler(api.Config{
		Launcher:   launcher,
		Executions: executions,
		Logger:     logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("SERVER_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	cronSched.Stop()
	if dispatcher != nil {
		dispatcher.Stop()
	}
	if gs, ok := stepScheduler.(*chain.GoScheduler); ok {
		gs.Wait()
	}

	logger.Info("catena-server stopped")
}
