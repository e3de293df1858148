package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tramita/internal/activity"
	activitykafka "tramita/internal/activity/kafka"
	"tramita/internal/notify"
	"tramita/internal/platform/config"
	"tramita/internal/platform/httpserver"
	"tramita/internal/platform/logger"
	"tramita/internal/platform/middleware"
	platformredis "tramita/internal/platform/redis"
	"tramita/internal/process/handler"
	"tramita/internal/process/metrics"
	"tramita/internal/process/service"
	storememory "tramita/internal/process/store/memory"
	storepostgres "tramita/internal/process/store/postgres"
	"tramita/internal/task"
	"tramita/pkg/platform/tx"
)

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		stores   service.Stores
		runner   tx.Runner = tx.PassthroughRunner{}
		taskSvc  *task.Service
		actStore activity.Store
	)

	if cfg.DatabaseURL != "" {
		db, err := storepostgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := storepostgres.Migrate(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}

		stores = service.Stores{
			Processes:     storepostgres.NewProcessStore(db),
			StatusRecords: storepostgres.NewStatusRecordStore(db),
			History:       storepostgres.NewHistoryStore(db),
			Checklist:     storepostgres.NewChecklistStore(db),
			Tasks:         storepostgres.NewTaskStore(db),
			CaseStatuses:  storepostgres.NewCaseStatusStore(db),
			Templates:     storepostgres.NewTemplateStore(db),
			Groups:        storepostgres.NewGroupStore(db),
			AuthTypes:     storepostgres.NewAuthTypeStore(db),
			Users:         storepostgres.NewUserStore(db),
		}
		runner = tx.SQLRunner{DB: db}
		actStore = storepostgres.NewActivityStore(db)
		log.Info("using postgres stores")
	} else {
		stores = service.Stores{
			Processes:     storememory.NewProcessStore(),
			StatusRecords: storememory.NewStatusRecordStore(),
			History:       storememory.NewHistoryStore(),
			Checklist:     storememory.NewChecklistStore(),
			Tasks:         storememory.NewTaskStore(),
			CaseStatuses:  storememory.NewCaseStatusStore(),
			Templates:     storememory.NewTemplateStore(),
			Groups:        storememory.NewGroupStore(),
			AuthTypes:     storememory.NewAuthTypeStore(),
			Users:         storememory.NewUserStore(),
		}
		actStore = activity.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	if cfg.KafkaBrokers != "" {
		kafkaStore, err := activitykafka.New(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafkaStore.Close(flushCtx); err != nil {
				log.Error("kafka flush failed", "error", err)
			}
		}()
		actStore = kafkaStore
		log.Info("activity events publishing to kafka", "topic", cfg.KafkaTopic)
	}

	publisher := activity.NewPublisher(actStore, activity.WithLogger(log), activity.WithAsyncBuffer(256))
	defer publisher.Close()

	var dispatcher notify.Dispatcher = notify.NoopDispatcher{}
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		redisDispatcher := notify.NewRedisDispatcher(redisClient, log, 256)
		defer redisDispatcher.Close()
		dispatcher = redisDispatcher
		log.Info("notifications publishing to redis")
	}

	engine := service.New(stores,
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithActivityPublisher(publisher),
		service.WithNotifier(dispatcher),
		service.WithTxRunner(runner),
	)
	taskSvc = task.NewService(stores.Tasks, stores.Processes, stores.Groups, log)

	auth := middleware.NewAuthenticator(cfg.JWTSigningKey, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireCaller)
		handler.New(engine, log).Routes(r)
		task.NewHandler(taskSvc, log).Routes(r)
	})

	srv := httpserver.New(cfg.Addr, r)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
