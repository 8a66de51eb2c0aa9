package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dailyfix/config"
	"dailyfix/internal/audit"
	"dailyfix/internal/fault"
	"dailyfix/internal/ingest"
	"dailyfix/internal/mailsource"
	"dailyfix/internal/mqhandler"
	"dailyfix/internal/notify"
	"dailyfix/internal/priority"
	"dailyfix/internal/repository"
	"dailyfix/internal/scheduler"
	"dailyfix/internal/task"
	"dailyfix/internal/trust"
	"dailyfix/pkg/db"
	"dailyfix/pkg/logger"
	"dailyfix/pkg/mq"
	"dailyfix/pkg/outbox"
	pkgredis "dailyfix/pkg/redis"
	"dailyfix/pkg/util"
)

const dedupTTL = 24 * time.Hour

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Infrastructure.
	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer pool.Close()

	rdb := pkgredis.NewClient(cfg.Redis)
	defer rdb.Close()
	deduper := util.NewDeduper(rdb, dedupTTL, log)

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("MQ publisher initialization failed", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	profileRepo := repository.NewSenderProfileRepository(pool)
	whitelistRepo := repository.NewWhitelistRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)
	interactionRepo := repository.NewInteractionRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	taskRepo := repository.NewTaskRepository(pool, activityRepo, interactionRepo, outboxRepo, log)

	// Domain services.
	registry := trust.NewRegistry(whitelistRepo, profileRepo, log)
	recorder := audit.NewRecorder(activityRepo, interactionRepo, log)
	classifier := buildClassifier(cfg, recorder, log)
	notifier := notify.NewAlertNotifier(publisher, log)
	taskService := task.NewService(taskRepo, userRepo, notifier, buildAssignPolicy(ctx, cfg, userRepo, log), log)

	source, err := mailsource.NewIMAPSource(cfg.IMAP, log)
	if err != nil {
		log.Fatal("IMAP source initialization failed", zap.Error(err))
	}
	defer source.Close()

	coordinator := ingest.NewCoordinator(
		source,
		messageRepo,
		userRepo,
		registry,
		taskService,
		classifier,
		deduper,
		cfg.Sync.Window,
		cfg.Priority.PaceInterval,
		log,
	)

	// On-demand sync consumer.
	consumer, err := mq.NewConsumer(cfg.MQ.URL, "sync.requested.q", "sync.requested", log)
	if err != nil {
		log.Fatal("MQ consumer initialization failed", zap.Error(err))
	}
	defer consumer.Close()

	syncHandler := mqhandler.NewSyncRequestedHandler(coordinator, log)
	consumer.SetHandler(syncHandler.HandleSyncRequested)
	consumer.SetRetryability(fault.Retryable)
	consumer.SetDLQ(publisher)
	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Consumer start failed", zap.Error(err))
		}
	}()

	// Periodic sync scheduler.
	sched := scheduler.New(coordinator, userRepo, cfg.Sync.Interval, cfg.Sync.Parallelism, log)
	go sched.Run(ctx)

	// Outbox dispatcher for task.created events.
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
	go dispatcher.Start(ctx)

	// Metrics endpoint.
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.Server.MetricsPort,
		Handler: promhttp.Handler(),
	}
	go func() {
		log.Info("Metrics endpoint listening", zap.String("port", cfg.Server.MetricsPort))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Metrics server shutdown failed", zap.Error(err))
	}
}

func buildClassifier(cfg *config.Config, interactions priority.InteractionCounter, log *zap.Logger) priority.Classifier {
	switch cfg.Priority.Strategy {
	case "agent":
		client := priority.NewAgentClient(cfg.Agent.URL)
		return priority.NewAgentClassifier(client, log)
	default:
		return priority.NewRuleClassifier(interactions, log)
	}
}

func buildAssignPolicy(ctx context.Context, cfg *config.Config, users *repository.UserRepository, log *zap.Logger) task.AssignPolicy {
	if cfg.Assign.Policy != "admin" {
		return task.AssignToOwner()
	}
	if cfg.Assign.AdminEmail != "" {
		return task.AssignToAdmin(cfg.Assign.AdminEmail)
	}
	// No email configured: route to the first registered admin instead.
	admin, err := users.FirstByRole(ctx, "ADMIN")
	if err != nil {
		log.Warn("Assign policy is admin but no admin user found, falling back to owner", zap.Error(err))
		return task.AssignToOwner()
	}
	return task.AssignToAdmin(admin.Email)
}
