package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/amountcheck"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/cheque"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/fundtransfer"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/riskcheck"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/api"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/config"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/consumer"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/events"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/interfaces"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/lock"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/repository"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/service"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize telemetry
	tracingEndpoint := ""
	if cfg.TracingEnabled {
		tracingEndpoint = cfg.JaegerEndpoint
	}
	if err := telemetry.InitTelemetry("loan-orchestrator", tracingEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Loan Orchestrator")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Request ledger
	var ledger interfaces.LoanLedger
	switch cfg.LedgerBackend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		pg := repository.NewPostgresLedger(db)
		if err := pg.InitDB(); err != nil {
			telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		ledger = pg
	case "memory":
		ledger = repository.NewMemoryLedger()
	default:
		telemetry.Logger.Fatal("Unknown ledger backend", zap.String("backend", cfg.LedgerBackend))
	}

	// Callback lock
	var locker interfaces.Locker = lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient)
	}

	// State change events
	var publisher interfaces.EventPublisher = events.NoopPublisher{}
	if cfg.KafkaBrokers != "" {
		kafkaWriter := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.StateTopic)
		defer kafkaWriter.Close()
		publisher = events.NewKafkaPublisher(kafkaWriter, cfg.PublishTimeout)
	}

	// Backend adapters
	amount, err := amountcheck.Dial(cfg.AmountServiceAddr, cfg.AdapterTimeout)
	if err != nil {
		telemetry.Logger.Fatal("Failed to set up amount check client", zap.Error(err))
	}
	defer amount.Close()

	risk := riskcheck.New(cfg.RiskServiceURL, cfg.AdapterTimeout)
	bank := cheque.New(cfg.BankServiceURL, cfg.AdapterTimeout)
	funds := fundtransfer.New(cfg.FundServiceURL, cfg.AdapterTimeout)

	orchestrator := service.NewOrchestrator(ledger, amount, risk, bank, bank, publisher)
	reconciler := service.NewReconciler(ledger, funds, bank, locker, publisher, cfg.CallbackLockTTL)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(orchestrator, reconciler),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		telemetry.Logger.Info("Loan Orchestrator starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Callback verdicts over NATS
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Close()

		subscriber := consumer.NewCallbackSubscriber(nc, cfg.CallbackSubject, reconciler)
		g.Go(func() error {
			return subscriber.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		telemetry.Logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		telemetry.Logger.Error("Loan Orchestrator stopped with error", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
