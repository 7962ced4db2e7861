package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/stubs"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

func main() {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("CEILING_ADDR", ":50051")
	v.SetDefault("RISK_ADDR", ":5001")
	v.SetDefault("BANK_ADDR", ":5002")
	v.SetDefault("FUND_ADDR", ":5003")
	v.SetDefault("CALLBACK_URL", "http://localhost:5000/callback")
	v.SetDefault("CALLBACK_SUBJECT", "cheque.verdict")
	v.SetDefault("CALLBACK_DELAY", 2*time.Second)

	if err := telemetry.InitTelemetry("loan-backend-stubs", ""); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Verdicts go over NATS when configured, otherwise to the HTTP callback.
	var sender stubs.Sender = stubs.NewHTTPSender(v.GetString("CALLBACK_URL"))
	if natsURL := v.GetString("NATS_URL"); natsURL != "" {
		nc, err := nats.Connect(natsURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Close()
		sender = stubs.NewNATSSender(nc, v.GetString("CALLBACK_SUBJECT"))
	}

	dispatcher := stubs.NewDispatcher(ctx, sender)
	dispatcher.Delay = v.GetDuration("CALLBACK_DELAY")

	gin.SetMode(gin.ReleaseMode)
	servers := []*http.Server{
		{Addr: v.GetString("RISK_ADDR"), Handler: stubs.NewRiskRouter()},
		{Addr: v.GetString("BANK_ADDR"), Handler: stubs.NewBankRouter(stubs.NewBank(dispatcher))},
		{Addr: v.GetString("FUND_ADDR"), Handler: stubs.NewFundRouter()},
	}
	ceiling := stubs.NewCeilingServer(stubs.DefaultCeiling)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lis, err := net.Listen("tcp", v.GetString("CEILING_ADDR"))
		if err != nil {
			return err
		}
		telemetry.Logger.Info("Ceiling service starting", zap.String("addr", lis.Addr().String()))
		return ceiling.Serve(lis)
	})

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			telemetry.Logger.Info("Backend stub starting", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		ceiling.GracefulStop()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				telemetry.Logger.Error("Backend stub forced to shutdown", zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		telemetry.Logger.Error("Backend stubs stopped with error", zap.Error(err))
	}
	dispatcher.Wait()
}
