// Command alerts runs the Alert Dispatch service: it consumes
// ScoreConsensus records from the event bus, classifies and prioritises
// them into Alerts (C7), and drives the Notification state machine (C8)
// against matching subscriptions. It also exposes the Alert/Subscription/
// Notification HTTP API (§6).
//
// A cobra root command builds the service, wires its subsystems, registers
// shutdown hooks in dependency order, then blocks on a signal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/ews-platform/ews-consensus/internal/alert"
	"github.com/ews-platform/ews-consensus/internal/config"
	"github.com/ews-platform/ews-consensus/internal/eventbus"
	"github.com/ews-platform/ews-consensus/internal/httpx"
	"github.com/ews-platform/ews-consensus/internal/logging"
	"github.com/ews-platform/ews-consensus/internal/metrics"
	"github.com/ews-platform/ews-consensus/internal/scoreevent"
	"github.com/ews-platform/ews-consensus/internal/storemongo"
)

const defaultPort = 8083

func main() {
	v := config.New(defaultPort)
	root := &cobra.Command{
		Use:   "alerts",
		Short: "Alert Dispatch service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	config.BindFlags(root, v, defaultPort)

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger := logging.New("alerts", cfg.LogLevel)

	var onShutdown []func()
	addOnShutdown := func(f func()) { onShutdown = append(onShutdown, f) }

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := storemongo.Connect(ctx, cfg.MongoURI, "ews")
	cancel()
	if err != nil {
		return err
	}
	addOnShutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(ctx)
	})

	alertStore := storemongo.NewAlertStore(db)
	subscriptionStore := storemongo.NewSubscriptionStore(db)
	notificationStore := storemongo.NewNotificationStore(db)

	channels := []alert.ChannelAdapter{
		alert.NewEmailAdapter(cfg),
		alert.NewWebhookAdapter(),
	}
	dispatcher := alert.NewDispatcher(alertStore, subscriptionStore, notificationStore, channels, logging.Sub(logger, "dispatcher"))

	bus := eventbus.New(cfg.AMQPURL, cfg.IsDevelopment(), logging.Sub(logger, "eventbus"))
	addOnShutdown(func() { _ = bus.Close() })

	subCtx, subCancel := context.WithCancel(context.Background())
	addOnShutdown(subCancel)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bus.Subscribe(subCtx, eventbus.TopicScoreConsensus, consensusHandler(dispatcher, logging.Sub(logger, "consensus"))); err != nil {
			logger.Log("msg", "consensus subscriber stopped", "error", err)
		}
	}()
	addOnShutdown(wg.Wait)

	router := httpx.NewRouter(logger)
	router.Get("/metrics", metrics.Handler().ServeHTTP)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	api := &httpx.AlertAPI{
		Dispatcher:    dispatcher,
		Alerts:        alertStore,
		Subscriptions: subscriptionStore,
		Notifications: notificationStore,
	}
	api.Mount(router)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: router}
	var httpWG sync.WaitGroup
	httpWG.Add(1)
	go func() {
		defer httpWG.Done()
		logger.Log("msg", "listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log("msg", "listener stopped", "error", err)
		}
	}()
	addOnShutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		httpWG.Wait()
	})

	waitForSignal(logger)
	shutdown(onShutdown, logger)
	return nil
}

// consensusHandler classifies every ScoreConsensus delivered on
// ews.consensus (§4.7) and raises a matching alert if one applies. A
// Consensus that classifies to nothing (score < 3, valid) is silently
// acked — no alert is total over that range (§8 property 9 only requires
// totality over invalid ∨ score≥3).
func consensusHandler(dispatcher *alert.Dispatcher, logger kitlog.Logger) eventbus.Handler {
	return func(ctx context.Context, env eventbus.Envelope) error {
		var c scoreevent.Consensus
		if err := json.Unmarshal(env.Body, &c); err != nil {
			logger.Log("msg", "failed to decode score consensus", "error", err)
			return err
		}

		a, applicable := alert.Classify(c)
		if !applicable {
			return nil
		}

		if _, err := dispatcher.Raise(ctx, a); err != nil {
			logger.Log("msg", "failed to raise alert", "patientId", c.PatientID, "error", err)
			return err
		}
		return nil
	}
}

func waitForSignal(logger kitlog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Log("msg", "received signal", "signal", sig.String())
}

func shutdown(hooks []func(), logger kitlog.Logger) {
	logger.Log("msg", "shutting down")
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
	logger.Log("msg", "shutdown complete")
}
