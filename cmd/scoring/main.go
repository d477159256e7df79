// Command scoring runs the EWS Scoring & Score-Consensus service: it
// receives complete vitals vectors over HTTP, runs the Score Consensus
// Engine (C3), projects results into the PatientReadModel read model (C5),
// and publishes ScoreConsensus records onto the event bus for the Alert
// service.
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

	"github.com/ews-platform/ews-consensus/internal/config"
	"github.com/ews-platform/ews-consensus/internal/eventbus"
	"github.com/ews-platform/ews-consensus/internal/httpx"
	"github.com/ews-platform/ews-consensus/internal/logging"
	"github.com/ews-platform/ews-consensus/internal/metrics"
	"github.com/ews-platform/ews-consensus/internal/readmodel"
	"github.com/ews-platform/ews-consensus/internal/scoreconsensus"
	"github.com/ews-platform/ews-consensus/internal/scoreevent"
	"github.com/ews-platform/ews-consensus/internal/storemongo"
)

const defaultPort = 8082
const shardCount = 8

func main() {
	v := config.New(defaultPort)
	root := &cobra.Command{
		Use:   "scoring",
		Short: "EWS Scoring & Score-Consensus service",
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
	logger := logging.New("scoring", cfg.LogLevel)

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

	eventStore := storemongo.NewEventStore(db)
	readModelStore := storemongo.NewReadModelStore(db)

	bus := eventbus.New(cfg.AMQPURL, cfg.IsDevelopment(), logging.Sub(logger, "eventbus"))
	addOnShutdown(func() { _ = bus.Close() })

	projector := readmodel.NewProjector(readModelStore, shardCount, publishConsensus(bus, logging.Sub(logger, "readmodel")), logging.Sub(logger, "readmodel"))
	addOnShutdown(projector.Shutdown)

	engine := scoreconsensus.NewEngine(eventStore, shardCount, projector.Apply, logging.Sub(logger, "scoreconsensus"))
	addOnShutdown(engine.Shutdown)

	router := httpx.NewRouter(logger)
	router.Get("/metrics", metrics.Handler().ServeHTTP)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	api := &httpx.ScoringAPI{
		Engine:    engine,
		Events:    eventStore,
		ReadModel: readModelStore,
		Bus:       bus,
		Logger:    logging.Sub(logger, "httpx"),
	}
	api.Mount(router)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: router}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Log("msg", "listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log("msg", "listener stopped", "error", err)
		}
	}()
	addOnShutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		wg.Wait()
	})

	waitForSignal(logger)
	shutdown(onShutdown, logger)
	return nil
}

// publishConsensus builds the projector's AlertHandler: every applied
// ScoreConsensus is published on ews.consensus (§6) for the Alert service
// to classify and raise alerts from (§4.7).
func publishConsensus(bus eventbus.Bus, logger kitlog.Logger) readmodel.AlertHandler {
	return func(ctx context.Context, c scoreevent.Consensus) error {
		body, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if err := bus.Publish(ctx, eventbus.TopicScoreConsensus, c.ConsensusID, body); err != nil {
			logger.Log("msg", "failed to publish score consensus", "consensusId", c.ConsensusID, "error", err)
			return nil // best-effort publish, §7 BusError policy
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
