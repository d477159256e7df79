// Command ingestion runs the Ingestion & Sensor-Consensus service: it
// accepts SensorReadings over HTTP, runs the Sensor-Value Consensus Engine
// (C2) and the Vital-Completeness Detector (C4), and hands a complete
// vitals vector to the Scoring service over HTTP once C4 is satisfied.
//
// A cobra root command builds the service, wires its subsystems, registers
// shutdown hooks in dependency order, then blocks on a signal.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/ews-platform/ews-consensus/internal/clientio"
	"github.com/ews-platform/ews-consensus/internal/completeness"
	"github.com/ews-platform/ews-consensus/internal/config"
	"github.com/ews-platform/ews-consensus/internal/httpx"
	"github.com/ews-platform/ews-consensus/internal/logging"
	"github.com/ews-platform/ews-consensus/internal/metrics"
	"github.com/ews-platform/ews-consensus/internal/news2"
	"github.com/ews-platform/ews-consensus/internal/nodeidentity"
	"github.com/ews-platform/ews-consensus/internal/sensor"
	"github.com/ews-platform/ews-consensus/internal/storemongo"
)

const defaultPort = 8081
const shardCount = 8

func main() {
	v := config.New(defaultPort)
	root := &cobra.Command{
		Use:   "ingestion",
		Short: "Ingestion & Sensor-Consensus service",
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
	logger := logging.New("ingestion", cfg.LogLevel)

	var onShutdown []func()
	addOnShutdown := func(f func()) { onShutdown = append(onShutdown, f) }

	nodeID, err := nodeidentity.Ensure(dataDir())
	if err != nil {
		return fmt.Errorf("ensure node identity: %w", err)
	}
	logger.Log("msg", "node identity established", "nodeId", nodeID)

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

	sensorStore := storemongo.NewSensorStore(db)
	scoringClient := clientio.NewScoringServiceClient(cfg.EWSServiceURL)

	completenessDetector := completeness.New(sensorStore, nodeID, func(ctx context.Context, patientID, nodeID string, vitals news2.VitalSigns, result news2.Result) error {
		// C4 lives in Ingestion, C3's event store lives in Scoring — a
		// separate deployable service — so the hand-off is the HTTP call
		// named in §6 (EWS_SERVICE_URL), not an in-process call.
		return scoringClient.TriggerCalculate(ctx, patientID, nodeID, vitals, time.Now())
	}, logging.Sub(logger, "completeness"))

	engine := sensor.NewEngine(sensorStore, shardCount, completenessDetector.OnSensorConsensus, logging.Sub(logger, "sensor"))
	addOnShutdown(engine.Shutdown)

	router := httpx.NewRouter(logger)
	router.Get("/metrics", metrics.Handler().ServeHTTP)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	api := &httpx.IngestionAPI{Engine: engine, Store: sensorStore}
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

func dataDir() string {
	if d := os.Getenv("DATA_DIR"); d != "" {
		return d
	}
	return "./data/ingestion"
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
