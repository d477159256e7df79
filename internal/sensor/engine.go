package sensor

import (
	"context"
	"fmt"

	kitlog "github.com/go-kit/kit/log"

	"github.com/ews-platform/ews-consensus/internal/apperr"
	"github.com/ews-platform/ews-consensus/internal/dispatch"
	"github.com/ews-platform/ews-consensus/internal/metrics"
)

// ConsensusHandler is invoked with every freshly-persisted, just-computed
// SensorConsensus (whether valid or not — §4.3 decides what to do with
// invalid ones). Typically wired to the completeness detector (C4).
type ConsensusHandler func(ctx context.Context, c Consensus) error

// Engine is the Sensor-Value Consensus Engine (C2, §4.2).
type Engine struct {
	store      Store
	dispatcher *dispatch.Dispatcher
	onConsensus ConsensusHandler
	logger     kitlog.Logger
}

// NewEngine builds a C2 engine. shardCount governs how many goroutines
// serialise per-(patient,sensorType) windowed evaluation (internal/dispatch).
func NewEngine(store Store, shardCount int, onConsensus ConsensusHandler, logger kitlog.Logger) *Engine {
	return &Engine{
		store:       store,
		dispatcher:  dispatch.New(shardCount),
		onConsensus: onConsensus,
		logger:      logger,
	}
}

func (e *Engine) Shutdown() { e.dispatcher.Shutdown() }

func validateReading(r Reading) error {
	if r.PatientID == "" {
		return apperr.Validation("patientId is required")
	}
	if r.SensorType == "" {
		return apperr.Validation("sensorType is required")
	}
	if r.NodeID == "" {
		return apperr.Validation("nodeId is required")
	}
	if r.ObservedAt.IsZero() {
		return apperr.Validation("timestamp is required")
	}
	return nil
}

// Ingest persists a fresh reading and, on success, re-evaluates consensus for
// (patientId, sensorType) over the reading's window, per §4.2. Shard
// serialisation means two readings for the same key never race on the
// window re-evaluation, mirroring §5's per-key ordering requirement for the
// read model (applied here defensively for consensus too — see DESIGN.md).
func (e *Engine) Ingest(ctx context.Context, r Reading) error {
	if err := validateReading(r); err != nil {
		return err
	}

	if err := e.store.SaveReading(ctx, r); err != nil {
		return apperr.Storage("failed to persist sensor reading", err)
	}

	key := fmt.Sprintf("%s|%s", r.PatientID, r.SensorType)
	var outerErr error
	e.dispatcher.Do(key, func() {
		outerErr = e.reevaluate(ctx, r)
	})
	return outerErr
}

func (e *Engine) reevaluate(ctx context.Context, trigger Reading) error {
	from, to := Window(trigger.ObservedAt)
	candidates, err := e.store.ReadingsInWindow(ctx, trigger.PatientID, trigger.SensorType, from, to)
	if err != nil {
		return apperr.Storage("failed to fetch window readings", err)
	}

	consensus := Evaluate(trigger, candidates)

	// Failure semantics (§4.2): storage failures on the consensus record
	// abort emission; the reading itself was already persisted and will be
	// reconsidered on the next reading for this (patient, sensorType).
	if err := e.store.SaveConsensus(ctx, consensus); err != nil {
		return apperr.Storage("failed to persist sensor consensus", err)
	}

	metrics.SensorConsensusOutcomes.WithLabelValues(string(consensus.Method), validLabel(consensus.Valid)).Inc()

	if e.onConsensus == nil {
		return nil
	}
	if err := e.onConsensus(ctx, consensus); err != nil {
		e.logger.Log("msg", "consensus handler failed", "patientId", consensus.PatientID, "sensorType", consensus.SensorType, "error", err)
		return err
	}
	return nil
}

func validLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
