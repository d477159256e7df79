package scoreconsensus

import (
	"context"
	"time"

	"github.com/google/uuid"

	kitlog "github.com/go-kit/kit/log"

	"github.com/ews-platform/ews-consensus/internal/apperr"
	"github.com/ews-platform/ews-consensus/internal/dispatch"
	"github.com/ews-platform/ews-consensus/internal/metrics"
	"github.com/ews-platform/ews-consensus/internal/news2"
	"github.com/ews-platform/ews-consensus/internal/scoreevent"
)

// ConsensusHandler is invoked with every freshly-persisted ScoreConsensus.
// Typically wired to the read-model projector (C5) and, through it, alert
// classification (C7).
type ConsensusHandler func(ctx context.Context, c scoreevent.Consensus) error

// Engine is the Score Consensus Engine (C3, §4.4).
type Engine struct {
	store       scoreevent.EventStore
	dispatcher  *dispatch.Dispatcher
	onConsensus ConsensusHandler
	logger      kitlog.Logger
}

// NewEngine builds a C3 engine. shardCount serialises per-patient window
// re-evaluation (internal/dispatch), mirroring the C2 engine.
func NewEngine(store scoreevent.EventStore, shardCount int, onConsensus ConsensusHandler, logger kitlog.Logger) *Engine {
	return &Engine{
		store:       store,
		dispatcher:  dispatch.New(shardCount),
		onConsensus: onConsensus,
		logger:      logger,
	}
}

func (e *Engine) Shutdown() { e.dispatcher.Shutdown() }

// Calculate has the completeness.ScoreEmitter signature, stamping the event
// with the current time. The service binaries do not call it: C4 runs in the
// Ingestion service and reaches C3 over HTTP, which lands in CalculateAt.
func (e *Engine) Calculate(ctx context.Context, patientID, nodeID string, vitals news2.VitalSigns, result news2.Result) error {
	_, err := e.CalculateAt(ctx, patientID, nodeID, vitals, result, time.Now(), nil)
	return err
}

// CalculateAt records a ScoreEvent with an explicit observedAt/metadata,
// used by the direct HTTP command path (POST /api/command/calculate-ews,
// §6) where callers may supply their own timestamp.
func (e *Engine) CalculateAt(ctx context.Context, patientID, nodeID string, vitals news2.VitalSigns, result news2.Result, observedAt time.Time, metadata map[string]interface{}) (scoreevent.Event, error) {
	event := scoreevent.Event{
		EventID:         uuid.NewString(),
		PatientID:       patientID,
		NodeID:          nodeID,
		Kind:            scoreevent.EWSCalculated,
		ObservedAt:      observedAt,
		VitalSigns:      vitals,
		ScoreComponents: result.Components,
		TotalScore:      result.TotalScore,
		ClinicalRisk:    result.ClinicalRisk,
		Metadata:        metadata,
	}

	if err := e.store.SaveEvent(ctx, event); err != nil {
		return event, apperr.Storage("failed to persist score event", err)
	}

	var outerErr error
	e.dispatcher.Do(patientID, func() {
		outerErr = e.reevaluate(ctx, event)
	})
	return event, outerErr
}

func (e *Engine) reevaluate(ctx context.Context, trigger scoreevent.Event) error {
	from, to := Window(trigger.ObservedAt)
	candidates, err := e.store.EventsInWindow(ctx, trigger.PatientID, from, to)
	if err != nil {
		return apperr.Storage("failed to fetch window score events", err)
	}

	consensus := Evaluate(trigger, candidates)
	consensus.ConsensusID = uuid.NewString()

	if err := e.store.SaveConsensus(ctx, consensus); err != nil {
		return apperr.Storage("failed to persist score consensus", err)
	}

	metrics.ScoreConsensusOutcomes.WithLabelValues(string(consensus.Method), validLabel(consensus.Valid)).Inc()

	if e.onConsensus == nil {
		return nil
	}
	if err := e.onConsensus(ctx, consensus); err != nil {
		e.logger.Log("msg", "score consensus handler failed", "patientId", consensus.PatientID, "error", err)
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
