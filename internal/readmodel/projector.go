package readmodel

import (
	"context"

	kitlog "github.com/go-kit/kit/log"

	"github.com/ews-platform/ews-consensus/internal/apperr"
	"github.com/ews-platform/ews-consensus/internal/dispatch"
	"github.com/ews-platform/ews-consensus/internal/metrics"
	"github.com/ews-platform/ews-consensus/internal/scoreevent"
)

// AlertHandler is invoked after a ScoreConsensus has been projected, handing
// the consensus onward to alert classification (C7). It is not invoked for a
// duplicate consensusId or for a consensus older than the one already applied.
type AlertHandler func(ctx context.Context, c scoreevent.Consensus) error

// Projector is the read-model half of C5 (§4.5).
type Projector struct {
	store      Store
	dispatcher *dispatch.Dispatcher
	onApplied  AlertHandler
	logger     kitlog.Logger
}

// NewProjector builds a projector. A per-patient dispatcher shard serialises
// concurrent consensus applications for the same patient, satisfying the
// §5/§9 monotonicity requirement without an explicit row lock.
func NewProjector(store Store, shardCount int, onApplied AlertHandler, logger kitlog.Logger) *Projector {
	return &Projector{
		store:      store,
		dispatcher: dispatch.New(shardCount),
		onApplied:  onApplied,
		logger:     logger,
	}
}

func (p *Projector) Shutdown() { p.dispatcher.Shutdown() }

// Apply is wired as the Score Consensus Engine's ConsensusHandler.
func (p *Projector) Apply(ctx context.Context, c scoreevent.Consensus) error {
	var outerErr error
	p.dispatcher.Do(c.PatientID, func() {
		outerErr = p.apply(ctx, c)
	})
	return outerErr
}

func (p *Projector) apply(ctx context.Context, c scoreevent.Consensus) error {
	existing, found, err := p.store.Get(ctx, c.PatientID)
	if err != nil {
		return apperr.Storage("failed to load patient read model", err)
	}

	if found && existing.LastAppliedConsensusID == c.ConsensusID {
		metrics.ReadModelIdempotentSkips.Inc()
		return nil
	}
	if found && c.ConsensusAt.Before(existing.LastUpdated) {
		// Out-of-order arrival of an older consensus: the newer consensusAt
		// already applied wins (§5 monotonicity).
		p.logger.Log("msg", "dropping stale score consensus", "patientId", c.PatientID, "consensusAt", c.ConsensusAt)
		return nil
	}

	model := existing
	model.PatientID = c.PatientID
	model.CurrentScore = c.ConsensusScore
	model.ClinicalRisk = c.ClinicalRisk
	model.LastUpdated = c.ConsensusAt
	model.LastAppliedConsensusID = c.ConsensusID

	// §4.4 tie-break: authoritative vitals/components come from the
	// participating event matching the consensus score; preserved untouched
	// when the consensus is invalid.
	if c.Valid {
		authoritative := authoritativeEvent(c)
		model.VitalSigns = authoritative.VitalSigns
		model.ScoreComponents = authoritative.ScoreComponents
	}

	model.ScoreHistory = appendHistory(model.ScoreHistory, HistoryEntry{
		Timestamp:    c.ConsensusAt,
		Score:        c.ConsensusScore,
		ClinicalRisk: c.ClinicalRisk,
	})

	if err := p.store.Upsert(ctx, model); err != nil {
		return apperr.Storage("failed to persist patient read model", err)
	}
	metrics.ReadModelUpdates.Inc()

	if p.onApplied == nil {
		return nil
	}
	return p.onApplied(ctx, c)
}

// authoritativeEvent picks the participating ScoreEvent whose TotalScore
// equals the consensus score, falling back to the earliest by observedAt
// when no event matches exactly (e.g. method=average, §4.4).
func authoritativeEvent(c scoreevent.Consensus) scoreevent.Event {
	for _, e := range c.NodeScores {
		if e.TotalScore == c.ConsensusScore {
			return e
		}
	}
	first := c.NodeScores[0]
	for _, e := range c.NodeScores[1:] {
		if e.ObservedAt.Before(first.ObservedAt) {
			first = e
		}
	}
	return first
}

// appendHistory pushes entry and truncates to MaxHistory (ring, property 7).
func appendHistory(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	history = append(history, entry)
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	return history
}
