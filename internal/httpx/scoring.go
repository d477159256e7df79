package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	kitlog "github.com/go-kit/kit/log"

	"github.com/ews-platform/ews-consensus/internal/apperr"
	"github.com/ews-platform/ews-consensus/internal/eventbus"
	"github.com/ews-platform/ews-consensus/internal/news2"
	"github.com/ews-platform/ews-consensus/internal/readmodel"
	"github.com/ews-platform/ews-consensus/internal/scoreconsensus"
	"github.com/ews-platform/ews-consensus/internal/scoreevent"
)

// ScoringAPI wires the Scoring service's command/query API (§6). Bus is
// optional; when set, every persisted ScoreEvent is published on
// ews.calculated for any downstream listener beyond the Alert service
// (which instead listens on ews.consensus via the read-model projector's
// AlertHandler, §6).
type ScoringAPI struct {
	Engine    *scoreconsensus.Engine
	Events    scoreevent.EventStore
	ReadModel readmodel.Store
	Bus       eventbus.Bus
	Logger    kitlog.Logger
}

func (a *ScoringAPI) Mount(r chi.Router) {
	r.Post("/api/command/calculate-ews", a.postCalculate)
	r.Post("/api/command/batch-calculate-ews", a.postBatchCalculate)
	r.Get("/api/query/patient/{patientId}/latest", a.getLatest)
	r.Get("/api/query/patient/{patientId}/history", a.getHistory)
	r.Get("/api/query/consensus/{consensusId}", a.getConsensus)
	r.Get("/api/query/events", a.getEvents)
	r.Get("/api/query/stats/overview", a.getStatsOverview)
	r.Get("/api/query/high-risk-patients", a.getHighRisk)
}

type vitalSignsRequest struct {
	RespiratoryRate  float64             `json:"respiratoryRate"`
	OxygenSaturation float64             `json:"oxygenSaturation"`
	Temperature      float64             `json:"temperature"`
	SystolicBP       float64             `json:"systolicBp"`
	HeartRate        float64             `json:"heartRate"`
	Consciousness    news2.Consciousness `json:"consciousness"`
}

func (v vitalSignsRequest) toVitalSigns() news2.VitalSigns {
	return news2.VitalSigns{
		RespiratoryRate:  v.RespiratoryRate,
		OxygenSaturation: v.OxygenSaturation,
		Temperature:      v.Temperature,
		SystolicBP:       v.SystolicBP,
		HeartRate:        v.HeartRate,
		Consciousness:    v.Consciousness,
	}
}

type calculateRequest struct {
	PatientID  string                 `json:"patientId"`
	NodeID     string                 `json:"nodeId"`
	VitalSigns vitalSignsRequest      `json:"vitalSigns"`
	Timestamp  *time.Time             `json:"timestamp,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

func (a *ScoringAPI) postCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	event, err := a.doCalculate(r.Context(), req)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"eventId":      event.EventID,
		"totalScore":   event.TotalScore,
		"clinicalRisk": event.ClinicalRisk,
	})
}

type batchCalculateRequest struct {
	Calculations []calculateRequest `json:"calculations"`
}

func (a *ScoringAPI) postBatchCalculate(w http.ResponseWriter, r *http.Request) {
	var req batchCalculateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if len(req.Calculations) == 0 {
		WriteError(w, apperr.Validation("calculations must be a non-empty array"))
		return
	}

	var results []map[string]interface{}
	var errs []batchError
	for i, calc := range req.Calculations {
		event, err := a.doCalculate(r.Context(), calc)
		if err != nil {
			errs = append(errs, batchError{Index: i, Error: err.Error()})
			continue
		}
		results = append(results, map[string]interface{}{
			"eventId":      event.EventID,
			"totalScore":   event.TotalScore,
			"clinicalRisk": event.ClinicalRisk,
		})
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"results": results,
		"errors":  errs,
	})
}

// doCalculate scores vitals via the pure NEWS2 function (C1) and, on
// success, hands the result to the score-consensus engine (C3) for
// persistence and window re-evaluation.
func (a *ScoringAPI) doCalculate(ctx context.Context, req calculateRequest) (scoreevent.Event, error) {
	if req.PatientID == "" {
		return scoreevent.Event{}, apperr.Validation("patientId is required")
	}
	if req.NodeID == "" {
		return scoreevent.Event{}, apperr.Validation("nodeId is required")
	}

	vitals := req.VitalSigns.toVitalSigns()
	result, err := news2.Score(vitals)
	if err != nil {
		return scoreevent.Event{}, apperr.Validation(err.Error())
	}

	observedAt := time.Now()
	if req.Timestamp != nil {
		observedAt = *req.Timestamp
	}
	event, err := a.Engine.CalculateAt(ctx, req.PatientID, req.NodeID, vitals, result, observedAt, req.Metadata)
	if err != nil {
		return scoreevent.Event{}, err
	}
	a.publishEvent(ctx, event)
	return event, nil
}

func (a *ScoringAPI) publishEvent(ctx context.Context, event scoreevent.Event) {
	if a.Bus == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := a.Bus.Publish(ctx, eventbus.TopicScoreCalculated, event.EventID, body); err != nil && a.Logger != nil {
		a.Logger.Log("msg", "failed to publish score event", "eventId", event.EventID, "error", err)
	}
}

func (a *ScoringAPI) getLatest(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientId")
	m, found, err := a.ReadModel.Get(r.Context(), patientID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !found {
		WriteError(w, apperr.NotFound("no read model found for patient"))
		return
	}
	WriteJSON(w, http.StatusOK, m)
}

func (a *ScoringAPI) getHistory(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientId")
	m, found, err := a.ReadModel.Get(r.Context(), patientID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !found {
		WriteError(w, apperr.NotFound("no read model found for patient"))
		return
	}

	q := r.URL.Query()
	limit := 20
	if raw := q.Get("limit"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil || parsed <= 0 {
			WriteError(w, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	from, to, err := parseTimeRange(q)
	if err != nil {
		WriteError(w, err)
		return
	}

	history := m.ScoreHistory
	if from != nil || to != nil {
		var filtered []readmodel.HistoryEntry
		for _, h := range history {
			if from != nil && h.Timestamp.Before(*from) {
				continue
			}
			if to != nil && h.Timestamp.After(*to) {
				continue
			}
			filtered = append(filtered, h)
		}
		history = filtered
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	WriteJSON(w, http.StatusOK, history)
}

func (a *ScoringAPI) getConsensus(w http.ResponseWriter, r *http.Request) {
	consensusID := chi.URLParam(r, "consensusId")
	c, found, err := a.Events.ConsensusByID(r.Context(), consensusID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !found {
		WriteError(w, apperr.NotFound("consensus not found"))
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (a *ScoringAPI) getEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := parseTimeRange(q)
	if err != nil {
		WriteError(w, err)
		return
	}

	filter := scoreevent.EventFilter{
		PatientID: q.Get("patientId"),
		Kind:      scoreevent.Kind(q.Get("eventType")),
		From:      from,
		To:        to,
	}
	if raw := q.Get("limit"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil || parsed <= 0 {
			WriteError(w, apperr.Validation("limit must be a positive integer"))
			return
		}
		filter.Limit = parsed
	}

	events, err := a.Events.QueryEvents(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, events)
}

func (a *ScoringAPI) getStatsOverview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minScore := 5
	if raw := q.Get("minScore"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			minScore = parsed
		}
	}
	highRisk, err := a.ReadModel.HighRisk(r.Context(), minScore)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"highRiskPatientCount": len(highRisk),
		"minScore":             minScore,
	})
}

func (a *ScoringAPI) getHighRisk(w http.ResponseWriter, r *http.Request) {
	minScore := 5
	if raw := r.URL.Query().Get("minScore"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			WriteError(w, apperr.Validation("minScore must be an integer"))
			return
		}
		minScore = parsed
	}
	patients, err := a.ReadModel.HighRisk(r.Context(), minScore)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, patients)
}
