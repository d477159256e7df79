package httpx

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ews-platform/ews-consensus/internal/apperr"
	"github.com/ews-platform/ews-consensus/internal/sensor"
)

// IngestionAPI wires the Ingestion service's command API (§6: POST
// /api/data/sensor, POST /api/data/batch, GET /api/data/patient/{patientId}).
type IngestionAPI struct {
	Engine *sensor.Engine
	Store  sensor.Store
}

func (a *IngestionAPI) Mount(r chi.Router) {
	r.Post("/api/data/sensor", a.postSensor)
	r.Post("/api/data/batch", a.postBatch)
	r.Get("/api/data/patient/{patientId}", a.getPatientConsensus)
}

type sensorReadingRequest struct {
	PatientID  string                 `json:"patientId"`
	SensorType sensor.Type            `json:"sensorType"`
	Value      float64                `json:"value"`
	Unit       string                 `json:"unit,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	NodeID     string                 `json:"nodeId"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

func (req sensorReadingRequest) toReading() sensor.Reading {
	return sensor.Reading{
		PatientID:  req.PatientID,
		SensorType: req.SensorType,
		Value:      req.Value,
		Unit:       req.Unit,
		ObservedAt: req.Timestamp,
		NodeID:     req.NodeID,
		Metadata:   req.Metadata,
	}
}

func (a *IngestionAPI) postSensor(w http.ResponseWriter, r *http.Request) {
	var req sensorReadingRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := a.Engine.Ingest(r.Context(), req.toReading()); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "persisted"})
}

type batchReadingsRequest struct {
	Readings []sensorReadingRequest `json:"readings"`
}

type batchError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

func (a *IngestionAPI) postBatch(w http.ResponseWriter, r *http.Request) {
	var req batchReadingsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if len(req.Readings) == 0 {
		WriteError(w, apperr.Validation("readings must be a non-empty array"))
		return
	}

	var errs []batchError
	persisted := 0
	for i, readingReq := range req.Readings {
		if err := a.Engine.Ingest(r.Context(), readingReq.toReading()); err != nil {
			errs = append(errs, batchError{Index: i, Error: err.Error()})
			continue
		}
		persisted++
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"persisted": persisted,
		"errors":    errs,
	})
}

func (a *IngestionAPI) getPatientConsensus(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientId")
	q := r.URL.Query()

	from, to, err := parseTimeRange(q)
	if err != nil {
		WriteError(w, err)
		return
	}

	var sensorType *sensor.Type
	if raw := q.Get("sensorType"); raw != "" {
		t := sensor.Type(raw)
		sensorType = &t
	}

	results, err := a.Store.ConsensusForPatient(r.Context(), patientID, from, to, sensorType)
	if err != nil {
		WriteError(w, err)
		return
	}
	if len(results) == 0 {
		WriteError(w, apperr.NotFound("no sensor consensus found for patient"))
		return
	}
	WriteJSON(w, http.StatusOK, results)
}

// parseTimeRange parses optional ISO-8601 from/to query parameters (§6).
func parseTimeRange(q url.Values) (from, to *time.Time, err error) {
	if raw := q.Get("from"); raw != "" {
		t, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return nil, nil, apperr.Validation("from must be an ISO 8601 timestamp")
		}
		from = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return nil, nil, apperr.Validation("to must be an ISO 8601 timestamp")
		}
		to = &t
	}
	return from, to, nil
}
