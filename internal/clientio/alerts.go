package clientio

import (
	"context"
	"time"

	"github.com/ews-platform/ews-consensus/internal/alert"
)

// AlertServiceClient raises alerts on the Alert service's HTTP API
// (ALERT_ENGINE_URL / ALERT_SERVICE_URL, §6), as a direct alternative to the
// bus. None of the service binaries constructs one; the Scoring service
// reaches the Alert service over ews.consensus.
type AlertServiceClient struct {
	c *Client
}

func NewAlertServiceClient(baseURL string) *AlertServiceClient {
	return &AlertServiceClient{c: New(baseURL)}
}

type raiseAlertRequest struct {
	PatientID     string    `json:"patientId"`
	SourceService string    `json:"sourceService"`
	AlertType     string    `json:"alertType"`
	AlertSeverity string    `json:"alertSeverity"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

func (c *AlertServiceClient) Raise(ctx context.Context, sourceService string, a alert.Alert) error {
	req := raiseAlertRequest{
		PatientID:     a.PatientID,
		SourceService: sourceService,
		AlertType:     string(a.AlertType),
		AlertSeverity: string(a.AlertSeverity),
		Message:       a.Message,
		Timestamp:     a.ObservedAt,
	}
	return c.c.PostJSON(ctx, "/api/alerts", req, nil)
}
