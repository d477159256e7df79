package clientio

import (
	"context"
	"fmt"

	"github.com/ews-platform/ews-consensus/internal/readmodel"
)

// EWSServiceClient queries the Scoring service's read model over HTTP
// (EWS_SERVICE_URL, §6) for a patient's current PatientReadModel. None of
// the service binaries constructs one.
type EWSServiceClient struct {
	c *Client
}

func NewEWSServiceClient(baseURL string) *EWSServiceClient {
	return &EWSServiceClient{c: New(baseURL)}
}

func (c *EWSServiceClient) LatestForPatient(ctx context.Context, patientID string) (readmodel.PatientReadModel, error) {
	var m readmodel.PatientReadModel
	err := c.c.GetJSON(ctx, fmt.Sprintf("/api/query/patient/%s/latest", patientID), &m)
	return m, err
}
