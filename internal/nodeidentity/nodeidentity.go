// Package nodeidentity persists a stable identifier for this service
// instance across restarts: on first boot generate one and write it down;
// on every later boot read it back.
// The EWS platform needs this because several nodes may run the same
// pipeline concurrently against the same patient, and downstream consensus
// (§4.4) and audit trails (§3 ScoreEvent.nodeId) need a stable tag for
// "which node observed/computed this".
package nodeidentity

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Ensure returns the node ID recorded in <dataDir>/node_id, generating and
// persisting a new one if none exists yet.
func Ensure(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dataDir, "node_id")

	if b, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(b)); id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id), 0o400); err != nil {
		return "", err
	}
	return id, nil
}
