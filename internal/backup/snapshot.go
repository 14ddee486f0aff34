package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"photoaudit/internal/cleanup"
)

// Snapshot is the JSON export of one run.
type Snapshot struct {
	RunID     string             `json:"runId"`
	ProfileID string             `json:"profileId"`
	Mode      string             `json:"mode"`
	CreatedAt string             `json:"createdAt"`
	Documents []SnapshotDocument `json:"documents"`
}

// SnapshotDocument is one candidate as exported.
type SnapshotDocument struct {
	DocID       string         `json:"docId"`
	StoragePath string         `json:"storagePath,omitempty"`
	BlobSize    int64          `json:"blobSize"`
	SizeKnown   bool           `json:"sizeKnown"`
	Payload     map[string]any `json:"payload"`
}

// WriteSnapshot writes the run's candidates as pretty-printed JSON under dir.
// The file name carries the subject and run id so repeated runs never collide.
func WriteSnapshot(dir string, run Run, candidates []cleanup.Candidate) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	snap := Snapshot{
		RunID:     run.ID,
		ProfileID: run.ProfileID,
		Mode:      run.Mode,
		CreatedAt: run.CreatedAt.UTC().Format(time.RFC3339),
		Documents: make([]SnapshotDocument, 0, len(candidates)),
	}
	for _, cand := range candidates {
		payload := cand.Record.Data
		if payload == nil {
			payload = map[string]any{
				"id":          cand.Record.ID,
				"profileId":   cand.Record.ProfileID,
				"imageUrl":    cand.Record.ImageURL,
				"storagePath": cand.Record.StoragePath,
			}
		}
		snap.Documents = append(snap.Documents, SnapshotDocument{
			DocID:       cand.Record.ID,
			StoragePath: cand.Path,
			BlobSize:    cand.Size,
			SizeKnown:   cand.SizeKnown,
			Payload:     payload,
		})
	}

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	name := fmt.Sprintf("cleanup-%s-%s.json", run.ProfileID, run.ID)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
