// Package stats aggregates sweep records into per-combination summaries and
// maintains the JSON manifest that tracks a sweep's lifecycle on disk.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const sweepsDir = "sweeps"

const (
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
)

// SweepManifest is the on-disk lifecycle record of one sweep. RunIndex
// counts completed replicates; a manifest left at in_progress marks a sweep
// eligible for resume, and every resume appends to Interruptions.
type SweepManifest struct {
	ID             string   `json:"id"`
	Notes          string   `json:"notes,omitempty"`
	ProgressFlag   string   `json:"progress_flag"`
	RunIndex       int      `json:"run_index"`
	TotalRuns      int      `json:"total_runs"`
	Seed           int64    `json:"seed"`
	Workers        int      `json:"workers"`
	StartedAtUTC   string   `json:"started_at_utc,omitempty"`
	CompletedAtUTC string   `json:"completed_at_utc,omitempty"`
	Interruptions  []string `json:"interruptions,omitempty"`
	ParamNames     []string `json:"param_names,omitempty"`
}

func WriteSweepManifest(baseDir string, manifest SweepManifest) error {
	if manifest.ID == "" {
		return fmt.Errorf("sweep id is required")
	}
	path := sweepManifestPath(baseDir, manifest.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func ReadSweepManifest(baseDir, id string) (SweepManifest, bool, error) {
	if id == "" {
		return SweepManifest{}, false, fmt.Errorf("sweep id is required")
	}
	path := sweepManifestPath(baseDir, id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return SweepManifest{}, false, nil
		}
		return SweepManifest{}, false, err
	}
	var manifest SweepManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return SweepManifest{}, false, err
	}
	return manifest, true, nil
}

func ListSweepManifests(baseDir string) ([]SweepManifest, error) {
	root := filepath.Join(baseDir, sweepsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []SweepManifest{}, nil
		}
		return nil, err
	}

	manifests := make([]SweepManifest, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, ok, err := ReadSweepManifest(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		manifests = append(manifests, manifest)
	}
	sort.Slice(manifests, func(i, j int) bool {
		switch {
		case manifests[i].StartedAtUTC == manifests[j].StartedAtUTC:
			return manifests[i].ID < manifests[j].ID
		case manifests[i].StartedAtUTC == "":
			return false
		case manifests[j].StartedAtUTC == "":
			return true
		default:
			return manifests[i].StartedAtUTC > manifests[j].StartedAtUTC
		}
	})
	return manifests, nil
}

func sweepManifestPath(baseDir, id string) string {
	return filepath.Join(baseDir, sweepsDir, id, "sweep.json")
}
