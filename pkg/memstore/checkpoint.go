package memstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"genesisbridge/pkg/logger"
)

const checkpointDir = "checkpoints"

type CheckpointManifest struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Timestamp string   `json:"timestamp"`
	Files     []string `json:"files"`
}

// Checkpoint snapshots the current state files into a new checkpoint
// directory and returns the checkpoint id.
func (s *Store) Checkpoint(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "checkpoint"
	}
	now := s.now()
	id := now.Format("20060102_150405") + "_" + sanitizeLabel(label)

	dir := filepath.Join(s.dir, checkpointDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create checkpoint: %w", err)
	}

	files := s.stateFiles()
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return "", fmt.Errorf("read %s for checkpoint: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return "", fmt.Errorf("copy %s into checkpoint: %w", name, err)
		}
	}

	manifest := CheckpointManifest{
		ID:        id,
		Label:     label,
		Timestamp: now.Format("2006-01-02T15:04:05"),
		Files:     files,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(filepath.Join(dir, "manifest.json"), data); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	logger.InfoCF("memstore", "Checkpoint created", map[string]interface{}{
		"id":    id,
		"files": len(files),
	})
	return id, nil
}

// ListCheckpoints returns manifests for all checkpoints, newest first.
// Directories without a readable manifest are skipped.
func (s *Store) ListCheckpoints() ([]CheckpointManifest, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, checkpointDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var manifests []CheckpointManifest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, checkpointDir, e.Name(), "manifest.json"))
		if err != nil {
			continue
		}
		var m CheckpointManifest
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		manifests = append(manifests, m)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].ID > manifests[j].ID
	})
	return manifests, nil
}

// RestoreCheckpoint copies a checkpoint's state files back over the live
// state. The current memory file is preserved as memory.dat.bak first.
func (s *Store) RestoreCheckpoint(id string) error {
	dir := filepath.Join(s.dir, checkpointDir, id)
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return fmt.Errorf("checkpoint %s not found: %w", id, err)
	}
	var m CheckpointManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("checkpoint %s manifest unreadable: %w", id, err)
	}

	if cur, err := os.ReadFile(filepath.Join(s.dir, memoryFile)); err == nil {
		if err := os.WriteFile(filepath.Join(s.dir, memoryFile+".bak"), cur, 0644); err != nil {
			return fmt.Errorf("back up current memory: %w", err)
		}
	}

	for _, name := range m.Files {
		src, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read checkpoint file %s: %w", name, err)
		}
		if err := writeFileAtomic(filepath.Join(s.dir, name), src); err != nil {
			return fmt.Errorf("restore %s: %w", name, err)
		}
	}

	logger.InfoCF("memstore", "Checkpoint restored", map[string]interface{}{
		"id": id,
	})
	return nil
}

func sanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if len(out) > 40 {
		out = out[:40]
	}
	return out
}
