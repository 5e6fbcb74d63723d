// Package memstore persists what the guest asks the bridge to remember across
// reboots: the raw memory dump, journal entries, and the daily ambition. The
// guest's memory lines are opaque to the bridge; they are stored verbatim and
// replayed verbatim.
package memstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"genesisbridge/pkg/logger"
)

const (
	memoryFile          = "memory.dat"
	ambitionFile        = "ambition.txt"
	ambitionHistoryFile = "ambition_history.log"
	journalDir          = "journal"
)

type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) (*Store, error) {
	for _, d := range []string{dir, filepath.Join(dir, journalDir), filepath.Join(dir, checkpointDir)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("create memory directory %s: %w", d, err)
		}
	}
	return &Store{dir: dir, now: time.Now}, nil
}

func (s *Store) Dir() string { return s.dir }

// SaveMemory replaces the persisted memory dump. The guest always dumps its
// full memory between the persist and done tags, so each flush supersedes the
// previous file.
func (s *Store) SaveMemory(lines []string) error {
	data := strings.Join(lines, "\n")
	if data != "" {
		data += "\n"
	}
	if err := writeFileAtomic(filepath.Join(s.dir, memoryFile), []byte(data)); err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	logger.InfoCF("memstore", "Memory persisted", map[string]interface{}{
		"entries": len(lines),
	})
	return nil
}

// MemoryLines returns the persisted dump, one entry per line. A missing file
// is an empty memory, not an error.
func (s *Store) MemoryLines() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, memoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// AppendJournal writes a flushed journal buffer to today's markdown file and
// returns the file path.
func (s *Store) AppendJournal(lines []string) (string, error) {
	now := s.now()
	path := filepath.Join(s.dir, journalDir, now.Format("2006-01-02")+".md")

	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s\n\n", now.Format("15:04:05"))
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return "", fmt.Errorf("append journal: %w", err)
	}
	return path, nil
}

// SetAmbition stores the latest ambition and appends it to the dated history.
func (s *Store) SetAmbition(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := writeFileAtomic(filepath.Join(s.dir, ambitionFile), []byte(text+"\n")); err != nil {
		return fmt.Errorf("save ambition: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, ambitionHistoryFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open ambition history: %w", err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s\t%s\n", s.now().Format(time.RFC3339), text)
	return err
}

// Ambition returns the latest stored ambition, empty if none was ever set.
func (s *Store) Ambition() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, ambitionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// AmbitionHistory returns up to limit most recent history entries, oldest
// first, formatted as "<timestamp> <text>".
func (s *Store) AmbitionHistory(limit int) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, ambitionHistoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entries = append(entries, strings.ReplaceAll(line, "\t", " "))
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// stateFiles lists the files a checkpoint snapshots.
func (s *Store) stateFiles() []string {
	candidates := []string{memoryFile, ambitionFile, ambitionHistoryFile}
	var present []string
	for _, name := range candidates {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			present = append(present, name)
		}
	}
	return present
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
