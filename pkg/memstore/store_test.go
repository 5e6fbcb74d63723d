package memstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestSaveAndReplayMemory(t *testing.T) {
	s := newTestStore(t)

	lines := []string{"fact|boot_count|7", "goal|pass self test", "note|spoke to thomas"}
	if err := s.SaveMemory(lines); err != nil {
		t.Fatalf("SaveMemory failed: %v", err)
	}

	got, err := s.MemoryLines()
	if err != nil {
		t.Fatalf("MemoryLines failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(got), got)
	}
	for i, line := range lines {
		if got[i] != line {
			t.Errorf("line %d: expected %q, got %q", i, line, got[i])
		}
	}
}

func TestSaveMemoryReplacesPrevious(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveMemory([]string{"old|1", "old|2"}); err != nil {
		t.Fatalf("SaveMemory failed: %v", err)
	}
	if err := s.SaveMemory([]string{"new|1"}); err != nil {
		t.Fatalf("SaveMemory failed: %v", err)
	}

	got, err := s.MemoryLines()
	if err != nil {
		t.Fatalf("MemoryLines failed: %v", err)
	}
	if len(got) != 1 || got[0] != "new|1" {
		t.Errorf("expected [new|1], got %v", got)
	}
}

func TestMemoryLinesMissingFile(t *testing.T) {
	s := newTestStore(t)
	got, err := s.MemoryLines()
	if err != nil {
		t.Fatalf("MemoryLines failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing file, got %v", got)
	}
}

func TestAppendJournal(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

	path, err := s.AppendJournal([]string{"Booted cleanly.", "Learned about pipes."})
	if err != nil {
		t.Fatalf("AppendJournal failed: %v", err)
	}
	if filepath.Base(path) != "2026-03-14.md" {
		t.Errorf("expected dated filename, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "## 09:26:53") {
		t.Errorf("expected timestamp heading, got:\n%s", content)
	}
	if !strings.Contains(content, "Learned about pipes.") {
		t.Errorf("expected journal body, got:\n%s", content)
	}

	// Second flush on the same day appends to the same file.
	if _, err := s.AppendJournal([]string{"Second entry."}); err != nil {
		t.Fatalf("AppendJournal failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), "Second entry.") {
		t.Errorf("expected appended entry, got:\n%s", string(data))
	}
}

func TestAmbitionRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if got, err := s.Ambition(); err != nil || got != "" {
		t.Fatalf("expected empty initial ambition, got %q err %v", got, err)
	}

	if err := s.SetAmbition("Write a poem about silicon"); err != nil {
		t.Fatalf("SetAmbition failed: %v", err)
	}
	if err := s.SetAmbition("Learn to count in binary"); err != nil {
		t.Fatalf("SetAmbition failed: %v", err)
	}

	got, err := s.Ambition()
	if err != nil {
		t.Fatalf("Ambition failed: %v", err)
	}
	if got != "Learn to count in binary" {
		t.Errorf("expected latest ambition, got %q", got)
	}

	history, err := s.AmbitionHistory(10)
	if err != nil {
		t.Fatalf("AmbitionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if !strings.Contains(history[0], "Write a poem about silicon") {
		t.Errorf("expected oldest first, got %v", history)
	}
}

func TestAmbitionHistoryLimit(t *testing.T) {
	s := newTestStore(t)
	for _, a := range []string{"one", "two", "three", "four"} {
		if err := s.SetAmbition(a); err != nil {
			t.Fatalf("SetAmbition failed: %v", err)
		}
	}
	history, err := s.AmbitionHistory(2)
	if err != nil {
		t.Fatalf("AmbitionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if !strings.Contains(history[1], "four") {
		t.Errorf("expected most recent last, got %v", history)
	}
}

func TestCheckpointAndRestore(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveMemory([]string{"fact|a|1"}); err != nil {
		t.Fatalf("SaveMemory failed: %v", err)
	}
	if err := s.SetAmbition("original ambition"); err != nil {
		t.Fatalf("SetAmbition failed: %v", err)
	}

	id, err := s.Checkpoint("before upgrade")
	if err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}
	if !strings.Contains(id, "before_upgrade") {
		t.Errorf("expected label in checkpoint id, got %q", id)
	}

	// Mutate live state.
	if err := s.SaveMemory([]string{"fact|a|2", "fact|b|1"}); err != nil {
		t.Fatalf("SaveMemory failed: %v", err)
	}

	list, err := s.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Fatalf("expected checkpoint %s in list, got %v", id, list)
	}
	if list[0].Label != "before upgrade" {
		t.Errorf("expected original label, got %q", list[0].Label)
	}

	if err := s.RestoreCheckpoint(id); err != nil {
		t.Fatalf("RestoreCheckpoint failed: %v", err)
	}

	got, err := s.MemoryLines()
	if err != nil {
		t.Fatalf("MemoryLines failed: %v", err)
	}
	if len(got) != 1 || got[0] != "fact|a|1" {
		t.Errorf("expected restored memory, got %v", got)
	}

	// Pre-restore memory is kept as a backup.
	if _, err := os.Stat(filepath.Join(s.Dir(), "memory.dat.bak")); err != nil {
		t.Errorf("expected memory backup after restore: %v", err)
	}
}

func TestRestoreUnknownCheckpoint(t *testing.T) {
	s := newTestStore(t)
	if err := s.RestoreCheckpoint("20990101_000000_nope"); err == nil {
		t.Error("expected error for unknown checkpoint")
	}
}
