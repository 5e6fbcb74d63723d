package usage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAddAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.now = fixedClock(time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC))

	if err := s.Add(Record{Provider: "anthropic", Source: "telegram", PromptTokens: 100, CompletionTokens: 50, UsageKnown: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	recs := reloaded.Query(Filter{})
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].DayKey != "2026-08-30" {
		t.Errorf("day key = %q", recs[0].DayKey)
	}
	if recs[0].TotalTokens != 150 {
		t.Errorf("total tokens = %d, want 150", recs[0].TotalTokens)
	}
}

func TestQueryFilters(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "usage.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.now = fixedClock(time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC))

	mustAdd := func(rec Record) {
		t.Helper()
		if err := s.Add(rec); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	mustAdd(Record{Provider: "anthropic", Source: "telegram", PromptTokens: 10, CompletionTokens: 5, UsageKnown: true})
	mustAdd(Record{Provider: "anthropic", Source: "stream", PromptTokens: 20, CompletionTokens: 5, UsageKnown: true})
	mustAdd(Record{Provider: "openai", Source: "stream", PromptTokens: 30, CompletionTokens: 5, UsageKnown: true})
	mustAdd(Record{Provider: "openai", Source: "stream", DayKey: "2026-08-29", Timestamp: time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC), PromptTokens: 99, CompletionTokens: 1, UsageKnown: true})

	if got := len(s.Query(Filter{Provider: "anthropic"})); got != 2 {
		t.Errorf("anthropic records = %d, want 2", got)
	}
	if got := len(s.Query(Filter{Source: "stream", DayKey: "2026-08-30"})); got != 2 {
		t.Errorf("today stream records = %d, want 2", got)
	}

	agg := s.Today()
	if agg.Calls != 3 {
		t.Errorf("today calls = %d, want 3", agg.Calls)
	}
	if agg.TotalTokens != 75 {
		t.Errorf("today total = %d, want 75", agg.TotalTokens)
	}
}

func TestUnknownUsageExcludedFromTotals(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "usage.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Add(Record{Provider: "simulated", UsageKnown: false}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(Record{Provider: "anthropic", PromptTokens: 40, CompletionTokens: 10, UsageKnown: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	agg := s.Summarize(Filter{})
	if agg.Calls != 2 || agg.UnknownCalls != 1 {
		t.Errorf("calls = %d unknown = %d, want 2/1", agg.Calls, agg.UnknownCalls)
	}
	if agg.TotalTokens != 50 {
		t.Errorf("total = %d, want 50", agg.TotalTokens)
	}
}

func TestProviderBreakdown(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "usage.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.now = fixedClock(time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC))
	for i := 0; i < 3; i++ {
		if err := s.Add(Record{Provider: "openai", PromptTokens: 10, CompletionTokens: 10, UsageKnown: true}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := s.Add(Record{Provider: "anthropic", PromptTokens: 5, CompletionTokens: 5, UsageKnown: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	keys, byProvider := s.ProviderBreakdown("2026-08-30")
	if len(keys) != 2 || keys[0] != "anthropic" || keys[1] != "openai" {
		t.Fatalf("keys = %v", keys)
	}
	if byProvider["openai"].TotalTokens != 60 {
		t.Errorf("openai total = %d, want 60", byProvider["openai"].TotalTokens)
	}
}

func TestCorruptFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewStore(path); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}
