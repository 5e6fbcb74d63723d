package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Record is one completion call made on behalf of the guest.
type Record struct {
	Timestamp        time.Time `json:"timestamp"`
	DayKey           string    `json:"day_key"`
	Source           string    `json:"source,omitempty"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model,omitempty"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	UsageKnown       bool      `json:"usage_known"`
}

// Aggregate sums a set of records.
type Aggregate struct {
	Calls            int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	UnknownCalls     int
}

// Filter selects records; zero fields match everything.
type Filter struct {
	DayKey   string
	Source   string
	Provider string
}

// Store keeps completion call records in a JSON file under the
// workspace.
type Store struct {
	mu      sync.Mutex
	path    string
	records []Record
	now     func() time.Time
}

// NewStore loads existing records from path, if any.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read usage file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parse usage file: %w", err)
	}
	return s, nil
}

// Add records one call and persists the file.
func (s *Store) Add(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}
	if rec.DayKey == "" {
		rec.DayKey = rec.Timestamp.Format("2006-01-02")
	}
	if rec.TotalTokens == 0 {
		rec.TotalTokens = rec.PromptTokens + rec.CompletionTokens
	}
	s.records = append(s.records, rec)
	return s.save()
}

// Query returns the records matching the filter, oldest first.
func (s *Store) Query(f Filter) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, rec := range s.records {
		if f.DayKey != "" && rec.DayKey != f.DayKey {
			continue
		}
		if f.Source != "" && rec.Source != f.Source {
			continue
		}
		if f.Provider != "" && rec.Provider != f.Provider {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Summarize aggregates the records matching the filter.
func (s *Store) Summarize(f Filter) Aggregate {
	return AggregateRecords(s.Query(f))
}

// Today aggregates the current day's records.
func (s *Store) Today() Aggregate {
	day := s.now().Format("2006-01-02")
	return s.Summarize(Filter{DayKey: day})
}

// ProviderBreakdown aggregates per provider for one day, keys sorted.
func (s *Store) ProviderBreakdown(dayKey string) ([]string, map[string]Aggregate) {
	byProvider := make(map[string]Aggregate)
	for _, rec := range s.Query(Filter{DayKey: dayKey}) {
		agg := byProvider[rec.Provider]
		addRecord(&agg, rec)
		byProvider[rec.Provider] = agg
	}
	keys := make([]string, 0, len(byProvider))
	for k := range byProvider {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, byProvider
}

// AggregateRecords sums an arbitrary set of records.
func AggregateRecords(records []Record) Aggregate {
	var agg Aggregate
	for _, rec := range records {
		addRecord(&agg, rec)
	}
	return agg
}

func addRecord(agg *Aggregate, rec Record) {
	agg.Calls++
	if !rec.UsageKnown {
		agg.UnknownCalls++
		return
	}
	agg.PromptTokens += rec.PromptTokens
	agg.CompletionTokens += rec.CompletionTokens
	agg.TotalTokens += rec.TotalTokens
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode usage records: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create usage dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write usage file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace usage file: %w", err)
	}
	return nil
}
