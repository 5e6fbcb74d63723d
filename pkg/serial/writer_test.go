package serial

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriterTagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.SendResponse("first\nsecond"); err != nil {
		t.Fatalf("send: %v", err)
	}

	want := "[LLM_RESPONSE] first\n[LLM_RESPONSE] second\n"
	if buf.String() != want {
		t.Fatalf("output = %q, want %q", buf.String(), want)
	}
}

func TestWriterBlankLinePlaceholder(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.SendResponse("above\n\nbelow"); err != nil {
		t.Fatalf("send: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	if lines[1] != "[LLM_RESPONSE] " {
		t.Fatalf("blank line = %q, want placeholder tag", lines[1])
	}
}

func TestWriterSendTagged(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.SendTagged(TagMemoryLoad, "entry|1|data"); err != nil {
		t.Fatalf("send tagged: %v", err)
	}
	if err := w.SendTagged(TagMemoryLoadDone, ""); err != nil {
		t.Fatalf("send done: %v", err)
	}

	want := "[MEMORY_LOAD] entry|1|data\n[MEMORY_LOAD_DONE]\n"
	if buf.String() != want {
		t.Fatalf("output = %q, want %q", buf.String(), want)
	}
}

type flushCounter struct {
	bytes.Buffer
	flushes int
}

func (f *flushCounter) Flush() error {
	f.flushes++
	return nil
}

func TestWriterFlushesEveryLine(t *testing.T) {
	var sink flushCounter
	w := NewWriter(&sink)

	if err := w.SendResponse("a\nb\nc"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sink.flushes != 3 {
		t.Fatalf("flushes = %d, want one per line", sink.flushes)
	}
}

func TestWriterSendError(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.SendError("LLM call failed: timeout"); err != nil {
		t.Fatalf("send error: %v", err)
	}
	if got := buf.String(); got != "[LLM_RESPONSE] [ERROR] LLM call failed: timeout\n" {
		t.Fatalf("output = %q", got)
	}
}
