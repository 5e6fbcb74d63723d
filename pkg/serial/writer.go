package serial

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"genesisbridge/pkg/logger"
)

// flusher is implemented by buffered sinks that need explicit flushing.
type flusher interface {
	Flush() error
}

// Writer owns the guest process's input stream. All producers route their
// writes through it so tagged lines are never interleaved mid-line. Every
// line is flushed immediately; interrupting the bridge never leaves a partial
// line buffered.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// SendResponse writes a (possibly multi-line) completion-service reply, one
// tagged line per input line. Blank lines are sent as empty-payload tags so
// the guest can reproduce spacing.
func (w *Writer) SendResponse(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		var err error
		if trimmed != "" {
			err = w.writeLineLocked(fmt.Sprintf("%s %s\n", TagLLMResponse, trimmed))
		} else {
			err = w.writeLineLocked(TagLLMResponse + " \n")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SendTagged writes a single tagged line (replay tags, [TELEGRAM], [INBOX]).
func (w *Writer) SendTagged(tag, payload string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if payload == "" {
		return w.writeLineLocked(tag + "\n")
	}
	return w.writeLineLocked(fmt.Sprintf("%s %s\n", tag, payload))
}

// SendError routes a transport failure back through the normal reply path as
// an [ERROR] payload.
func (w *Writer) SendError(msg string) error {
	return w.SendResponse(fmt.Sprintf("%s %s", TagError, msg))
}

// WriteRaw forwards untagged text (operator console keystrokes) verbatim.
func (w *Writer) WriteRaw(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeLineLocked(text)
}

func (w *Writer) writeLineLocked(line string) error {
	if _, err := io.WriteString(w.out, line); err != nil {
		logger.ErrorCF("serial", "Write to guest failed", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	if f, ok := w.out.(flusher); ok {
		return f.Flush()
	}
	return nil
}
