package serial

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"genesisbridge/pkg/logger"
)

// LineHandler receives each complete, trimmed, non-empty line of guest output.
type LineHandler func(line string)

// Tokenizer turns the guest's raw byte stream into lines. Every decoded rune
// is echoed to the display sink so the operator sees guest output in real
// time; invalid byte sequences are dropped, never fatal.
type Tokenizer struct {
	reader  *bufio.Reader
	echo    io.Writer
	handler LineHandler
}

func NewTokenizer(r io.Reader, echo io.Writer, handler LineHandler) *Tokenizer {
	return &Tokenizer{
		reader:  bufio.NewReader(r),
		echo:    echo,
		handler: handler,
	}
}

// Run blocks reading bytes until the stream ends (guest exited) or ctx is
// cancelled. Returns nil on EOF.
func (t *Tokenizer) Run(ctx context.Context) error {
	var pending []byte
	var line strings.Builder

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b, err := t.reader.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		pending = append(pending, b)
		for len(pending) > 0 {
			if !utf8.FullRune(pending) {
				if len(pending) >= utf8.UTFMax {
					// Can never complete; drop the leading byte.
					logger.DebugCF("serial", "Dropping undecodable byte", map[string]interface{}{
						"byte": pending[0],
					})
					pending = pending[1:]
					continue
				}
				break
			}
			r, size := utf8.DecodeRune(pending)
			if r == utf8.RuneError && size == 1 {
				logger.DebugCF("serial", "Dropping invalid byte", map[string]interface{}{
					"byte": pending[0],
				})
				pending = pending[1:]
				continue
			}
			pending = pending[size:]
			t.consumeRune(r, &line)
		}
	}
}

func (t *Tokenizer) consumeRune(r rune, line *strings.Builder) {
	if t.echo != nil {
		io.WriteString(t.echo, string(r))
	}

	if r != '\n' {
		line.WriteRune(r)
		return
	}

	text := strings.TrimSpace(line.String())
	line.Reset()
	if text == "" {
		return
	}
	t.handler(text)
}
