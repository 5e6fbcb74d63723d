package serial

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func collectLines(t *testing.T, input []byte) ([]string, string) {
	t.Helper()

	var lines []string
	var echo bytes.Buffer
	tok := NewTokenizer(bytes.NewReader(input), &echo, func(line string) {
		lines = append(lines, line)
	})
	if err := tok.Run(context.Background()); err != nil {
		t.Fatalf("tokenizer run: %v", err)
	}
	return lines, echo.String()
}

func TestTokenizerEmitsTrimmedLines(t *testing.T) {
	lines, _ := collectLines(t, []byte("  hello world  \nsecond\n"))
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0] != "hello world" || lines[1] != "second" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestTokenizerSuppressesBlankLines(t *testing.T) {
	lines, _ := collectLines(t, []byte("\n   \n\t\nreal\n"))
	if len(lines) != 1 || lines[0] != "real" {
		t.Fatalf("lines = %v, want [real]", lines)
	}
}

func TestTokenizerDropsInvalidBytes(t *testing.T) {
	input := append([]byte("ab"), 0xFF, 0xFE)
	input = append(input, []byte("cd\n")...)
	lines, _ := collectLines(t, input)
	if len(lines) != 1 || lines[0] != "abcd" {
		t.Fatalf("lines = %v, want [abcd]", lines)
	}
}

func TestTokenizerHandlesMultibyteRunes(t *testing.T) {
	lines, echo := collectLines(t, []byte("héllo ✓\n"))
	if len(lines) != 1 || lines[0] != "héllo ✓" {
		t.Fatalf("lines = %v", lines)
	}
	if !strings.Contains(echo, "héllo ✓") {
		t.Fatalf("echo missing decoded text: %q", echo)
	}
}

func TestTokenizerEchoesEveryRune(t *testing.T) {
	_, echo := collectLines(t, []byte("boot\nok\n"))
	if echo != "boot\nok\n" {
		t.Fatalf("echo = %q, want full stream", echo)
	}
}

func TestTokenizerUnterminatedLineNotEmitted(t *testing.T) {
	lines, _ := collectLines(t, []byte("no newline"))
	if len(lines) != 0 {
		t.Fatalf("lines = %v, want none for unterminated input", lines)
	}
}
