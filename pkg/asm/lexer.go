package asm

import (
	"bufio"
	"io"
	"strings"
)

// line is one lexed source line: an optional label, a mnemonic, and its
// raw (unresolved) operand tokens.
type line struct {
	Lineno   int
	Label    *string
	Mnemonic string
	Operands []string
}

// StartLexing scans r line by line, stripping comments and blank lines,
// splitting a leading "label:" off the rest of the line, and returns the
// result on a channel so the parser can run concurrently with scanning,
// matching the teacher's channel-pipelined lexer/parser/encoder shape.
func StartLexing(r io.Reader) <-chan line {
	out := make(chan line)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		lineno := 0
		for scanner.Scan() {
			lineno++
			text := stripComment(scanner.Text())
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			l := line{Lineno: lineno}
			if idx := strings.Index(text, ":"); idx >= 0 && !strings.ContainsAny(text[:idx], " \t") {
				label := text[:idx]
				l.Label = &label
				text = strings.TrimSpace(text[idx+1:])
				if text == "" {
					out <- l
					continue
				}
			}
			fields := strings.FieldsFunc(text, func(r rune) bool {
				return r == ' ' || r == '\t' || r == ','
			})
			l.Mnemonic = strings.ToUpper(fields[0])
			l.Operands = fields[1:]
			out <- l
		}
	}()
	return out
}

func stripComment(s string) string {
	for _, marker := range []string{"#", "//"} {
		if idx := strings.Index(s, marker); idx >= 0 {
			s = s[:idx]
		}
	}
	return s
}
