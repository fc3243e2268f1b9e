// Package cast reads asciinema v2 cast files and reconstructs keystrokes.
package cast

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pro-xee/editor-dojo/internal/keys"
)

// ParseError reports an unparseable cast file. Callers treat it as
// non-fatal: the attempt result stands, only the key sequence is lost.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: line %d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// header is the first line of a cast file.
type header struct {
	Version   int     `json:"version"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Timestamp float64 `json:"timestamp"`
}

// ExtractKeystrokes reads a cast file and rebuilds the ordered keystroke
// sequence from its input events. Output events are terminal echo, not
// authoritative input, and are skipped. Parsing is deterministic: the same
// file always yields the same sequence.
func ExtractKeystrokes(path string) (keys.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return keys.Sequence{}, fmt.Errorf("failed to open cast file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var input []byte
	lineNum := 0
	headerSeen := false
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !headerSeen {
			var h header
			if err := json.Unmarshal(line, &h); err != nil {
				return keys.Sequence{}, &ParseError{Path: path, Line: lineNum, Err: fmt.Errorf("invalid header: %w", err)}
			}
			headerSeen = true
			continue
		}
		payload, err := inputPayload(line)
		if err != nil {
			return keys.Sequence{}, &ParseError{Path: path, Line: lineNum, Err: err}
		}
		input = append(input, payload...)
	}
	if err := scanner.Err(); err != nil {
		return keys.Sequence{}, fmt.Errorf("failed to read cast file: %w", err)
	}

	seq, err := keys.Tokenize(input)
	if err != nil {
		return keys.Sequence{}, &ParseError{Path: path, Line: lineNum, Err: err}
	}
	return seq, nil
}

// inputPayload decodes an event line `[time, type, data]` and returns the
// raw bytes for input events, or nil for any other event type.
func inputPayload(line []byte) ([]byte, error) {
	var event [3]json.RawMessage
	if err := json.Unmarshal(line, &event); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	var eventType string
	if err := json.Unmarshal(event[1], &eventType); err != nil {
		return nil, fmt.Errorf("invalid event type: %w", err)
	}
	if eventType != "i" {
		return nil, nil
	}
	var data string
	if err := json.Unmarshal(event[2], &data); err != nil {
		return nil, fmt.Errorf("invalid event data: %w", err)
	}
	return []byte(data), nil
}
