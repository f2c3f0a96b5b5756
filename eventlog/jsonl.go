package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Writer appends events to a JSONL stream, one event per line.
type Writer struct {
	w io.Writer
	f *os.File
}

// NewWriter creates a writer appending to the named file, creating it if
// needed.
func NewWriter(filename string) (*Writer, error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return &Writer{w: f, f: f}, nil
}

// NewWriterTo creates a writer targeting an arbitrary stream.
func NewWriterTo(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Append writes one event as a JSON line.
func (w *Writer) Append(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (w *Writer) Close() error {
	if w.f != nil {
		return w.f.Close()
	}
	return nil
}

// ParseJSONL parses an episode trace log from a JSONL file.
func ParseJSONL(filename string) (*Log, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return ParseJSONLReader(f)
}

// ParseJSONLReader parses an episode trace log from a JSONL reader.
// Each line should be a valid JSON object with event data.
func ParseJSONLReader(r io.Reader) (*Log, error) {
	log := NewLog()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip empty lines
		if line == "" {
			continue
		}

		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", lineNum, err)
		}
		if e.Session == "" {
			return nil, fmt.Errorf("line %d: missing required field 'session'", lineNum)
		}
		if e.Action == "" {
			return nil, fmt.Errorf("line %d: missing required field 'action'", lineNum)
		}

		log.Add(e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return log, nil
}
