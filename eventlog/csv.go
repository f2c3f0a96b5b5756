package eventlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{
	"timestamp", "session", "tick", "col", "row", "gold",
	"action", "reward", "bridge_attempt", "bridge_success",
}

// ExportCSV writes the log to the named file in CSV form, header first.
func ExportCSV(filename string, log *Log) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return ExportCSVWriter(f, log)
}

// ExportCSVWriter writes the log to a stream in CSV form.
func ExportCSVWriter(w io.Writer, log *Log) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range log.Events {
		record := []string{
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			e.Session,
			strconv.Itoa(e.Tick),
			strconv.Itoa(e.Col),
			strconv.Itoa(e.Row),
			strconv.Itoa(e.Gold),
			e.Action,
			strconv.FormatFloat(e.Reward, 'g', -1, 64),
			strconv.FormatBool(e.BridgeAttempt),
			strconv.FormatBool(e.BridgeSuccess),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing event %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
