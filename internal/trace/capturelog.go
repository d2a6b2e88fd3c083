package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// CaptureLog is an append-only, JSON-Lines store of Records. A single
// exclusive writer serialises appends so concurrent in-flight requests
// never interleave partial lines; the lock is held only across the final
// write of an already-marshalled line, never across upstream I/O.
type CaptureLog struct {
	mu   sync.Mutex
	file *os.File
}

// OpenCaptureLog opens (creating if necessary) the JSONL file at path for
// appending.
func OpenCaptureLog(path string) (*CaptureLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open capture log %q: %w", path, err)
	}
	return &CaptureLog{file: f}, nil
}

// Append serialises rec completely, then appends it as one atomic write
// under the log's exclusive lock. Marshalling happens before the lock is
// taken; the lock covers only the write itself.
func (l *CaptureLog) Append(rec *Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal trace record %s: %w", rec.ID, err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("append trace record %s: %w", rec.ID, err)
	}
	return nil
}

// Close closes the underlying file.
func (l *CaptureLog) Close() error {
	return l.file.Close()
}

// ReadRecords scans a capture log top to bottom, skipping (and logging)
// any line that fails to parse as a single Record so that single-record
// corruption never aborts a whole cook run.
func ReadRecords(path string, logger *slog.Logger) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture log %q: %w", path, err)
	}
	defer f.Close()

	if logger == nil {
		logger = slog.Default()
	}

	scanner := bufio.NewScanner(f)
	// SSE-heavy records can be large; grow well past the default 64KiB.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	var records []*Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.Warn("skipping malformed capture log line",
				slog.String("path", path),
				slog.Int("line", lineNo),
				slog.String("error", err.Error()),
			)
			continue
		}
		records = append(records, &rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("scan capture log %q: %w", path, err)
	}
	return records, nil
}
