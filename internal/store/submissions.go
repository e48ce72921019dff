package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/cansubmit/internal/catalog"
	"example.com/cansubmit/internal/common"
	"example.com/cansubmit/internal/session"
)

// Record is one accepted submission with its server-assigned identity.
type Record struct {
	ID      int64           `json:"id"`
	Ts      time.Time       `json:"ts"`
	Payload session.Payload `json:"payload"`
}

// SubmissionLog provides append-only access to the JSONL submission store.
// Each accepted payload is additionally exported as a standalone pretty
// JSON file when an export directory is configured.
type SubmissionLog struct {
	path      string
	exportDir string
	mu        sync.Mutex
	nextID    int64
}

// OpenSubmissionLog opens (or prepares to create) the log at path. Existing
// entries are scanned so identifiers keep increasing across restarts.
func OpenSubmissionLog(path, exportDir string) (*SubmissionLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("submission log path is empty")
	}
	l := &SubmissionLog{path: path, exportDir: exportDir, nextID: 1}
	records, err := ReadSubmissionLog(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		return l, nil
	}
	for _, rec := range records {
		if rec.ID >= l.nextID {
			l.nextID = rec.ID + 1
		}
	}
	return l, nil
}

// Path returns the backing file path for the log.
func (l *SubmissionLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append stores one payload, assigning it an identifier and timestamp.
// Entries are serialized as JSON objects, one per line. The JSONL line is
// the source of truth; the per-submission JSON export is best-effort and a
// failed export never fails the append.
func (l *SubmissionLog) Append(p session.Payload) (Record, error) {
	if l == nil {
		return Record{}, errors.New("nil submission log")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := Record{ID: l.nextID, Ts: time.Now().UTC(), Payload: p}
	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, err
	}
	dir := filepath.Dir(l.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Record{}, err
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Record{}, err
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return Record{}, err
	}
	if err := f.Sync(); err != nil {
		return Record{}, err
	}
	l.nextID++
	if err := l.export(rec); err != nil {
		common.Logf("export submission %d: %v", rec.ID, err)
	}
	return rec, nil
}

func (l *SubmissionLog) export(rec Record) error {
	if l.exportDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.exportDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("submission-%d.json", rec.ID)
	return os.WriteFile(filepath.Join(l.exportDir, name), data, 0o644)
}

// ReadSubmissionLog loads every record from the supplied JSONL file.
func ReadSubmissionLog(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var records []Record
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("decode submission record: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Usage counts the parameter names submitted for one generation, most
// frequent first. nameOf resolves catalog identifiers for items stored
// without a custom name; unresolvable identifiers are skipped.
func (l *SubmissionLog) Usage(generationID int, nameOf func(int) (string, bool)) ([]catalog.Usage, error) {
	records, err := ReadSubmissionLog(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Payload.VehicleID == nil || *rec.Payload.VehicleID != generationID {
			continue
		}
		for _, item := range rec.Payload.Items {
			name := item.ParameterName
			if name == "" && item.ParameterID != nil && nameOf != nil {
				name, _ = nameOf(*item.ParameterID)
			}
			if name == "" {
				continue
			}
			counts[name]++
		}
	}
	out := make([]catalog.Usage, 0, len(counts))
	for name, n := range counts {
		out = append(out, catalog.Usage{Name: name, Entries: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entries != out[j].Entries {
			return out[i].Entries > out[j].Entries
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
