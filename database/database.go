package database

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"feedback-service-server/metrics"
)

var (
	// ErrNotFound is returned when no record has the requested id
	ErrNotFound = errors.New("record not found")
	// ErrPersistence is returned when the backing file cannot be replaced
	ErrPersistence = errors.New("failed to persist store file")
	// ErrDuplicate is returned when a unique field is already taken
	ErrDuplicate = errors.New("duplicate record")
	// ErrMalformedRecord marks store contents that could not be decoded
	ErrMalformedRecord = errors.New("malformed store file")
)

const slowReadThreshold = 250 * time.Millisecond

// fileCache holds the last decoded contents keyed by the file's stat
type fileCache[T any] struct {
	loaded  bool
	modTime time.Time
	size    int64
	records []T
}

func (c *fileCache[T]) matches(info os.FileInfo) bool {
	return c.loaded && c.modTime.Equal(info.ModTime()) && c.size == info.Size()
}

func (c *fileCache[T]) store(info os.FileInfo, records []T) {
	c.loaded = true
	c.modTime = info.ModTime()
	c.size = info.Size()
	c.records = append([]T(nil), records...)
}

// jsonFile is a flat JSON array on disk guarded by a single mutex.
// Reads and writes are mutually exclusive. Writes replace the file atomically.
type jsonFile[T any] struct {
	mu      sync.Mutex
	path    string
	wrapKey string
	cache   fileCache[T]
}

// openJSONFile makes sure path exists, creating "[]" when missing. wrapKey
// names the field holding the array when the file is an object.
func openJSONFile[T any](path, wrapKey string) (*jsonFile[T], error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create directory for %s", path)
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, errors.Wrapf(err, "initialize %s", path)
		}
		log.WithField("file", path).Info("Initialized empty store file")
	} else if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	return &jsonFile[T]{path: path, wrapKey: wrapKey}, nil
}

// readLocked returns a copy of the file contents. Malformed contents are
// logged and read as empty. Callers must hold f.mu.
func (f *jsonFile[T]) readLocked() ([]T, error) {
	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", f.path)
	}
	if f.cache.matches(info) {
		return append([]T(nil), f.cache.records...), nil
	}

	started := time.Now()
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", f.path)
	}

	records, err := decodeRecords[T](data, f.wrapKey)
	if err != nil {
		log.WithError(err).WithField("file", f.path).Warn("Ignoring unreadable store contents")
		return nil, nil
	}

	if elapsed := time.Since(started); elapsed > slowReadThreshold {
		log.WithFields(log.Fields{"file": f.path, "elapsed": elapsed}).Warn("Slow store read")
	}

	f.cache.store(info, records)
	return records, nil
}

// writeLocked replaces the file with records via a temp file and rename,
// then refreshes the cache. Callers must hold f.mu.
func (f *jsonFile[T]) writeLocked(records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(ErrPersistence, err.Error())
	}

	tmp := f.path + ".tmp"
	if err := writeAndSync(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(ErrPersistence, "write %s: %v", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(ErrPersistence, "replace %s: %v", f.path, err)
	}

	info, err := os.Stat(f.path)
	if err != nil {
		// The write landed; the next read reparses.
		f.cache = fileCache[T]{}
		return nil
	}
	f.cache.store(info, records)
	return nil
}

// timed records a store operation into the duration histogram
func (f *jsonFile[T]) timed(operation string) func() {
	started := time.Now()
	return func() {
		metrics.StoreOperationDuration.
			WithLabelValues(filepath.Base(f.path), operation).
			Observe(time.Since(started).Seconds())
	}
}

func writeAndSync(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// decodeRecords accepts a bare array or an object wrapping the array under
// wrapKey. Elements that are not objects, or do not decode, are dropped.
func decodeRecords[T any](data []byte, wrapKey string) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.Wrap(ErrMalformedRecord, "empty file")
	}

	var elements []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &elements); err != nil {
			return nil, errors.Wrap(ErrMalformedRecord, err.Error())
		}
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, errors.Wrap(ErrMalformedRecord, err.Error())
		}
		inner, ok := wrapper[wrapKey]
		if !ok {
			return nil, errors.Wrapf(ErrMalformedRecord, "object has no %q array", wrapKey)
		}
		if err := json.Unmarshal(inner, &elements); err != nil {
			return nil, errors.Wrap(ErrMalformedRecord, err.Error())
		}
	default:
		return nil, errors.Wrap(ErrMalformedRecord, "top level is neither array nor object")
	}

	records := make([]T, 0, len(elements))
	for i, element := range elements {
		element = bytes.TrimSpace(element)
		if len(element) == 0 || element[0] != '{' {
			continue
		}
		var record T
		if err := json.Unmarshal(element, &record); err != nil {
			log.WithError(err).WithField("index", i).Debug("Skipping undecodable record")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
