package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// document is one JSON state file and its authoritative in-memory value.
// raw always holds the encoding of data, whether or not the last write reached disk.
type document[T any] struct {
	name      string
	path      string
	indent    bool
	data      *T
	raw       []byte
	dirty     bool
	fresh     func() *T
	normalize func(*T)
}

// load reads the file. A missing or corrupt file yields a default document
// and is never reported as an error.
func (d *document[T]) load() {
	content, err := os.ReadFile(d.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		zap.L().Info("State file not found, starting with empty document",
			zap.String("document", d.name),
			zap.String("file", d.path))
		d.reset()
		return
	case err != nil:
		zap.L().Error("Failed to read state file, starting with empty document",
			zap.String("document", d.name),
			zap.String("file", d.path),
			zap.Error(err))
		d.reset()
		return
	}

	value := new(T)
	if err := json.Unmarshal(content, value); err != nil {
		backup := d.path + ".corrupt"
		zap.L().Error("State file is corrupt, starting with empty document",
			zap.String("document", d.name),
			zap.String("file", d.path),
			zap.String("backup", backup),
			zap.Error(err))
		if err := os.WriteFile(backup, content, 0o644); err != nil {
			zap.L().Warn("Failed to keep a copy of the corrupt state file",
				zap.String("file", backup),
				zap.Error(err))
		}
		d.reset()
		return
	}
	d.normalize(value)

	raw, err := d.encode(value)
	if err != nil {
		zap.L().Error("Failed to encode loaded document, starting with empty document",
			zap.String("document", d.name),
			zap.Error(err))
		d.reset()
		return
	}
	d.data = value
	d.raw = raw
	d.dirty = false
}

func (d *document[T]) reset() {
	value := d.fresh()
	raw, err := d.encode(value)
	if err != nil {
		// fresh documents are plain maps; encoding cannot fail
		panic(fmt.Sprintf("encode empty %s document: %v", d.name, err))
	}
	d.data = value
	d.raw = raw
	d.dirty = true
}

func (d *document[T]) encode(value *T) ([]byte, error) {
	if d.indent {
		return json.MarshalIndent(value, "", "  ")
	}
	return json.Marshal(value)
}

// clone returns a private working copy decoded from the last committed encoding.
func (d *document[T]) clone() (*T, error) {
	value := new(T)
	if err := json.Unmarshal(d.raw, value); err != nil {
		return nil, fmt.Errorf("failed to copy %s document: %w", d.name, err)
	}
	d.normalize(value)
	return value, nil
}

// commit makes next the authoritative value and flushes it. The in-memory
// value is replaced even when the write fails; the document stays dirty and
// is retried on the next commit or flush.
func (d *document[T]) commit(next *T) error {
	raw, err := d.encode(next)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", d.name, err)
	}

	// refresh the read cache from the exact bytes being written
	refreshed := new(T)
	if err := json.Unmarshal(raw, refreshed); err != nil {
		return fmt.Errorf("failed to decode %s document: %w", d.name, err)
	}
	d.normalize(refreshed)
	d.data = refreshed
	d.raw = raw
	d.dirty = true

	_ = d.flush()
	return nil
}

// flush writes raw to disk if it has unsaved changes.
func (d *document[T]) flush() error {
	if !d.dirty {
		return nil
	}
	if err := writeFileAtomic(d.path, d.raw); err != nil {
		zap.L().Error("Failed to persist state document",
			zap.String("document", d.name),
			zap.String("file", d.path),
			zap.Error(err))
		return fmt.Errorf("failed to persist %s document: %w", d.name, err)
	}
	d.dirty = false
	return nil
}

// writeFileAtomic writes to a temporary file in the target directory and
// renames it over path, so readers never observe a partial document.
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
