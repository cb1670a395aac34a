package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"shorts-studio/shared/apperr"
	"shorts-studio/shared/logger"
)

// Document is a whole-file JSON store: every read loads the full file and
// every write replaces it. The mutex only serialises writers inside this
// process; separate processes still race with last-write-wins.
type Document[T any] struct {
	filePath string
	empty    func() T
	log      logger.Logger
	mu       sync.Mutex
}

// NewDocument creates a store backed by dataDir/name. empty builds the
// default returned when the file is missing or unreadable.
func NewDocument[T any](dataDir, name string, empty func() T, log logger.Logger) *Document[T] {
	return &Document[T]{
		filePath: filepath.Join(dataDir, name),
		empty:    empty,
		log:      log,
	}
}

func (d *Document[T]) Path() string {
	return d.filePath
}

// Read returns the stored document, or the empty default if the file is
// missing, blank or fails to parse.
func (d *Document[T]) Read() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read()
}

// Write serialises doc and overwrites the file, creating the parent directory.
func (d *Document[T]) Write(doc T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(doc)
}

// Update runs a read-modify-write cycle under the document lock.
func (d *Document[T]) Update(fn func(doc T) (T, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next, err := fn(d.read())
	if err != nil {
		return err
	}
	return d.write(next)
}

func (d *Document[T]) read() T {
	data, err := os.ReadFile(d.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			d.log.Warn("Failed to read document, using empty default",
				logger.String("file", d.filePath), logger.Error(err))
		}
		return d.empty()
	}

	if strings.TrimSpace(string(data)) == "" {
		d.log.Warn("Document is empty", logger.String("file", d.filePath))
		return d.empty()
	}

	doc := d.empty()
	if err := json.Unmarshal(data, &doc); err != nil {
		d.log.Error("Failed to parse document, using empty default",
			logger.String("file", d.filePath), logger.Error(err))
		return d.empty()
	}
	return doc
}

func (d *Document[T]) write(doc T) error {
	if err := os.MkdirAll(filepath.Dir(d.filePath), 0755); err != nil {
		return apperr.Wrap(apperr.IOError, "storage.write", fmt.Errorf("failed to create data directory: %w", err))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.IOError, "storage.write", fmt.Errorf("failed to encode %s: %w", d.filePath, err))
	}

	if err := os.WriteFile(d.filePath, data, 0644); err != nil {
		return apperr.Wrap(apperr.IOError, "storage.write", fmt.Errorf("failed to write %s: %w", d.filePath, err))
	}
	return nil
}
