package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/crmmini/core/internal/domain/entities"
	"github.com/crmmini/core/internal/infrastructure/logger"
	"github.com/crmmini/core/internal/ports"
)

const emptyCollection = "[]"

// FileRepositoryImpl stores the customer collection as a single
// pretty-printed JSON array on disk. Every call goes to the file; nothing
// is cached between calls.
type FileRepositoryImpl struct {
	path           string
	recoverCorrupt bool
	logger         *logger.Logger
}

// FileOption configures a FileRepositoryImpl
type FileOption func(*FileRepositoryImpl)

// WithCorruptRecovery makes Load treat unparseable content as an empty
// collection instead of failing with entities.ErrCorruptStore. The next
// Save then overwrites the unreadable file.
func WithCorruptRecovery(enabled bool) FileOption {
	return func(r *FileRepositoryImpl) {
		r.recoverCorrupt = enabled
	}
}

// NewFileRepository creates a new file-backed customer repository
func NewFileRepository(path string, logger *logger.Logger, opts ...FileOption) ports.CustomerRepository {
	r := &FileRepositoryImpl{
		path:   path,
		logger: logger.WithComponent("file_store").WithFields("path", path),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *FileRepositoryImpl) Load(ctx context.Context) ([]entities.Customer, error) {
	start := time.Now()
	records, err := r.load()
	r.logger.LogStoreOperation("load", len(records), elapsedMillis(start), err)
	return records, err
}

func (r *FileRepositoryImpl) load() ([]entities.Customer, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("Data file does not exist, creating an empty one")
		if err := os.WriteFile(r.path, []byte(emptyCollection), 0o644); err != nil {
			r.logger.Warnw("Failed to create data file", "error", err)
		}
		return []entities.Customer{}, nil
	}
	if err != nil {
		return r.readFailure(fmt.Errorf("read data file: %w", err))
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []entities.Customer{}, nil
	}

	records, err := decodeCollection(data)
	if err != nil {
		return r.readFailure(err)
	}
	return records, nil
}

// readFailure applies the corrupt-file policy to a read failure.
func (r *FileRepositoryImpl) readFailure(cause error) ([]entities.Customer, error) {
	if r.recoverCorrupt {
		r.logger.Warnw("Unable to read data file, treating it as empty", "error", cause)
		return []entities.Customer{}, nil
	}
	return nil, fmt.Errorf("%w: %v", entities.ErrCorruptStore, cause)
}

func (r *FileRepositoryImpl) Save(ctx context.Context, records []entities.Customer) error {
	start := time.Now()
	err := r.save(records)
	r.logger.LogStoreOperation("save", len(records), elapsedMillis(start), err)
	return err
}

func (r *FileRepositoryImpl) save(records []entities.Customer) error {
	if records == nil {
		records = []entities.Customer{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode customers: %w", err)
	}

	// Write next to the target and rename so readers never see a torn file.
	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}

	return nil
}

func (r *FileRepositoryImpl) Ping(ctx context.Context) error {
	_, err := r.load()
	return err
}

// decodeCollection parses a JSON array of objects, keeping numbers as
// json.Number so large values survive a round trip untouched.
func decodeCollection(data []byte) ([]entities.Customer, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []entities.Customer
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode customers: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode customers: trailing data after array")
	}
	if records == nil {
		records = []entities.Customer{}
	}
	return records, nil
}

func elapsedMillis(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1000000
}
