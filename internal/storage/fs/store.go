// Package fs stores schedule definitions as one YAML file per schedule.
package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rezkam/recur/internal/domain"
	"gopkg.in/yaml.v3"
)

const fileExt = ".yaml"

// Store is a filesystem-based implementation of schedule.Repository.
type Store struct {
	baseDir  string
	loc      *time.Location
	validate *validator.Validate
	mu       sync.RWMutex
}

// NewStore creates a new filesystem store rooted at baseDir. Times in files
// that carry neither an offset nor a timezone key are read in loc; nil means UTC.
func NewStore(baseDir string, loc *time.Location) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Store{baseDir: baseDir, loc: loc, validate: newValidator()}, nil
}

func (s *Store) getFilePath(id string) (string, error) {
	if id == "" {
		return "", domain.ErrScheduleIDRequired
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: invalid schedule id %q", domain.ErrInvalidConfig, id)
	}
	return filepath.Join(s.baseDir, id+fileExt), nil
}

// CreateSchedule writes a new definition file.
func (s *Store) CreateSchedule(ctx context.Context, def *domain.ScheduleDefinition) (*domain.ScheduleDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.getFilePath(def.ID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrScheduleExists, def.ID)
	}
	if err := s.write(path, def); err != nil {
		return nil, err
	}
	return s.read(path)
}

// FindScheduleByID reads a definition file.
func (s *Store) FindScheduleByID(ctx context.Context, id string) (*domain.ScheduleDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.getFilePath(id)
	if err != nil {
		return nil, err
	}
	return s.read(path)
}

// UpdateSchedule overwrites an existing definition file.
func (s *Store) UpdateSchedule(ctx context.Context, def *domain.ScheduleDefinition) (*domain.ScheduleDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.getFilePath(def.ID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, def.ID)
	}
	if err := s.write(path, def); err != nil {
		return nil, err
	}
	return s.read(path)
}

// ListSchedules scans the directory for YAML files and loads them in parallel.
// Files that fail to load are reported together; the rest are still returned.
func (s *Store) ListSchedules(ctx context.Context) ([]*domain.ScheduleDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var (
		mu   sync.Mutex
		defs []*domain.ScheduleDefinition
		errs []error
		wg   sync.WaitGroup
	)

	// Limit concurrency to avoid "too many open files" on large directories.
	const maxConcurrency = 20
	semaphore := make(chan struct{}, maxConcurrency)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(filename string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			def, err := s.read(filepath.Join(s.baseDir, filename))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", filename, err))
				return
			}
			defs = append(defs, def)
		}(entry.Name())
	}

	wg.Wait()

	slices.SortFunc(defs, func(a, b *domain.ScheduleDefinition) int {
		return strings.Compare(a.ID, b.ID)
	})
	return defs, errors.Join(errs...)
}

func (s *Store) read(path string) (*domain.ScheduleDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			id := strings.TrimSuffix(filepath.Base(path), fileExt)
			return nil, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, id)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc scheduleDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}
	if err := s.validate.Struct(doc); err != nil {
		return nil, validationError(err)
	}

	def, err := doc.toDomain(s.loc)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// write stores def through a temporary file so readers never see a partial document.
func (s *Store) write(path string, def *domain.ScheduleDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(fromDomain(*def))
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}

	tmp, err := os.CreateTemp(s.baseDir, ".schedule-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
