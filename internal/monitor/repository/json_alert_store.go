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

	"stock-price-alert/internal/entity"
	"stock-price-alert/pkg/logger"
)

// NewJSONAlertRepository stores alerts as an indented JSON array in path.
// Writes go to a temporary file in the same directory which then replaces
// path, so a crash never leaves a half-written collection behind.
func NewJSONAlertRepository(path string, log *logger.Logger) AlertRepository {
	return newAlertRepository(&jsonAlertStore{path: path}, log)
}

type jsonAlertStore struct {
	path string
}

func (s *jsonAlertStore) describe() string { return s.path }

func (s *jsonAlertStore) close() error { return nil }

func (s *jsonAlertStore) read(_ context.Context) ([]entity.Alert, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []entity.Alert{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []entity.Alert{}, nil
	}

	var records []entity.AlertRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", errCorruptStore, s.path, err)
	}

	alerts := make([]entity.Alert, 0, len(records))
	for i, rec := range records {
		a, err := entity.AlertFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", errCorruptStore, i, err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, nil
}

func (s *jsonAlertStore) write(_ context.Context, alerts []entity.Alert) error {
	records := make([]entity.AlertRecord, 0, len(alerts))
	for i := range alerts {
		records = append(records, alerts[i].ToRecord())
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
