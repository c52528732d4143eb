// Package project reads and writes the persisted project document.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/harrison/ethocode/internal/filelock"
	"github.com/harrison/ethocode/internal/models"
)

// ErrObservationNotFound is returned for an unknown observation id.
var ErrObservationNotFound = errors.New("observation not found")

// Load reads a project file.
func Load(path string) (*models.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	return Decode(data)
}

// Decode parses a project document.
func Decode(data []byte) (*models.Project, error) {
	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if p.Observations == nil {
		p.Observations = make(map[string]models.Observation)
	}
	return &p, nil
}

// Encode renders the project as indented JSON.
func Encode(p *models.Project) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes the project under its lock, replacing the file atomically.
func Save(ctx context.Context, path string, p *models.Project) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := filelock.LockAndWrite(ctx, path, data); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// Update loads, modifies and saves the project while holding its lock,
// so concurrent writers cannot lose each other's changes.
func Update(ctx context.Context, path string, fn func(p *models.Project) error) error {
	return filelock.Update(ctx, path, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, fmt.Errorf("read project: %w", os.ErrNotExist)
		}
		p, err := Decode(current)
		if err != nil {
			return nil, err
		}
		if err := fn(p); err != nil {
			return nil, err
		}
		return Encode(p)
	})
}

// Observation returns the observation with the given id.
func Observation(p *models.Project, id string) (models.Observation, error) {
	obs, ok := p.Observations[id]
	if !ok {
		return models.Observation{}, fmt.Errorf("%w: %q", ErrObservationNotFound, id)
	}
	return obs, nil
}

// Select returns the observations for ids, or every observation sorted by id when ids is empty.
func Select(p *models.Project, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return p.ObservationIDs(), nil
	}
	for _, id := range ids {
		if _, err := Observation(p, id); err != nil {
			return nil, err
		}
	}
	return ids, nil
}
