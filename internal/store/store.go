// Package store persists inflection lists and news groupings as JSON files.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"InflectionTracker/internal/model"
)

// InflectionsFile returns the inflection list path for symbol under dir.
func InflectionsFile(dir, symbol string) string {
	return filepath.Join(dir, fmt.Sprintf("inflection_points_%s.json", symbol))
}

// GroupingFile returns the grouping path for symbol under dir.
func GroupingFile(dir, symbol string) string {
	return filepath.Join(dir, fmt.Sprintf("news_by_inflection_%s.json", symbol))
}

// LoadInflections reads a JSON array of inflection points.
func LoadInflections(filePath string) ([]model.InflectionPoint, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var points []model.InflectionPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	return points, nil
}

// SaveInflections writes points as an indented JSON array. A nil slice is
// written as [].
func SaveInflections(filePath string, points []model.InflectionPoint) error {
	if points == nil {
		points = []model.InflectionPoint{}
	}
	return writeJSON(filePath, points)
}

// LoadGrouping reads a grouping written by SaveGrouping.
func LoadGrouping(filePath string) (model.Grouping, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var g model.Grouping
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	return g, nil
}

// SaveGrouping writes g as an indented JSON object keyed by inflection date.
func SaveGrouping(filePath string, g model.Grouping) error {
	if g == nil {
		g = model.Grouping{}
	}
	return writeJSON(filePath, g)
}

func writeJSON(filePath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
