package rates

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk layout of a rate table override:
//
//	version: "2026-07"
//	schedules:
//	  residential:
//	    - {ceiling: 10, flat: 180.00}
//	    - {ceiling: 20, rate: 22.50}
//	    - {rate: 35.00}
type tableFile struct {
	Version   string               `json:"version" yaml:"version"`
	Schedules map[string][]Bracket `json:"schedules" yaml:"schedules"`
}

// LoadTable reads a rate table from a JSON or YAML file. An empty path
// returns DefaultTable. The file is read once; the resulting table is
// immutable for the life of the process.
func LoadTable(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate table %s: %w", path, err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	t, err := ParseTable(raw, format)
	if err != nil {
		return nil, fmt.Errorf("rate table %s: %w", path, err)
	}
	return t, nil
}

// ParseTable decodes a rate table document in the given format ("json" or "yaml").
func ParseTable(raw []byte, format string) (*Table, error) {
	var f tableFile
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidSchedule, err)
		}
	case "json":
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: decode json: %v", ErrInvalidSchedule, err)
		}
	default:
		return nil, fmt.Errorf("unsupported rate table format %q", format)
	}

	schedules := make([]Schedule, 0, len(f.Schedules))
	for class, brackets := range f.Schedules {
		schedules = append(schedules, Schedule{Class: CustomerClass(class), Brackets: brackets})
	}
	return NewTable(f.Version, schedules...)
}
