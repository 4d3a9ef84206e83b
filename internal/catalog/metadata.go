package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sqldeck/pkg/errors"
)

// Metadata is the optional metadata.yaml sitting next to a definition
type Metadata struct {
	FriendlyName string            `yaml:"friendly_name"`
	Description  string            `yaml:"description"`
	Owners       []string          `yaml:"owners"`
	Labels       map[string]string `yaml:"labels"`
	Scheduling   *Scheduling       `yaml:"scheduling"`
}

// Scheduling describes how a definition's refresh query is scheduled
// in the warehouse. The cron expression uses standard five-field
// syntax plus a trailing time zone, matching warehouse task schedules.
type Scheduling struct {
	Cron             string `yaml:"cron"`
	TimeZone         string `yaml:"time_zone"`
	DestinationTable string `yaml:"destination_table"`
	Enabled          bool   `yaml:"enabled"`
}

// LoadMetadata reads and validates a metadata.yaml file
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.CatalogError("Failed to read metadata file", path, err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, errors.CatalogError("Failed to parse metadata file", path, err)
	}

	if err := meta.Validate(); err != nil {
		return nil, errors.CatalogError("Invalid metadata", path, err)
	}

	return &meta, nil
}

// Validate checks the metadata for structural problems
func (m *Metadata) Validate() error {
	if m.Scheduling == nil {
		return nil
	}

	if m.Scheduling.Cron == "" {
		return fmt.Errorf("scheduling block requires a cron expression")
	}
	if fields := len(strings.Fields(m.Scheduling.Cron)); fields != 5 {
		return fmt.Errorf("cron expression %q must have 5 fields, has %d", m.Scheduling.Cron, fields)
	}
	if m.Scheduling.DestinationTable == "" {
		return fmt.Errorf("scheduling block requires a destination_table")
	}

	return nil
}

// TaskSchedule renders the scheduling block as a warehouse task
// schedule clause.
func (s *Scheduling) TaskSchedule() string {
	tz := s.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	return fmt.Sprintf("USING CRON %s %s", s.Cron, tz)
}
