package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"sqldeck/pkg/errors"
)

const (
	// RoutineFile is the file name holding a routine definition and its tests
	RoutineFile = "udf.sql"
	// ViewFile is the file name holding a view definition
	ViewFile = "view.sql"
	// MetadataFile is the optional sibling metadata file
	MetadataFile = "metadata.yaml"
)

// identRe validates dataset and routine names: alpha start, word chars,
// at most 256 characters.
var identRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,255}$`)

// createFunctionRe matches the prefix of a persistent function definition
// so it can be rewritten as a temporary one for sandboxed tests.
var createFunctionRe = regexp.MustCompile(`(?i)CREATE\s+(OR\s+REPLACE\s+)?FUNCTION(\s+IF\s+NOT\s+EXISTS)?`)

// Routine is a single SQL routine parsed from a udf.sql file: the
// CREATE statements that define it plus the test statements that follow
// them in the same file.
type Routine struct {
	Name         string // qualified persistent name: dataset.name
	Dataset      string
	LocalName    string // name within the dataset
	FilePath     string
	Definitions  []string
	Tests        []string
	Dependencies []string // qualified names referenced by the definitions
	Metadata     *Metadata
}

// TempName returns the routine name used when it is created as a
// temporary function (dataset and name joined with an underscore).
func (r *Routine) TempName() string {
	return r.Dataset + "_" + r.LocalName
}

// ParseRoutineFile reads a routine from <dataset>/<name>/udf.sql,
// deriving the dataset and routine names from the directory layout and
// attaching metadata.yaml when present.
func ParseRoutineFile(path string) (*Routine, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.CatalogError("Failed to read routine file", path, err)
	}

	dir := filepath.Dir(path)
	name := filepath.Base(dir)
	dataset := filepath.Base(filepath.Dir(dir))

	routine, err := ParseRoutine(string(text), dataset, name)
	if err != nil {
		return nil, errors.CatalogError("Failed to parse routine", path, err)
	}
	routine.FilePath = path

	metaPath := filepath.Join(dir, MetadataFile)
	if _, err := os.Stat(metaPath); err == nil {
		meta, err := LoadMetadata(metaPath)
		if err != nil {
			return nil, err
		}
		routine.Metadata = meta
	}

	return routine, nil
}

// ParseRoutine parses routine text for the given dataset and name.
// Statements defining the routine (persistent or temporary) are
// collected as definitions; every other statement is a test.
func ParseRoutine(text, dataset, name string) (*Routine, error) {
	for _, part := range []string{dataset, name} {
		if !identRe.MatchString(part) {
			return nil, errors.New(errors.ErrCodeCatalogBadName,
				fmt.Sprintf("Invalid name %q: must start with an alpha char and contain only word chars", part))
		}
	}

	persistentName := strings.ToLower(dataset + "." + name)
	tempName := strings.ToLower(dataset + "_" + name)

	statements := SplitStatements(StripComments(text))

	routine := &Routine{
		Name:      dataset + "." + name,
		Dataset:   dataset,
		LocalName: name,
	}

	defined := false
	for _, s := range statements {
		normalized := strings.Join(strings.Fields(strings.ToLower(s)), " ")

		switch {
		case strings.HasPrefix(normalized, "create or replace function"),
			strings.HasPrefix(normalized, "create function"):
			routine.Definitions = append(routine.Definitions, s)
			if strings.Contains(normalized, persistentName) {
				defined = true
			}
		case strings.HasPrefix(normalized, "create temp function"),
			strings.HasPrefix(normalized, "create temporary function"):
			routine.Definitions = append(routine.Definitions, s)
			if strings.Contains(normalized, tempName) {
				defined = true
			}
		default:
			routine.Tests = append(routine.Tests, s)
		}
	}

	if !defined {
		return nil, errors.New(errors.ErrCodeCatalogParse,
			fmt.Sprintf("Expected a function named %s or %s to be defined", persistentName, tempName))
	}

	return routine, nil
}
