// Package catalog parses a directory tree of analytic SQL definitions:
// routines at <dataset>/<name>/udf.sql and views at
// <dataset>/<name>/view.sql, each with an optional metadata.yaml.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sqldeck/pkg/errors"
)

// exampleDir holds sample queries, not definitions; skipped when walking
const exampleDir = "examples"

// Catalog is the parsed content of a definition tree
type Catalog struct {
	Root     string
	Routines map[string]*Routine
	Views    []*View
}

// View is a single view definition parsed from a view.sql file
type View struct {
	Name      string // qualified name: dataset.name
	Dataset   string
	LocalName string
	FilePath  string
	SQL       string
	Metadata  *Metadata
}

// Load parses every definition under root. When datasets is non-empty,
// only those datasets are loaded. Routine dependencies are resolved
// across the whole loaded set.
func Load(root string, datasets []string) (*Catalog, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileNotFound,
			fmt.Sprintf("Catalog root %s does not exist", root))
	}

	wanted := make(map[string]bool, len(datasets))
	for _, d := range datasets {
		wanted[d] = true
	}

	cat := &Catalog{
		Root:     root,
		Routines: make(map[string]*Routine),
	}

	// Parse errors are collected rather than aborting the walk, so a
	// single run reports every broken definition, each tagged with the
	// file it came from.
	var defErrs []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == exampleDir {
				return filepath.SkipDir
			}
			return nil
		}

		switch info.Name() {
		case RoutineFile:
			if !inWantedDataset(path, wanted) {
				return nil
			}
			routine, err := ParseRoutineFile(path)
			if err != nil {
				defErrs = append(defErrs, fmt.Sprintf("%s: %v", path, err))
				return nil
			}
			if existing, ok := cat.Routines[routine.Name]; ok {
				defErrs = append(defErrs, fmt.Sprintf("Routine %s defined in both %s and %s",
					routine.Name, existing.FilePath, path))
				return nil
			}
			cat.Routines[routine.Name] = routine
		case ViewFile:
			if !inWantedDataset(path, wanted) {
				return nil
			}
			view, err := parseViewFile(path)
			if err != nil {
				defErrs = append(defErrs, fmt.Sprintf("%s: %v", path, err))
				return nil
			}
			cat.Views = append(cat.Views, view)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(defErrs) > 0 {
		return nil, errors.New(errors.ErrCodeCatalogParse,
			fmt.Sprintf("%d definition(s) failed to parse:\n%s",
				len(defErrs), strings.Join(defErrs, "\n")))
	}

	ResolveDependencies(cat.Routines)

	sort.Slice(cat.Views, func(i, j int) bool { return cat.Views[i].Name < cat.Views[j].Name })

	return cat, nil
}

// Datasets returns the sorted set of dataset names present in the catalog
func (c *Catalog) Datasets() []string {
	seen := make(map[string]bool)
	for _, r := range c.Routines {
		seen[r.Dataset] = true
	}
	for _, v := range c.Views {
		seen[v.Dataset] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scheduled returns every definition carrying a scheduling block
func (c *Catalog) Scheduled() []*View {
	var scheduled []*View
	for _, v := range c.Views {
		if v.Metadata != nil && v.Metadata.Scheduling != nil {
			scheduled = append(scheduled, v)
		}
	}
	return scheduled
}

func inWantedDataset(path string, wanted map[string]bool) bool {
	if len(wanted) == 0 {
		return true
	}
	dataset := filepath.Base(filepath.Dir(filepath.Dir(path)))
	return wanted[dataset]
}

func parseViewFile(path string) (*View, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.CatalogError("Failed to read view file", path, err)
	}

	dir := filepath.Dir(path)
	name := filepath.Base(dir)
	dataset := filepath.Base(filepath.Dir(dir))

	for _, part := range []string{dataset, name} {
		if !identRe.MatchString(part) {
			return nil, errors.New(errors.ErrCodeCatalogBadName,
				fmt.Sprintf("Invalid name %q in %s", part, path))
		}
	}

	normalized := strings.Join(strings.Fields(strings.ToLower(string(text))), " ")
	if !strings.Contains(normalized, "create or replace view") {
		return nil, errors.New(errors.ErrCodeCatalogParse,
			"View file must contain a CREATE OR REPLACE VIEW statement").
			WithContext("path", path)
	}

	view := &View{
		Name:      dataset + "." + name,
		Dataset:   dataset,
		LocalName: name,
		FilePath:  path,
		SQL:       strings.TrimSpace(string(text)),
	}

	metaPath := filepath.Join(dir, MetadataFile)
	if _, err := os.Stat(metaPath); err == nil {
		meta, err := LoadMetadata(metaPath)
		if err != nil {
			return nil, err
		}
		view.Metadata = meta
	}

	return view, nil
}
