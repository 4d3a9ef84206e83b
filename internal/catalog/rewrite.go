package catalog

import (
	"regexp"
	"strings"
)

// RewriteAsTemp turns SQL that references persistent routines into SQL
// that only uses temporary functions: every known dataset.name
// reference becomes dataset_name and persistent CREATE FUNCTION
// prefixes become CREATE TEMP FUNCTION. Tests rewritten this way run
// without touching shared datasets.
func RewriteAsTemp(sql string, known map[string]*Routine) string {
	for name, r := range known {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		sql = re.ReplaceAllString(sql, r.TempName())
	}
	return createFunctionRe.ReplaceAllString(sql, "CREATE TEMP FUNCTION")
}

// DependencyDefinitions returns the definition statements of every
// known routine the SQL text depends on, transitively, in dependency
// order. Statements already present in the text are skipped.
func DependencyDefinitions(sql string, known map[string]*Routine) []string {
	var deps []string
	seen := make(map[string]bool)
	for _, usage := range UsagesInText(sql, known) {
		for _, dep := range AccumulateDependencies(known, usage) {
			if !seen[dep] {
				seen[dep] = true
				deps = append(deps, dep)
			}
		}
	}

	var statements []string
	for _, dep := range deps {
		for _, stmt := range known[dep].Definitions {
			if !strings.Contains(sql, stmt) {
				statements = append(statements, stmt)
			}
		}
	}
	return statements
}

// TestStatements returns the routine's tests as self-contained SQL:
// each test gets the definitions of every routine it references
// (including the routine under test) prepended, then the whole thing
// rewritten to use temporary functions only.
func TestStatements(r *Routine, known map[string]*Routine) []string {
	var rewritten []string
	for _, test := range r.Tests {
		parts := DependencyDefinitions(test, known)
		parts = append(parts, test)
		full := strings.Join(parts, ";\n\n")
		rewritten = append(rewritten, RewriteAsTemp(full, known))
	}
	return rewritten
}
