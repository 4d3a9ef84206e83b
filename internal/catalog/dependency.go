package catalog

import (
	"regexp"
	"sort"
	"strings"
)

// refRe matches qualified dataset.routine references. Matches are only
// treated as dependencies when they name a routine in the catalog.
var refRe = regexp.MustCompile(`\b([a-zA-Z][a-zA-Z0-9_]*)\.([a-zA-Z][a-zA-Z0-9_]*)\b`)

// UsagesInText returns the sorted set of known routine names referenced
// in the given SQL text.
func UsagesInText(sql string, known map[string]*Routine) []string {
	stripped := StripComments(sql)

	seen := make(map[string]bool)
	for _, m := range refRe.FindAllStringSubmatch(stripped, -1) {
		name := m[1] + "." + m[2]
		if _, ok := known[name]; ok {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveDependencies fills in each routine's Dependencies from its
// definition bodies, excluding self-references.
func ResolveDependencies(known map[string]*Routine) {
	for _, r := range known {
		usages := UsagesInText(strings.Join(r.Definitions, "\n"), known)

		deps := usages[:0]
		for _, u := range usages {
			if u != r.Name {
				deps = append(deps, u)
			}
		}
		r.Dependencies = deps
	}
}

// AccumulateDependencies returns the transitive dependencies of the
// named routine in depth-first order, dependencies before dependents,
// ending with the routine itself. Cycles are tolerated: a routine is
// emitted at most once.
func AccumulateDependencies(known map[string]*Routine, name string) []string {
	var deps []string
	visiting := make(map[string]bool)

	var walk func(n string)
	walk = func(n string) {
		r, ok := known[n]
		if !ok || visiting[n] {
			return
		}
		visiting[n] = true

		for _, dep := range r.Dependencies {
			walk(dep)
		}
		deps = append(deps, n)
	}

	walk(name)
	return deps
}

// DeployOrder returns all routines ordered so that every routine
// appears after its dependencies. Roots are visited in sorted name
// order to keep the result deterministic.
func DeployOrder(known map[string]*Routine) []*Routine {
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)

	emitted := make(map[string]bool)
	var ordered []*Routine
	for _, name := range names {
		for _, dep := range AccumulateDependencies(known, name) {
			if !emitted[dep] {
				emitted[dep] = true
				ordered = append(ordered, known[dep])
			}
		}
	}
	return ordered
}
