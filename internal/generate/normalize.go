package generate

import (
	"sort"
	"strings"
	"text/template"

	"sqldeck/pkg/errors"
)

const normalizeViewTemplate = `CREATE OR REPLACE VIEW {{.Dataset}}.{{.Name}} AS
SELECT
  *,
  CASE {{.Column}}
{{- range .Mappings}}
    WHEN '{{.Raw}}' THEN '{{.Canonical}}'
{{- end}}
    ELSE 'Other'
  END AS normalized_{{.Column}}
FROM {{.Source}};
`

var normalizeTmpl = template.Must(template.New("normalize_view").Parse(normalizeViewTemplate))

// Mapping pairs a raw value with its canonical form
type Mapping struct {
	Raw       string
	Canonical string
}

// NormalizeView renders a view that adds a normalized_<column> field
// mapping raw values to canonical names via a CASE expression.
// Mappings are sorted by raw value so output is deterministic.
func NormalizeView(dataset, name, source, column string, mappings map[string]string) (string, error) {
	if len(mappings) == 0 {
		return "", errors.InvalidInputError("mappings", mappings, "at least one mapping is required")
	}

	sorted := make([]Mapping, 0, len(mappings))
	for raw, canonical := range mappings {
		if strings.ContainsRune(raw, '\'') || strings.ContainsRune(canonical, '\'') {
			return "", errors.InvalidInputError("mappings", raw, "values must not contain single quotes")
		}
		sorted = append(sorted, Mapping{Raw: raw, Canonical: canonical})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Raw < sorted[j].Raw })

	var b strings.Builder
	err := normalizeTmpl.Execute(&b, struct {
		Dataset  string
		Name     string
		Source   string
		Column   string
		Mappings []Mapping
	}{dataset, name, source, column, sorted})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "Failed to render normalization view")
	}

	return b.String(), nil
}
