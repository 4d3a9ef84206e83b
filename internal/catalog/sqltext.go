package catalog

import "strings"

// StripComments removes line (--) and block (/* */) comments from SQL
// text. Comment markers inside string literals are left alone.
func StripComments(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))

	inString := false
	stringChar := byte(0)
	inLine := false
	inBlock := false

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		switch {
		case inLine:
			if c == '\n' {
				inLine = false
				b.WriteByte(c)
			}
		case inBlock:
			if c == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				inBlock = false
				i++
			}
		case inString:
			if c == stringChar && (i == 0 || sql[i-1] != '\\') {
				inString = false
			}
			b.WriteByte(c)
		default:
			if c == '\'' || c == '"' {
				inString = true
				stringChar = c
				b.WriteByte(c)
			} else if c == '-' && i+1 < len(sql) && sql[i+1] == '-' {
				inLine = true
				i++
			} else if c == '/' && i+1 < len(sql) && sql[i+1] == '*' {
				inBlock = true
				i++
			} else {
				b.WriteByte(c)
			}
		}
	}

	return b.String()
}

// SplitStatements splits SQL text on semicolons that are not inside
// string literals. Empty statements are dropped and the rest trimmed.
func SplitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := rune(0)

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			statements = append(statements, s)
		}
		current.Reset()
	}

	for i, char := range sql {
		if !inString {
			if char == '\'' || char == '"' {
				inString = true
				stringChar = char
			} else if char == ';' {
				if i == 0 || sql[i-1] != '\\' {
					flush()
					continue
				}
			}
		} else {
			if char == stringChar && (i == 0 || sql[i-1] != '\\') {
				inString = false
			}
		}
		current.WriteRune(char)
	}

	flush()
	return statements
}
