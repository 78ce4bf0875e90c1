package binder

import (
	"database/sql"
	"math"
	"regexp"
	"strings"

	"github.com/dbroute/dbroute/database"
)

const (
	OutPrefix = "out_"
	// OutID is the only output name bound as a number.
	OutID = "out_id"
)

var returningPattern = regexp.MustCompile(`(?i)\breturning\b`)

// Statement is a route template rewritten for one dialect.
type Statement struct {
	SQL string
	// Names lists the bind variables: distinct and in order of first
	// appearance for named and ordinal dialects, one per marker for
	// positional dialects.
	Names     []string
	Style     database.BindStyle
	Returning bool
}

// Rewrite replaces every @name placeholder found outside single quoted
// literals with the bind marker of d. Text without @ placeholders is
// returned unchanged.
func Rewrite(template string, d database.Dialect) Statement {
	stmt := Statement{Style: d.BindStyle()}
	ordinals := make(map[string]int)
	var ordered []string
	var occurrences []string

	rewritten := replacePlaceholders(template, func(name string) string {
		occurrences = append(occurrences, name)
		key := strings.ToLower(name)
		ord, ok := ordinals[key]
		if !ok {
			ord = len(ordinals) + 1
			ordinals[key] = ord
			ordered = append(ordered, name)
		}
		return d.Placeholder(name, ord)
	})
	stmt.SQL = rewritten
	stmt.Returning = returningPattern.MatchString(StripLiterals(rewritten))

	switch stmt.Style {
	case database.BindNamed:
		stmt.Names = scanMarkers(StripLiterals(rewritten), d.MarkerPattern())
	case database.BindOrdinal:
		stmt.Names = ordered
	default:
		stmt.Names = occurrences
	}
	return stmt
}

// replacePlaceholders calls fn for every @name token outside single quoted
// literals and comments and splices in its result.
func replacePlaceholders(text string, fn func(name string) string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	inLiteral := false
	for i := 0; i < len(text); {
		c := text[i]
		if c == '\'' {
			inLiteral = !inLiteral
			sb.WriteByte(c)
			i++
			continue
		}
		if !inLiteral {
			if end := commentEnd(text, i); end > i {
				sb.WriteString(text[i:end])
				i = end
				continue
			}
		}
		if inLiteral || c != '@' || i+1 >= len(text) || !isIdentStart(text[i+1]) ||
			(i > 0 && (text[i-1] == '@' || isIdentChar(text[i-1]))) {
			sb.WriteByte(c)
			i++
			continue
		}
		j := i + 1
		for j < len(text) && isIdentChar(text[j]) {
			j++
		}
		sb.WriteString(fn(text[i+1 : j]))
		i = j
	}
	return sb.String()
}

// StripLiterals empties every single quoted literal and turns comments into
// a blank. Doubled quotes inside a literal toggle twice, so they need no
// special case.
func StripLiterals(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	inLiteral := false
	for i := 0; i < len(text); {
		c := text[i]
		if c == '\'' {
			inLiteral = !inLiteral
			sb.WriteByte(c)
			i++
			continue
		}
		if !inLiteral {
			if end := commentEnd(text, i); end > i {
				sb.WriteByte(' ')
				i = end
				continue
			}
			sb.WriteByte(c)
		}
		i++
	}
	return sb.String()
}

// commentEnd returns the index right after the -- or /* */ comment that
// starts at i, or i when no comment starts there. A line comment keeps its
// newline, an unterminated block comment runs to the end of text.
func commentEnd(text string, i int) int {
	if i+1 >= len(text) {
		return i
	}
	switch text[i : i+2] {
	case "--":
		if nl := strings.IndexByte(text[i:], '\n'); nl >= 0 {
			return i + nl
		}
		return len(text)
	case "/*":
		if end := strings.Index(text[i+2:], "*/"); end >= 0 {
			return i + 2 + end + 2
		}
		return len(text)
	}
	return i
}

func scanMarkers(text string, pattern *regexp.Regexp) []string {
	if pattern == nil {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		key := strings.ToLower(m[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, m[1])
	}
	return names
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

type Params map[string]interface{}

// Bind resolves a value for every variable: exact name first, then a case
// insensitive match, else nil. Every name is present in the result.
func Bind(names []string, values map[string]interface{}) Params {
	params := make(Params, len(names))
	for _, name := range names {
		if _, done := params[name]; done {
			continue
		}
		v, ok := values[name]
		if !ok {
			for k, candidate := range values {
				if strings.EqualFold(k, name) {
					v = candidate
					break
				}
			}
		}
		params[name] = normalize(v)
	}
	return params
}

// JSON numbers arrive as float64, integral ones are bound as int64.
func normalize(v interface{}) interface{} {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return v
}

func IsOutName(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), OutPrefix)
}

func outKind(name string) database.OutKind {
	if strings.EqualFold(name, OutID) {
		return database.OutNumber
	}
	return database.OutText
}

// Outputs reads back the output binds after execution.
type Outputs map[string]func() interface{}

func (o Outputs) Values() map[string]interface{} {
	if len(o) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(o))
	for name, read := range o {
		values[name] = read()
	}
	return values
}

// Args turns bound params into driver arguments for the statement. Output
// slots replace the nil value of out_ variables when the statement has a
// RETURNING clause and the dialect supports output binds.
func Args(stmt Statement, params Params, d database.Dialect) ([]interface{}, Outputs) {
	outputs := make(Outputs)
	slot := make(map[string]interface{}, len(params))
	for name, v := range params {
		slot[name] = v
		if stmt.Returning && IsOutName(name) {
			if arg, read, ok := d.OutParam(outKind(name)); ok {
				slot[name] = arg
				outputs[name] = read
			}
		}
	}

	args := make([]interface{}, 0, len(stmt.Names))
	for _, name := range stmt.Names {
		if stmt.Style == database.BindNamed {
			args = append(args, sql.Named(name, slot[name]))
		} else {
			args = append(args, slot[name])
		}
	}
	return args, outputs
}

// Prepare is Rewrite followed by Bind and Args.
func Prepare(template string, values map[string]interface{}, d database.Dialect) (Statement, []interface{}, Outputs) {
	stmt := Rewrite(template, d)
	args, outputs := Args(stmt, Bind(stmt.Names, values), d)
	return stmt, args, outputs
}
