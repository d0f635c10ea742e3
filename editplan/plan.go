// Package editplan turns wildcard resolutions into byte-range edits of the
// source file and applies them.
package editplan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/LegacyCodeHQ/unstar/pyast"
	"github.com/LegacyCodeHQ/unstar/wildcard"
)

// DefaultLineLength is the width above which replacement imports are wrapped.
const DefaultLineLength = 79

// ErrOverlappingEdits is returned by Apply for plans whose edits overlap.
var ErrOverlappingEdits = errors.New("overlapping edits")

// Options controls how replacements are formatted.
type Options struct {
	LineLength int
}

// Edit replaces source[Start:End] with Replacement.
type Edit struct {
	Start       int
	End         int
	Replacement string
	// Stmt is the wildcard import the edit rewrites.
	Stmt *pyast.ImportFrom
}

// IsDeletion reports whether the edit removes the statement.
func (e Edit) IsDeletion() bool {
	return e.Replacement == ""
}

// Plan is the ordered list of edits for one file.
type Plan struct {
	Path  string
	Edits []Edit
}

// IsEmpty reports whether the plan changes nothing.
func (p Plan) IsEmpty() bool {
	return len(p.Edits) == 0
}

// EditFor returns the edit that rewrites stmt.
func (p Plan) EditFor(stmt *pyast.ImportFrom) (Edit, bool) {
	for _, e := range p.Edits {
		if e.Stmt == stmt {
			return e, true
		}
	}
	return Edit{}, false
}

// NewPlan builds the edits for the resolved outcomes of one file.
// Unresolvable outcomes are left alone.
func NewPlan(path string, source []byte, outcomes []wildcard.Outcome, opts Options) Plan {
	if opts.LineLength <= 0 {
		opts.LineLength = DefaultLineLength
	}

	plan := Plan{Path: path}
	for _, outcome := range outcomes {
		if !outcome.Result.IsResolved() {
			continue
		}
		stmt := outcome.Site.Stmt
		span := stmt.Span()

		if outcome.Result.IsDead() {
			start, end := deletionRange(source, span.StartByte, span.EndByte)
			plan.Edits = append(plan.Edits, Edit{Start: start, End: end, Stmt: stmt})
			continue
		}

		lineStart, lineEnd := lineBounds(source, span.StartByte, span.EndByte)
		prefix := string(source[lineStart:span.StartByte])
		suffix := string(source[span.EndByte:lineEnd])
		indent := prefix[:len(prefix)-len(strings.TrimLeft(prefix, " \t"))]

		replacement := ImportText(stmt.ModuleText, outcome.Result.Names, "", 0)
		if len(prefix)+len(replacement)+len(suffix) > opts.LineLength {
			replacement = ImportText(stmt.ModuleText, outcome.Result.Names, indent, opts.LineLength)
		}
		plan.Edits = append(plan.Edits, Edit{
			Start:       span.StartByte,
			End:         span.EndByte,
			Replacement: replacement,
			Stmt:        stmt,
		})
	}

	sort.SliceStable(plan.Edits, func(i, j int) bool {
		return plan.Edits[i].Start < plan.Edits[j].Start
	})
	return plan
}

// ImportText renders "from module import names". With a positive
// lineLength it renders the parenthesized form, one name per line.
func ImportText(module string, names []string, indent string, lineLength int) string {
	if lineLength <= 0 {
		return fmt.Sprintf("from %s import %s", module, strings.Join(names, ", "))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("from %s import (\n", module))
	for _, name := range names {
		sb.WriteString(indent)
		sb.WriteString("    ")
		sb.WriteString(name)
		sb.WriteString(",\n")
	}
	sb.WriteString(indent)
	sb.WriteString(")")
	return sb.String()
}

// lineBounds returns the start of the line holding start and the end of the
// line holding end, excluding the newline.
func lineBounds(source []byte, start, end int) (int, int) {
	lineStart := start
	for lineStart > 0 && source[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := end
	for lineEnd < len(source) && source[lineEnd] != '\n' {
		lineEnd++
	}
	return lineStart, lineEnd
}

// deletionRange widens a statement's range so that deleting it leaves no
// blank line and no dangling semicolon.
func deletionRange(source []byte, start, end int) (int, int) {
	lineStart, lineEnd := lineBounds(source, start, end)
	before := string(source[lineStart:start])
	after := string(source[end:lineEnd])

	if strings.TrimSpace(before) == "" && isBlankOrComment(after) {
		if lineEnd < len(source) {
			return lineStart, lineEnd + 1
		}
		if lineStart > 0 {
			return lineStart - 1, lineEnd
		}
		return lineStart, lineEnd
	}

	trimmedAfter := strings.TrimLeft(after, " \t")
	if strings.HasPrefix(trimmedAfter, ";") {
		next := end + (len(after) - len(trimmedAfter)) + 1
		for next < lineEnd && (source[next] == ' ' || source[next] == '\t') {
			next++
		}
		return start, next
	}

	trimmedBefore := strings.TrimRight(before, " \t")
	if strings.HasSuffix(trimmedBefore, ";") {
		return lineStart + len(trimmedBefore) - 1, end
	}
	return start, end
}

func isBlankOrComment(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// Apply returns source with the plan's edits applied.
func Apply(source []byte, plan Plan) ([]byte, error) {
	edits := append([]Edit(nil), plan.Edits...)
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].Start < edits[j].Start
	})

	for i, e := range edits {
		if e.Start < 0 || e.End > len(source) || e.Start > e.End {
			return nil, fmt.Errorf("edit %d:%d is outside the %d byte source of %s", e.Start, e.End, len(source), plan.Path)
		}
		if i > 0 && e.Start < edits[i-1].End {
			return nil, fmt.Errorf("%w in %s at bytes %d and %d", ErrOverlappingEdits, plan.Path, edits[i-1].Start, e.Start)
		}
	}

	result := append([]byte(nil), source...)
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		var buf []byte
		buf = append(buf, result[:e.Start]...)
		buf = append(buf, e.Replacement...)
		buf = append(buf, result[e.End:]...)
		result = buf
	}
	return result, nil
}
