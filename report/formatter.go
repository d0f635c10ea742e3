// Package report renders analysis results for people and for tools.
package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/LegacyCodeHQ/unstar/analysis"
	"github.com/LegacyCodeHQ/unstar/editplan"
	"github.com/LegacyCodeHQ/unstar/pyast"
	"github.com/LegacyCodeHQ/unstar/wildcard"
)

// OutputFormat represents an output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// String returns the string representation of the format
func (f OutputFormat) String() string {
	return string(f)
}

// SupportedFormats lists the valid --format values.
func SupportedFormats() string {
	return strings.Join([]string{OutputFormatText.String(), OutputFormatJSON.String()}, ", ")
}

// Options contains optional parameters for formatting reports.
type Options struct {
	// Root makes file paths relative when set.
	Root string
	// Quiet drops the summary table from text output.
	Quiet bool
}

// Formatter is the interface that all report formatters implement.
type Formatter interface {
	Format(reports []analysis.FileReport, opts Options) (string, error)
}

// NewFormatter creates a Formatter for the specified format type.
func NewFormatter(format string) (Formatter, error) {
	switch OutputFormat(format) {
	case OutputFormatText:
		return &TextFormatter{}, nil
	case OutputFormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (valid options: %s)", format, SupportedFormats())
	}
}

// displayPath returns path relative to root, slash separated.
func displayPath(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// statementText is the source of a wildcard statement on a single line.
func statementText(source []byte, stmt *pyast.ImportFrom) string {
	span := stmt.Span()
	if span.EndByte > len(source) || span.StartByte > span.EndByte {
		return "from " + stmt.ModuleText + " import *"
	}
	text := strings.ReplaceAll(string(source[span.StartByte:span.EndByte]), "\\\n", " ")
	return strings.Join(strings.Fields(text), " ")
}

// replacementText describes what happens to a site.
func replacementText(outcome wildcard.Outcome) string {
	switch {
	case !outcome.Result.IsResolved():
		return "left unresolved: " + outcome.Result.Err.Error()
	case outcome.Result.IsDead():
		return "(deleted)"
	default:
		return editplan.ImportText(outcome.Site.Stmt.ModuleText, outcome.Result.Names, "", 0)
	}
}

// skipReason drops the file path the parse cache adds to parse failures.
func skipReason(err error) string {
	var parseErr *pyast.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Error()
	}
	return err.Error()
}
