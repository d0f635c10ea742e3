package report

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/unstar/analysis"
)

// TextFormatter prints one line per wildcard site, then a summary table.
type TextFormatter struct{}

// Format renders reports as
//
//	path:line: <original>  ==>  <replacement | (deleted) | left unresolved: reason>
func (f *TextFormatter) Format(reports []analysis.FileReport, opts Options) (string, error) {
	var sb strings.Builder
	sites := 0
	for _, r := range reports {
		path := displayPath(opts.Root, r.Path)
		if r.Skipped() {
			sb.WriteString(fmt.Sprintf("%s: skipped: %s\n", path, skipReason(r.Err)))
			continue
		}
		for _, outcome := range r.Outcomes {
			sites++
			sb.WriteString(fmt.Sprintf("%s:%d: %s  ==>  %s\n",
				path, outcome.Site.Line(), statementText(r.Source, outcome.Site.Stmt), replacementText(outcome)))
		}
	}

	if sites == 0 {
		sb.WriteString("No wildcard imports found.\n")
		return sb.String(), nil
	}
	if !opts.Quiet {
		sb.WriteString("\n")
		sb.WriteString(Summary(reports, opts))
	}
	return sb.String(), nil
}
