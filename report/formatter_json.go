package report

import (
	"encoding/json"

	"github.com/LegacyCodeHQ/unstar/analysis"
)

type jsonReport struct {
	Files   []jsonFile `json:"files"`
	Summary Counts     `json:"summary"`
}

type jsonFile struct {
	Path    string     `json:"path"`
	Module  string     `json:"module,omitempty"`
	Skipped string     `json:"skipped,omitempty"`
	Sites   []jsonSite `json:"sites"`
}

type jsonSite struct {
	Line        int      `json:"line"`
	Column      int      `json:"column"`
	Statement   string   `json:"statement"`
	Target      string   `json:"target,omitempty"`
	Status      string   `json:"status"`
	Names       []string `json:"names,omitempty"`
	Replacement string   `json:"replacement,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// JSONFormatter formats reports as JSON.
type JSONFormatter struct{}

// Format converts the reports to JSON. Quiet is ignored.
func (f *JSONFormatter) Format(reports []analysis.FileReport, opts Options) (string, error) {
	out := jsonReport{Files: make([]jsonFile, 0, len(reports)), Summary: Count(reports)}
	for _, r := range reports {
		file := jsonFile{
			Path:   displayPath(opts.Root, r.Path),
			Module: r.Module.Name,
			Sites:  []jsonSite{},
		}
		if r.Skipped() {
			file.Skipped = skipReason(r.Err)
		}
		for _, outcome := range r.Outcomes {
			pos := outcome.Site.Stmt.Span().Start
			site := jsonSite{
				Line:      pos.Line,
				Column:    pos.Column,
				Statement: statementText(r.Source, outcome.Site.Stmt),
				Target:    outcome.Site.Target,
			}
			switch {
			case !outcome.Result.IsResolved():
				site.Status = "unresolved"
				site.Reason = outcome.Result.Err.Error()
			case outcome.Result.IsDead():
				site.Status = "deleted"
			default:
				site.Status = "resolved"
				site.Names = outcome.Result.Names
				site.Replacement = replacementText(outcome)
			}
			file.Sites = append(file.Sites, site)
		}
		out.Files = append(out.Files, file)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
