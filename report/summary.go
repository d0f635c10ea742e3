package report

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/LegacyCodeHQ/unstar/analysis"
)

// Counts tallies the outcomes of a set of reports.
type Counts struct {
	Files      int `json:"files"`
	Skipped    int `json:"skipped"`
	Wildcards  int `json:"wildcards"`
	Resolved   int `json:"resolved"`
	Deleted    int `json:"deleted"`
	Unresolved int `json:"unresolved"`
}

func (c *Counts) add(r analysis.FileReport) {
	c.Files++
	if r.Skipped() {
		c.Skipped++
		return
	}
	for _, outcome := range r.Outcomes {
		c.Wildcards++
		switch {
		case !outcome.Result.IsResolved():
			c.Unresolved++
		case outcome.Result.IsDead():
			c.Deleted++
		default:
			c.Resolved++
		}
	}
}

// Count tallies reports.
func Count(reports []analysis.FileReport) Counts {
	var total Counts
	for _, r := range reports {
		total.add(r)
	}
	return total
}

// Summary renders a table with one row per file that has wildcard imports.
func Summary(reports []analysis.FileReport, opts Options) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"File", "Wildcards", "Resolved", "Deleted", "Unresolved"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	for _, r := range reports {
		if r.Skipped() || len(r.Outcomes) == 0 {
			continue
		}
		var c Counts
		c.add(r)
		table.Append([]string{
			displayPath(opts.Root, r.Path),
			fmt.Sprintf("%d", c.Wildcards),
			fmt.Sprintf("%d", c.Resolved),
			fmt.Sprintf("%d", c.Deleted),
			fmt.Sprintf("%d", c.Unresolved),
		})
	}

	total := Count(reports)
	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d (%d skipped)", total.Files, total.Skipped),
		fmt.Sprintf("%d", total.Wildcards),
		fmt.Sprintf("%d", total.Resolved),
		fmt.Sprintf("%d", total.Deleted),
		fmt.Sprintf("%d", total.Unresolved),
	})

	table.Render()
	return tableBuffer.String()
}
