// SPDX-License-Identifier: GPL-3.0-or-later
package report

import (
	"fmt"
	"strings"

	"github.com/CrawX/go-mbox-jobsort/dedupe"
	"github.com/CrawX/go-mbox-jobsort/domain"
	"github.com/CrawX/go-mbox-jobsort/jobsort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const totalLabel = "all sources"

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Summary renders the per-source and aggregate counts of r. Every cell shows "raw / deduplicated".
func Summary(r *jobsort.Report) string {
	headers := []string{"source"}
	for _, c := range domain.Categories {
		headers = append(headers, c.String())
	}
	headers = append(headers, "total")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
		Headers(headers...)

	for _, s := range r.PerSource {
		t.Row(tallyRow(s.Source, s.Tally)...)
	}
	t.Row(tallyRow(totalLabel, r.Total)...)

	sb := &strings.Builder{}
	sb.WriteString(t.String())
	sb.WriteString("\n")
	fmt.Fprintf(sb, "filtered: %d  dropped: %d  malformed: %d\n", r.Filtered, r.Dropped, r.Malformed)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(sb, "skipped sources: %s\n", strings.Join(r.Skipped, ", "))
	}

	return sb.String()
}

func tallyRow(label string, tally dedupe.Tally) []string {
	row := []string{label}
	for _, c := range domain.Categories {
		row = append(row, cell(tally.Raw[c], tally.Deduped[c]))
	}
	return append(row, cell(tally.Raw.Total(), tally.Deduped.Total()))
}

func cell(raw, deduped int) string {
	return fmt.Sprintf("%d / %d", raw, deduped)
}
