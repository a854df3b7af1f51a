// SPDX-License-Identifier: GPL-3.0-or-later
package dedupe

import "github.com/CrawX/go-mbox-jobsort/domain"

type Counts map[domain.Category]int

// Tally holds the per-category totals before and after deduplication.
type Tally struct {
	Raw     Counts
	Deduped Counts
}

func NewTally(raw []domain.ClassificationResult, policy Policy) Tally {
	return Tally{
		Raw:     Count(raw),
		Deduped: Count(Deduplicate(raw, policy)),
	}
}

func Count(results []domain.ClassificationResult) Counts {
	counts := Counts{}
	for _, c := range domain.Categories {
		counts[c] = 0
	}
	for _, r := range results {
		counts[r.Category]++
	}
	return counts
}

func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
