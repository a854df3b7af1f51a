// SPDX-License-Identifier: GPL-3.0-or-later
package dedupe

import (
	"fmt"
	stdmail "net/mail"
	"strings"
	"time"

	"github.com/CrawX/go-mbox-jobsort/domain"
)

// Policy decides which record is kept when several share a (company, category) key.
type Policy string

const (
	// LastWins keeps the last record in iteration order.
	LastWins = Policy("last")
	// FirstWins keeps the first record in iteration order.
	FirstWins = Policy("first")
	// MostRecent keeps the record with the latest Date header. Unparseable dates rank below every parseable one,
	// ties go to the later record.
	MostRecent = Policy("recent")
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case LastWins, FirstWins, MostRecent:
		return p, nil
	case "":
		return LastWins, nil
	}
	return "", fmt.Errorf("unknown dedupe policy %q, use one of last, first, recent", s)
}

// Deduplicate folds results into at most one record per key. The output lists keys in order of first appearance.
func Deduplicate(results []domain.ClassificationResult, policy Policy) []domain.ClassificationResult {
	index := map[domain.DedupeKey]int{}
	kept := []domain.ClassificationResult{}

	for _, r := range results {
		key := r.Key()
		i, seen := index[key]
		if !seen {
			index[key] = len(kept)
			kept = append(kept, r)
			continue
		}

		if replaces(policy, kept[i], r) {
			kept[i] = r
		}
	}

	return kept
}

func replaces(policy Policy, current, candidate domain.ClassificationResult) bool {
	switch policy {
	case FirstWins:
		return false
	case MostRecent:
		currentDate, currentOk := parseDate(current.Date)
		candidateDate, candidateOk := parseDate(candidate.Date)
		switch {
		case !candidateOk:
			return !currentOk
		case !currentOk:
			return true
		}
		return !candidateDate.Before(currentDate)
	}

	return true
}

func parseDate(date string) (time.Time, bool) {
	t, err := stdmail.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
