// SPDX-License-Identifier: GPL-3.0-or-later

// Package rules holds the keyword and blocklist tables that drive classification.
//
// All matching is plain substring containment on lowercased text, there are no word boundaries. A keyword such as
// "hire" therefore also hits "hirevue" or "shire", callers accept these false positives.
package rules

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// KeywordSet is an ordered list of lowercase phrases. Order matters: FirstMatch reports the first declared phrase
// that occurs in the text.
type KeywordSet []string

// FirstMatch returns the first keyword in declared order that occurs in text.
func (ks KeywordSet) FirstMatch(text string) (string, bool) {
	for _, kw := range ks {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

func (ks KeywordSet) Matches(text string) bool {
	_, ok := ks.FirstMatch(text)
	return ok
}

type Blocklists struct {
	// Domains are matched against "@<domain>" in the sender.
	Domains []string
	// Addresses are full sender addresses, matched by containment.
	Addresses []string
	Subjects  []string
	// Whitelist entries are sender substrings that bypass Domains, but neither Addresses nor Subjects.
	Whitelist []string
}

type Rules struct {
	Applied    KeywordSet
	Rejected   KeywordSet
	Action     KeywordSet
	JobContext KeywordSet

	Blocklists Blocklists
}

// LoadFile reads a TOML rules file. Lists that are missing or empty in the file keep their compiled-in default.
func LoadFile(filename string) (Rules, error) {
	fileRules := Rules{}
	_, err := toml.DecodeFile(filename, &fileRules)
	if err != nil {
		return Rules{}, fmt.Errorf("could not read rules file: %w", err)
	}

	merged := Default()
	merged.Applied = pick(fileRules.Applied, merged.Applied)
	merged.Rejected = pick(fileRules.Rejected, merged.Rejected)
	merged.Action = pick(fileRules.Action, merged.Action)
	merged.JobContext = pick(fileRules.JobContext, merged.JobContext)
	merged.Blocklists.Domains = pick(fileRules.Blocklists.Domains, merged.Blocklists.Domains)
	merged.Blocklists.Addresses = pick(fileRules.Blocklists.Addresses, merged.Blocklists.Addresses)
	merged.Blocklists.Subjects = pick(fileRules.Blocklists.Subjects, merged.Blocklists.Subjects)
	merged.Blocklists.Whitelist = pick(fileRules.Blocklists.Whitelist, merged.Blocklists.Whitelist)

	return merged.Normalized(), nil
}

// Normalized returns a copy with every entry lowercased and trimmed. Empty entries are dropped since they would
// match every text.
func (r Rules) Normalized() Rules {
	return Rules{
		Applied:    normalize(r.Applied),
		Rejected:   normalize(r.Rejected),
		Action:     normalize(r.Action),
		JobContext: normalize(r.JobContext),
		Blocklists: Blocklists{
			Domains:   normalize(r.Blocklists.Domains),
			Addresses: normalize(r.Blocklists.Addresses),
			Subjects:  normalize(r.Blocklists.Subjects),
			Whitelist: normalize(r.Blocklists.Whitelist),
		},
	}
}

func normalize[T ~[]string](entries T) T {
	result := T{}
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if len(e) == 0 {
			continue
		}
		result = append(result, e)
	}
	return result
}

func pick[T ~[]string](fromFile, fallback T) T {
	if len(fromFile) > 0 {
		return fromFile
	}
	return fallback
}
