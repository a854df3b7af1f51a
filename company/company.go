// SPDX-License-Identifier: GPL-3.0-or-later

// Package company derives a grouping key for the organisation behind a sender.
//
// The key is a heuristic. Distinct companies sending through the same infrastructure subdomain collapse onto one key.
package company

import "strings"

var tldSuffixes = []string{".com", ".org", ".io", ".net"}

// generic infrastructure labels that never name a company
var stoplist = map[string]bool{
	"mail":          true,
	"jobs":          true,
	"careers":       true,
	"noreply":       true,
	"no-reply":      true,
	"e":             true,
	"mail1":         true,
	"mail2":         true,
	"talent":        true,
	"hire":          true,
	"career":        true,
	"alerts":        true,
	"recruit":       true,
	"notifications": true,
}

// Normalize returns the company key for a sender such as `"Acme Corp" <jobs@acme.com>` or `no-reply@jobs.acme.com`.
func Normalize(sender string) string {
	if name, ok := quotedName(sender); ok {
		return strings.ToLower(name)
	}

	if strings.Contains(sender, "@") {
		if segment, ok := domainSegment(sender); ok {
			return segment
		}
	}

	return strings.ToLower(sender)
}

func quotedName(sender string) (string, bool) {
	start := strings.Index(sender, `"`)
	if start < 0 {
		return "", false
	}
	end := strings.Index(sender[start+1:], `"`)
	if end < 0 {
		return "", false
	}

	name := sender[start+1 : start+1+end]
	return name, len(name) > 0
}

func domainSegment(sender string) (string, bool) {
	domain := sender[strings.LastIndex(sender, "@")+1:]
	if i := strings.Index(domain, ">"); i >= 0 {
		domain = domain[:i]
	}
	domain = strings.ToLower(strings.TrimSpace(domain))

	for _, suffix := range tldSuffixes {
		if strings.HasSuffix(domain, suffix) {
			domain = strings.TrimSuffix(domain, suffix)
			break
		}
	}

	for _, segment := range strings.Split(domain, ".") {
		if stoplist[segment] || len(segment) <= 2 {
			continue
		}
		return segment, true
	}

	return "", false
}
