// SPDX-License-Identifier: GPL-3.0-or-later
package filter

import (
	"strings"

	"github.com/CrawX/go-mbox-jobsort/rules"
)

const (
	ReasonDomain  = "domain"
	ReasonAddress = "address"
	ReasonSubject = "subject"
)

// SenderFilter rejects messages based on sender and subject alone, before any body is decoded.
type SenderFilter struct {
	blocklists rules.Blocklists
}

func NewSenderFilter(blocklists rules.Blocklists) *SenderFilter {
	return &SenderFilter{blocklists: blocklists}
}

// Check reports whether a message passes the filter. For rejected messages reason names the rule that matched,
// e.g. "domain:linkedin.com".
func (sf *SenderFilter) Check(sender, subject string) (bool, string) {
	sender = strings.ToLower(sender)
	subject = strings.ToLower(subject)

	if !sf.whitelisted(sender) {
		for _, d := range sf.blocklists.Domains {
			at := "@" + d
			if strings.HasSuffix(sender, at) || strings.Contains(sender, at) {
				return false, ReasonDomain + ":" + d
			}
		}
	}

	for _, a := range sf.blocklists.Addresses {
		if strings.Contains(sender, a) {
			return false, ReasonAddress + ":" + a
		}
	}

	for _, s := range sf.blocklists.Subjects {
		if strings.Contains(subject, s) {
			return false, ReasonSubject + ":" + s
		}
	}

	return true, ""
}

func (sf *SenderFilter) whitelisted(sender string) bool {
	for _, w := range sf.blocklists.Whitelist {
		if strings.Contains(sender, w) {
			return true
		}
	}
	return false
}
