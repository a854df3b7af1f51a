// SPDX-License-Identifier: GPL-3.0-or-later
package classifier

import (
	"github.com/CrawX/go-mbox-jobsort/domain"
	"github.com/CrawX/go-mbox-jobsort/rules"
)

type stage struct {
	category domain.Category
	keywords rules.KeywordSet
}

// Classifier assigns at most one category to a lowercased subject+body text.
type Classifier struct {
	jobContext rules.KeywordSet
	// Rejected, then Action, then Applied. Rejections often quote the "thank you for applying" wording of the
	// original confirmation, invitations quote it as well.
	stages []stage
}

func New(r rules.Rules) *Classifier {
	return &Classifier{
		jobContext: r.JobContext,
		stages: []stage{
			{domain.Rejected, r.Rejected},
			{domain.Action, r.Action},
			{domain.Applied, r.Applied},
		},
	}
}

// IsJobRelated reports whether text contains any job-context keyword.
func (c *Classifier) IsJobRelated(text string) bool {
	return c.jobContext.Matches(text)
}

// Classify returns the category of text and the keyword that triggered it. Texts that fail the job-context gate or
// match no keyword set return domain.None.
func (c *Classifier) Classify(text string) (domain.Category, string) {
	if !c.IsJobRelated(text) {
		return domain.None, ""
	}

	for _, s := range c.stages {
		if kw, ok := s.keywords.FirstMatch(text); ok {
			return s.category, kw
		}
	}

	return domain.None, ""
}
