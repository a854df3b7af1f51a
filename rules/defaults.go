// SPDX-License-Identifier: GPL-3.0-or-later
package rules

// Default returns the compiled-in rule tables. Every call returns fresh slices.
func Default() Rules {
	return Rules{
		Applied: KeywordSet{
			"application received",
			"application submitted",
			"thank you for applying",
			"we received your application",
			"thanks for applying",
			"your application has been received",
			"application confirmation",
			"successfully applied",
		},
		Rejected: KeywordSet{
			"unfortunately",
			"not moving forward",
			"other candidates",
			"position has been filled",
			"not selected",
			"regret to inform",
			"decided not to proceed",
			"will not be moving",
		},
		Action: KeywordSet{
			"action required",
			"next steps",
			"schedule an interview",
			"interview invitation",
			"move forward",
			"like to invite you",
			"online assessment",
			"coding challenge",
			"complete the assessment",
		},
		JobContext: KeywordSet{
			"application",
			"applying",
			"applied",
			"position",
			"candidate",
			"interview",
			"recruit",
			"hiring",
			"assessment",
			"role",
			"job",
			"career",
			"opportunity",
		},
		Blocklists: Blocklists{
			Domains: []string{
				"linkedin.com",
				"indeed.com",
				"glassdoor.com",
				"ziprecruiter.com",
				"monster.com",
				"dice.com",
				"joinhandshake.com",
				"wellfound.com",
			},
			Addresses: []string{
				"jobalerts-noreply@linkedin.com",
				"alert@indeed.com",
				"noreply@glassdoor.com",
				"newsletter@",
			},
			Subjects: []string{
				"job alert",
				"jobs you may be interested in",
				"recommended jobs",
				"new jobs for you",
				"jobs for you",
				"webinar",
				"career fair",
			},
			Whitelist: []string{
				"recruiter@joinhandshake.com",
				"@hire.lever.co",
				"@greenhouse.io",
				"@myworkday",
			},
		},
	}
}
