// SPDX-License-Identifier: GPL-3.0-or-later
package company

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		sender   string
		expected string
	}{
		{"quotedname", `"Netflix Careers" <jobs@netflix.com>`, "netflix careers"},
		{"quotednamewins", `"Acme Corp" <no-reply@acme.com>`, "acme corp"},
		{"emptyquotes", `"" <no-reply@jobs.stripe.com>`, "stripe"},
		{"unterminatedquote", `"Acme <no-reply@acme.com>`, "acme"},
		{"genericsubdomain", "no-reply@jobs.stripe.com", "stripe"},
		{"severalgeneric", "alerts@mail.notifications.figma.com", "figma"},
		{"bracketaddress", "Stripe <no-reply@hire.stripe.com>", "stripe"},
		{"shortsegment", "updates@x.io", "updates@x.io"},
		{"onlygeneric", "noreply@careers.jobs.com", "noreply@careers.jobs.com"},
		{"uppercase", "Team@Datadog.COM", "datadog"},
		{"othertld", "hr@acme.co.uk", "acme"},
		{"lastat", "weird@name@greenhouse.io", "greenhouse"},
		{"noat", "Acme Recruiting", "acme recruiting"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.sender))
		})
	}
}
