// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"errors"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/CrawX/go-mbox-jobsort/domain"

	"github.com/emersion/go-message"
	"github.com/stretchr/testify/assert"
)

func readMessage(t *testing.T, name string) *domain.RawMessage {
	rawMail, err := os.ReadFile(path.Join("testdata", name))
	assert.NoError(t, err)
	msg, err := ParseMessage(rawMail)
	assert.NoError(t, err)
	return msg
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		sender  string
		subject string
		date    string
		parts   []domain.ContentType
		decErrs int
	}{
		{"multipart.msg", `"Acme Corp" <no-reply@acme.com>`, "Your application to Acme Corp", "Mon, 02 Oct 2023 09:15:00 +0000", []domain.ContentType{domain.ContentPlain, domain.ContentHTML}, 0},
		{"htmlonly.msg", "Globex Talent <talent@mail.globex.io>", "Interview invitation", "Tue, 03 Oct 2023 11:00:00 +0200", []domain.ContentType{domain.ContentHTML}, 0},
		{"latin1.msg", "Initech Careers <careers@initech.com>", "Candidature reçue", "Wed, 04 Oct 2023 08:00:00 +0000", []domain.ContentType{domain.ContentPlain}, 0},
		{"unknowncharset.msg", "jobs@umbrella.net", "Position update", "Thu, 05 Oct 2023 10:30:00 +0000", []domain.ContentType{domain.ContentPlain, domain.ContentPlain}, 0},
		{"madeupcharset.msg", `"Vandelay Industries" <careers@vandelay.com>`, "Thanks", "Sat, 07 Oct 2023 12:00:00 +0000", []domain.ContentType{domain.ContentPlain}, 0},
		{"unknownencoding.msg", "hr@hooli.com", "Offer letter", "Fri, 06 Oct 2023 16:45:00 +0000", []domain.ContentType{domain.ContentPlain}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := readMessage(t, tc.name)

			assert.Equal(t, tc.sender, msg.Sender)
			assert.Equal(t, tc.subject, msg.Subject)
			assert.Equal(t, tc.date, msg.Date)

			var types []domain.ContentType
			decErrs := 0
			for _, p := range msg.Parts {
				types = append(types, p.ContentType)
				if p.DecodeErr != nil {
					decErrs++
					assert.Empty(t, p.Data)
				}
			}
			assert.Equal(t, tc.parts, types)
			assert.Equal(t, tc.decErrs, decErrs)
		})
	}
}

func TestParseMessageDecodeErrors(t *testing.T) {
	// an unknown charset label keeps the raw bytes
	msg := readMessage(t, "unknowncharset.msg")
	assert.Nil(t, msg.Parts[0].DecodeErr)
	assert.Equal(t, "garbled", string(msg.Parts[0].Data))

	msg = readMessage(t, "madeupcharset.msg")
	assert.Nil(t, msg.Parts[0].DecodeErr)
	assert.Equal(t, "Thank you for applying to the position.", strings.TrimSpace(string(msg.Parts[0].Data)))

	var decErr *domain.DecodeError
	msg = readMessage(t, "unknownencoding.msg")
	assert.True(t, errors.As(msg.Parts[0].DecodeErr, &decErr))
	assert.True(t, message.IsUnknownEncoding(decErr))
}

func TestParseMessageMalformed(t *testing.T) {
	msg, err := ParseMessage([]byte("this is not a header\n\nbody\n"))
	assert.Nil(t, msg)
	assert.ErrorContains(t, err, "could not parse mail")
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errors int
	}{
		{"multipart.msg", "we received your application, thank you for applying.", 0},
		{"htmlonly.msg", "next stepswe would like to schedule an interview.", 0},
		{"latin1.msg", "votre candidature a été reçue.", 0},
		{"unknowncharset.msg", "garbledunfortunately the position has been filled.", 0},
		{"madeupcharset.msg", "thank you for applying to the position.", 0},
		{"unknownencoding.msg", "", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, errs := ExtractBody(readMessage(t, tc.name))
			assert.Equal(t, tc.body, strings.TrimSpace(body))
			assert.Len(t, errs, tc.errors)
		})
	}
}

func TestExtractBodyParts(t *testing.T) {
	tests := []struct {
		name     string
		parts    []domain.BodyPart
		expected string
	}{
		{
			"plainconcatenated",
			[]domain.BodyPart{
				{ContentType: domain.ContentPlain, Data: []byte("Thank you ")},
				{ContentType: domain.ContentHTML, Data: []byte("<b>ignored</b>")},
				{ContentType: domain.ContentPlain, Data: []byte("for Applying")},
			},
			"thank you for applying",
		},
		{
			"invalidutf8dropped",
			[]domain.BodyPart{{ContentType: domain.ContentPlain, Data: []byte("caf\xffe")}},
			"cafe",
		},
		{
			"utf16bom",
			[]domain.BodyPart{{ContentType: domain.ContentPlain, Data: []byte{0xff, 0xfe, 'H', 0, 'i', 0}}},
			"hi",
		},
		{
			"htmlfallback",
			[]domain.BodyPart{{ContentType: domain.ContentHTML, Data: []byte("<div>Next <a href=\"x\">Steps</a></div>")}},
			"next steps",
		},
		{
			"undecodableplainbeatshtml",
			[]domain.BodyPart{
				{ContentType: domain.ContentPlain, DecodeErr: &domain.DecodeError{ContentType: "text/plain", Err: errors.New("bad")}},
				{ContentType: domain.ContentHTML, Data: []byte("<p>Hello</p>")},
			},
			"",
		},
		{
			"noparts",
			nil,
			"",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := ExtractBody(&domain.RawMessage{Parts: tc.parts})
			assert.Equal(t, tc.expected, body)
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		html     string
		expected string
	}{
		{"<p>hello</p>", "hello"},
		{"a < b and c > d", "a  d"},
		{"<a href='<x>'>link</a>", "'>link"},
		{"no tags", "no tags"},
		{"&amp;<br/>", "&amp;"},
	}
	for _, tc := range tests {
		t.Run(tc.html, func(t *testing.T) {
			assert.Equal(t, tc.expected, StripHTML(tc.html))
		})
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		length   int
		expected string
	}{
		{"collapse", "  we received\n\n your\tapplication  ", 200, "we received your application"},
		{"truncate", "abcdef", 3, "abc"},
		{"runes", "été reçue", 4, "été "},
		{"empty", " \n ", 10, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Preview(tc.body, tc.length))
		})
	}
}

func TestNormalizedText(t *testing.T) {
	assert.Equal(t, "your application to acme we received it", NormalizedText("Your Application to ACME", "we received it"))
}

func TestShortSubject(t *testing.T) {
	assert.Equal(t, "short", ShortSubject("short"))
	assert.Equal(t, "Your application to Acme Corpo...", ShortSubject("Your application to Acme Corporation"))
	// 30 runes but more than 30 bytes
	assert.Equal(t, "Réponse à votre candidature ét...", ShortSubject("Réponse à votre candidature été 2023"))
}
