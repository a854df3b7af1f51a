// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/CrawX/go-mbox-jobsort/domain"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// ExtractBody returns the lowercased plain text of msg. All plain parts are concatenated, the HTML parts are only
// used (tags stripped) if there is no plain part at all. Parts that cannot be decoded contribute nothing, their
// errors are returned for logging.
func ExtractBody(msg *domain.RawMessage) (string, []error) {
	plain, plainErrs := concatParts(msg.Parts, domain.ContentPlain)
	if hasPart(msg.Parts, domain.ContentPlain) {
		return strings.ToLower(plain), plainErrs
	}

	html, htmlErrs := concatParts(msg.Parts, domain.ContentHTML)
	return strings.ToLower(StripHTML(html)), htmlErrs
}

// StripHTML removes everything between '<' and the next '>'. Tags are not parsed, entities are left alone.
func StripHTML(html string) string {
	return htmlTagPattern.ReplaceAllString(html, "")
}

// NormalizedText is the text the classifier matches against.
func NormalizedText(subject, body string) string {
	return strings.ToLower(subject) + " " + body
}

// Preview collapses whitespace runs in body and cuts it to at most length runes.
func Preview(body string, length int) string {
	collapsed := strings.Join(strings.Fields(body), " ")
	runes := []rune(collapsed)
	if len(runes) > length {
		return string(runes[:length])
	}
	return collapsed
}

func hasPart(parts []domain.BodyPart, ct domain.ContentType) bool {
	for _, p := range parts {
		if p.ContentType == ct {
			return true
		}
	}
	return false
}

func concatParts(parts []domain.BodyPart, ct domain.ContentType) (string, []error) {
	var errs []error
	text := &strings.Builder{}
	for _, p := range parts {
		if p.ContentType != ct {
			continue
		}
		if p.DecodeErr != nil {
			errs = append(errs, p.DecodeErr)
			continue
		}

		decoded, err := decodeLossy(p.Data)
		if err != nil {
			errs = append(errs, &domain.DecodeError{ContentType: ct.String(), Err: err})
			continue
		}
		text.WriteString(decoded)
	}
	return text.String(), errs
}

// decodeLossy decodes UTF-8 (or BOM marked UTF-16) and drops invalid byte sequences.
func decodeLossy(data []byte) (string, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("could not decode text: %w", err)
	}
	return strings.ReplaceAll(string(decoded), "�", ""), nil
}
