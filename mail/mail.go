// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/CrawX/go-mbox-jobsort/domain"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// ParseMessage reads a RFC 5322 message and collects its inline text parts. Parts with an unknown charset keep their
// undecoded bytes, the body extractor decodes them lossily. Parts with an unknown transfer encoding are kept with an
// empty payload and DecodeErr set. Neither fails the message.
func ParseMessage(rawMail []byte) (*domain.RawMessage, error) {
	entity, err := message.Read(bytes.NewReader(rawMail))
	if err != nil && !isUnknownEncoding(err) {
		return nil, fmt.Errorf("could not parse mail: %w", err)
	}
	// Only single part messages carry a charset or transfer encoding on the top level entity.
	topLevelErr := err

	mr := mail.NewReader(entity)
	defer mr.Close()

	msg := &domain.RawMessage{
		Sender: headerText(&mr.Header, "From"),
		Date:   strings.TrimSpace(mr.Header.Get("Date")),
	}
	msg.Subject, err = mr.Header.Subject()
	if err != nil {
		msg.Subject = mr.Header.Get("Subject")
	}

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if p == nil {
			if err != nil && isUnknownEncoding(err) {
				continue
			}
			if len(msg.Parts) > 0 {
				// keep what was readable before the broken part
				break
			}
			return nil, fmt.Errorf("could not read mail parts: %w", err)
		}
		if err == nil {
			err = topLevelErr
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, ctErr := h.ContentType()
		if ctErr != nil {
			continue
		}

		var ct domain.ContentType
		switch strings.ToLower(contentType) {
		case "text/plain":
			ct = domain.ContentPlain
		case "text/html":
			ct = domain.ContentHTML
		default:
			continue
		}

		if err != nil && !message.IsUnknownCharset(err) {
			msg.Parts = append(msg.Parts, domain.BodyPart{
				ContentType: ct,
				DecodeErr:   &domain.DecodeError{ContentType: contentType, Err: err},
			})
			continue
		}

		data, readErr := io.ReadAll(p.Body)
		part := domain.BodyPart{ContentType: ct, Data: data}
		if readErr != nil {
			part.Data = nil
			part.DecodeErr = &domain.DecodeError{ContentType: contentType, Err: readErr}
		}
		msg.Parts = append(msg.Parts, part)
	}

	return msg, nil
}

func isUnknownEncoding(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

func headerText(h *mail.Header, key string) string {
	text, err := h.Text(key)
	if err != nil {
		return strings.TrimSpace(h.Get(key))
	}
	return strings.TrimSpace(text)
}

func ShortSubject(subject string) string {
	runes := []rune(subject)
	if len(runes) > 30 {
		subject = string(runes[:30]) + "..."
	}
	return subject
}
