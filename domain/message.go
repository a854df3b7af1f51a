// SPDX-License-Identifier: GPL-3.0-or-later
package domain

type ContentType int

const (
	ContentPlain = ContentType(0)
	ContentHTML  = ContentType(1)
)

func (ct ContentType) String() string {
	switch ct {
	case ContentPlain:
		return "text/plain"
	case ContentHTML:
		return "text/html"
	}
	return "unknown"
}

type BodyPart struct {
	ContentType ContentType
	Data        []byte
	// DecodeErr is set when the part's transfer encoding or charset could not be decoded. Data is empty then.
	DecodeErr error
}

// RawMessage is a single mail as handed over by a MessageSource. Date is kept verbatim from the header.
type RawMessage struct {
	Sender  string
	Subject string
	Date    string
	Parts   []BodyPart
}
