// SPDX-License-Identifier: GPL-3.0-or-later

//go:generate mockgen -destination=mocks/source.go -package=mocks . MessageSource,ResultExporter
package domain

// MessageSource yields all leaf messages below one configured root in the source's native order.
//
// Open returns a *MissingSourceError if the root cannot be reached. Next returns io.EOF once all messages
// have been returned and a *MalformedMessageError for items that are skipped, iteration may continue after it.
type MessageSource interface {
	Label() string
	Open() error
	Next() (*RawMessage, error)
	Close() error
}

type ResultExporter interface {
	Export(raw []ClassificationResult, deduped []ClassificationResult) error
}
