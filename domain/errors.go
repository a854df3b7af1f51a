// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "fmt"

type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode %s part: %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type MissingSourceError struct {
	Source string
	Path   string
	Err    error
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("source %s (%s) is not readable: %v", e.Source, e.Path, e.Err)
}

func (e *MissingSourceError) Unwrap() error {
	return e.Err
}

type MalformedMessageError struct {
	Source string
	// Position is the 1-based index of the item within its source.
	Position int
	Err      error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("skipping malformed item %d in %s: %v", e.Position, e.Source, e.Err)
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}
