// SPDX-License-Identifier: GPL-3.0-or-later
package mbox

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/CrawX/go-mbox-jobsort/domain"
	"github.com/CrawX/go-mbox-jobsort/log"
	"github.com/CrawX/go-mbox-jobsort/mail"

	gombox "github.com/emersion/go-mbox"
	"github.com/sirupsen/logrus"
)

// Source reads messages from a single mbox file or from every mbox file below a directory.
type Source struct {
	label string
	path  string

	files   []string
	fileIdx int

	current *os.File
	reader  *gombox.Reader

	// 1-based index of the last message read, across all files
	position int

	l *logrus.Logger
}

func NewSource(label, path string) *Source {
	return &Source{
		label: label,
		path:  path,
		l:     log.Logger(log.LOG_MBOX),
	}
}

func (s *Source) Label() string {
	return s.label
}

// Open resolves the configured path into the list of files to read. Directories are walked depth-first in lexical
// order, hidden entries and Thunderbird .msf index files are skipped.
func (s *Source) Open() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return &domain.MissingSourceError{Source: s.label, Path: s.path, Err: err}
	}

	if !info.IsDir() {
		s.files = []string{s.path}
	} else {
		s.files, err = mboxFiles(s.path)
		if err != nil {
			return &domain.MissingSourceError{Source: s.label, Path: s.path, Err: err}
		}
	}

	s.fileIdx = 0
	s.position = 0
	s.l.WithFields(logrus.Fields{"source": s.label, "path": s.path, "files": len(s.files)}).Debug("Opened mbox source")
	return nil
}

func mboxFiles(root string) ([]string, error) {
	files := []string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && !strings.HasSuffix(d.Name(), ".msf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk mbox directory: %w", err)
	}

	return files, nil
}

// Next returns the next message. A file that turns out not to be an mbox is reported as a single
// *domain.MalformedMessageError and skipped as a whole.
func (s *Source) Next() (*domain.RawMessage, error) {
	for {
		if s.reader == nil {
			if s.fileIdx >= len(s.files) {
				return nil, io.EOF
			}

			err := s.openFile(s.files[s.fileIdx])
			s.fileIdx++
			if err != nil {
				return nil, &domain.MalformedMessageError{Source: s.label, Position: s.position + 1, Err: err}
			}
		}

		r, err := s.reader.NextMessage()
		if errors.Is(err, io.EOF) {
			s.closeFile()
			continue
		}
		if err != nil {
			name := s.current.Name()
			s.closeFile()
			return nil, &domain.MalformedMessageError{Source: s.label, Position: s.position + 1, Err: fmt.Errorf("could not read %s: %w", name, err)}
		}

		s.position++
		rawMail, err := io.ReadAll(r)
		if err != nil {
			return nil, &domain.MalformedMessageError{Source: s.label, Position: s.position, Err: fmt.Errorf("could not read message: %w", err)}
		}

		msg, err := mail.ParseMessage(rawMail)
		if err != nil {
			return nil, &domain.MalformedMessageError{Source: s.label, Position: s.position, Err: err}
		}

		return msg, nil
	}
}

func (s *Source) openFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open mbox file: %w", err)
	}

	s.l.WithFields(logrus.Fields{"source": s.label, "file": path}).Debug("Reading mbox file")
	s.current = f
	s.reader = gombox.NewReader(f)
	return nil
}

func (s *Source) closeFile() {
	if s.current != nil {
		if err := s.current.Close(); err != nil {
			s.l.WithFields(logrus.Fields{"source": s.label, "file": s.current.Name(), "error": err}).Warn("Could not close mbox file")
		}
	}
	s.current = nil
	s.reader = nil
}

func (s *Source) Close() error {
	s.closeFile()
	s.fileIdx = len(s.files)
	return nil
}
