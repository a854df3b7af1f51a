// SPDX-License-Identifier: GPL-3.0-or-later
package mbox

import (
	"errors"
	"io"
	"path"
	"testing"

	"github.com/CrawX/go-mbox-jobsort/domain"
	"github.com/CrawX/go-mbox-jobsort/log"

	"github.com/stretchr/testify/assert"
)

// readAll drains the source, returning the subjects read and the positions of malformed items.
func readAll(t *testing.T, s *Source) ([]string, []int) {
	subjects, malformed := []string{}, []int{}
	for {
		msg, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var me *domain.MalformedMessageError
			if !assert.True(t, errors.As(err, &me), "unexpected error %v", err) {
				break
			}
			assert.Equal(t, s.Label(), me.Source)
			malformed = append(malformed, me.Position)
			continue
		}
		subjects = append(subjects, msg.Subject)
	}
	return subjects, malformed
}

func TestSource_File(t *testing.T) {
	log.InitLogging("error")
	s := NewSource("school", path.Join("testdata", "single.mbox"))
	assert.Equal(t, "school", s.Label())
	assert.NoError(t, s.Open())
	defer s.Close()

	subjects, malformed := readAll(t, s)
	assert.Equal(t, []string{"Your application to Acme Corp", "Your application"}, subjects)
	assert.Equal(t, []int{2}, malformed)

	// stays at EOF
	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSource_Message(t *testing.T) {
	log.InitLogging("error")
	s := NewSource("school", path.Join("testdata", "single.mbox"))
	assert.NoError(t, s.Open())
	defer s.Close()

	msg, err := s.Next()
	assert.NoError(t, err)
	assert.Equal(t, `"Acme Corp" <no-reply@acme.com>`, msg.Sender)
	assert.Equal(t, "Mon, 02 Oct 2023 09:15:00 +0000", msg.Date)
	if assert.Len(t, msg.Parts, 1) {
		assert.Equal(t, domain.ContentPlain, msg.Parts[0].ContentType)
		assert.Contains(t, string(msg.Parts[0].Data), "thank you for applying")
	}
}

func TestSource_Directory(t *testing.T) {
	log.InitLogging("error")
	s := NewSource("export", path.Join("testdata", "tree"))
	assert.NoError(t, s.Open())
	defer s.Close()

	assert.Equal(t, []string{
		path.Join("testdata", "tree", "Inbox"),
		path.Join("testdata", "tree", "Jobs", "Applied"),
		path.Join("testdata", "tree", "notes.txt"),
	}, s.files)

	subjects, malformed := readAll(t, s)
	assert.Equal(t, []string{"Next steps", "Position update", "Application received"}, subjects)
	// notes.txt is not an mbox
	assert.Equal(t, []int{4}, malformed)
}

func TestSource_Missing(t *testing.T) {
	log.InitLogging("error")
	s := NewSource("personal", path.Join("testdata", "doesnotexist.mbox"))

	err := s.Open()
	var missing *domain.MissingSourceError
	if assert.True(t, errors.As(err, &missing)) {
		assert.Equal(t, "personal", missing.Source)
		assert.Equal(t, path.Join("testdata", "doesnotexist.mbox"), missing.Path)
	}
}

func TestSource_CloseEarly(t *testing.T) {
	log.InitLogging("error")
	s := NewSource("export", path.Join("testdata", "tree"))
	assert.NoError(t, s.Open())

	_, err := s.Next()
	assert.NoError(t, err)
	assert.NoError(t, s.Close())

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}
