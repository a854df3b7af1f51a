// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/CrawX/go-mbox-jobsort/domain"
	"github.com/CrawX/go-mbox-jobsort/log"
	"github.com/CrawX/go-mbox-jobsort/mail"

	"github.com/emersion/go-imap"
	"github.com/sirupsen/logrus"
)

const BatchSize = 50

type fetchedMail struct {
	uid     uint32
	rawMail []byte
}

// Source reads all messages of the configured folders from an IMAP server. Folders are selected read-only and
// bodies are fetched with BODY.PEEK, the mailbox is never modified.
type Source struct {
	label string

	server, user, password string
	folders                []string
	recursive              bool

	dial      func(server string) (imapClient, error)
	batchSize int

	connection imapClient

	queue   []string
	folder  string
	batches [][]uint32
	pending []fetchedMail

	// 1-based index of the last message returned, across all folders
	position int

	l *logrus.Logger
}

func NewSource(label, server, user, password string, folders []string, recursive bool) *Source {
	return &Source{
		label:     label,
		server:    server,
		user:      user,
		password:  password,
		folders:   folders,
		recursive: recursive,
		dial:      dialTLS,
		batchSize: BatchSize,
		l:         log.Logger(log.LOG_IMAP),
	}
}

func (s *Source) Label() string {
	return s.label
}

func (s *Source) missing(err error) error {
	return &domain.MissingSourceError{Source: s.label, Path: s.server, Err: err}
}

func (s *Source) Open() error {
	connection, err := s.dial(s.server)
	if err != nil {
		return s.missing(fmt.Errorf("could not dial to imap: %w", err))
	}

	err = connection.Login(s.user, s.password)
	if err != nil {
		_ = connection.Logout()
		return s.missing(fmt.Errorf("could not login to imap: %w", err))
	}
	s.connection = connection

	baseLogger := s.l.WithFields(logrus.Fields{"source": s.label, "server": s.server})
	baseLogger.Debug("Logged in to server")

	s.queue = s.folders
	if s.recursive {
		s.queue, err = s.subfolders()
		if err != nil {
			s.Close()
			return s.missing(err)
		}
	}
	baseLogger.WithFields(logrus.Fields{"folders": len(s.queue)}).Debug("Resolved folders")

	s.position = 0
	return nil
}

// subfolders expands every configured folder into itself and all folders below it, in the order the server lists
// them. Folders that cannot be selected are left out.
func (s *Source) subfolders() ([]string, error) {
	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.connection.List("", "*", mailboxes)
	}()

	all := []*imap.MailboxInfo{}
	for m := range mailboxes {
		all = append(all, m)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not list folders: %w", err)
	}

	result := []string{}
	seen := map[string]bool{}
	for _, f := range s.folders {
		for _, m := range all {
			if seen[m.Name] || !isBelow(m, f) {
				continue
			}
			if hasAttribute(m, imap.NoSelectAttr) {
				s.l.WithFields(logrus.Fields{"source": s.label, "folder": m.Name}).Debug("Skipping non-selectable folder")
				continue
			}
			seen[m.Name] = true
			result = append(result, m.Name)
		}
	}

	return result, nil
}

func isBelow(m *imap.MailboxInfo, folder string) bool {
	if m.Name == folder {
		return true
	}
	return m.Delimiter != "" && strings.HasPrefix(m.Name, folder+m.Delimiter)
}

func hasAttribute(m *imap.MailboxInfo, attr string) bool {
	for _, a := range m.Attributes {
		if strings.EqualFold(a, attr) {
			return true
		}
	}
	return false
}

// Next returns the messages of every folder in UID order. A message that cannot be parsed is reported as
// *domain.MalformedMessageError, connection errors are returned as is.
func (s *Source) Next() (*domain.RawMessage, error) {
	for len(s.pending) == 0 {
		if len(s.batches) > 0 {
			err := s.fetchBatch()
			if err != nil {
				return nil, err
			}
			continue
		}

		if len(s.queue) == 0 {
			return nil, io.EOF
		}

		err := s.selectFolder(s.queue[0])
		s.queue = s.queue[1:]
		if err != nil {
			s.l.WithFields(logrus.Fields{"source": s.label, "folder": s.folder, "error": err}).Warn("Skipping folder")
		}
	}

	m := s.pending[0]
	s.pending = s.pending[1:]
	s.position++

	if m.rawMail == nil {
		return nil, &domain.MalformedMessageError{Source: s.label, Position: s.position, Err: fmt.Errorf("server returned no body for uid %d in %s", m.uid, s.folder)}
	}

	msg, err := mail.ParseMessage(m.rawMail)
	if err != nil {
		return nil, &domain.MalformedMessageError{Source: s.label, Position: s.position, Err: fmt.Errorf("uid %d in %s: %w", m.uid, s.folder, err)}
	}

	return msg, nil
}

func (s *Source) selectFolder(folder string) error {
	s.folder = folder
	_, err := s.connection.Select(folder, true)
	if err != nil {
		return fmt.Errorf("could not select folder: %w", err)
	}

	// Get all UIDs in folder (empty search criteria)
	uids, err := s.connection.UidSearch(imap.NewSearchCriteria())
	if err != nil {
		return fmt.Errorf("could not list folder: %w", err)
	}
	if len(uids) == 0 {
		s.l.WithFields(logrus.Fields{"source": s.label, "folder": folder}).Info("Folder contains no mails")
		return nil
	}

	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	s.batches = partitionUids(uids, s.batchSize)
	s.l.WithFields(logrus.Fields{"source": s.label, "folder": folder, "mails": len(uids), "batches": len(s.batches)}).Info("Found mails to classify")
	return nil
}

func (s *Source) fetchBatch() error {
	batch := s.batches[0]
	s.batches = s.batches[1:]

	start := time.Now()
	mails, err := s.fetchMails(batch)
	if err != nil {
		return fmt.Errorf("could not fetch mail batch from %s: %w", s.folder, err)
	}
	s.l.WithFields(logrus.Fields{"folder": s.folder, "batchsize": len(batch), "duration": time.Since(start)}).Debug("Fetched mail batch")

	s.pending = mails
	return nil
}

func (s *Source) fetchMails(uids []uint32) ([]fetchedMail, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, 10)
	fullBodySection := &imap.BodySectionName{
		Peek: true,
	}

	fetchItems := []imap.FetchItem{imap.FetchUid, fullBodySection.FetchItem()}
	done := make(chan error, 1)
	go func() {
		done <- s.connection.UidFetch(seqset, fetchItems, messages)
	}()

	mails := []fetchedMail{}
	var readErr error
	for msg := range messages {
		m := fetchedMail{uid: msg.Uid}
		r := msg.GetBody(fullBodySection)
		if r != nil && readErr == nil {
			rawBody, err := io.ReadAll(r)
			if err != nil {
				// keep draining, the fetch goroutine blocks otherwise
				readErr = fmt.Errorf("could not read mail body: %w", err)
				continue
			}
			m.rawMail = rawBody
		}
		mails = append(mails, m)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch mails: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}

	sort.Slice(mails, func(i, j int) bool { return mails[i].uid < mails[j].uid })
	return mails, nil
}

func (s *Source) Close() error {
	s.queue, s.batches, s.pending = nil, nil, nil
	if s.connection == nil {
		return nil
	}

	err := s.connection.Logout()
	s.connection = nil
	if err != nil {
		return fmt.Errorf("could not logout: %w", err)
	}
	return nil
}

// taken from https://github.com/golang/go/wiki/SliceTricks
func partitionUids(uids []uint32, partitionSize int) [][]uint32 {
	batches := make([][]uint32, 0, (len(uids)+partitionSize-1)/partitionSize)

	for partitionSize < len(uids) {
		uids, batches = uids[partitionSize:], append(batches, uids[0:partitionSize:partitionSize])
	}
	batches = append(batches, uids)

	return batches
}
