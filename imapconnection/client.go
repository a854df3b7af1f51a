// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

//go:generate mockgen -destination=client_mocks_test.go -package=imapconnection -source client.go
import (
	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// imapClient is the read-only subset of *client.Client used by Source.
type imapClient interface {
	Login(username, password string) error
	List(ref, name string, ch chan *imap.MailboxInfo) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

func dialTLS(server string) (imapClient, error) {
	return client.DialTLS(server, nil)
}
