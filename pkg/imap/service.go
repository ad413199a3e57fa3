package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"report-intake/internal/report/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

const inbox = "INBOX"

// IMAPService opens authenticated connections to account mailboxes
type IMAPService struct {
	DialTimeout    time.Duration
	CommandTimeout time.Duration
	// Plaintext disables TLS. Only meant for local test servers.
	Plaintext bool
	TLSConfig *tls.Config
}

// NewService creates an IMAP service with the given timeouts
func NewService(dialTimeout, commandTimeout time.Duration) *IMAPService {
	return &IMAPService{
		DialTimeout:    dialTimeout,
		CommandTimeout: commandTimeout,
	}
}

// ctxDialer lets go-imap dial through a context-aware net.Dialer
type ctxDialer struct {
	ctx    context.Context
	dialer *net.Dialer
}

func (d ctxDialer) Dial(network, address string) (net.Conn, error) {
	return d.dialer.DialContext(d.ctx, network, address)
}

// Connect dials the account server, logs in and selects INBOX.
// Dial failures wrap domain.ErrConnection, rejected logins wrap domain.ErrAuthentication.
func (s *IMAPService) Connect(ctx context.Context, account domain.Account) (*Conn, error) {
	account = account.Normalized()
	dialer := ctxDialer{ctx: ctx, dialer: &net.Dialer{Timeout: s.DialTimeout}}

	var (
		c   *client.Client
		err error
	)
	if s.Plaintext {
		c, err = client.DialWithDialer(dialer, account.Address())
	} else {
		tlsConfig := s.TLSConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{ServerName: account.IMAPHost}
		}
		c, err = client.DialWithDialerTLS(dialer, account.Address(), tlsConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrConnection, account.Address(), err)
	}
	c.Timeout = s.CommandTimeout

	if err := c.Login(account.Username, account.Secret); err != nil {
		_ = c.Logout()
		if IsConnectionError(err) {
			return nil, fmt.Errorf("%w: login: %v", domain.ErrConnection, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}

	if _, err := c.Select(inbox, false); err != nil {
		_ = c.Logout()
		if IsConnectionError(err) {
			return nil, fmt.Errorf("%w: select %s: %v", domain.ErrConnection, inbox, err)
		}
		return nil, fmt.Errorf("%w: select %s: %v", domain.ErrAuthentication, inbox, err)
	}

	return &Conn{client: c}, nil
}

// Conn is one logged-in connection with INBOX selected. It is not safe for
// concurrent use; each account session owns its own.
type Conn struct {
	client *client.Client
}

// UIDs returns the UID of every message in INBOX
func (c *Conn) UIDs(ctx context.Context) ([]uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// UID 1:* matches every message, the same set as SEARCH ALL
	criteria := imap.NewSearchCriteria()
	criteria.Uid = new(imap.SeqSet)
	criteria.Uid.AddRange(1, 0)

	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		return nil, c.wrap(domain.ErrFetch, "uid search", err)
	}
	return uids, nil
}

// Fetch downloads the full body of every UID in one UID FETCH without
// setting \Seen.
func (c *Conn) Fetch(ctx context.Context, uids []uint32) ([]domain.RawMessage, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.client.UidFetch(seqset, items, messages)
	}()

	raws := make([]domain.RawMessage, 0, len(uids))
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			// servers answer BODY[] for BODY.PEEK[]
			for _, literal := range msg.Body {
				body = literal
				break
			}
		}
		if body == nil {
			continue
		}
		data, err := io.ReadAll(body)
		if err != nil {
			continue
		}
		raws = append(raws, domain.RawMessage{UID: msg.Uid, Body: data})
	}

	if err := <-done; err != nil {
		return nil, c.wrap(domain.ErrFetch, "uid fetch", err)
	}
	return raws, nil
}

// MarkSeen sets \Seen on one message
func (c *Conn) MarkSeen(ctx context.Context, uid uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.client.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return c.wrap(domain.ErrMessageProcessing, "uid store", err)
	}
	return nil
}

// Logout ends the session and closes the connection
func (c *Conn) Logout() error {
	if c.client.State() == imap.LogoutState {
		return nil
	}
	return c.client.Logout()
}

// wrap classifies err as a lost connection or as the given command failure
func (c *Conn) wrap(kind error, op string, err error) error {
	if IsConnectionError(err) || c.client.State() == imap.LogoutState {
		return fmt.Errorf("%w: %s: %v", domain.ErrConnection, op, err)
	}
	return fmt.Errorf("%w: %s: %v", kind, op, err)
}
