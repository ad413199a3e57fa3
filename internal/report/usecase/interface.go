package usecase

import (
	"context"

	dedupdomain "report-intake/internal/dedup/domain"
	"report-intake/internal/report/domain"
)

// Mailbox is one logged-in IMAP connection with INBOX selected
type Mailbox interface {
	UIDs(ctx context.Context) ([]uint32, error)
	Fetch(ctx context.Context, uids []uint32) ([]domain.RawMessage, error)
	MarkSeen(ctx context.Context, uid uint32) error
	Logout() error
}

// Connector opens a mailbox for an account
type Connector interface {
	Connect(ctx context.Context, account domain.Account) (Mailbox, error)
}

// ConnectorFunc adapts a function to Connector
type ConnectorFunc func(ctx context.Context, account domain.Account) (Mailbox, error)

func (f ConnectorFunc) Connect(ctx context.Context, account domain.Account) (Mailbox, error) {
	return f(ctx, account)
}

// Uploader delivers one report to the intake API
type Uploader interface {
	Deliver(ctx context.Context, artifact *domain.Artifact, patientName string) dedupdomain.Outcome
}

// Fetcher turns a report link into a local PDF path owned by the caller
type Fetcher interface {
	Fetch(ctx context.Context, link string) (string, error)
}
