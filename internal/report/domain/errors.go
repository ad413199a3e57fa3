package domain

import "errors"

// Error taxonomy of the ingestion pipeline. Callers match with errors.Is.
var (
	// ErrAuthentication aborts one account for the current cycle
	ErrAuthentication = errors.New("imap authentication failed")
	// ErrConnection aborts the rest of a session; nothing in the batch is resolved
	ErrConnection = errors.New("imap connection lost")
	// ErrFetch skips one batch
	ErrFetch = errors.New("imap batch fetch failed")
	// ErrMessageProcessing skips one message
	ErrMessageProcessing = errors.New("message processing failed")
)
