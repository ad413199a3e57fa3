package domain

import "time"

// Outcome is the terminal result of processing one message
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// DedupRecord is the durable row backing the database store.
// The primary key keeps a MessageID in at most one outcome.
type DedupRecord struct {
	MessageID  string    `json:"message_id" gorm:"primaryKey"`
	Outcome    Outcome   `json:"outcome" gorm:"index;not null"`
	Account    string    `json:"account"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Counts summarizes the store contents
type Counts struct {
	Succeeded int
	Failed    int
}
