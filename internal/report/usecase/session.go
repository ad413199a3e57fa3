package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	dedupdomain "report-intake/internal/dedup/domain"
	"report-intake/internal/dedup/repository"
	extractionusecase "report-intake/internal/extraction/usecase"
	"report-intake/internal/report/domain"

	"go.uber.org/zap"
)

// LinkedReportFilename names reports fetched from a link, which carry no
// attachment filename of their own.
const LinkedReportFilename = "thyrocare-report.pdf"

const (
	defaultMaxMessages = 50
	defaultBatchSize   = 20
	defaultBatchPause  = time.Second
)

// SessionOptions tunes one pass over a mailbox
type SessionOptions struct {
	MaxMessages int
	BatchSize   int
	BatchPause  time.Duration
	TempDir     string
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.MaxMessages <= 0 {
		o.MaxMessages = defaultMaxMessages
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.BatchPause < 0 {
		o.BatchPause = defaultBatchPause
	}
	return o
}

// Session processes the newest messages of one account. A Session holds no
// per-account state, so one value serves every account concurrently.
type Session struct {
	connector Connector
	store     repository.DedupRepository
	extractor extractionusecase.NameExtractor
	uploader  Uploader
	fetcher   Fetcher
	opts      SessionOptions
	logger    *zap.Logger
}

// NewSession wires a session. fetcher may be nil, which disables linked reports.
func NewSession(
	connector Connector,
	store repository.DedupRepository,
	extractor extractionusecase.NameExtractor,
	uploader Uploader,
	fetcher Fetcher,
	opts SessionOptions,
	logger *zap.Logger,
) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		connector: connector,
		store:     store,
		extractor: extractor,
		uploader:  uploader,
		fetcher:   fetcher,
		opts:      opts.withDefaults(),
		logger:    logger.Named("session"),
	}
}

// WithOptions returns a copy of the session using opts
func (s *Session) WithOptions(opts SessionOptions) *Session {
	clone := *s
	clone.opts = opts.withDefaults()
	return &clone
}

// Run polls one account once. Failures are logged, never returned.
// Cancellation is honored between batches only.
func (s *Session) Run(ctx context.Context, account domain.Account) {
	account = account.Normalized()
	log := s.logger.With(zap.String("account", account.Label))

	mbox, err := s.connector.Connect(ctx, account)
	if err != nil {
		log.Error("cannot open mailbox", zap.String("host", account.Address()), zap.Error(err))
		return
	}
	defer func() {
		if err := mbox.Logout(); err != nil {
			log.Info("logout failed, connection likely already closed", zap.Error(err))
		}
	}()

	uids, err := mbox.UIDs(ctx)
	if err != nil {
		log.Error("uid search failed", zap.Error(err))
		return
	}
	uids = newest(uids, s.opts.MaxMessages)
	batches := partition(uids, s.opts.BatchSize)
	log.Info("mailbox scanned", zap.Int("messages", len(uids)), zap.Int("batches", len(batches)))

	work := context.WithoutCancel(ctx)
	for i, batch := range batches {
		if (i > 0 && !s.pause(ctx)) || ctx.Err() != nil {
			log.Info("shutdown requested, stopping between batches", zap.Int("batch", i+1))
			return
		}

		err := s.runBatch(work, log.With(zap.Int("batch", i+1)), mbox, account.Label, batch)
		if errors.Is(err, domain.ErrConnection) {
			log.Error("connection lost, aborting session", zap.Int("batch", i+1), zap.Error(err))
			return
		}
	}
}

// pause waits between batches and reports whether to continue
func (s *Session) pause(ctx context.Context) bool {
	if s.opts.BatchPause <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(s.opts.BatchPause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// runBatch only returns an error when the connection is gone
func (s *Session) runBatch(ctx context.Context, log *zap.Logger, mbox Mailbox, account string, batch []uint32) error {
	raws, err := mbox.Fetch(ctx, batch)
	if err != nil {
		if errors.Is(err, domain.ErrConnection) {
			return err
		}
		log.Warn("batch fetch failed, skipping batch", zap.Uint32s("uids", batch), zap.Error(err))
		return nil
	}

	for _, raw := range raws {
		err := s.processMessage(ctx, log, mbox, account, raw)
		if err == nil {
			continue
		}
		if errors.Is(err, domain.ErrConnection) {
			return err
		}
		log.Error("message skipped", zap.Uint32("uid", raw.UID), zap.Error(err))
	}
	return nil
}

func (s *Session) processMessage(ctx context.Context, log *zap.Logger, mbox Mailbox, account string, raw domain.RawMessage) error {
	msg, err := ParseMessage(raw)
	if err != nil {
		return err
	}
	log = log.With(zap.Uint32("uid", msg.UID), zap.String("message_id", msg.MessageID))

	resolved, err := s.store.IsResolved(ctx, msg.MessageID)
	if err != nil {
		return fmt.Errorf("%w: dedup lookup: %v", domain.ErrMessageProcessing, err)
	}
	if resolved {
		log.Debug("already resolved, skipping")
		return nil
	}

	log.Info("processing message", zap.String("from", msg.From), zap.String("subject", msg.Subject))
	outcome, found := s.deliver(ctx, log, msg)
	if !found {
		log.Debug("no report in message")
		return nil
	}

	if outcome == dedupdomain.OutcomeSucceeded {
		err = s.store.RecordSucceeded(ctx, msg.MessageID, account)
	} else {
		err = s.store.RecordFailed(ctx, msg.MessageID, account)
	}
	if err != nil {
		return fmt.Errorf("%w: record %s: %v", domain.ErrMessageProcessing, outcome, err)
	}

	if err := mbox.MarkSeen(ctx, msg.UID); err != nil {
		if errors.Is(err, domain.ErrConnection) {
			return err
		}
		log.Warn("cannot flag message seen", zap.Error(err))
	}
	log.Info("message resolved", zap.String("outcome", string(outcome)))
	return nil
}

// deliver sends every PDF attachment, or the linked report when there is none.
// found is false when the message carries no report at all.
func (s *Session) deliver(ctx context.Context, log *zap.Logger, msg *domain.Message) (outcome dedupdomain.Outcome, found bool) {
	if pdfs := msg.PDFAttachments(); len(pdfs) > 0 {
		outcome = dedupdomain.OutcomeSucceeded
		for _, att := range pdfs {
			if s.deliverAttachment(ctx, log, att) != dedupdomain.OutcomeSucceeded {
				outcome = dedupdomain.OutcomeFailed
			}
		}
		return outcome, true
	}

	link := ReportLink(msg)
	if link == "" {
		return "", false
	}
	if s.fetcher == nil {
		log.Warn("report link found but no fetch service configured", zap.String("link", link))
		return "", false
	}
	return s.deliverLinked(ctx, log, link), true
}

func (s *Session) deliverAttachment(ctx context.Context, log *zap.Logger, att domain.Attachment) dedupdomain.Outcome {
	artifact, err := domain.NewArtifact(s.opts.TempDir, att.Filename, att.Data)
	if err != nil {
		log.Error("cannot materialize attachment", zap.String("filename", att.Filename), zap.Error(err))
		return dedupdomain.OutcomeFailed
	}
	defer s.release(log, artifact)

	result := s.extractor.Extract(att.Data, att.Filename)
	log.Info("patient name extracted",
		zap.String("filename", att.Filename),
		zap.String("patient_name", result.PatientName),
		zap.String("source", string(result.Provenance)),
	)
	return s.uploader.Deliver(ctx, artifact, result.PatientName)
}

func (s *Session) deliverLinked(ctx context.Context, log *zap.Logger, link string) dedupdomain.Outcome {
	log = log.With(zap.String("link", link))
	path, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		log.Error("cannot fetch linked report", zap.Error(fmt.Errorf("%w: %v", domain.ErrFetch, err)))
		return dedupdomain.OutcomeFailed
	}
	artifact := &domain.Artifact{Path: path, Filename: LinkedReportFilename}
	defer s.release(log, artifact)

	data, err := artifact.Read()
	if err != nil {
		log.Error("cannot read linked report", zap.Error(err))
		return dedupdomain.OutcomeFailed
	}
	result := s.extractor.Extract(data, artifact.Filename)
	log.Info("patient name extracted from linked report",
		zap.String("patient_name", result.PatientName),
		zap.String("source", string(result.Provenance)),
	)
	return s.uploader.Deliver(ctx, artifact, result.PatientName)
}

func (s *Session) release(log *zap.Logger, artifact *domain.Artifact) {
	if err := artifact.Release(); err != nil {
		log.Error("cannot delete temp file", zap.String("path", artifact.Path), zap.Error(err))
	}
}

// newest returns up to limit UIDs, highest first
func newest(uids []uint32, limit int) []uint32 {
	sorted := append([]uint32(nil), uids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func partition(uids []uint32, size int) [][]uint32 {
	var batches [][]uint32
	for start := 0; start < len(uids); start += size {
		end := min(start+size, len(uids))
		batches = append(batches, uids[start:end])
	}
	return batches
}
