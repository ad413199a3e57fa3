package usecase

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"report-intake/internal/report/domain"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// reReportLink matches the lab's short links to an online report
var reReportLink = regexp.MustCompile(`https://thyro\.care/n/o/[^\s"'<>]+`)

// ParseMessage decodes a raw fetched message into headers, attachments and
// text bodies. Parts in unknown charsets are kept undecoded.
func ParseMessage(raw domain.RawMessage) (*domain.Message, error) {
	entity, err := message.Read(bytes.NewReader(raw.Body))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("%w: uid %d: %v", domain.ErrMessageProcessing, raw.UID, err)
	}

	header := mail.Header{Header: entity.Header}
	msg := &domain.Message{
		UID:       raw.UID,
		MessageID: domain.DedupKey(entity.Header.Get("Message-Id"), raw.UID),
		From:      decodeFrom(header),
	}
	if subject, err := header.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = entity.Header.Get("Subject")
	}

	err = entity.Walk(func(path []int, part *message.Entity, err error) error {
		if err != nil && !message.IsUnknownCharset(err) {
			return err
		}
		mediaType, _, _ := part.Header.ContentType()
		if strings.HasPrefix(mediaType, "multipart/") {
			return nil
		}

		disposition, _, _ := part.Header.ContentDisposition()
		attachment := mail.AttachmentHeader{Header: part.Header}
		filename, _ := attachment.Filename()

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return err
		}

		switch {
		case disposition == "attachment" || filename != "" || mediaType == "application/pdf":
			msg.Attachments = append(msg.Attachments, domain.Attachment{
				Filename:    filename,
				ContentType: mediaType,
				Data:        body,
			})
		case mediaType == "text/plain" || mediaType == "text/html" || mediaType == "":
			msg.TextBodies = append(msg.TextBodies, string(body))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: uid %d: walk: %v", domain.ErrMessageProcessing, raw.UID, err)
	}
	return msg, nil
}

func decodeFrom(header mail.Header) string {
	addrs, err := header.AddressList("From")
	if err != nil || len(addrs) == 0 {
		from, _ := header.Text("From")
		return from
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a.Name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.Name, a.Address))
		} else {
			parts = append(parts, a.Address)
		}
	}
	return strings.Join(parts, ", ")
}

// ReportLink returns the first known report link found in the text bodies
func ReportLink(msg *domain.Message) string {
	for _, body := range msg.TextBodies {
		if link := reReportLink.FindString(body); link != "" {
			return strings.ReplaceAll(link, "&amp;", "&")
		}
	}
	return ""
}
