package domain

import (
	"strconv"
	"strings"
)

// RawMessage is a message body as returned by a batch fetch
type RawMessage struct {
	UID  uint32
	Body []byte
}

// Attachment is a decoded MIME part that carries a file
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is the parsed view of a fetched message
type Message struct {
	UID         uint32
	MessageID   string
	From        string
	Subject     string
	Attachments []Attachment
	TextBodies  []string
}

// DedupKey returns the Message-ID header, or the UID when the header is absent.
// The UID fallback is only stable within one mailbox and may be reassigned by
// the server, so it is a weak key.
func DedupKey(messageID string, uid uint32) string {
	if id := strings.TrimSpace(messageID); id != "" {
		return id
	}
	return strconv.FormatUint(uint64(uid), 10)
}

// PDFAttachments returns the attachments that look like PDF documents
func (m *Message) PDFAttachments() []Attachment {
	var pdfs []Attachment
	for _, a := range m.Attachments {
		if len(a.Data) == 0 {
			continue
		}
		if strings.HasSuffix(strings.ToLower(a.Filename), ".pdf") || strings.EqualFold(a.ContentType, "application/pdf") {
			pdfs = append(pdfs, a)
		}
	}
	return pdfs
}
