package usecase

import (
	"strings"
	"testing"

	"report-intake/internal/report/domain"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

const multipartReport = `From: =?UTF-8?Q?Lab_D=C3=A9sk?= <reports@lab.example>
To: intake@example.org
Subject: =?UTF-8?B?4KSw4KS/4KSq4KWL4KSw4KWN4KSfIHJlYWR5?=
Message-ID: <abc-123@lab.example>
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="XYZ"

--XYZ
Content-Type: text/plain; charset=iso-8859-1
Content-Transfer-Encoding: quoted-printable

Caf=E9 report for you
--XYZ
Content-Type: application/octet-stream; name="Ramesh_Kumar.pdf"
Content-Disposition: attachment; filename="Ramesh_Kumar.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQgZmFrZQ==
--XYZ--
`

func TestParseMessageMultipart(t *testing.T) {
	msg, err := ParseMessage(domain.RawMessage{UID: 42, Body: crlf(multipartReport)})
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}

	if msg.MessageID != "<abc-123@lab.example>" {
		t.Errorf("Expected Message-ID header, got %q", msg.MessageID)
	}
	if msg.Subject != "रिपोर्ट ready" {
		t.Errorf("Expected decoded subject, got %q", msg.Subject)
	}
	if msg.From != "Lab Désk <reports@lab.example>" {
		t.Errorf("Expected decoded sender, got %q", msg.From)
	}
	if len(msg.TextBodies) != 1 || !strings.Contains(msg.TextBodies[0], "Café") {
		t.Errorf("Expected latin-1 body decoded to UTF-8, got %q", msg.TextBodies)
	}

	pdfs := msg.PDFAttachments()
	if len(pdfs) != 1 {
		t.Fatalf("Expected 1 PDF attachment, got %d", len(pdfs))
	}
	if pdfs[0].Filename != "Ramesh_Kumar.pdf" || string(pdfs[0].Data) != "%PDF-1.4 fake" {
		t.Errorf("Unexpected attachment %q %q", pdfs[0].Filename, pdfs[0].Data)
	}
}

func TestParseMessageFallsBackToUID(t *testing.T) {
	body := crlf("From: a@b.c\nSubject: hi\nContent-Type: text/plain\n\nhello\n")
	msg, err := ParseMessage(domain.RawMessage{UID: 917, Body: body})
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if msg.MessageID != "917" {
		t.Errorf("Expected UID fallback key, got %q", msg.MessageID)
	}
	if len(msg.PDFAttachments()) != 0 {
		t.Error("Expected no attachments")
	}
}

func TestParseMessageUnknownCharset(t *testing.T) {
	body := crlf("From: a@b.c\nMessage-ID: <x@y>\nContent-Type: text/plain; charset=x-made-up\n\nplain words\n")
	msg, err := ParseMessage(domain.RawMessage{UID: 1, Body: body})
	if err != nil {
		t.Fatalf("Expected unknown charset to be tolerated, got %v", err)
	}
	if len(msg.TextBodies) != 1 || !strings.Contains(msg.TextBodies[0], "plain words") {
		t.Errorf("Expected raw body to be kept, got %q", msg.TextBodies)
	}
}

func TestReportLink(t *testing.T) {
	msg := &domain.Message{TextBodies: []string{
		"no link here",
		`<a href="https://thyro.care/n/o/AbC123?x=1&amp;y=2">View report</a>`,
	}}
	if got := ReportLink(msg); got != "https://thyro.care/n/o/AbC123?x=1&y=2" {
		t.Errorf("ReportLink = %q", got)
	}
	if got := ReportLink(&domain.Message{TextBodies: []string{"https://example.com/n/o/1"}}); got != "" {
		t.Errorf("Expected no link, got %q", got)
	}
}
