package intake

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	dedupdomain "report-intake/internal/dedup/domain"
	"report-intake/internal/report/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap/zaptest"
)

func newArtifact(t *testing.T) *domain.Artifact {
	t.Helper()
	artifact, err := domain.NewArtifact(t.TempDir(), "Ramesh_Kumar.pdf", []byte("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("NewArtifact: %v", err)
	}
	t.Cleanup(func() { artifact.Release() })
	return artifact
}

func TestDeliverSendsCanonicalFields(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue(FieldPatientName); got != "Ramesh Kumar" {
			t.Errorf("Expected patientName Ramesh Kumar, got %q", got)
		}
		file, header, err := r.FormFile(FieldFile)
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "Ramesh_Kumar.pdf" || string(data) != "%PDF-1.4 fake" {
			t.Errorf("Unexpected file %q %q", header.Filename, data)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("Expected no bearer token without a secret")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Options{URL: srv.URL}, zaptest.NewLogger(t))
	if got := client.Deliver(context.Background(), newArtifact(t), "Ramesh Kumar"); got != dedupdomain.OutcomeSucceeded {
		t.Fatalf("Expected succeeded, got %s", got)
	}
	if hits != 1 {
		t.Errorf("Expected 1 request, got %d", hits)
	}
}

func TestDeliverRetriesUntilSuccess(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Options{URL: srv.URL, MaxAttempts: 3}, zaptest.NewLogger(t))
	if got := client.Deliver(context.Background(), newArtifact(t), ""); got != dedupdomain.OutcomeSucceeded {
		t.Fatalf("Expected succeeded on third attempt, got %s", got)
	}
	if hits != 3 {
		t.Errorf("Expected 3 requests, got %d", hits)
	}
}

func TestDeliverExhaustsAttempts(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		// only 200 counts as delivered
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(Options{URL: srv.URL, MaxAttempts: 3}, zaptest.NewLogger(t))
	if got := client.Deliver(context.Background(), newArtifact(t), "A B"); got != dedupdomain.OutcomeFailed {
		t.Fatalf("Expected failed, got %s", got)
	}
	if hits != 3 {
		t.Errorf("Expected 3 requests, got %d", hits)
	}
}

func TestDeliverAttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Options{URL: srv.URL, MaxAttempts: 1, Timeout: 50 * time.Millisecond}, zaptest.NewLogger(t))
	start := time.Now()
	if got := client.Deliver(context.Background(), newArtifact(t), "A B"); got != dedupdomain.OutcomeFailed {
		t.Fatalf("Expected failed, got %s", got)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Expected the attempt to time out quickly")
	}
}

func TestDeliverSignsBearerToken(t *testing.T) {
	const secret = "s3cret"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Options{URL: srv.URL, MaxAttempts: 1, JWTSecret: secret}, zaptest.NewLogger(t))
	if got := client.Deliver(context.Background(), newArtifact(t), "A B"); got != dedupdomain.OutcomeSucceeded {
		t.Fatalf("Expected signed request to succeed, got %s", got)
	}
}

func TestDeliverMissingArtifact(t *testing.T) {
	client := NewClient(Options{URL: "http://127.0.0.1:1"}, zaptest.NewLogger(t))
	artifact := &domain.Artifact{Path: "/nonexistent/rep.pdf", Filename: "x.pdf"}
	if got := client.Deliver(context.Background(), artifact, ""); got != dedupdomain.OutcomeFailed {
		t.Errorf("Expected failed, got %s", got)
	}
}
