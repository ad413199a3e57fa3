package intake

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	dedupdomain "report-intake/internal/dedup/domain"
	"report-intake/internal/report/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Multipart field names accepted by the intake API
const (
	FieldFile        = "file"
	FieldPatientName = "patientName"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 5 * time.Second
	defaultTimeout     = 60 * time.Second
	tokenLifetime      = 5 * time.Minute
)

// Options configures the upload client
type Options struct {
	URL         string
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
	// JWTSecret signs a short-lived bearer token per request when set
	JWTSecret string
}

// Client delivers report artifacts to the downstream intake API
type Client struct {
	opts       Options
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an upload client, filling unset options with defaults
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{},
		logger:     logger.Named("intake"),
	}
}

// Deliver uploads one artifact with its patient name, retrying with a fixed
// delay. It returns OutcomeFailed once every attempt has failed.
func (c *Client) Deliver(ctx context.Context, artifact *domain.Artifact, patientName string) dedupdomain.Outcome {
	data, err := artifact.Read()
	if err != nil {
		c.logger.Error("cannot read artifact", zap.String("path", artifact.Path), zap.Error(err))
		return dedupdomain.OutcomeFailed
	}

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		err := c.upload(ctx, data, artifact.Filename, patientName)
		if err == nil {
			c.logger.Info("report delivered",
				zap.String("filename", artifact.Filename),
				zap.String("patient_name", patientName),
				zap.Int("attempt", attempt),
			)
			return dedupdomain.OutcomeSucceeded
		}

		c.logger.Warn("upload attempt failed",
			zap.String("filename", artifact.Filename),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.opts.MaxAttempts),
			zap.Error(err),
		)
		if attempt == c.opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			c.logger.Warn("upload abandoned", zap.String("filename", artifact.Filename), zap.Error(ctx.Err()))
			return dedupdomain.OutcomeFailed
		case <-time.After(c.opts.RetryDelay):
		}
	}

	c.logger.Error("upload attempts exhausted", zap.String("filename", artifact.Filename))
	return dedupdomain.OutcomeFailed
}

func (c *Client) upload(ctx context.Context, data []byte, filename, patientName string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(FieldFile, filepath.Base(filename))
	if err != nil {
		return eris.Wrap(err, "intake: create file part")
	}
	if _, err := part.Write(data); err != nil {
		return eris.Wrap(err, "intake: write file part")
	}
	if err := writer.WriteField(FieldPatientName, patientName); err != nil {
		return eris.Wrap(err, "intake: write name field")
	}
	if err := writer.Close(); err != nil {
		return eris.Wrap(err, "intake: close multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, body)
	if err != nil {
		return eris.Wrap(err, "intake: build request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.opts.JWTSecret != "" {
		token, err := c.bearerToken()
		if err != nil {
			return eris.Wrap(err, "intake: sign token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "intake: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return eris.Errorf("intake: API error (%d): %s", resp.StatusCode, string(respBody))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) bearerToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": "report-intake",
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.opts.JWTSecret))
}
