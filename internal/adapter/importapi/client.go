// Package importapi uploads mapped output to the bulk-import API.
package importapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/heartmarshall/litigation-mapper/internal/config"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
)

// tokenLeeway is how long before its expiry a cached token is replaced.
const tokenLeeway = 30 * time.Second

// Client authenticates against the import API and uploads bulk imports.
type Client struct {
	baseURL    string
	username   string
	password   string
	corpusID   string
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewClient creates a Client from the import_api configuration section.
func NewClient(cfg config.ImportAPIConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		corpusID:   cfg.CorpusImportID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With(slog.String("adapter", "importapi")),
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Token returns a bearer token, reusing the cached one until shortly before
// it expires.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt.Add(-tokenLeeway)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tokens", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("importapi: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("importapi: token request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("importapi: token request: %w", domain.ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("importapi: token request: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("importapi: decode token: %w", err)
	}

	expiresAt, err := tokenExpiry(body.AccessToken)
	if err != nil {
		return "", fmt.Errorf("importapi: parse token: %w", err)
	}

	c.token = body.AccessToken
	c.expiresAt = expiresAt
	c.log.DebugContext(ctx, "token acquired", slog.Time("expires_at", expiresAt))
	return c.token, nil
}

// tokenExpiry reads the exp claim. The signature is the API's concern; only
// the lifetime matters here.
func tokenExpiry(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return exp.Time, nil
}

// Upload posts output as the multipart "data" file of a bulk import into the
// configured corpus.
func (c *Client) Upload(ctx context.Context, output []byte) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("data", "litigation.json")
	if err != nil {
		return fmt.Errorf("importapi: create form: %w", err)
	}
	if _, err := part.Write(output); err != nil {
		return fmt.Errorf("importapi: write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("importapi: close form: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/bulk-import/" + url.PathEscape(c.corpusID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("importapi: create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("importapi: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("importapi: upload: %w", domain.ErrUnauthorized)
		}
		return fmt.Errorf("importapi: upload: %w: status %d: %s", domain.ErrUpstream, resp.StatusCode, bytes.TrimSpace(msg))
	}

	c.log.InfoContext(ctx, "bulk import submitted",
		slog.String("corpus", c.corpusID),
		slog.Int("bytes", len(output)),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}
