// Package chroma adapts a ChromaDB instance, reached over its HTTP v2 API,
// to the normalized engine operation set.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vecscope/internal/domain"
)

const (
	// DefaultPort is used when the instance URL carries none.
	DefaultPort     = 8000
	DefaultTenant   = "default_tenant"
	DefaultDatabase = "default_database"
)

// Config holds connection parameters for one Chroma instance.
type Config struct {
	URL       string
	APIKey    string
	Tenant    string
	Database  string
	Port      int
	SafetyCap int
	// HTTPClient defaults to a client without timeout; the caller's context bounds each call.
	HTTPClient *http.Client
}

// Conn is a handle to one Chroma instance. Safe for concurrent use.
type Conn struct {
	baseURL   string
	apiKey    string
	tenant    string
	database  string
	safetyCap int
	http      *http.Client
}

// New decomposes the URL into scheme, host and port. No request is made.
func New(cfg Config) (*Conn, error) {
	base, err := BaseURL(cfg.URL, cfg.Port)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		baseURL:   base,
		apiKey:    cfg.APIKey,
		tenant:    cfg.Tenant,
		database:  cfg.Database,
		safetyCap: cfg.SafetyCap,
		http:      cfg.HTTPClient,
	}
	if c.tenant == "" {
		c.tenant = DefaultTenant
	}
	if c.database == "" {
		c.database = DefaultDatabase
	}
	if c.safetyCap <= 0 {
		c.safetyCap = 10000
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c, nil
}

// BaseURL normalizes an instance URL to scheme://host:port. A missing host
// becomes localhost and a missing port becomes defaultPort.
func BaseURL(rawURL string, defaultPort int) (string, error) {
	if defaultPort <= 0 {
		defaultPort = DefaultPort
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse chroma url: %w: %w", domain.ErrConnectionConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("chroma url scheme %q: %w", u.Scheme, domain.ErrConnectionConfig)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := u.Port()
	if port == "" {
		port = strconv.Itoa(defaultPort)
	}
	return u.Scheme + "://" + net.JoinHostPort(host, port), nil
}

// Kind returns domain.EngineChroma.
func (c *Conn) Kind() domain.EngineKind { return domain.EngineChroma }

// Probe hits the heartbeat endpoint.
func (c *Conn) Probe(ctx context.Context) error {
	return c.do(ctx, "heartbeat", http.MethodGet, "/api/v2/heartbeat", nil, nil)
}

// Close drops idle keep-alive connections.
func (c *Conn) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Conn) dbPath(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return "/api/v2/tenants/" + url.PathEscape(c.tenant) +
		"/databases/" + url.PathEscape(c.database) +
		"/" + strings.Join(escaped, "/")
}

// do sends one request. body is JSON-encoded when non-nil; out is decoded
// when non-nil, with numbers kept as json.Number.
func (c *Conn) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewBackendError(domain.EngineChroma, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewBackendError(domain.EngineChroma, op, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(op, resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return domain.NewBackendError(domain.EngineChroma, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// apiError is the error body Chroma returns.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// parseAPIError keeps the server's message. 404s and "does not exist"
// messages also match domain.ErrNotFound.
func parseAPIError(op string, statusCode int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && (ae.Message != "" || ae.Error != "") {
		msg = ae.Message
		if msg == "" {
			msg = ae.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	native := fmt.Errorf("status %d: %s", statusCode, msg)

	if statusCode == http.StatusNotFound || strings.Contains(strings.ToLower(msg), "does not exist") {
		return domain.NewMissingError(domain.EngineChroma, op, native)
	}
	return domain.NewBackendError(domain.EngineChroma, op, native)
}

var errMissingID = errors.New("collection id missing in response")
