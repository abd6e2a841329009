package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/oskaz/oskaz-api/pkg/config"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
)

const (
	resourcePath          = "api/resource"
	responseBodyReadLimit = 4096
	defaultTimeout        = 15 * time.Second
	defaultMaxRetries     = 3
	retryInitialBackoff   = 250 * time.Millisecond
)

var (
	errBaseURLRequired     = errors.New("erp base url is required")
	errCredentialsRequired = errors.New("erp api key and secret are required")
)

// Client talks to a Frappe-style document store over its REST resource API.
// Every document round-trips as raw JSON; callers own the concrete shapes.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
	maxRetries uint64
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the ERP client from configuration. Missing credentials
// fail here rather than on the first request.
func NewClient(cfg config.ERPConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	key := strings.TrimSpace(cfg.APIKey)
	secret := strings.TrimSpace(cfg.APISecret)
	if key == "" || secret == "" {
		return nil, errCredentialsRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := uint64(defaultMaxRetries)
	if cfg.MaxRetries > 0 {
		maxRetries = uint64(cfg.MaxRetries)
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		authToken:  "token " + key + ":" + secret,
		maxRetries: maxRetries,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// ListOptions narrows a GetList call. Zero values are omitted from the query.
type ListOptions struct {
	Fields          []string
	Filters         [][3]any
	OrderBy         string
	LimitStart      int
	LimitPageLength int
}

// GetDoc fetches a single document by doctype and name.
func (c *Client) GetDoc(ctx context.Context, doctype, name string) (json.RawMessage, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doctype) == "" || strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "doctype and name are required")
	}

	body, err := c.doJSON(ctx, http.MethodGet, c.docURL(doctype, name), nil)
	if err != nil {
		return nil, err
	}
	return unwrapData(body)
}

// GetList fetches documents of the doctype, filtered and paginated.
func (c *Client) GetList(ctx context.Context, doctype string, opts ListOptions) ([]json.RawMessage, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doctype) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "doctype is required")
	}

	query := url.Values{}
	if len(opts.Fields) > 0 {
		encoded, err := json.Marshal(opts.Fields)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "encode list fields")
		}
		query.Set("fields", string(encoded))
	}
	if len(opts.Filters) > 0 {
		encoded, err := json.Marshal(opts.Filters)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "encode list filters")
		}
		query.Set("filters", string(encoded))
	}
	if opts.OrderBy != "" {
		query.Set("order_by", opts.OrderBy)
	}
	if opts.LimitStart > 0 {
		query.Set("limit_start", strconv.Itoa(opts.LimitStart))
	}
	if opts.LimitPageLength > 0 {
		query.Set("limit_page_length", strconv.Itoa(opts.LimitPageLength))
	}

	target := c.resourceURL(doctype)
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	body, err := c.doJSON(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode list response")
	}
	return envelope.Data, nil
}

// CreateDoc creates a document and returns the stored record.
func (c *Client) CreateDoc(ctx context.Context, doctype string, doc any) (json.RawMessage, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doctype) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "doctype is required")
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "encode document")
	}

	body, err := c.doJSON(ctx, http.MethodPost, c.resourceURL(doctype), payload)
	if err != nil {
		return nil, err
	}
	return unwrapData(body)
}

// UpdateDoc applies a partial update to the named document.
func (c *Client) UpdateDoc(ctx context.Context, doctype, name string, doc any) (json.RawMessage, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doctype) == "" || strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "doctype and name are required")
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "encode document")
	}

	body, err := c.doJSON(ctx, http.MethodPut, c.docURL(doctype, name), payload)
	if err != nil {
		return nil, err
	}
	return unwrapData(body)
}

// DeleteDoc removes the named document.
func (c *Client) DeleteDoc(ctx context.Context, doctype, name string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(doctype) == "" || strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "doctype and name are required")
	}

	_, err := c.doJSON(ctx, http.MethodDelete, c.docURL(doctype, name), nil)
	return err
}

// File is a streamed upstream file. The caller must close Body.
type File struct {
	Body        io.ReadCloser
	ContentType string
}

// OpenFile streams a file path from the ERP host, e.g. "/files/logo.png".
// The path must stay relative after cleaning: a ".." element would walk the
// request out of the files tree while still carrying the client credentials.
func (c *Client) OpenFile(ctx context.Context, filePath string) (*File, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	trimmed := strings.TrimLeft(strings.TrimSpace(filePath), "/")
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file path is required")
	}
	if cleaned := path.Clean(trimmed); cleaned != trimmed || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid file path")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+trimmed, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build file request")
	}
	req.Header.Set("Authorization", c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch file")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return &File{Body: resp.Body, ContentType: resp.Header.Get("Content-Type")}, nil
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		_ = resp.Body.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "fetch file failed")
	}
}

// Ping verifies the ERP is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/method/ping", nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build ping request")
	}
	req.Header.Set("Authorization", c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "erp unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d", resp.StatusCode), "erp ping failed")
	}
	return nil
}

func (c *Client) ready() error {
	if c == nil || c.httpClient == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "erp client not configured")
	}
	return nil
}

func (c *Client) resourceURL(doctype string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, resourcePath, url.PathEscape(doctype))
}

func (c *Client) docURL(doctype, name string) string {
	return fmt.Sprintf("%s/%s", c.resourceURL(doctype), url.PathEscape(name))
}

// doJSON executes one JSON request with capped exponential backoff on
// transient upstream failures (network errors, 429 and 5xx responses).
func (c *Client) doJSON(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var body []byte

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(retryInitialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build erp request")
		}
		req.Header.Set("Authorization", c.authToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute erp request"))
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read erp response")
			}
			body = data
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "erp request failed"))
		default:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
			return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "erp request rejected")
		}
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func unwrapData(body []byte) (json.RawMessage, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode erp response")
	}
	return envelope.Data, nil
}
