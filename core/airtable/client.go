package airtable

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
	"time"

	"roster-sync/core/reconcile"
)

// MaxRecordsPerRequest is the API limit for create and update calls.
const MaxRecordsPerRequest = 10

// ErrTooManyRecords is returned when a write exceeds MaxRecordsPerRequest.
var ErrTooManyRecords = fmt.Errorf("airtable accepts at most %d records per request", MaxRecordsPerRequest)

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-success response from the API.
type APIError struct {
	// StatusCode is the HTTP status.
	StatusCode int
	// Type is the Airtable error type (e.g. INVALID_REQUEST_UNKNOWN, NOT_FOUND).
	Type string
	// Message is the human-readable error message, when provided.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("airtable: %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable: %d %s", e.StatusCode, e.Type)
}

// Client talks to a single Airtable table.
type Client struct {
	cfg        Config
	tableURL   string
	httpClient HTTPClient
}

// NewClient creates a client with a transport bounded by cfg.TimeoutSeconds.
func NewClient(cfg Config) (*Client, error) {
	// Ensure timeout defaults if not set
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	return NewClientWithHTTP(cfg, &http.Client{Transport: transport})
}

// NewClientWithHTTP creates a client using the given HTTP client.
func NewClientWithHTTP(cfg Config, httpClient HTTPClient) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("airtable api key is required")
	}
	if cfg.BaseID == "" {
		return nil, errors.New("airtable base id is required")
	}
	if cfg.TableName == "" {
		return nil, errors.New("airtable table name is required")
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.airtable.com/v0"
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid airtable base url: %w", err)
	}

	return &Client{
		cfg:        cfg,
		tableURL:   base + "/" + url.PathEscape(cfg.BaseID) + "/" + url.PathEscape(cfg.TableName),
		httpClient: httpClient,
	}, nil
}

type listResponse struct {
	Records []reconcile.RemoteRecord `json:"records"`
	Offset  string                   `json:"offset"`
}

type writeResponse struct {
	Records []reconcile.RemoteRecord `json:"records"`
}

type createRequest struct {
	Records  []reconcile.InsertOp `json:"records"`
	Typecast bool                 `json:"typecast,omitempty"`
}

type updateRequest struct {
	Records  []reconcile.UpdateOp `json:"records"`
	Typecast bool                 `json:"typecast,omitempty"`
}

// ListRecords returns one page of records. An empty offset requests the first page.
func (c *Client) ListRecords(ctx context.Context, offset string) (reconcile.Page, error) {
	q := url.Values{}
	if c.cfg.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	}
	if c.cfg.View != "" {
		q.Set("view", c.cfg.View)
	}
	if offset != "" {
		q.Set("offset", offset)
	}

	endpoint := c.tableURL
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return reconcile.Page{}, err
	}
	return reconcile.Page{Records: resp.Records, Offset: resp.Offset}, nil
}

// CreateRecords creates up to MaxRecordsPerRequest records in one request.
func (c *Client) CreateRecords(ctx context.Context, ops []reconcile.InsertOp) ([]reconcile.RemoteRecord, error) {
	if len(ops) == 0 {
		return nil, nil
	}
	if len(ops) > MaxRecordsPerRequest {
		return nil, ErrTooManyRecords
	}

	var resp writeResponse
	if err := c.do(ctx, http.MethodPost, c.tableURL, createRequest{Records: ops, Typecast: c.cfg.Typecast}, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// UpdateRecords patches up to MaxRecordsPerRequest records in one request.
// PATCH leaves fields absent from the payload untouched.
func (c *Client) UpdateRecords(ctx context.Context, ops []reconcile.UpdateOp) ([]reconcile.RemoteRecord, error) {
	if len(ops) == 0 {
		return nil, nil
	}
	if len(ops) > MaxRecordsPerRequest {
		return nil, ErrTooManyRecords
	}

	var resp writeResponse
	if err := c.do(ctx, http.MethodPatch, c.tableURL, updateRequest{Records: ops, Typecast: c.cfg.Typecast}, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("airtable %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read airtable response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode airtable response: %w", err)
	}
	return nil
}

// parseAPIError reads both error body shapes the API uses:
// {"error":{"type":"...","message":"..."}} and {"error":"NOT_FOUND"}.
func parseAPIError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status, Type: http.StatusText(status)}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var detailed struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detailed); err == nil {
		if detailed.Type != "" {
			apiErr.Type = detailed.Type
		}
		apiErr.Message = detailed.Message
		return apiErr
	}

	var plain string
	if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
		apiErr.Type = plain
	}
	return apiErr
}
