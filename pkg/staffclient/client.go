// Package staffclient is a typed HTTP client for the /staffs REST resource.
package staffclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Staff is the wire shape of one staff member. A zero ID means the record
// has not been persisted yet.
type Staff struct {
	ID            int64  `json:"id,omitempty"`
	Nom           string `json:"nom"`
	Prenom        string `json:"prenom"`
	Type          string `json:"type"`
	Email         string `json:"email"`
	Telephone     string `json:"telephone"`
	Specialite    string `json:"specialite"`
	NumeroLicence string `json:"numeroLicence,omitempty"`
	DateEmbauche  string `json:"dateEmbauche,omitempty"`
	Actif         bool   `json:"actif"`
	AccountID     string `json:"accountId,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// Client issues the five staff operations against one endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	tokens     TokenSource
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. The client passed in is
// never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request, whatever order it is given in
// relative to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger enables debug logging of requests.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client for an absolute endpoint such as http://host/staffs.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("staffclient: invalid endpoint: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("staffclient: endpoint %q must be absolute", endpoint)
	}
	c := &Client{
		endpoint:   strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// Endpoint is the base URL requests are issued against.
func (c *Client) Endpoint() string { return c.endpoint }

// List fetches every record.
func (c *Client) List(ctx context.Context) ([]Staff, error) {
	var out []Staff
	if err := c.do(ctx, "list", http.MethodGet, "", 0, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Staff{}
	}
	return out, nil
}

// Get fetches one record; a missing id yields *NotFoundError.
func (c *Client) Get(ctx context.Context, id int64) (Staff, error) {
	var out Staff
	err := c.do(ctx, "get", http.MethodGet, idPath(id), id, nil, &out)
	return out, err
}

// Create persists a new record and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, s Staff) (Staff, error) {
	s.ID = 0
	var out Staff
	err := c.do(ctx, "create", http.MethodPost, "", 0, s, &out)
	return out, err
}

// Update replaces the record at id wholesale.
func (c *Client) Update(ctx context.Context, id int64, s Staff) (Staff, error) {
	s.ID = id
	var out Staff
	err := c.do(ctx, "update", http.MethodPut, idPath(id), id, s, &out)
	return out, err
}

// Delete removes the record at id. Any 2xx is success.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "delete", http.MethodDelete, idPath(id), id, nil, nil)
}

func idPath(id int64) string {
	return "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, op, method, path string, id int64, body, out any) error {
	target := c.endpoint + path

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("staffclient: encode %s payload: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("staffclient: build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.authorize(ctx, req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, URL: target, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("staff api call",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(op, id, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &TransportError{Op: op, URL: target, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("reading stored token failed; sending unauthenticated", zap.Error(err))
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (c *Client) statusError(op string, id int64, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var env errorEnvelope
	code, message := "", strings.TrimSpace(string(raw))
	var details map[string]any
	if json.Unmarshal(raw, &env) == nil && (env.Error.Code != "" || env.Error.Message != "") {
		code, message, details = env.Error.Code, env.Error.Message, env.Error.Details
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &NotFoundError{Op: op, ID: id, Message: message}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		if op == "create" || op == "update" {
			fields := make(map[string]string, len(details))
			for k, v := range details {
				fields[k] = fmt.Sprint(v)
			}
			return &ValidationError{Op: op, StatusCode: resp.StatusCode, Code: code, Message: message, Fields: fields}
		}
	}
	return &ServerError{Op: op, StatusCode: resp.StatusCode, Code: code, Message: message}
}
