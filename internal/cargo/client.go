package cargo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/cargodash/internal/telemetry"
)

// API is the full set of backend operations the dashboard uses. *Client
// implements it; tests substitute fakes.
type API interface {
	Ping(ctx context.Context) (string, error)
	ListItems(ctx context.Context, query string) ([]Item, error)
	GetItem(ctx context.Context, itemID string) (*Item, error)
	CreateItem(ctx context.Context, item ItemInput) error
	DeleteItem(ctx context.Context, itemID string) error
	ListContainers(ctx context.Context) ([]Container, error)
	CreateContainers(ctx context.Context, containers []Container) error
	DeleteContainer(ctx context.Context, containerID string) error
	Placement(ctx context.Context, itemID, containerID string) (PlacementResponse, error)
	IdentifyWaste(ctx context.Context) ([]WasteItem, error)
	ReturnPlan(ctx context.Context, req ReturnPlanRequest) (ReturnPlanResponse, error)
	CompleteUndocking(ctx context.Context, req UndockingRequest) (UndockingResponse, error)
	Simulate(ctx context.Context, req SimulationRequest) (SimulationResponse, error)
	Logs(ctx context.Context, query LogQuery) ([]LogEntry, error)
	Import(ctx context.Context, kind ImportKind, filename string, r io.Reader) (ImportResponse, error)
	ExportArrangement(ctx context.Context, w io.Writer) (int64, error)
	Retrieve(ctx context.Context, req RetrieveRequest) error
}

var _ API = (*Client)(nil)

// Client talks to the cargo HTTP API. Each call is a single attempt with no
// client-side deadline; callers bound it through ctx when they need to.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	metrics   telemetry.Collector
	logger    *zap.Logger
	newID     func() string
}

const (
	// DefaultBaseURL is where the backend listens unless configured otherwise.
	DefaultBaseURL   = "http://localhost:8000"
	defaultUserAgent = "cargodash/0.1"
	// ExportFilename is the name the server suggests for arrangement exports.
	ExportFilename = "space_arrangement.csv"
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCollector records per-request metrics.
func WithCollector(col telemetry.Collector) Option {
	return func(c *Client) {
		if col != nil {
			c.metrics = col
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client for the given base URL. A bare host:port is
// accepted and assumed to be http.
func NewClient(apiBase string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		metrics:   telemetry.Noop(),
		logger:    zap.NewNop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Ping hits the root health endpoint and returns its message.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/", &url.URL{Path: "/"}, nil, &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

// ListItems returns all items, or those matching query when it is non-empty.
func (c *Client) ListItems(ctx context.Context, query string) ([]Item, error) {
	rel := &url.URL{Path: "/api/items"}
	if q := strings.TrimSpace(query); q != "" {
		rel.RawQuery = url.Values{"query": {q}}.Encode()
	}
	var payload ItemListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/items", rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetItem fetches one item. The server may wrap it as {"item": {...}}.
func (c *Client) GetItem(ctx context.Context, itemID string) (*Item, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/items/{id}", itemPath("/api/items/", itemID), nil, &raw); err != nil {
		return nil, err
	}
	var wrapped struct {
		Item *Item `json:"item"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Item != nil {
		return wrapped.Item, nil
	}
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, &DecodeError{Path: "/api/items/" + itemID, Err: err}
	}
	return &item, nil
}

// CreateItem stores a new item.
func (c *Client) CreateItem(ctx context.Context, item ItemInput) error {
	return c.postJSON(ctx, "/api/items", &url.URL{Path: "/api/items"}, item, nil)
}

// DeleteItem removes an item by id.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/items/{id}", itemPath("/api/items/", itemID), nil, nil)
}

// ListContainers returns all containers.
func (c *Client) ListContainers(ctx context.Context) ([]Container, error) {
	var payload ContainerListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/containers", &url.URL{Path: "/api/containers"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Containers, nil
}

// CreateContainers stores one or more containers in a single call.
func (c *Client) CreateContainers(ctx context.Context, containers []Container) error {
	return c.postJSON(ctx, "/api/containers", &url.URL{Path: "/api/containers"}, containers, nil)
}

// DeleteContainer removes a container by id.
func (c *Client) DeleteContainer(ctx context.Context, containerID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/containers/{id}", itemPath("/api/containers/", containerID), nil, nil)
}

// Placement asks for container recommendations for one item. containerID
// is an optional hint.
func (c *Client) Placement(ctx context.Context, itemID, containerID string) (PlacementResponse, error) {
	rel := itemPath("/api/placement/", itemID)
	if hint := strings.TrimSpace(containerID); hint != "" {
		rel.RawQuery = url.Values{"containerId": {hint}}.Encode()
	}
	var payload PlacementResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/placement/{itemId}", rel, nil, &payload); err != nil {
		return PlacementResponse{}, err
	}
	return payload, nil
}

// IdentifyWaste lists items flagged as waste.
func (c *Client) IdentifyWaste(ctx context.Context) ([]WasteItem, error) {
	var payload WasteListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/waste/identify", &url.URL{Path: "/api/waste/identify"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.WasteItems, nil
}

// ReturnPlan builds a return manifest for an undocking container.
func (c *Client) ReturnPlan(ctx context.Context, req ReturnPlanRequest) (ReturnPlanResponse, error) {
	var payload ReturnPlanResponse
	if err := c.postJSON(ctx, "/api/waste/return-plan", &url.URL{Path: "/api/waste/return-plan"}, req, &payload); err != nil {
		return ReturnPlanResponse{}, err
	}
	return payload, nil
}

// CompleteUndocking finalises an undocking and reports removed items.
func (c *Client) CompleteUndocking(ctx context.Context, req UndockingRequest) (UndockingResponse, error) {
	var payload UndockingResponse
	if err := c.postJSON(ctx, "/api/waste/complete-undocking", &url.URL{Path: "/api/waste/complete-undocking"}, req, &payload); err != nil {
		return UndockingResponse{}, err
	}
	return payload, nil
}

// Simulate advances simulated time.
func (c *Client) Simulate(ctx context.Context, req SimulationRequest) (SimulationResponse, error) {
	if req.ItemsToBeUsedPerDay == nil {
		req.ItemsToBeUsedPerDay = []ItemRef{}
	}
	var payload SimulationResponse
	if err := c.postJSON(ctx, "/api/simulate/day", &url.URL{Path: "/api/simulate/day"}, req, &payload); err != nil {
		return SimulationResponse{}, err
	}
	return payload, nil
}

// Logs queries the activity log. Entries are returned in server order.
func (c *Client) Logs(ctx context.Context, query LogQuery) ([]LogEntry, error) {
	values := url.Values{}
	setIf(values, "startDate", query.StartDate)
	setIf(values, "endDate", query.EndDate)
	setIf(values, "itemId", query.ItemID)
	setIf(values, "userId", query.UserID)
	setIf(values, "actionType", query.ActionType)
	rel := &url.URL{Path: "/api/logs", RawQuery: values.Encode()}
	var payload LogListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/logs", rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Logs, nil
}

// Import uploads a CSV file for bulk import.
func (c *Client) Import(ctx context.Context, kind ImportKind, filename string, r io.Reader) (ImportResponse, error) {
	switch kind {
	case ImportItems, ImportContainers:
	default:
		return ImportResponse{}, fmt.Errorf("unknown import kind %q", kind)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return ImportResponse{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return ImportResponse{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return ImportResponse{}, fmt.Errorf("close multipart body: %w", err)
	}
	path := "/api/import/" + string(kind)
	resp, err := c.send(ctx, http.MethodPost, "/api/import/{kind}", &url.URL{Path: path}, &body, mw.FormDataContentType())
	if err != nil {
		return ImportResponse{}, err
	}
	var payload ImportResponse
	if err := decodeBody(path, resp, &payload); err != nil {
		return ImportResponse{}, err
	}
	return payload, nil
}

// ExportArrangement streams the current arrangement CSV into w.
func (c *Client) ExportArrangement(ctx context.Context, w io.Writer) (int64, error) {
	path := "/api/export/arrangement"
	resp, err := c.send(ctx, http.MethodGet, path, &url.URL{Path: path}, nil, "")
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &RequestError{Method: http.MethodGet, Path: path, Message: "read export body", Err: err}
	}
	return n, nil
}

// Retrieve records that a user took an item out of storage.
func (c *Client) Retrieve(ctx context.Context, req RetrieveRequest) error {
	return c.postJSON(ctx, "/api/retrieve", &url.URL{Path: "/api/retrieve"}, req, nil)
}

func (c *Client) postJSON(ctx context.Context, route string, rel *url.URL, body, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, route, rel, bytes.NewReader(encoded), dest)
}

func (c *Client) doJSON(ctx context.Context, method, route string, rel *url.URL, body io.Reader, dest any) error {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	resp, err := c.send(ctx, method, route, rel, body, contentType)
	if err != nil {
		return err
	}
	return decodeBody(rel.Path, resp, dest)
}

// send performs one attempt and converts non-2xx responses into
// *RequestError. On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, route string, rel *url.URL, body io.Reader, contentType string) (*http.Response, error) {
	if c == nil {
		return nil, errors.New("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(method, route, 0, elapsed)
		c.logger.Debug("api request failed",
			zap.String("method", method),
			zap.String("route", route),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, &RequestError{Method: method, Path: rel.Path, Message: "network error", Err: err}
	}
	c.metrics.ObserveRequest(method, route, resp.StatusCode, elapsed)
	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("route", route),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", elapsed),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &RequestError{
			Method:  method,
			Path:    rel.Path,
			Status:  resp.StatusCode,
			Message: errorDetail(raw, resp.StatusCode),
		}
	}
	return resp, nil
}

// decodeBody closes resp.Body. A nil dest discards the body.
func decodeBody(path string, resp *http.Response, dest any) error {
	defer func() { _ = resp.Body.Close() }()
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

func itemPath(prefix, id string) *url.URL {
	return &url.URL{Path: prefix + id, RawPath: prefix + url.PathEscape(id)}
}

func setIf(values url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		values.Set(key, v)
	}
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", apiBase)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
