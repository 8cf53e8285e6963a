package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mhzhou/universe-data/internal/config"
	"github.com/mhzhou/universe-data/internal/model"
)

// Client issues paginated requests to the SSE commonQuery.do endpoint.
// It enforces a minimum interval between consecutive requests and unwraps
// the JSONP callback envelope before decoding.
//
// One Client instance owns one endpoint's request pacing; instances are
// never shared across exchanges.
type Client struct {
	cfg        config.ExchangeConfig
	httpClient *http.Client
	logger     *slog.Logger

	lastRequest time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client for the configured endpoint.
func NewClient(cfg config.ExchangeConfig, opts ...ClientOption) *Client {
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Page is one decoded page of raw records plus the pagination metadata the
// endpoint reports. Total and TotalPages are -1 when the response omits them.
type Page struct {
	PageNo     int
	Records    []model.RawRecord
	Total      int
	TotalPages int
}

// FetchPage fetches and decodes one page. Page numbers are 1-indexed.
func (c *Client) FetchPage(ctx context.Context, pageNo int) (*Page, error) {
	if err := c.waitRateLimit(ctx); err != nil {
		return nil, err
	}
	c.lastRequest = time.Now()

	callback := c.callbackName()
	reqURL := c.cfg.Endpoint + "?" + c.buildQuery(pageNo, callback).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	if c.cfg.Cookie != "" {
		req.Header.Set("Cookie", c.cfg.Cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: c.cfg.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: c.cfg.Endpoint, Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &TransportError{URL: c.cfg.Endpoint, StatusCode: resp.StatusCode}
	}

	payload, err := parseJSONP(string(body), callback)
	if err != nil {
		return nil, err
	}

	return decodePage(payload, pageNo)
}

// waitRateLimit delays (never drops) the request until the configured
// minimum interval since the previous request has elapsed.
func (c *Client) waitRateLimit(ctx context.Context) error {
	if c.cfg.RateLimit.MinInterval <= 0 || c.lastRequest.IsZero() {
		return nil
	}

	elapsed := time.Since(c.lastRequest)
	if elapsed >= c.cfg.RateLimit.MinInterval {
		return nil
	}

	wait := c.cfg.RateLimit.MinInterval - elapsed
	c.logger.Debug("rate limit wait", "wait", wait)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (c *Client) callbackName() string {
	return c.cfg.JSONP.CallbackPrefix + strconv.Itoa(10000000+rand.Intn(90000000))
}

func (c *Client) buildQuery(pageNo int, callback string) url.Values {
	q := url.Values{}
	q.Set(c.cfg.JSONP.Param, callback)
	q.Set("_", strconv.FormatInt(time.Now().UnixMilli(), 10))

	for k, v := range c.cfg.Query {
		q.Set(k, v)
	}
	for k, v := range c.cfg.Filters {
		q.Set(k, v)
	}

	page := strconv.Itoa(pageNo)
	q.Set("pageHelp.pageNo", page)
	q.Set("pageHelp.beginPage", page)
	q.Set("pageHelp.endPage", page)
	q.Set("pageHelp.pageSize", strconv.Itoa(c.cfg.Pagination.PageSize))
	q.Set("pageHelp.cacheSize", strconv.Itoa(c.cfg.Pagination.CacheSize))

	return q
}

// lenientJSONP accepts any callback identifier; the endpoint occasionally
// echoes a different name than requested.
var lenientJSONP = regexp.MustCompile(`(?s)^\w+\s*\(\s*(.*)\s*\)\s*;?\s*$`)

// parseJSONP strips the callbackName({...}); envelope and returns the JSON
// payload.
func parseJSONP(body, callback string) ([]byte, error) {
	text := strings.TrimSpace(body)

	if strings.Contains(text, "System Error") || strings.Contains(text, "系统繁忙") {
		return nil, &DecodeError{Snippet: text, Err: fmt.Errorf("endpoint returned system error page")}
	}
	if strings.HasPrefix(text, "<!") || strings.HasPrefix(text, "<html") {
		return nil, &DecodeError{Snippet: text, Err: fmt.Errorf("endpoint returned HTML error page")}
	}

	strict := regexp.MustCompile(`(?s)^` + regexp.QuoteMeta(callback) + `\s*\(\s*(.*)\s*\)\s*;?\s*$`)
	m := strict.FindStringSubmatch(text)
	if m == nil {
		m = lenientJSONP.FindStringSubmatch(text)
	}
	if m == nil {
		return nil, &DecodeError{Snippet: text, Err: fmt.Errorf("no JSONP envelope")}
	}

	return []byte(m[1]), nil
}

type pageEnvelope struct {
	PageHelp *struct {
		Data       []model.RawRecord `json:"data"`
		Total      any               `json:"total"`
		TotalPages any               `json:"totalPages"`
		TotalPage  any               `json:"totalPage"`
	} `json:"pageHelp"`
}

func decodePage(payload []byte, pageNo int) (*Page, error) {
	var env pageEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &DecodeError{Snippet: string(payload), Err: err}
	}
	if env.PageHelp == nil {
		return nil, &DecodeError{Snippet: string(payload), Err: fmt.Errorf("response missing pageHelp")}
	}

	page := &Page{
		PageNo:     pageNo,
		Records:    env.PageHelp.Data,
		Total:      -1,
		TotalPages: -1,
	}
	if page.Records == nil {
		page.Records = []model.RawRecord{}
	}

	if n, ok := asInt(env.PageHelp.Total); ok {
		page.Total = n
	}
	if n, ok := asInt(env.PageHelp.TotalPages); ok {
		page.TotalPages = n
	} else if n, ok := asInt(env.PageHelp.TotalPage); ok {
		page.TotalPages = n
	}

	return page, nil
}

// asInt converts the loosely typed count fields the endpoint returns
// (numbers or numeric strings).
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
