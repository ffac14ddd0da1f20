package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/endgame-trainer/pkg/boarddto"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status int
	boarddto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trainer api: status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

// Client talks to a Server. Only reads are retried.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type ClientOption func(*Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) ClientOption {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) ClientOption {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateSession(ctx context.Context, req boarddto.CreateSessionRequest) (*boarddto.CreateSessionResponse, error) {
	var out boarddto.CreateSessionResponse
	if _, err := c.do(ctx, fasthttp.MethodPost, sessionsPrefix, req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Session(ctx context.Context, id string) (*boarddto.SessionState, error) {
	var out boarddto.SessionState
	if _, err := c.do(ctx, fasthttp.MethodGet, sessionPath(id), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Pointer(ctx context.Context, id string, req boarddto.PointerRequest) (*boarddto.PointerResponse, error) {
	var out boarddto.PointerResponse
	if _, err := c.do(ctx, fasthttp.MethodPost, sessionPath(id)+"/pointer", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Save(ctx context.Context, id string) (*boarddto.SaveResponse, error) {
	var out boarddto.SaveResponse
	if _, err := c.do(ctx, fasthttp.MethodPost, sessionPath(id)+"/save", nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Close(ctx context.Context, id string, discard bool) error {
	path := sessionPath(id)
	if discard {
		path += "?discard=1"
	}
	_, err := c.do(ctx, fasthttp.MethodDelete, path, nil, nil, false)
	return err
}

func (c *Client) BoardPNG(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, fasthttp.MethodGet, sessionPath(id)+"/board.png", nil, nil, true)
}

func sessionPath(id string) string { return sessionsPrefix + "/" + strings.TrimSpace(id) }

// do sends one request. When out is nil the raw body is returned.
func (c *Client) do(ctx context.Context, method, path string, in, out any, retry bool) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			apiErr := &APIError{Status: status}
			if jerr := json.Unmarshal(resp.Body(), &apiErr.DomainError); jerr != nil {
				apiErr.Message = truncate(string(resp.Body()), 256)
			}
			if !shouldRetryStatus(status) {
				return nil, apiErr
			}
			lastErr = apiErr
		} else {
			body := append([]byte(nil), resp.Body()...)
			if out != nil && len(body) > 0 {
				if err := json.Unmarshal(body, out); err != nil {
					return nil, fmt.Errorf("decode response: %w", err)
				}
			}
			return body, nil
		}

		if attempt < attempts {
			if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
				return nil, lastErr
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

func (c *Client) deadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// 100ms, 200ms, 400ms ... capped at 3.2s
func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
