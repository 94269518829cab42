package main

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

	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/service"
)

// client is a thin JSON client for the principal REST API.
type client struct {
	base     string
	http     *http.Client
	adminKey string
}

func newClient(base string, timeout time.Duration, adminKey string) *client {
	return &client{
		base:     strings.TrimRight(base, "/"),
		http:     &http.Client{Timeout: timeout},
		adminKey: adminKey,
	}
}

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status     int
	Message    string
	RetryAfter string
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	if e.RetryAfter != "" {
		msg += " (retry after " + e.RetryAfter + "s)"
	}
	return msg
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.adminKey != "" {
		req.Header.Set("X-Admin-Key", c.adminKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error, RetryAfter: resp.Header.Get("Retry-After")}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *client) Process(ctx context.Context, req *request.Request) (*response.Response, error) {
	var out response.Response
	if err := c.do(ctx, http.MethodPost, "/api/v1/process", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Submit(ctx context.Context, req *request.Request) (response.Ack, error) {
	var out response.Ack
	err := c.do(ctx, http.MethodPost, "/api/v1/requests", req, &out)
	return out, err
}

func (c *client) Poll(ctx context.Context, processingID string) (response.DispatchStatus, error) {
	var out response.DispatchStatus
	err := c.do(ctx, http.MethodGet, "/api/v1/requests/"+url.PathEscape(processingID), nil, &out)
	return out, err
}

func (c *client) Cancel(ctx context.Context, processingID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/requests/"+url.PathEscape(processingID), nil, nil)
}

func (c *client) Status(ctx context.Context) (service.Status, error) {
	var out service.Status
	err := c.do(ctx, http.MethodGet, "/api/v1/agents/status", nil, &out)
	return out, err
}

type recentResponses struct {
	Responses []*response.Response `json:"responses"`
	Count     int                  `json:"count"`
}

func (c *client) Responses(ctx context.Context, limit int) (recentResponses, error) {
	var out recentResponses
	err := c.do(ctx, http.MethodGet, "/api/v1/responses?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

func (c *client) AddSpecialist(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/agents", map[string]string{"name": name}, nil)
}

func (c *client) RemoveSpecialist(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/agents/"+url.PathEscape(name), nil, nil)
}
