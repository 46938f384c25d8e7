package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zlomke76-del/solace-adapter/pkg/domain"
)

const (
	ReasonUnreachable        = "core_unreachable"
	ReasonTimeout            = "core_timeout"
	ReasonMalformedResponse  = "core_malformed_response"
	reasonHTTPStatusTemplate = "core_http_%d"
)

type Client struct {
	baseURL string
	headers map[string]string
	httpDo  func(*http.Request) (*http.Response, error)
	timeout time.Duration
}

func New(baseURL string, headers map[string]string, timeout time.Duration, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("core: base url is required")
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	doer := (&http.Client{Timeout: timeout}).Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	return &Client{baseURL: baseURL, headers: headers, httpDo: doer, timeout: timeout}, nil
}

func (c *Client) Execute(ctx context.Context, envelope domain.Envelope) domain.CoreDecision {
	return c.post(ctx, "/v1/execute", envelope)
}

func (c *Client) Authorize(ctx context.Context, intent map[string]any) domain.CoreDecision {
	return c.post(ctx, "/v1/authorize", intent)
}

func (c *Client) post(ctx context.Context, path string, body any) domain.CoreDecision {
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.CoreDecision{Decision: domain.Deny, Reason: ReasonMalformedResponse}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.CoreDecision{Decision: domain.Deny, Reason: ReasonUnreachable}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpDo(req)
	if err != nil {
		return domain.CoreDecision{Decision: domain.Deny, Reason: transportErrorReason(ctx, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.CoreDecision{Decision: domain.Deny, Reason: transportErrorReason(ctx, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.CoreDecision{Decision: domain.Deny, Reason: fmt.Sprintf(reasonHTTPStatusTemplate, resp.StatusCode)}
	}

	var decoded domain.CoreDecision
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return domain.CoreDecision{Decision: domain.Deny, Reason: ReasonMalformedResponse}
	}
	if decoded.Decision == "" {
		return domain.CoreDecision{Decision: domain.Deny, Reason: ReasonMalformedResponse}
	}
	return decoded
}

func transportErrorReason(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return ReasonUnreachable
}
