package forwarder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/zlomke76-del/solace-adapter/pkg/domain"
)

type ForwardingError struct {
	Msg string
}

func (e *ForwardingError) Error() string { return "forwarder: " + e.Msg }

type Result struct {
	Status int
	Body   any
}

type Forwarder struct {
	httpDo  func(*http.Request) (*http.Response, error)
	timeout time.Duration
}

func New(timeout time.Duration, httpClient *http.Client) *Forwarder {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	doer := (&http.Client{Timeout: timeout}).Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	return &Forwarder{httpDo: doer, timeout: timeout}
}

func (f *Forwarder) Forward(ctx context.Context, target domain.ForwardTarget, envelope domain.Envelope, r domain.Receipt) (Result, error) {
	if target.URL == "" {
		return Result{}, &ForwardingError{Msg: "unknown_forward_target"}
	}

	body := domain.ForwardBody{Intent: envelope.Intent, Execute: envelope.Execute}
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, err
	}

	receiptJSON, err := json.Marshal(r)
	if err != nil {
		return Result{}, err
	}
	receiptHeader := base64.StdEncoding.EncodeToString(receiptJSON)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-solace-receipt", receiptHeader)
	if target.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+target.BearerToken)
	}

	resp, err := f.httpDo(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}

	var parsed any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		parsed = map[string]any{"_raw": string(respBody)}
	}

	return Result{Status: resp.StatusCode, Body: parsed}, nil
}
