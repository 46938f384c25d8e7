package verifier

import (
	"crypto/ed25519"
	"fmt"
	"net/http"
	"time"

	"github.com/zlomke76-del/solace-adapter/pkg/verifier"
)

const (
	ReasonMissingOrInvalidHeader = verifier.ReasonMissingOrInvalidHeader
	ReasonServiceMismatch        = verifier.ReasonServiceMismatch
	ReasonExecuteHashMismatch    = verifier.ReasonExecuteHashMismatch
)

type Result = verifier.Result

type Client struct {
	publicKey        ed25519.PublicKey
	serviceName      string
	clockSkewSeconds int
	now              func() time.Time
}

type Option func(*Client)

func WithClockSkew(seconds int) Option {
	return func(c *Client) { c.clockSkewSeconds = seconds }
}

func WithNow(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(publicKey ed25519.PublicKey, serviceName string, opts ...Option) *Client {
	c := &Client{publicKey: publicKey, serviceName: serviceName, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Request struct {
	ReceiptHeader string
	Execute       map[string]any
}

func (c *Client) Verify(req Request) (Result, error) {
	if c == nil {
		return Result{}, fmt.Errorf("verifier: client is nil")
	}
	if len(c.publicKey) == 0 {
		return Result{}, fmt.Errorf("verifier: public key is required")
	}
	if c.serviceName == "" {
		return Result{}, fmt.Errorf("verifier: service name is required")
	}
	now := c.now
	if now == nil {
		now = time.Now
	}
	return verifier.VerifyExecutorRequest(req.ReceiptHeader, verifier.Options{
		ReceiptPublicKey:    c.publicKey,
		ExpectedServiceName: c.serviceName,
		ReceivedExecute:     req.Execute,
		Now:                 now(),
		ClockSkewSeconds:    c.clockSkewSeconds,
	}), nil
}

func (c *Client) VerifyHTTPRequest(r *http.Request, headerName string, execute map[string]any) (Result, error) {
	if headerName == "" {
		headerName = "x-solace-receipt"
	}
	return c.Verify(Request{
		ReceiptHeader: r.Header.Get(headerName),
		Execute:       execute,
	})
}
