package verifier

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/zlomke76-del/solace-adapter/pkg/canon"
	"github.com/zlomke76-del/solace-adapter/pkg/domain"
	"github.com/zlomke76-del/solace-adapter/pkg/receipt"
)

const (
	ReasonMissingOrInvalidHeader = "missing_or_invalid_receipt_header"
	ReasonServiceMismatch        = "receipt_service_mismatch"
	ReasonExecuteHashMismatch    = "execute_hash_mismatch"
)

type Options struct {
	ReceiptPublicKey    ed25519.PublicKey
	ExpectedServiceName string
	ReceivedExecute     map[string]any
	Now                 time.Time
	ClockSkewSeconds    int
}

type Result struct {
	OK          bool
	Reason      string
	Receipt     *domain.Receipt
	ExecuteHash string
}

func VerifyExecutorRequest(receiptHeaderValue string, opts Options) Result {
	raw, err := base64.StdEncoding.DecodeString(receiptHeaderValue)
	if err != nil {
		return Result{Reason: ReasonMissingOrInvalidHeader}
	}
	var r domain.Receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return Result{Reason: ReasonMissingOrInvalidHeader}
	}

	if r.Service != opts.ExpectedServiceName {
		return Result{Reason: ReasonServiceMismatch, Receipt: &r}
	}

	verifyResult := receipt.Verify(r, receipt.VerifyOptions{
		PublicKey:        opts.ReceiptPublicKey,
		Now:              opts.Now,
		ClockSkewSeconds: opts.ClockSkewSeconds,
	})
	if !verifyResult.OK {
		return Result{Reason: verifyResult.Reason, Receipt: &r}
	}

	executeHash, err := canon.SHA256Hex(opts.ReceivedExecute)
	if err != nil {
		return Result{Reason: ReasonMissingOrInvalidHeader, Receipt: &r}
	}
	if executeHash != r.ExecuteHash {
		return Result{Reason: ReasonExecuteHashMismatch, Receipt: &r, ExecuteHash: executeHash}
	}

	return Result{OK: true, Receipt: &r, ExecuteHash: executeHash}
}
