package receipt

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zlomke76-del/solace-adapter/pkg/canon"
	"github.com/zlomke76-del/solace-adapter/pkg/domain"
)

type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "receipt: config error: " + e.Msg }

type SignInput struct {
	AdapterID      string
	Service        string
	ActorID        string
	Intent         string
	IntentHash     string
	ExecuteHash    string
	AuthorityKeyID *string
	CoreIssuedAt   string
	CoreExpiresAt  string
	CoreTime       string
	TTLSeconds     int
	PrivateKey     ed25519.PrivateKey
	Now            func() time.Time
}

func Sign(in SignInput) (domain.Receipt, error) {
	if in.AdapterID == "" {
		return domain.Receipt{}, &ConfigError{Msg: "adapterId is required"}
	}
	if len(in.PrivateKey) != ed25519.PrivateKeySize {
		return domain.Receipt{}, &ConfigError{Msg: "receipt private key is required"}
	}
	if in.Service == "" || in.ActorID == "" || in.Intent == "" {
		return domain.Receipt{}, &ConfigError{Msg: "service, actorId, and intent are required"}
	}
	ttl := in.TTLSeconds
	if ttl <= 0 {
		ttl = 30
	}
	now := time.Now
	if in.Now != nil {
		now = in.Now
	}
	issuedAt := now().UTC()
	expiresAt := issuedAt.Add(time.Duration(ttl) * time.Second)

	r := domain.Receipt{
		V:              1,
		ReceiptID:      uuid.NewString(),
		AdapterID:      in.AdapterID,
		Service:        in.Service,
		ActorID:        in.ActorID,
		Intent:         in.Intent,
		IntentHash:     in.IntentHash,
		ExecuteHash:    in.ExecuteHash,
		CoreDecision:   domain.Permit,
		AuthorityKeyID: in.AuthorityKeyID,
		CoreIssuedAt:   in.CoreIssuedAt,
		CoreExpiresAt:  in.CoreExpiresAt,
		CoreTime:       in.CoreTime,
		IssuedAt:       issuedAt.Format(time.RFC3339),
		ExpiresAt:      expiresAt.Format(time.RFC3339),
	}

	unsigned, err := r.CanonicalMap()
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("receipt: build canonical form: %w", err)
	}
	canonical, err := canon.Canonicalize(unsigned)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("receipt: canonicalize: %w", err)
	}
	sig := ed25519.Sign(in.PrivateKey, canonical)
	r.Signature = base64.StdEncoding.EncodeToString(sig)
	return r, nil
}

const (
	ReasonMissingPublicKey = "missing_receipt_public_key"
	ReasonInvalidVersion   = "invalid_receipt_version"
	ReasonNotPermit        = "receipt_not_permit"
	ReasonMissingSignature = "missing_receipt_signature"
	ReasonInvalidTimeField = "invalid_receipt_time_fields"
	ReasonNotYetValid      = "receipt_not_yet_valid"
	ReasonExpired          = "receipt_expired"
	ReasonInvalidSignature = "invalid_receipt_signature"
)

type VerifyOptions struct {
	PublicKey        ed25519.PublicKey
	Now              time.Time
	ClockSkewSeconds int
}

type Result struct {
	OK     bool
	Reason string
}

func Verify(r domain.Receipt, opts VerifyOptions) Result {
	if len(opts.PublicKey) != ed25519.PublicKeySize {
		return Result{Reason: ReasonMissingPublicKey}
	}
	if r.V != 1 {
		return Result{Reason: ReasonInvalidVersion}
	}
	if r.CoreDecision != domain.Permit {
		return Result{Reason: ReasonNotPermit}
	}
	if r.Signature == "" {
		return Result{Reason: ReasonMissingSignature}
	}
	issuedAt, err1 := time.Parse(time.RFC3339, r.IssuedAt)
	expiresAt, err2 := time.Parse(time.RFC3339, r.ExpiresAt)
	if err1 != nil || err2 != nil {
		return Result{Reason: ReasonInvalidTimeField}
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	skew := time.Duration(opts.ClockSkewSeconds) * time.Second
	if opts.ClockSkewSeconds == 0 {
		skew = 10 * time.Second
	}

	if now.Add(skew).Before(issuedAt) {
		return Result{Reason: ReasonNotYetValid}
	}
	if now.Add(-skew).After(expiresAt) {
		return Result{Reason: ReasonExpired}
	}

	unsigned, err := r.CanonicalMap()
	if err != nil {
		return Result{Reason: ReasonInvalidSignature}
	}
	canonical, err := canon.Canonicalize(unsigned)
	if err != nil {
		return Result{Reason: ReasonInvalidSignature}
	}
	sigBytes, err := base64.StdEncoding.DecodeString(r.Signature)
	if err != nil {
		return Result{Reason: ReasonInvalidSignature}
	}
	if !ed25519.Verify(opts.PublicKey, canonical, sigBytes) {
		return Result{Reason: ReasonInvalidSignature}
	}
	return Result{OK: true}
}
