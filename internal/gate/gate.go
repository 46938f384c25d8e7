package gate

import (
	"context"
	"crypto/ed25519"

	"github.com/zlomke76-del/solace-adapter/pkg/canon"
	"github.com/zlomke76-del/solace-adapter/pkg/domain"
	"github.com/zlomke76-del/solace-adapter/pkg/receipt"

	"github.com/zlomke76-del/solace-adapter/internal/forwarder"
	"github.com/zlomke76-del/solace-adapter/internal/router"
)

const (
	ReasonInvalidGateRequest = "invalid_or_missing_gate_request"
	ReasonReceiptMintFailed  = "receipt_mint_failed"
	ReasonForwardingFailed   = "forwarding_failed"
	ReasonForwardedAfterCore = "forwarded_after_core_permit"
)

type CoreClient interface {
	Execute(ctx context.Context, envelope domain.Envelope) domain.CoreDecision
}

type Forwarder interface {
	Forward(ctx context.Context, target domain.ForwardTarget, envelope domain.Envelope, r domain.Receipt) (forwarder.Result, error)
}

type Orchestrator struct {
	AdapterID         string
	ReceiptPrivateKey ed25519.PrivateKey
	ReceiptTTLSeconds int
	Targets           map[string]domain.ForwardTarget
	Core              CoreClient
	Forward           Forwarder
}

func (o *Orchestrator) Run(ctx context.Context, envelope domain.Envelope) domain.GateResult {
	if err := validateEnvelope(envelope); err != nil {
		return domain.GateResult{Decision: domain.Deny, Reason: ReasonInvalidGateRequest}
	}

	action, _ := envelope.Execute["action"].(string)
	target, service, err := router.Route(action, o.Targets)
	if err != nil {
		if routeErr, ok := err.(*router.RouteError); ok {
			return domain.GateResult{Decision: domain.Deny, Reason: routeErr.Reason}
		}
		return domain.GateResult{Decision: domain.Deny, Reason: router.ReasonUnknownForwardTarget}
	}

	localIntentHash, _ := canon.SHA256Hex(envelope.Intent)
	localExecuteHash, _ := canon.SHA256Hex(envelope.Execute)

	decision := o.Core.Execute(ctx, envelope)
	if decision.Decision != domain.Permit {
		reason := decision.Reason
		if reason == "" {
			reason = "core_denied"
		}
		return domain.GateResult{
			Decision:       decision.Decision,
			Reason:         reason,
			ExecuteHash:    localExecuteHash,
			IntentHash:     localIntentHash,
			AuthorityKeyID: decision.AuthorityKeyID,
		}
	}

	intentHash := preferCoreHash(decision.IntentHash, localIntentHash)
	executeHash := preferCoreHash(decision.ExecuteHash, localExecuteHash)

	actorID, _ := actorID(envelope.Intent)
	intentName, _ := envelope.Intent["intent"].(string)

	minted, err := receipt.Sign(receipt.SignInput{
		AdapterID:      o.AdapterID,
		Service:        service,
		ActorID:        actorID,
		Intent:         intentName,
		IntentHash:     intentHash,
		ExecuteHash:    executeHash,
		AuthorityKeyID: decision.AuthorityKeyID,
		CoreIssuedAt:   decision.IssuedAt,
		CoreExpiresAt:  decision.ExpiresAt,
		CoreTime:       decision.Time,
		TTLSeconds:     o.ReceiptTTLSeconds,
		PrivateKey:     o.ReceiptPrivateKey,
	})
	if err != nil {
		return domain.GateResult{Decision: domain.Deny, Reason: ReasonReceiptMintFailed}
	}

	fwdResult, err := o.Forward.Forward(ctx, target, envelope, minted)
	if err != nil {
		return domain.GateResult{Decision: domain.Deny, Reason: ReasonForwardingFailed}
	}

	return domain.GateResult{
		Decision:       domain.Permit,
		Reason:         ReasonForwardedAfterCore,
		Receipt:        &minted,
		ForwardStatus:  fwdResult.Status,
		ForwardBody:    fwdResult.Body,
		ExecuteHash:    executeHash,
		IntentHash:     intentHash,
		AuthorityKeyID: decision.AuthorityKeyID,
	}
}

func validateEnvelope(e domain.Envelope) error {
	if e.Intent == nil || e.Execute == nil || e.Acceptance == nil {
		return errInvalid
	}
	actor, _ := actorID(e.Intent)
	if actor == "" {
		return errInvalid
	}
	if intent, ok := e.Intent["intent"].(string); !ok || intent == "" {
		return errInvalid
	}
	return nil
}

func actorID(intent map[string]any) (string, bool) {
	actorMap, ok := intent["actor"].(map[string]any)
	if !ok {
		return "", false
	}
	id, ok := actorMap["id"].(string)
	return id, ok && id != ""
}

func preferCoreHash(coreHash, localHash string) string {
	if coreHash != "" {
		return coreHash
	}
	return localHash
}

type invalidEnvelopeError struct{}

func (invalidEnvelopeError) Error() string { return "gate: invalid envelope" }

var errInvalid = invalidEnvelopeError{}
