package gate

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zlomke76-del/solace-adapter/internal/forwarder"
	"github.com/zlomke76-del/solace-adapter/pkg/domain"
)

type fakeCore struct {
	decision domain.CoreDecision
	calls    int
}

func (f *fakeCore) Execute(ctx context.Context, envelope domain.Envelope) domain.CoreDecision {
	f.calls++
	return f.decision
}

type fakeForwarder struct {
	result forwarder.Result
	err    error
	calls  int
}

func (f *fakeForwarder) Forward(ctx context.Context, target domain.ForwardTarget, envelope domain.Envelope, r domain.Receipt) (forwarder.Result, error) {
	f.calls++
	return f.result, f.err
}

func validEnvelope() domain.Envelope {
	return domain.Envelope{
		Intent:     map[string]any{"intent": "issue_refund", "actor": map[string]any{"id": "actor-1"}},
		Execute:    map[string]any{"action": "billing:issue_refund", "amount": 10},
		Acceptance: map[string]any{"terms": "accepted"},
	}
}

func newOrchestrator(core CoreClient, fwd Forwarder) *Orchestrator {
	_, priv, _ := ed25519.GenerateKey(nil)
	return &Orchestrator{
		AdapterID:         "adapter-1",
		ReceiptPrivateKey: priv,
		ReceiptTTLSeconds: 30,
		Targets: map[string]domain.ForwardTarget{
			"billing": {Service: "billing", URL: "https://billing.internal/execute"},
		},
		Core:    core,
		Forward: fwd,
	}
}

func TestRun_InvalidEnvelopeDenied(t *testing.T) {
	core := &fakeCore{decision: domain.CoreDecision{Decision: domain.Permit}}
	fwd := &fakeForwarder{}
	o := newOrchestrator(core, fwd)

	result := o.Run(context.Background(), domain.Envelope{})
	require.Equal(t, domain.Deny, result.Decision)
	require.Equal(t, ReasonInvalidGateRequest, result.Reason)
	require.Equal(t, 0, core.calls)
	require.Equal(t, 0, fwd.calls)
}

func TestRun_UnknownRouteDeniedBeforeCoreConsulted(t *testing.T) {
	core := &fakeCore{decision: domain.CoreDecision{Decision: domain.Permit}}
	fwd := &fakeForwarder{}
	o := newOrchestrator(core, fwd)

	envelope := validEnvelope()
	envelope.Execute["action"] = "unknown:op"

	result := o.Run(context.Background(), envelope)
	require.Equal(t, domain.Deny, result.Decision)
	require.Equal(t, 0, core.calls)
	require.Equal(t, 0, fwd.calls)
}

func TestRun_CoreDenyNeverForwards(t *testing.T) {
	core := &fakeCore{decision: domain.CoreDecision{Decision: domain.Deny, Reason: "policy_violation"}}
	fwd := &fakeForwarder{}
	o := newOrchestrator(core, fwd)

	result := o.Run(context.Background(), validEnvelope())
	require.Equal(t, domain.Deny, result.Decision)
	require.Equal(t, "policy_violation", result.Reason)
	require.Equal(t, 0, fwd.calls)
	require.Nil(t, result.Receipt)
}

func TestRun_CoreEscalateNeverForwards(t *testing.T) {
	core := &fakeCore{decision: domain.CoreDecision{Decision: domain.Escalate, Reason: "needs_human_review"}}
	fwd := &fakeForwarder{}
	o := newOrchestrator(core, fwd)

	result := o.Run(context.Background(), validEnvelope())
	require.Equal(t, domain.Escalate, result.Decision)
	require.Equal(t, 0, fwd.calls)
}

func TestRun_PermitMintsAndForwards(t *testing.T) {
	core := &fakeCore{decision: domain.CoreDecision{Decision: domain.Permit, ExecuteHash: "core-exec-hash", IntentHash: "core-intent-hash"}}
	fwd := &fakeForwarder{result: forwarder.Result{Status: 200, Body: map[string]any{"status": "accepted"}}}
	o := newOrchestrator(core, fwd)

	result := o.Run(context.Background(), validEnvelope())
	require.Equal(t, domain.Permit, result.Decision)
	require.Equal(t, ReasonForwardedAfterCore, result.Reason)
	require.NotNil(t, result.Receipt)
	require.Equal(t, "core-exec-hash", result.ExecuteHash)
	require.Equal(t, "core-intent-hash", result.IntentHash)
	require.Equal(t, 1, fwd.calls)
	require.Equal(t, 200, result.ForwardStatus)
}

func TestRun_PermitFallsBackToLocalHashWhenCoreOmitsIt(t *testing.T) {
	core := &fakeCore{decision: domain.CoreDecision{Decision: domain.Permit}}
	fwd := &fakeForwarder{result: forwarder.Result{Status: 200}}
	o := newOrchestrator(core, fwd)

	result := o.Run(context.Background(), validEnvelope())
	require.Equal(t, domain.Permit, result.Decision)
	require.NotEmpty(t, result.ExecuteHash)
	require.NotEmpty(t, result.IntentHash)
}

func TestRun_ForwardingFailureAfterPermitIsDenied(t *testing.T) {
	core := &fakeCore{decision: domain.CoreDecision{Decision: domain.Permit}}
	fwd := &fakeForwarder{err: assertErr{}}
	o := newOrchestrator(core, fwd)

	result := o.Run(context.Background(), validEnvelope())
	require.Equal(t, domain.Deny, result.Decision)
	require.Equal(t, ReasonForwardingFailed, result.Reason)
}

func TestRun_MissingActorDenied(t *testing.T) {
	core := &fakeCore{decision: domain.CoreDecision{Decision: domain.Permit}}
	fwd := &fakeForwarder{}
	o := newOrchestrator(core, fwd)

	envelope := validEnvelope()
	envelope.Intent = map[string]any{"intent": "issue_refund"}

	result := o.Run(context.Background(), envelope)
	require.Equal(t, domain.Deny, result.Decision)
	require.Equal(t, 0, fwd.calls)
}

type assertErr struct{}

func (assertErr) Error() string { return "forward failed" }
