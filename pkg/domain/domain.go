package domain

import "encoding/json"

type Decision string

const (
	Permit   Decision = "PERMIT"
	Deny     Decision = "DENY"
	Escalate Decision = "ESCALATE"
)

type Envelope struct {
	Intent     map[string]any `json:"intent"`
	Execute    map[string]any `json:"execute"`
	Acceptance map[string]any `json:"acceptance"`
}

type CoreDecision struct {
	Decision       Decision `json:"decision"`
	Reason         string   `json:"reason,omitempty"`
	ExecuteHash    string   `json:"executeHash,omitempty"`
	IntentHash     string   `json:"intentHash,omitempty"`
	IssuedAt       string   `json:"issuedAt,omitempty"`
	ExpiresAt      string   `json:"expiresAt,omitempty"`
	Time           string   `json:"time,omitempty"`
	AuthorityKeyID *string  `json:"authorityKeyId,omitempty"`
}

type Receipt struct {
	V              int      `json:"v"`
	ReceiptID      string   `json:"receiptId"`
	AdapterID      string   `json:"adapterId"`
	Service        string   `json:"service"`
	ActorID        string   `json:"actorId"`
	Intent         string   `json:"intent"`
	IntentHash     string   `json:"intentHash"`
	ExecuteHash    string   `json:"executeHash"`
	CoreDecision   Decision `json:"coreDecision"`
	AuthorityKeyID *string  `json:"authorityKeyId,omitempty"`
	CoreIssuedAt   string   `json:"coreIssuedAt,omitempty"`
	CoreExpiresAt  string   `json:"coreExpiresAt,omitempty"`
	CoreTime       string   `json:"coreTime,omitempty"`
	IssuedAt       string   `json:"issuedAt"`
	ExpiresAt      string   `json:"expiresAt"`
	Signature      string   `json:"signature,omitempty"`
}

func (r Receipt) CanonicalMap() (map[string]any, error) {
	unsigned := r
	unsigned.Signature = ""
	raw, err := json.Marshal(unsigned)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	delete(m, "signature")
	return m, nil
}

type ForwardTarget struct {
	Service     string `json:"service" yaml:"service"`
	URL         string `json:"url" yaml:"url"`
	BearerToken string `json:"bearerToken,omitempty" yaml:"bearerToken,omitempty"`
}

type GateResult struct {
	Decision       Decision `json:"decision"`
	Reason         string   `json:"reason,omitempty"`
	Receipt        *Receipt `json:"receipt,omitempty"`
	ForwardStatus  int      `json:"forwardStatus,omitempty"`
	ForwardBody    any      `json:"forwardBody,omitempty"`
	ExecuteHash    string   `json:"executeHash,omitempty"`
	IntentHash     string   `json:"intentHash,omitempty"`
	AuthorityKeyID *string  `json:"authorityKeyId,omitempty"`
}

type ForwardBody struct {
	Intent  map[string]any `json:"intent"`
	Execute map[string]any `json:"execute"`
}

type VerifyResult struct {
	OK          bool   `json:"ok"`
	Reason      string `json:"reason,omitempty"`
	ExecuteHash string `json:"executeHash,omitempty"`
}
