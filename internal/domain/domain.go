package domain

import (
	"strconv"
	"time"
)

// PolicyRecord is a single insurance policy loaded from the dataset.
// Records are immutable once loaded; CustomerName and PolicyType are
// sensitive and must never reach assistant output.
type PolicyRecord struct {
	PolicyID       string
	CustomerName   string
	PolicyType     string
	CoverageAmount float64
	Premium        float64
	RenewalDate    time.Time
}

// Text serializes the record for embedding and indexing.
// Sensitive fields are included so semantic queries about them still land
// on the right record; disclosure is decided later, in code.
func (r PolicyRecord) Text() string {
	return "policy_id: " + r.PolicyID +
		"\npolicy_type: " + r.PolicyType +
		"\ncoverage_amount: " + formatAmount(r.CoverageAmount) +
		"\npremium: " + formatAmount(r.Premium) +
		"\nrenewal_date: " + r.RenewalDate.Format("2006-01-02")
}

// SafeView is the disclosure-safe projection of a PolicyRecord.
// It carries everything the answer composer is allowed to surface.
type SafeView struct {
	PolicyID       string
	CoverageAmount float64
	Premium        float64
	RenewalDate    time.Time
}

// SearchResult is one semantic-search hit with its similarity score.
type SearchResult struct {
	Record PolicyRecord
	Score  float64
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the conversation history.
type Turn struct {
	Role Role
	Text string
}

// Reason classifies a guardrail decision.
type Reason string

const (
	ReasonOK              Reason = "ok"
	ReasonMissingPolicyID Reason = "missing_policy_id"
	ReasonSensitiveField  Reason = "sensitive_field_requested"
	ReasonOutOfScopeTopic Reason = "out_of_scope_topic"
)

// Decision is the outcome of a guardrail checkpoint for one turn.
// It is ephemeral and never persisted.
type Decision struct {
	Allowed        bool
	Reason         Reason
	RedactedFields []string
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
