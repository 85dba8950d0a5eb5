package guardrail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"policychat/internal/domain"
)

func TestPreCheck_Taxonomy(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name    string
		query   string
		allowed bool
		reason  domain.Reason
	}{
		{"plain premium question", "What is the premium for POL001?", true, domain.ReasonOK},
		{"greeting", "hello there", true, domain.ReasonOK},
		{"claim request", "I need to file a claim", false, domain.ReasonOutOfScopeTopic},
		{"cancellation", "I want to cancel my policy", false, domain.ReasonOutOfScopeTopic},
		{"purchase", "Can I purchase a new policy?", false, domain.ReasonOutOfScopeTopic},
		{"legal advice", "Should I sue my insurer?", false, domain.ReasonOutOfScopeTopic},
		{"sensitive with id", "What is the policy type for POL001?", false, domain.ReasonSensitiveField},
		{"sensitive name with id", "What is the customer name on POL002?", false, domain.ReasonSensitiveField},
		{"sensitive without id", "Who owns this policy?", false, domain.ReasonMissingPolicyID},
		{"claim is not acclaimed", "Tell me about the acclaimed coverage of POL001", true, domain.ReasonOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.PreCheck(tt.query, nil)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestPreCheck_OutOfScopeWinsOverSensitive(t *testing.T) {
	engine := NewEngine()

	// A query tripping both the cancellation topic and the sensitive
	// field taxonomy is rejected as out of scope; topic rules come first.
	d := engine.PreCheck("Cancel POL001 and tell me the policy type", nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, domain.ReasonOutOfScopeTopic, d.Reason)
}

func TestPostFilter_AlwaysDropsSensitiveFields(t *testing.T) {
	engine := NewEngine()
	rec := domain.PolicyRecord{
		PolicyID:       "POL001",
		CustomerName:   "Jordan Miles",
		PolicyType:     "Auto",
		CoverageAmount: 150000,
		Premium:        400,
		RenewalDate:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}

	views := engine.PostFilter([]domain.PolicyRecord{rec})

	assert.Len(t, views, 1)
	assert.Equal(t, "POL001", views[0].PolicyID)
	assert.Equal(t, 150000.0, views[0].CoverageAmount)
	assert.Equal(t, 400.0, views[0].Premium)
}

func TestScrub_RemovesLiteralSensitiveValues(t *testing.T) {
	engine := NewEngine()
	rec := domain.PolicyRecord{PolicyID: "POL001", CustomerName: "Jordan Miles", PolicyType: "Auto"}

	out := engine.Scrub("The auto policy belongs to JORDAN MILES.", []domain.PolicyRecord{rec})

	assert.NotContains(t, out, "JORDAN MILES")
	assert.NotContains(t, out, "auto")
	assert.Contains(t, out, "[withheld]")
}

func TestScrub_NamesWithMultibyteCaseFolding(t *testing.T) {
	engine := NewEngine()
	rec := domain.PolicyRecord{PolicyID: "POL003", CustomerName: "İlkay Demir", PolicyType: "Home"}

	// İ lowercases to a different byte length; the surrounding text must
	// survive the replacement untouched.
	out := engine.Scrub("Policy holder İLKAY DEMİR renews in May.", []domain.PolicyRecord{rec})

	assert.Equal(t, "Policy holder [withheld] renews in May.", out)
}

func TestHasPolicyID(t *testing.T) {
	assert.True(t, HasPolicyID("premium for POL001 please"))
	assert.True(t, HasPolicyID("premium for pol42"))
	assert.False(t, HasPolicyID("premium for my policy"))
	assert.False(t, HasPolicyID("POLITE question"))
}
