// Package guardrail enforces the assistant's scope and disclosure rules.
// Every decision here is a pure function of the query text and a fixed
// taxonomy; no model output ever participates in a disclosure decision.
package guardrail

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"policychat/internal/domain"
)

// SensitiveFields are never surfaced in any answer, even when a valid
// policy ID is given and the user asks for them explicitly.
var SensitiveFields = []string{"customer_name", "policy_type"}

var policyIDRe = regexp.MustCompile(`(?i)\bPOL\d+\b`)

// outOfScopeTopics maps disallowed request categories to their trigger phrases.
var outOfScopeTopics = map[string][]string{
	"claims":       {"claim", "claims", "file a claim", "claim status"},
	"cancellation": {"cancel", "cancellation", "terminate my policy", "stop my policy"},
	"purchase":     {"buy", "purchase", "new policy", "sign up", "get a policy", "quote"},
	"legal":        {"legal advice", "lawsuit", "sue", "lawyer", "attorney", "legal action"},
}

// sensitivePhrases are the ways users ask for withheld fields.
var sensitivePhrases = []string{
	"customer name", "customer_name", "name on the policy", "policyholder name",
	"whose policy", "who owns", "policy type", "policy_type", "type of policy",
	"kind of policy", "address", "phone number",
}

type rule struct {
	matches func(query string) bool
	outcome func(query string) domain.Decision
}

// Engine evaluates guardrail rules in a fixed priority order.
type Engine struct {
	rules []rule
}

// NewEngine builds the rule table. Order is the precedence: out-of-scope
// topics are checked before sensitive-field requests, so a query that
// trips both is rejected as out of scope.
func NewEngine() *Engine {
	return &Engine{
		rules: []rule{
			{matches: matchesOutOfScope, outcome: func(string) domain.Decision {
				return domain.Decision{Allowed: false, Reason: domain.ReasonOutOfScopeTopic, RedactedFields: SensitiveFields}
			}},
			{matches: matchesSensitiveRequest, outcome: func(q string) domain.Decision {
				if HasPolicyID(q) {
					return domain.Decision{Allowed: false, Reason: domain.ReasonSensitiveField, RedactedFields: SensitiveFields}
				}
				return domain.Decision{Allowed: false, Reason: domain.ReasonMissingPolicyID, RedactedFields: SensitiveFields}
			}},
		},
	}
}

// PreCheck classifies the query before any retrieval happens.
// History is accepted for future context-sensitive rules but the current
// taxonomy decides on the query text alone.
func (e *Engine) PreCheck(query string, history []domain.Turn) domain.Decision {
	for _, r := range e.rules {
		if r.matches(query) {
			return r.outcome(query)
		}
	}
	return domain.Decision{Allowed: true, Reason: domain.ReasonOK, RedactedFields: SensitiveFields}
}

// PostFilter projects retrieved records into disclosure-safe views.
// customer_name and policy_type are dropped unconditionally.
func (e *Engine) PostFilter(records []domain.PolicyRecord) []domain.SafeView {
	views := make([]domain.SafeView, len(records))
	for i, rec := range records {
		views[i] = domain.SafeView{
			PolicyID:       rec.PolicyID,
			CoverageAmount: rec.CoverageAmount,
			Premium:        rec.Premium,
			RenewalDate:    rec.RenewalDate,
		}
	}
	return views
}

// Scrub removes literal sensitive values from generated text. The model
// never sees those values, but the answer is checked again before it
// reaches the user.
func (e *Engine) Scrub(answer string, records []domain.PolicyRecord) string {
	for _, rec := range records {
		for _, v := range []string{rec.CustomerName, rec.PolicyType} {
			if v == "" {
				continue
			}
			answer = replaceFold(answer, v, "[withheld]")
		}
	}
	return answer
}

// HasPolicyID reports whether the query contains a POL-shaped ID token.
func HasPolicyID(query string) bool {
	return policyIDRe.MatchString(query)
}

func matchesOutOfScope(query string) bool {
	q := strings.ToLower(query)
	for _, phrases := range outOfScopeTopics {
		for _, p := range phrases {
			if containsPhrase(q, p) {
				return true
			}
		}
	}
	return false
}

func matchesSensitiveRequest(query string) bool {
	q := strings.ToLower(query)
	for _, p := range sensitivePhrases {
		if containsPhrase(q, p) {
			return true
		}
	}
	return false
}

// containsPhrase matches on word boundaries so "claim" does not fire on
// "acclaimed".
func containsPhrase(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		if (start == 0 || !isWordChar(text[start-1])) && (end == len(text) || !isWordChar(text[end])) {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// replaceFold replaces case-insensitive occurrences of old in text.
// Matching folds rune by rune, so characters whose lowercase form has a
// different byte length (İ, for one) cannot desync the replacement.
func replaceFold(text, old, repl string) string {
	if old == "" {
		return text
	}
	var b strings.Builder
	for i := 0; i < len(text); {
		if n, ok := foldPrefixLen(text[i:], old); ok {
			b.WriteString(repl)
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		i += size
	}
	return b.String()
}

// foldPrefixLen reports whether s starts with a case-insensitive match of
// target, and how many bytes of s the match spans.
func foldPrefixLen(s, target string) (int, bool) {
	n := 0
	for _, tr := range target {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0, false
		}
		if unicode.ToLower(r) != unicode.ToLower(tr) {
			return 0, false
		}
		n += size
	}
	return n, true
}
