// Package assistant runs the per-turn pipeline: guardrail pre-check,
// retrieval, post-filtering, prompt assembly, generation, and history
// bookkeeping. Every rejection path is deterministic and produced
// without calling the generation service.
package assistant

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"policychat/internal/domain"
	"policychat/internal/guardrail"
	"policychat/internal/llm"
	"policychat/internal/retriever"
	"policychat/internal/session"
)

// Fixed user-facing messages. The generation service only ever phrases
// allowed, already-redacted content; these texts never pass through it.
const (
	MsgOutOfScope = "I'm only able to assist with existing policy details like coverage, premium, and renewal dates. For anything else, please contact your insurance advisor or visit the official website."
	MsgSensitive  = "I'm sorry, I cannot share personal or sensitive information like customer names or policy types for privacy and security reasons."
	MsgNeedID     = "Could you please provide a valid policy ID so I can help with accurate details?"
	MsgNotFound   = "I couldn't find any policy with that ID. Please check the number and try again."
	MsgFallback   = "I'm sorry, I'm having trouble answering right now. Please try again in a moment."

	Disclaimer = "Please consult an insurance advisor for detailed guidance."
)

// Resolver is the retrieval dependency of the assistant.
type Resolver interface {
	Resolve(ctx context.Context, query string) (retriever.Result, error)
}

// Assistant composes answers for one conversation session.
type Assistant struct {
	guard         *guardrail.Engine
	resolver      Resolver
	generator     llm.Generator
	session       *session.Session
	historyWindow int
	logger        *zap.Logger
}

func New(guard *guardrail.Engine, resolver Resolver, generator llm.Generator, sess *session.Session, historyWindow int, logger *zap.Logger) *Assistant {
	if historyWindow <= 0 {
		historyWindow = 6
	}
	return &Assistant{
		guard:         guard,
		resolver:      resolver,
		generator:     generator,
		session:       sess,
		historyWindow: historyWindow,
		logger:        logger,
	}
}

// Session exposes the conversation history for rendering.
func (a *Assistant) Session() *session.Session { return a.session }

// Ask runs one full turn and returns the user-visible answer.
// The returned text is always well-formed; failures surface as the
// fixed fallback message, and every turn is appended to the history.
func (a *Assistant) Ask(ctx context.Context, query string) string {
	answer := a.answer(ctx, query)
	a.session.Append(domain.RoleUser, query)
	a.session.Append(domain.RoleAssistant, answer)
	return answer
}

func (a *Assistant) answer(ctx context.Context, query string) string {
	decision := a.guard.PreCheck(query, a.session.History())
	if !decision.Allowed {
		a.logger.Info("query rejected by guardrail",
			zap.String("session", a.session.ID()),
			zap.String("reason", string(decision.Reason)))
		return rejectionMessage(decision.Reason)
	}

	result, err := a.resolver.Resolve(ctx, query)
	switch {
	case errors.Is(err, retriever.ErrNotFound):
		return withDisclaimer(MsgNotFound)
	case errors.Is(err, retriever.ErrAmbiguousQuery):
		return MsgNeedID
	case err != nil:
		a.logger.Error("retrieval failed", zap.String("session", a.session.ID()), zap.Error(err))
		return MsgFallback + " " + Disclaimer
	}

	views := a.guard.PostFilter(result.Records)
	prompt := a.buildPrompt(query, views)

	var text string
	err = retry.Do(
		func() error {
			var genErr error
			text, genErr = a.generator.Complete(ctx, prompt)
			return genErr
		},
		retry.Attempts(2),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		a.logger.Error("generation failed", zap.String("session", a.session.ID()), zap.Error(err))
		return MsgFallback + " " + Disclaimer
	}

	text = a.guard.Scrub(text, result.Records)
	if mentionsFinancialFigures(text, views) {
		text = withDisclaimer(text)
	}
	return text
}

func rejectionMessage(reason domain.Reason) string {
	switch reason {
	case domain.ReasonOutOfScopeTopic:
		return withDisclaimer(MsgOutOfScope)
	case domain.ReasonSensitiveField:
		return withDisclaimer(MsgSensitive)
	case domain.ReasonMissingPolicyID:
		return MsgNeedID
	default:
		return MsgNeedID
	}
}

func (a *Assistant) buildPrompt(query string, views []domain.SafeView) string {
	var b strings.Builder
	b.WriteString(systemInstructions)
	b.WriteString("\n\nPolicy data:\n")
	if len(views) == 0 {
		b.WriteString("(no matching policy found)\n")
	}
	for _, v := range views {
		b.WriteString("- policy_id: ")
		b.WriteString(v.PolicyID)
		b.WriteString(", coverage_amount: ")
		b.WriteString(formatAmount(v.CoverageAmount))
		b.WriteString(", premium: ")
		b.WriteString(formatAmount(v.Premium))
		b.WriteString(", renewal_date: ")
		b.WriteString(v.RenewalDate.Format("2006-01-02"))
		b.WriteString("\n")
	}
	history := a.session.Window(a.historyWindow)
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, t := range history {
			b.WriteString(string(t.Role))
			b.WriteString(": ")
			b.WriteString(t.Text)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nuser: ")
	b.WriteString(query)
	b.WriteString("\nassistant:")
	return b.String()
}

const systemInstructions = `You are an insurance policy query assistant. Answer in a polite, professional tone and keep replies concise.
Only discuss the coverage amount, premium, and renewal date found in the policy data below.
Never mention customer names or policy types. If the data does not answer the question, say so and ask for a policy ID.
Do not discuss claims, cancellations, purchases, or legal matters.`

// mentionsFinancialFigures reports whether the answer surfaces a coverage
// or premium value from the retrieved data. Models usually render large
// amounts with digit grouping ("$150,000"), so the commas are stripped
// before comparing.
func mentionsFinancialFigures(answer string, views []domain.SafeView) bool {
	plain := strings.ReplaceAll(answer, ",", "")
	for _, v := range views {
		if strings.Contains(plain, formatAmount(v.Premium)) || strings.Contains(plain, formatAmount(v.CoverageAmount)) {
			return true
		}
	}
	return false
}

func withDisclaimer(text string) string {
	return text + " " + Disclaimer
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
