// Package policy decides whether a chat query is admitted.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/xiaot623/worldrag/internal/domain"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.query_policy"),
		rego.Module("query_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the query policy.
// Returns: decision (allow, block), reason (optional), error
func (e *Engine) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyDecision, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.PolicyDecisionAllow, "default", nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return domain.PolicyDecisionAllow, "unexpected return type", nil
	}

	reason, _ := doc["reason"].(string)
	switch decision, _ := doc["decision"].(string); domain.PolicyDecision(decision) {
	case domain.PolicyDecisionBlock:
		return domain.PolicyDecisionBlock, reason, nil
	case domain.PolicyDecisionAllow, "":
		return domain.PolicyDecisionAllow, reason, nil
	default:
		return "", "", fmt.Errorf("policy returned unknown decision %q", decision)
	}
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package query_policy

default decision = "allow"
default reason = ""

# Oversized queries are rejected before they reach the model.
decision = "block" {
	input.length > input.max_query_chars
}

reason = "query exceeds the maximum length" {
	input.length > input.max_query_chars
}
`
