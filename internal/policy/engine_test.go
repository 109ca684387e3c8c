package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/worldrag/internal/domain"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		name       string
		input      domain.PolicyInput
		wantResult domain.PolicyDecision
		wantReason string
	}{
		{
			name:       "short query allowed",
			input:      domain.PolicyInput{Query: "poverty in Brazil", Length: 17, SessionID: "s1", MaxQueryChars: 2000},
			wantResult: domain.PolicyDecisionAllow,
		},
		{
			name:       "query at the limit allowed",
			input:      domain.PolicyInput{Query: "abcd", Length: 4, SessionID: "s1", MaxQueryChars: 4},
			wantResult: domain.PolicyDecisionAllow,
		},
		{
			name:       "oversized query blocked",
			input:      domain.PolicyInput{Query: "abcde", Length: 5, SessionID: "s1", MaxQueryChars: 4},
			wantResult: domain.PolicyDecisionBlock,
			wantReason: "query exceeds the maximum length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, reason, err := engine.Evaluate(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, decision)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestCustomPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, `
package query_policy

default decision = "allow"

decision = "block" {
	contains(lower(input.query), "password")
}

reason = "sensitive" {
	decision == "block"
}
`)
	require.NoError(t, err)

	decision, reason, err := engine.Evaluate(ctx, domain.PolicyInput{Query: "what is the admin PASSWORD", Length: 26, MaxQueryChars: 2000})
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyDecisionBlock, decision)
	assert.Equal(t, "sensitive", reason)

	decision, _, err = engine.Evaluate(ctx, domain.PolicyInput{Query: "unemployment", Length: 12, MaxQueryChars: 2000})
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyDecisionAllow, decision)
}

func TestUnknownDecision(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, `
package query_policy

decision = "require_approval"
`)
	require.NoError(t, err)

	_, _, err = engine.Evaluate(ctx, domain.PolicyInput{Query: "q", Length: 1})
	assert.Error(t, err)
}

func TestInvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package query_policy\n\ndecision = {")
	assert.Error(t, err)
}
