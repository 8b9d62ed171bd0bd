// Package policy decides whether a file edit proposed by the model may be
// written to disk.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the write policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is what a policy sees for one directive.
type Input struct {
	Action       string `json:"action"`
	Path         string `json:"path"`
	RelativePath string `json:"relative_path"`
	Root         string `json:"root"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
// The module must define data.write_policy.decision.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.write_policy.decision"),
		rego.Module("write_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy module from path, or uses
// DefaultPolicy when path is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate returns the decision for one directive.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	// The default rule always yields a value; an empty result means the
	// custom policy has no default.
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, nil
	}

	s, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}
	return s, nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package write_policy

default decision = "allow"

# Never touch version control internals.
decision = "block" {
	some i
	split(input.relative_path, "/")[i] == ".git"
}

# Secrets stay out of reach of the model.
decision = "block" {
	parts := split(input.relative_path, "/")
	parts[count(parts) - 1] == ".env"
}
`
