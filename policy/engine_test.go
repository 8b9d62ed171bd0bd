package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		rel  string
		want string
	}{
		{rel: "main.py", want: DecisionAllow},
		{rel: "src/app/handler.go", want: DecisionAllow},
		{rel: ".gitignore", want: DecisionAllow},
		{rel: ".git/config", want: DecisionBlock},
		{rel: "vendor/.git/HEAD", want: DecisionBlock},
		{rel: ".env", want: DecisionBlock},
		{rel: "deploy/.env", want: DecisionBlock},
		{rel: "deploy/.env.example", want: DecisionAllow},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, err := engine.Evaluate(ctx, Input{Action: "modify", Path: "/proj/" + tt.rel, RelativePath: tt.rel, Root: "/proj"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEngineFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "policy.rego")
	custom := `
package write_policy

default decision = "block"

decision = "allow" {
	input.action == "create"
}
`
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	engine, err := NewEngineFromFile(ctx, path)
	require.NoError(t, err)

	got, err := engine.Evaluate(ctx, Input{Action: "create", RelativePath: "a.py"})
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, got)

	got, err = engine.Evaluate(ctx, Input{Action: "modify", RelativePath: "a.py"})
	require.NoError(t, err)
	assert.Equal(t, DecisionBlock, got)
}

func TestNewEngineInvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package write_policy\n\ndecision = {")
	assert.Error(t, err)
}

func TestNewEngineFromFileMissing(t *testing.T) {
	_, err := NewEngineFromFile(context.Background(), filepath.Join(t.TempDir(), "missing.rego"))
	assert.Error(t, err)
}
