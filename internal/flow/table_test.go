package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridial/veridial/internal/domain"
)

func TestCompile_DefaultFlow(t *testing.T) {
	table, err := Compile(DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, NodeGreeting, table.Entry())
	assert.Equal(t, 15, table.Len())

	for _, id := range []domain.NodeID{
		NodeGreeting, NodeCollectDOB, NodeCollectSSN, NodeIdentityConfirm,
		NodeIdentityRetry, NodeCollectAddress, NodeCollectUnit, NodeCollectEmail,
		NodeCollectIncome, NodeCollectTenure, NodeTenureDiscrepancy,
		NodeFinalConfirm, NodeCompleted, NodeIdentityFailed, NodeWrongPerson,
	} {
		_, ok := table.Node(id)
		assert.True(t, ok, "node %s should be defined", id)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing entry definition",
			mutate:  func(c *Config) { c.Entry = "nonexistent" },
			wantErr: "entry node",
		},
		{
			name: "duplicate node id",
			mutate: func(c *Config) {
				c.Nodes = append(c.Nodes, c.Nodes[1])
			},
			wantErr: "duplicate node id",
		},
		{
			name: "dangling transition target",
			mutate: func(c *Config) {
				c.Nodes[1].Next = "nowhere"
			},
			wantErr: "not defined",
		},
		{
			name: "terminal node with handler",
			mutate: func(c *Config) {
				for i := range c.Nodes {
					if c.Nodes[i].ID == string(NodeCompleted) {
						c.Nodes[i].Handler = HandlerFinalConfirm
					}
				}
			},
			wantErr: "terminal nodes cannot bind a handler",
		},
		{
			name: "terminal node without outcome",
			mutate: func(c *Config) {
				for i := range c.Nodes {
					if c.Nodes[i].ID == string(NodeWrongPerson) {
						c.Nodes[i].Outcome = ""
					}
				}
			},
			wantErr: "require an outcome",
		},
		{
			name: "unknown handler kind",
			mutate: func(c *Config) {
				c.Nodes[1].Handler = "dispatch_by_name"
			},
			wantErr: "validation failed",
		},
		{
			name: "identity confirm missing exhausted target",
			mutate: func(c *Config) {
				for i := range c.Nodes {
					if c.Nodes[i].ID == string(NodeIdentityConfirm) {
						c.Nodes[i].OnExhausted = ""
					}
				}
			},
			wantErr: "on_exhausted",
		},
		{
			name: "broken prompt template",
			mutate: func(c *Config) {
				c.Nodes[0].Prompt = "Hello {{.Name"
			},
			wantErr: "parse prompt template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			table, err := Compile(cfg)
			require.Error(t, err)
			assert.Nil(t, table)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompile_IdentityGate(t *testing.T) {
	// Routing the greeting straight to address collection bypasses the
	// identity gate and must be rejected at compile time.
	cfg := DefaultConfig()
	for i := range cfg.Nodes {
		if cfg.Nodes[i].ID == string(NodeGreeting) {
			cfg.Nodes[i].OnSuccess = string(NodeCollectAddress)
		}
	}

	_, err := Compile(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without identity verification")
}

func TestCompile_IdentityGate_CompletionBypass(t *testing.T) {
	// A failure edge that lands on the completion terminal is also a
	// gate bypass even though no gated handler sits on the path.
	cfg := DefaultConfig()
	for i := range cfg.Nodes {
		if cfg.Nodes[i].ID == string(NodeGreeting) {
			cfg.Nodes[i].OnFailure = string(NodeCompleted)
		}
	}

	_, err := Compile(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without identity verification")
}

func TestNode_RenderPrompt_Idempotent(t *testing.T) {
	table := Default()
	node, ok := table.Node(NodeIdentityConfirm)
	require.True(t, ok)

	context := map[string]string{
		"DOB": "March 15th, 1985",
		"SSN": "7-2-3-4",
	}

	first, err := node.RenderPrompt(context)
	require.NoError(t, err)
	second, err := node.RenderPrompt(context)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "March 15th, 1985")
	assert.Contains(t, first, "7-2-3-4")
}
