package process

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()

	assert.Equal(t, "default", p.Key)
	assert.Equal(t, "Product Delivery Lifecycle", p.Name)
	require.Len(t, p.Stages, 3)

	keys := []string{p.Stages[0].Key, p.Stages[1].Key, p.Stages[2].Key}
	assert.Equal(t, []string{"initiation", "review", "delivery"}, keys)

	initiation, ok := p.Stage("initiation")
	require.True(t, ok)
	require.Len(t, initiation.Items, 4)
	assert.Equal(t, "poc", initiation.Items[3].Key)
	assert.True(t, initiation.Items[3].Optional)
	assert.False(t, initiation.Items[0].Optional)

	review, ok := p.Stage("review")
	require.True(t, ok)
	assert.Equal(t, "Review & Approval", review.Title)

	_, ok = p.Stage("nope")
	assert.False(t, ok)
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	a := Default()
	a.Stages[0].Items[0].Title = "changed"

	b := Default()
	assert.Equal(t, "Requirement Document", b.Stages[0].Items[0].Title)
}

func TestValidate(t *testing.T) {
	item := Item{Key: "i", Title: "Item"}
	tests := []struct {
		name    string
		process Process
		wantErr string
	}{
		{
			name:    "valid",
			process: Process{Key: "p", Name: "P", Stages: []Stage{{Key: "s", Title: "S", Items: []Item{item}}}},
		},
		{
			name:    "missing key",
			process: Process{Name: "P", Stages: []Stage{{Key: "s", Title: "S"}}},
			wantErr: "process key is required",
		},
		{
			name:    "missing name",
			process: Process{Key: "p", Stages: []Stage{{Key: "s", Title: "S"}}},
			wantErr: "has no name",
		},
		{
			name:    "no stages",
			process: Process{Key: "p", Name: "P"},
			wantErr: "has no stages",
		},
		{
			name:    "duplicate stage",
			process: Process{Key: "p", Name: "P", Stages: []Stage{{Key: "s", Title: "S"}, {Key: "s", Title: "S2"}}},
			wantErr: `duplicate stage "s"`,
		},
		{
			name:    "duplicate item",
			process: Process{Key: "p", Name: "P", Stages: []Stage{{Key: "s", Title: "S", Items: []Item{item, item}}}},
			wantErr: `duplicate item "i"`,
		},
		{
			name:    "item without title",
			process: Process{Key: "p", Name: "P", Stages: []Stage{{Key: "s", Title: "S", Items: []Item{{Key: "i"}}}}},
			wantErr: "needs a key and a title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.process.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		_, err := Decode(strings.NewReader("key: p\nname: P\ncolour: red\n"))
		assert.Error(t, err)
	})

	t.Run("invalid definition", func(t *testing.T) {
		_, err := Decode(strings.NewReader("key: p\nname: P\n"))
		assert.ErrorIs(t, err, ErrInvalidDefinition)
	})
}

func TestLoadDefinition(t *testing.T) {
	t.Run("built-in", func(t *testing.T) {
		p, err := LoadDefinition("", "")
		require.NoError(t, err)
		assert.Equal(t, Default(), p)
	})

	t.Run("key override", func(t *testing.T) {
		p, err := LoadDefinition("", "acme")
		require.NoError(t, err)
		assert.Equal(t, "acme", p.Key)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "process.yaml")
		content := `key: audit
name: Audit
stages:
  - key: prepare
    title: Prepare
    items:
      - key: checklist
        title: Checklist
        optional: true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		p, err := LoadDefinition(path, "")
		require.NoError(t, err)
		assert.Equal(t, "audit", p.Key)
		require.Len(t, p.Stages, 1)
		assert.Equal(t, Item{Key: "checklist", Title: "Checklist", Optional: true}, p.Stages[0].Items[0])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDefinition(filepath.Join(t.TempDir(), "missing.yaml"), "")
		assert.Error(t, err)
	})
}
