package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		rules    []Rule
		input    string
		expected string
	}{
		{
			name:     "rules apply in order, later rules see earlier output",
			rules:    []Rule{{"_", "-"}, {"-", "+"}},
			input:    "a_b",
			expected: "a+b",
		},
		{
			name:     "reversed order gives a different result",
			rules:    []Rule{{"-", "+"}, {"_", "-"}},
			input:    "a_b",
			expected: "a-b",
		},
		{
			name:     "every occurrence is replaced",
			rules:    []Rule{{".", "_"}},
			input:    "a.b.c",
			expected: "a_b_c",
		},
		{
			name:     "multi-character sources",
			rules:    []Rule{{"::", "."}},
			input:    "ns::item::id",
			expected: "ns.item.id",
		},
		{
			name:     "replacement may be empty",
			rules:    []Rule{{"-", ""}},
			input:    "first-name",
			expected: "firstname",
		},
		{
			name:     "no rules is identity",
			rules:    nil,
			input:    "user.id",
			expected: "user.id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(tt.rules...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, table.Normalize(tt.input))
		})
	}
}

func TestNilTable(t *testing.T) {
	var table *Table
	assert.True(t, table.Empty())
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, "a.b", table.Normalize("a.b"))
	assert.Nil(t, table.Rules())
	assert.Equal(t, "", table.String())
}

func TestNewTable_RejectsEmptySource(t *testing.T) {
	_, err := NewTable(Rule{Source: "", Replacement: "x"})
	assert.Error(t, err)
}

func TestParseTable(t *testing.T) {
	t.Run("keeps written order", func(t *testing.T) {
		table, err := ParseTable("_=-,-=+")
		require.NoError(t, err)

		assert.Equal(t, []Rule{{"_", "-"}, {"-", "+"}}, table.Rules())
		assert.Equal(t, "a+b", table.Normalize("a_b"))
		assert.Equal(t, "_=-,-=+", table.String())
	})

	t.Run("blank property is an empty table", func(t *testing.T) {
		table, err := ParseTable("  ")
		require.NoError(t, err)
		assert.True(t, table.Empty())
	})

	t.Run("spaces after commas are not part of a rule", func(t *testing.T) {
		table, err := ParseTable(".=_, -=_ ")
		require.NoError(t, err)

		assert.Equal(t, []Rule{{".", "_"}, {"-", "_"}}, table.Rules())
		assert.Equal(t, "first_name_x", table.Normalize("first-name.x"))
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := ParseTable(".=_,oops")
		assert.Error(t, err)
	})

	t.Run("empty source", func(t *testing.T) {
		_, err := ParseTable("=x")
		assert.Error(t, err)
	})
}

func TestRulesReturnsCopy(t *testing.T) {
	table, err := NewTable(Rule{".", "_"})
	require.NoError(t, err)

	rules := table.Rules()
	rules[0].Replacement = "!"

	assert.Equal(t, "a_b", table.Normalize("a.b"))
}
