package roster

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	aliases, err := NewAliases(map[string]string{
		"经管":  "经济与管理学院",
		" 文传 ": " 文学与传媒学院 ",
	})
	require.NoError(t, err)

	tests := []struct {
		raw  string
		want string
	}{
		{"经管", "经济与管理学院"},
		{"  经管\t", "经济与管理学院"},
		{"文传", "文学与传媒学院"},
		{" 法学院 ", "法学院"},
		{"历史学院", "历史学院"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, aliases))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	aliases, err := NewAliases(map[string]string{
		"经管":   "经管学院",
		"经管学院": "经济与管理学院",
	})
	require.NoError(t, err)

	for _, raw := range []string{"经管", " 经管学院", "经济与管理学院", "其他 "} {
		once := Normalize(raw, aliases)
		assert.Equal(t, once, Normalize(once, aliases), "raw=%q", raw)
	}
}

func TestNormalize_ZeroAliases(t *testing.T) {
	var aliases Aliases
	assert.Equal(t, "法学院", Normalize(" 法学院", aliases))
	assert.Zero(t, aliases.Len())
}

func TestNewAliases_FlattensChains(t *testing.T) {
	aliases, err := NewAliases(map[string]string{
		"经管":   "经管学院",
		"经管学院": "经济与管理学院",
		"法学院":  "法学院",
	})
	require.NoError(t, err)

	want := map[string]string{
		"经管":   "经济与管理学院",
		"经管学院": "经济与管理学院",
	}
	if diff := cmp.Diff(want, aliases.Map()); diff != "" {
		t.Errorf("aliases mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"经济与管理学院"}, aliases.Targets())
}

func TestNewAliases_RejectsCycle(t *testing.T) {
	_, err := NewAliases(map[string]string{
		"甲": "乙",
		"乙": "丙",
		"丙": "甲",
	})
	assert.ErrorIs(t, err, ErrAliasCycle)
}
