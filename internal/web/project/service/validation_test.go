package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/promptbox/internal/web/project/dto"
)

// TestSanitizeName verifies trimming and the length/empty rules.
func TestSanitizeName(t *testing.T) {
	name, err := sanitizeName("  My Project ")
	require.NoError(t, err)
	require.Equal(t, "My Project", name)

	_, err = sanitizeName("   ")
	require.Error(t, err)

	_, err = sanitizeName(strings.Repeat("x", maxNameLen+1))
	require.Error(t, err)
}

// TestValidatePromptRoles verifies only the three conversation roles pass.
func TestValidatePromptRoles(t *testing.T) {
	for _, role := range []string{"system", "user", "assistant"} {
		require.NoError(t, validatePrompt(role, "content"), role)
	}
	for _, role := range []string{"", "admin", "System", "tool"} {
		require.Error(t, validatePrompt(role, "content"), role)
	}

	require.Error(t, validatePrompt("user", "  "))
}

// TestValidateSettingsRanges verifies temperature and max_tokens boundaries.
func TestValidateSettingsRanges(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	n := func(v int) *int { return &v }

	require.NoError(t, validateSettings(&dto.SettingsCfg{Temperature: f(0)}))
	require.NoError(t, validateSettings(&dto.SettingsCfg{Temperature: f(2)}))
	require.Error(t, validateSettings(&dto.SettingsCfg{Temperature: f(-0.1)}))
	require.Error(t, validateSettings(&dto.SettingsCfg{Temperature: f(2.1)}))

	require.NoError(t, validateSettings(&dto.SettingsCfg{MaxTokens: n(1)}))
	require.NoError(t, validateSettings(&dto.SettingsCfg{MaxTokens: n(32768)}))
	require.Error(t, validateSettings(&dto.SettingsCfg{MaxTokens: n(0)}))
	require.Error(t, validateSettings(&dto.SettingsCfg{MaxTokens: n(40000)}))

	empty := ""
	require.Error(t, validateSettings(&dto.SettingsCfg{Model: &empty}))
}

// TestBuildUpdateSet verifies partial merges touch only the given fields.
func TestBuildUpdateSet(t *testing.T) {
	name := "renamed"
	temp := 1.5
	set, err := buildUpdateSet(dto.ProjectCfg{
		Name:     &name,
		Settings: &dto.SettingsCfg{Temperature: &temp},
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", set["name"])
	require.Equal(t, 1.5, set["settings.temperature"])
	require.Contains(t, set, "modified_at")
	require.NotContains(t, set, "description")
	require.NotContains(t, set, "settings.model")
	require.NotContains(t, set, "settings.max_tokens")
}

// TestBuildUpdateSetEmpty verifies an empty update is rejected.
func TestBuildUpdateSetEmpty(t *testing.T) {
	_, err := buildUpdateSet(dto.ProjectCfg{})
	require.Error(t, err)
}
