// Package dto holds the project app's request shapes.
package dto

// SettingsCfg partial settings update, nil fields are left untouched.
type SettingsCfg struct {
	Model       *string  `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

// ProjectCfg partial project update, nil fields are left untouched.
type ProjectCfg struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Settings    *SettingsCfg `json:"settings"`
}
