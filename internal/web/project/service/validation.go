package service

import (
	"strings"
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Laisky/promptbox/internal/web/project/dto"
	"github.com/Laisky/promptbox/internal/web/project/model"
	"github.com/Laisky/promptbox/library/validate"
)

const (
	maxNameLen        = 256
	maxDescriptionLen = 4096
	maxPromptLen      = 65536

	minTemperature = 0.0
	maxTemperature = 2.0
	minMaxTokens   = 1
	maxMaxTokens   = 32768
)

// sanitizeName validates a project name.
func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validate.Errorf("project name is required")
	}
	if len([]rune(name)) > maxNameLen {
		return "", validate.Errorf("project name exceeds %d characters", maxNameLen)
	}

	return name, nil
}

// validatePrompt checks one prompt entry before it is appended.
func validatePrompt(role, content string) error {
	if !model.ValidRole(role) {
		return validate.Errorf("role must be one of %s/%s/%s",
			model.RoleSystem, model.RoleUser, model.RoleAssistant)
	}
	if strings.TrimSpace(content) == "" {
		return validate.Errorf("prompt content is required")
	}
	if len([]rune(content)) > maxPromptLen {
		return validate.Errorf("prompt content exceeds %d characters", maxPromptLen)
	}

	return nil
}

// validateSettings checks partial settings against the allowed ranges.
func validateSettings(cfg *dto.SettingsCfg) error {
	if cfg.Model != nil && strings.TrimSpace(*cfg.Model) == "" {
		return validate.Errorf("model must not be empty")
	}
	if cfg.Temperature != nil &&
		(*cfg.Temperature < minTemperature || *cfg.Temperature > maxTemperature) {
		return validate.Errorf("temperature must be within [%v, %v]",
			minTemperature, maxTemperature)
	}
	if cfg.MaxTokens != nil &&
		(*cfg.MaxTokens < minMaxTokens || *cfg.MaxTokens > maxMaxTokens) {
		return validate.Errorf("max_tokens must be within [%d, %d]",
			minMaxTokens, maxMaxTokens)
	}

	return nil
}

// buildUpdateSet converts a partial update into a mongo $set document.
func buildUpdateSet(cfg dto.ProjectCfg) (bson.M, error) {
	set := bson.M{}

	if cfg.Name != nil {
		name, err := sanitizeName(*cfg.Name)
		if err != nil {
			return nil, err
		}
		set["name"] = name
	}
	if cfg.Description != nil {
		desc := strings.TrimSpace(*cfg.Description)
		if len([]rune(desc)) > maxDescriptionLen {
			return nil, validate.Errorf("description exceeds %d characters", maxDescriptionLen)
		}
		set["description"] = desc
	}
	if cfg.Settings != nil {
		if err := validateSettings(cfg.Settings); err != nil {
			return nil, err
		}
		if cfg.Settings.Model != nil {
			set["settings.model"] = strings.TrimSpace(*cfg.Settings.Model)
		}
		if cfg.Settings.Temperature != nil {
			set["settings.temperature"] = *cfg.Settings.Temperature
		}
		if cfg.Settings.MaxTokens != nil {
			set["settings.max_tokens"] = *cfg.Settings.MaxTokens
		}
	}

	if len(set) == 0 {
		return nil, validate.Errorf("nothing to update")
	}

	set["modified_at"] = nowUTC()
	return set, nil
}

func nowUTC() time.Time {
	return gutils.Clock.GetUTCNow()
}
