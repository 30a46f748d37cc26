// Package service implements the chat forwarder.
package service

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/promptbox/internal/library/llm"
	"github.com/Laisky/promptbox/internal/web/project/model"
	"github.com/Laisky/promptbox/library/validate"
)

// ErrUpstream indicates the external completion service failed,
// the upstream error text is attached by wrapping.
var ErrUpstream = errors.New("completion service failed")

// CompletionAPI is the single call the forwarder makes against the
// external service.
type CompletionAPI interface {
	CreateChatCompletion(ctx context.Context, apiKey string, req llm.ChatRequest) (*llm.ChatResult, error)
}

// ProjectLoader loads one owned project.
type ProjectLoader interface {
	Get(ctx context.Context, owner, id primitive.ObjectID) (*model.Project, error)
}

// Chat chat service
type Chat struct {
	logger   glog.Logger
	projects ProjectLoader
	api      CompletionAPI
	apiKey   string
}

// New create new chat service
func New(logger glog.Logger, projects ProjectLoader, api CompletionAPI, apiKey string) *Chat {
	return &Chat{
		logger:   logger,
		projects: projects,
		api:      api,
		apiKey:   apiKey,
	}
}

// Send forwards the project's stored prompts plus the new user message
// to the completion service and returns the reply verbatim.
//
// The new message is not persisted, conversation history is only ever
// what was explicitly appended via the prompts endpoint.
func (s *Chat) Send(ctx context.Context,
	owner, projectID primitive.ObjectID, message string) (*llm.ChatResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, validate.Errorf("message is required")
	}

	project, err := s.projects.Get(ctx, owner, projectID)
	if err != nil {
		return nil, err
	}

	settings := resolveSettings(project.Settings)

	result, err := s.api.CreateChatCompletion(ctx, s.apiKey, llm.ChatRequest{
		Model:       settings.Model,
		Messages:    buildMessages(project.Prompts, message),
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	})
	if err != nil {
		s.logger.Warn("completion call failed",
			zap.String("project", project.GetID()),
			zap.Error(err))
		return nil, errors.Wrap(ErrUpstream, err.Error())
	}

	s.logger.Info("chat completion",
		zap.String("project", project.GetID()),
		zap.Int("total_tokens", result.Usage.TotalTokens))
	return result, nil
}

// resolveSettings returns the settings to forward upstream. A zero-valued
// struct means the document predates settings and gets the full defaults;
// otherwise stored values are trusted as written, so an explicit
// temperature of 0 survives. Creation always writes a complete settings
// document and updates cannot blank the model, which makes the
// zero-struct check sufficient to detect absence.
func resolveSettings(stored model.Settings) model.Settings {
	if stored == (model.Settings{}) {
		return model.DefaultSettings()
	}

	if strings.TrimSpace(stored.Model) == "" {
		stored.Model = model.DefaultModel
	}
	if stored.MaxTokens <= 0 {
		stored.MaxTokens = model.DefaultMaxTokens
	}

	return stored
}

// buildMessages maps the stored prompts in insertion order and appends
// the new user message last.
func buildMessages(prompts []model.Prompt, userMessage string) []llm.Message {
	messages := make([]llm.Message, 0, len(prompts)+1)
	for _, p := range prompts {
		messages = append(messages, llm.Message{Role: p.Role, Content: p.Content})
	}

	return append(messages, llm.Message{Role: model.RoleUser, Content: userMessage})
}
