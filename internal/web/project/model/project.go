package model

import (
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prompt roles, the only values accepted on append.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Settings defaults applied when a project is created without them.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// ValidRole reports whether role is one of the accepted prompt roles.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}

	return false
}

// Prompt is one role-tagged entry of a project's conversation seed.
// Insertion order is the conversation order sent to the completion service.
type Prompt struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// FileRef points at a file owned by the external completion service.
type FileRef struct {
	// ID local reference identifier
	ID string `bson:"id" json:"id"`
	// Filename original upload name
	Filename string `bson:"filename" json:"filename"`
	// ExternalID opaque identifier assigned by the external service
	ExternalID string `bson:"external_id" json:"external_id"`
	// UploadedAt upload time
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// Settings are the model parameters forwarded with every chat call.
type Settings struct {
	Model       string  `bson:"model" json:"model"`
	Temperature float64 `bson:"temperature" json:"temperature"`
	MaxTokens   int     `bson:"max_tokens" json:"max_tokens"`
}

// DefaultSettings returns the settings of a freshly created project.
func DefaultSettings() Settings {
	return Settings{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Project is a named, owned collection of prompts, file references and
// model settings.
type Project struct {
	// ID unique identifier for the project
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	// CreatedAt creation time
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	// ModifiedAt last modified time
	ModifiedAt time.Time `bson:"modified_at" json:"modified_at"`
	// Name project name
	Name string `bson:"name" json:"name"`
	// Description optional description
	Description string `bson:"description" json:"description"`
	// Owner exactly one owning user, checked on every read and write
	Owner primitive.ObjectID `bson:"owner" json:"owner"`
	// Prompts ordered conversation seed, append-only
	Prompts []Prompt `bson:"prompts" json:"prompts"`
	// Files ordered uploaded-file references
	Files []FileRef `bson:"files" json:"files"`
	// Settings model parameters
	Settings Settings `bson:"settings" json:"settings"`
}

// GetID get id
func (p *Project) GetID() string {
	return p.ID.Hex()
}

// NewProject create a new project owned by owner.
func NewProject(owner primitive.ObjectID, name, description string) *Project {
	now := gutils.Clock.GetUTCNow()
	return &Project{
		ID:          primitive.NewObjectID(),
		CreatedAt:   now,
		ModifiedAt:  now,
		Name:        name,
		Description: description,
		Owner:       owner,
		Prompts:     []Prompt{},
		Files:       []FileRef{},
		Settings:    DefaultSettings(),
	}
}
