package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/promptbox/internal/web/project/dto"
	"github.com/Laisky/promptbox/internal/web/project/model"
)

// List returns every project owned by owner.
func (s *Projects) List(ctx context.Context,
	owner primitive.ObjectID) ([]*model.Project, error) {
	return s.dao.ListByOwner(ctx, owner)
}

// Create stores a new project with default settings.
func (s *Projects) Create(ctx context.Context,
	owner primitive.ObjectID, name, description string) (*model.Project, error) {
	name, err := sanitizeName(name)
	if err != nil {
		return nil, err
	}

	p := model.NewProject(owner, name, description)
	if err := s.dao.Insert(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("create project",
		zap.String("project", p.GetID()),
		zap.String("owner", owner.Hex()))
	return p, nil
}

// Get loads one owned project.
func (s *Projects) Get(ctx context.Context,
	owner, id primitive.ObjectID) (*model.Project, error) {
	return s.dao.GetByID(ctx, owner, id)
}

// Update merges the given fields into one owned project.
func (s *Projects) Update(ctx context.Context,
	owner, id primitive.ObjectID, cfg dto.ProjectCfg) (*model.Project, error) {
	set, err := buildUpdateSet(cfg)
	if err != nil {
		return nil, err
	}

	return s.dao.Update(ctx, owner, id, set)
}

// Delete removes one owned project.
func (s *Projects) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	if err := s.dao.Delete(ctx, owner, id); err != nil {
		return err
	}

	s.logger.Info("delete project",
		zap.String("project", id.Hex()),
		zap.String("owner", owner.Hex()))
	return nil
}

// AppendPrompt appends one prompt entry and returns the updated project.
func (s *Projects) AppendPrompt(ctx context.Context,
	owner, id primitive.ObjectID, role, content string) (*model.Project, error) {
	if err := validatePrompt(role, content); err != nil {
		return nil, err
	}

	now := gutils.Clock.GetUTCNow()
	return s.dao.PushPrompt(ctx, owner, id, model.Prompt{
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}, bson.M{"modified_at": now})
}

// AppendFile uploads the content to the external service and records
// the returned identifier on the project.
func (s *Projects) AppendFile(ctx context.Context,
	owner, id primitive.ObjectID, filename string, content []byte) (*model.FileRef, error) {
	// confirm ownership before paying for the upload
	if _, err := s.dao.GetByID(ctx, owner, id); err != nil {
		return nil, err
	}

	externalID, err := s.uploader.UploadFile(ctx, s.apiKey, filename, content)
	if err != nil {
		return nil, errors.Wrap(err, "upload file to completion service")
	}

	now := gutils.Clock.GetUTCNow()
	file := model.FileRef{
		ID:         uuid.NewString(),
		Filename:   filename,
		ExternalID: externalID,
		UploadedAt: now,
	}
	if _, err := s.dao.PushFile(ctx, owner, id, file,
		bson.M{"modified_at": now}); err != nil {
		return nil, err
	}

	s.logger.Info("append file",
		zap.String("project", id.Hex()),
		zap.String("file", externalID))
	return &file, nil
}
