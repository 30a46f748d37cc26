package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/promptbox/internal/web/project/model"
	"github.com/Laisky/promptbox/library/db/mongo"
)

// ownedFilter scopes every query to one owner,
// a foreign project behaves exactly like a missing one.
func ownedFilter(owner, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "owner": owner}
}

// ListByOwner returns every project of one owner, oldest first.
func (d *Project) ListByOwner(ctx context.Context,
	owner primitive.ObjectID) (projects []*model.Project, err error) {
	cur, err := d.GetProjectsCol().Find(ctx,
		bson.M{"owner": owner},
		options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, errors.Wrapf(err, "list projects of %q", owner.Hex())
	}
	defer cur.Close(ctx)

	projects = []*model.Project{}
	if err = cur.All(ctx, &projects); err != nil {
		return nil, errors.Wrap(err, "decode projects")
	}

	return projects, nil
}

// Insert stores a new project document.
func (d *Project) Insert(ctx context.Context, p *model.Project) error {
	if _, err := d.GetProjectsCol().InsertOne(ctx, p); err != nil {
		return errors.Wrapf(err, "insert project %q", p.Name)
	}

	return nil
}

// GetByID loads one owned project.
func (d *Project) GetByID(ctx context.Context,
	owner, id primitive.ObjectID) (p *model.Project, err error) {
	p = &model.Project{}
	if err = d.GetProjectsCol().
		FindOne(ctx, ownedFilter(owner, id)).
		Decode(p); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.WithStack(model.ErrProjectNotFound)
		}

		return nil, errors.Wrapf(err, "find project %q", id.Hex())
	}

	return p, nil
}

// Update applies a $set to one owned project and returns the new document.
func (d *Project) Update(ctx context.Context,
	owner, id primitive.ObjectID, set bson.M) (p *model.Project, err error) {
	p = &model.Project{}
	if err = d.GetProjectsCol().
		FindOneAndUpdate(ctx, ownedFilter(owner, id),
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(p); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.WithStack(model.ErrProjectNotFound)
		}

		return nil, errors.Wrapf(err, "update project %q", id.Hex())
	}

	return p, nil
}

// Delete removes one owned project.
func (d *Project) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	result, err := d.GetProjectsCol().DeleteOne(ctx, ownedFilter(owner, id))
	if err != nil {
		return errors.Wrapf(err, "delete project %q", id.Hex())
	}
	if result.DeletedCount == 0 {
		return errors.WithStack(model.ErrProjectNotFound)
	}

	return nil
}

// PushPrompt appends one prompt entry,
// single-document $push keeps insertion order.
func (d *Project) PushPrompt(ctx context.Context,
	owner, id primitive.ObjectID, prompt model.Prompt, modifiedAt bson.M) (*model.Project, error) {
	return d.push(ctx, owner, id, bson.M{
		"$push": bson.M{"prompts": prompt},
		"$set":  modifiedAt,
	})
}

// PushFile appends one uploaded-file reference.
func (d *Project) PushFile(ctx context.Context,
	owner, id primitive.ObjectID, file model.FileRef, modifiedAt bson.M) (*model.Project, error) {
	return d.push(ctx, owner, id, bson.M{
		"$push": bson.M{"files": file},
		"$set":  modifiedAt,
	})
}

func (d *Project) push(ctx context.Context,
	owner, id primitive.ObjectID, update bson.M) (p *model.Project, err error) {
	p = &model.Project{}
	if err = d.GetProjectsCol().
		FindOneAndUpdate(ctx, ownedFilter(owner, id), update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(p); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.WithStack(model.ErrProjectNotFound)
		}

		return nil, errors.Wrapf(err, "append to project %q", id.Hex())
	}

	return p, nil
}
