// Package dao contains the data access objects of the project app.
package dao

import (
	glog "github.com/Laisky/go-utils/v6/log"
	mongoLib "go.mongodb.org/mongo-driver/mongo"

	"github.com/Laisky/promptbox/library/db/mongo"
)

// Project dao type
type Project struct {
	logger glog.Logger
	db     mongo.DB
}

// New create new dao
func New(logger glog.Logger, db mongo.DB) *Project {
	return &Project{
		logger: logger,
		db:     db,
	}
}

// GetProjectsCol get projects collection
func (d *Project) GetProjectsCol() *mongoLib.Collection {
	return d.db.GetCol("projects")
}
