// Package service implements the project app's business logic.
package service

import (
	"context"

	glog "github.com/Laisky/go-utils/v6/log"

	"github.com/Laisky/promptbox/internal/web/project/dao"
)

// FileUploader pushes file bytes to the external completion service.
type FileUploader interface {
	UploadFile(ctx context.Context, apiKey, filename string, content []byte) (fileID string, err error)
}

// Projects project service
type Projects struct {
	logger   glog.Logger
	dao      *dao.Project
	uploader FileUploader
	apiKey   string
}

// New create new project service
func New(logger glog.Logger, dao *dao.Project, uploader FileUploader, apiKey string) *Projects {
	return &Projects{
		logger:   logger,
		dao:      dao,
		uploader: uploader,
		apiKey:   apiKey,
	}
}
