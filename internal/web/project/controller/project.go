// Package controller exposes the project app over HTTP.
package controller

import (
	"context"
	"io"
	"net/http"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/promptbox/internal/web/project/dto"
	"github.com/Laisky/promptbox/internal/web/project/model"
	"github.com/Laisky/promptbox/internal/web/webctx"
	"github.com/Laisky/promptbox/library/validate"
)

// ProjectService is what the controller needs from the project service.
type ProjectService interface {
	List(ctx context.Context, owner primitive.ObjectID) ([]*model.Project, error)
	Create(ctx context.Context, owner primitive.ObjectID, name, description string) (*model.Project, error)
	Get(ctx context.Context, owner, id primitive.ObjectID) (*model.Project, error)
	Update(ctx context.Context, owner, id primitive.ObjectID, cfg dto.ProjectCfg) (*model.Project, error)
	Delete(ctx context.Context, owner, id primitive.ObjectID) error
	AppendPrompt(ctx context.Context, owner, id primitive.ObjectID, role, content string) (*model.Project, error)
	AppendFile(ctx context.Context, owner, id primitive.ObjectID, filename string, content []byte) (*model.FileRef, error)
}

// Projects project controller
type Projects struct {
	logger glog.Logger
	svc    ProjectService
	debug  bool
}

// New create new project controller
func New(logger glog.Logger, svc ProjectService, debug bool) *Projects {
	return &Projects{
		logger: logger,
		svc:    svc,
		debug:  debug,
	}
}

type createProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type appendPromptRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// List handles GET /api/projects.
func (c *Projects) List(ctx *gin.Context) {
	uid, err := webctx.UserID(ctx)
	if err != nil {
		webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	projects, err := c.svc.List(ctx.Request.Context(), uid)
	if err != nil {
		c.abortInternalErr(ctx, err, "list projects")
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

// Create handles POST /api/projects.
func (c *Projects) Create(ctx *gin.Context) {
	uid, err := webctx.UserID(ctx)
	if err != nil {
		webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		webctx.AbortErr(ctx, http.StatusBadRequest, "name is required")
		return
	}

	project, err := c.svc.Create(ctx.Request.Context(), uid, req.Name, req.Description)
	if err != nil {
		c.abortDomainErr(ctx, err, "create project")
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

// Get handles GET /api/projects/:id.
func (c *Projects) Get(ctx *gin.Context) {
	uid, pid, ok := c.authAndProjectID(ctx)
	if !ok {
		return
	}

	project, err := c.svc.Get(ctx.Request.Context(), uid, pid)
	if err != nil {
		c.abortDomainErr(ctx, err, "get project")
		return
	}

	ctx.JSON(http.StatusOK, project)
}

// Update handles PUT /api/projects/:id.
func (c *Projects) Update(ctx *gin.Context) {
	uid, pid, ok := c.authAndProjectID(ctx)
	if !ok {
		return
	}

	var cfg dto.ProjectCfg
	if err := ctx.ShouldBindJSON(&cfg); err != nil {
		webctx.AbortErr(ctx, http.StatusBadRequest, "malformed request body")
		return
	}

	project, err := c.svc.Update(ctx.Request.Context(), uid, pid, cfg)
	if err != nil {
		c.abortDomainErr(ctx, err, "update project")
		return
	}

	ctx.JSON(http.StatusOK, project)
}

// Delete handles DELETE /api/projects/:id.
func (c *Projects) Delete(ctx *gin.Context) {
	uid, pid, ok := c.authAndProjectID(ctx)
	if !ok {
		return
	}

	if err := c.svc.Delete(ctx.Request.Context(), uid, pid); err != nil {
		c.abortDomainErr(ctx, err, "delete project")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// AppendPrompt handles POST /api/projects/:id/prompts.
func (c *Projects) AppendPrompt(ctx *gin.Context) {
	uid, pid, ok := c.authAndProjectID(ctx)
	if !ok {
		return
	}

	var req appendPromptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		webctx.AbortErr(ctx, http.StatusBadRequest, "role and content are required")
		return
	}

	project, err := c.svc.AppendPrompt(ctx.Request.Context(), uid, pid, req.Role, req.Content)
	if err != nil {
		c.abortDomainErr(ctx, err, "append prompt")
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

// UploadFile handles POST /api/projects/:id/files.
// It expects a multipart form with a single "file" part.
func (c *Projects) UploadFile(ctx *gin.Context) {
	uid, pid, ok := c.authAndProjectID(ctx)
	if !ok {
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		webctx.AbortErr(ctx, http.StatusBadRequest, "file part is required")
		return
	}

	f, err := header.Open()
	if err != nil {
		c.abortInternalErr(ctx, err, "open uploaded file")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.abortInternalErr(ctx, err, "read uploaded file")
		return
	}

	file, err := c.svc.AppendFile(ctx.Request.Context(), uid, pid, header.Filename, content)
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			webctx.AbortErr(ctx, http.StatusNotFound, model.ErrProjectNotFound.Error())
			return
		}

		// the external service owns the bytes, its failure is a gateway failure
		c.logger.Error("upload file", zap.Error(err))
		webctx.AbortErr(ctx, http.StatusBadGateway, err.Error())
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"fileId":   file.ExternalID,
		"filename": file.Filename,
	})
}

// authAndProjectID extracts the caller id and the :id path parameter.
func (c *Projects) authAndProjectID(ctx *gin.Context) (uid, pid primitive.ObjectID, ok bool) {
	uid, err := webctx.UserID(ctx)
	if err != nil {
		webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
		return uid, pid, false
	}

	pid, err = primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		// an unparseable id cannot name any project
		webctx.AbortErr(ctx, http.StatusNotFound, model.ErrProjectNotFound.Error())
		return uid, pid, false
	}

	return uid, pid, true
}

// abortDomainErr maps service rejections onto the error taxonomy.
func (c *Projects) abortDomainErr(ctx *gin.Context, err error, op string) {
	if errors.Is(err, model.ErrProjectNotFound) {
		webctx.AbortErr(ctx, http.StatusNotFound, model.ErrProjectNotFound.Error())
		return
	}
	if validate.IsError(err) {
		c.logger.Debug(op, zap.Error(err))
		webctx.AbortErr(ctx, http.StatusBadRequest, err.Error())
		return
	}

	c.abortInternalErr(ctx, err, op)
}

// abortInternalErr reports an unexpected failure,
// the underlying message is exposed only in debug mode.
func (c *Projects) abortInternalErr(ctx *gin.Context, err error, op string) {
	c.logger.Error(op, zap.Error(err))
	msg := "internal server error"
	if c.debug {
		msg = err.Error()
	}
	webctx.AbortErr(ctx, http.StatusInternalServerError, msg)
}
