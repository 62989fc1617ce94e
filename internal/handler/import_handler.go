package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/storyloom/storyloom-backend/internal/common"
	"github.com/storyloom/storyloom-backend/internal/domain"
	"github.com/storyloom/storyloom-backend/internal/middleware"
	"github.com/storyloom/storyloom-backend/internal/queue"
	"github.com/storyloom/storyloom-backend/internal/scraper"
	"github.com/storyloom/storyloom-backend/internal/service"
)

// ImportHandler exposes the synchronous import surface: pre-flight
// validation plus enqueueing the deferred import job.
type ImportHandler struct {
	imports *service.ImportService
	jobs    *queue.ImportQueue
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(imports *service.ImportService, jobs *queue.ImportQueue) *ImportHandler {
	return &ImportHandler{imports: imports, jobs: jobs}
}

// RegisterOriginURLValidator wires the originurl binding rule so request
// validation rejects malformed addresses before the service runs.
func RegisterOriginURLValidator(originHost string) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("originurl", func(fl validator.FieldLevel) bool {
			return scraper.ValidateOriginURL(fl.Field().String(), originHost) == nil
		})
	}
}

// CreateImport handles POST /api/v1/boards/:board_id/imports.
// Runs the pre-flight validator synchronously; a passing request is
// queued and answered with 202 and the job ID.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	boardID, err := strconv.ParseInt(c.Param("board_id"), 10, 64)
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid board ID", nil)
		return
	}

	var req domain.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err.Error())
		return
	}
	req.BoardID = boardID
	req.UserID = middleware.GetUserID(c)

	preview, err := h.imports.Preflight(c.Request.Context(), &req)
	if err != nil {
		respondImportError(c, err)
		return
	}

	job, err := h.jobs.Enqueue(c.Request.Context(), req)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to queue import", nil)
		return
	}

	c.JSON(202, common.APIResponse{Data: gin.H{
		"job_id":  job.ID,
		"preview": preview,
	}})
}

func respondImportError(c *gin.Context, err error) {
	var already *common.AlreadyImportedError
	var unresolvable *common.UnresolvableIdentityError
	var malformed *common.MalformedFragmentError

	switch {
	case errors.Is(err, common.ErrInvalidOriginURL):
		common.ErrorResponse(c, 400, "URL is not a supported origin thread address", nil)
	case errors.Is(err, common.ErrBoardNotFound):
		common.ErrorResponse(c, 404, "Board not found", nil)
	case errors.As(err, &already):
		common.ErrorResponse(c, 409, "Thread is already imported", gin.H{"post_id": already.PostID})
	case errors.As(err, &unresolvable):
		common.ErrorResponse(c, 422, "Some usernames could not be resolved",
			gin.H{"usernames": unresolvable.Usernames})
	case errors.As(err, &malformed):
		common.ErrorResponse(c, 422, "Origin page is missing expected content", malformed.Error())
	case errors.Is(err, common.ErrOriginUnreachable):
		common.ErrorResponse(c, 502, "Origin site could not be reached", nil)
	case errors.Is(err, common.ErrInvalidInput):
		common.ErrorResponse(c, 400, err.Error(), nil)
	default:
		common.ErrorResponse(c, 500, "Import validation failed", nil)
	}
}
