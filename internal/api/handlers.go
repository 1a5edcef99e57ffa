package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"uploader/internal/task"
)

const serviceMessage = "File upload service"

type uploadResponse struct {
	TaskID string      `json:"task_id"`
	Status task.Status `json:"status"`
}

type statusResponse struct {
	ID        string      `json:"id"`
	Status    task.Status `json:"status"`
	Reason    string      `json:"reason,omitempty"`
	Filename  string      `json:"filename"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

type API struct {
	taskManager *task.Manager
}

func NewAPI(taskManager *task.Manager) *API {
	return &API{taskManager: taskManager}
}

// RegisterRoutes registers API routes on the provided gin engine
func (a *API) RegisterRoutes(router *gin.Engine) {
	router.GET("/", a.Index)
	router.POST("/upload", a.Upload)
	router.GET("/status/:id", a.GetStatus)
}

// Index acknowledges that the service is up
func (a *API) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": serviceMessage})
}

// Upload accepts a multipart body and schedules one background write per file
func (a *API) Upload(c *gin.Context) {
	files, err := readUploads(c.Request)
	if err != nil {
		log.Warn().Err(err).Msg("rejecting upload request")
		c.JSON(http.StatusBadRequest, gin.H{"error": uploadErrorMessage(err)})
		return
	}

	accepted, err := a.submit(files)
	if err != nil {
		log.Error().Err(err).Msg("failed to schedule upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload not accepted"})
		return
	}

	if len(accepted) == 1 {
		c.JSON(http.StatusAccepted, toUploadResponse(accepted[0]))
		return
	}
	resp := make([]uploadResponse, 0, len(accepted))
	for _, t := range accepted {
		resp = append(resp, toUploadResponse(t))
	}
	c.JSON(http.StatusAccepted, resp)
}

// GetStatus returns the current status of an upload task
func (a *API) GetStatus(c *gin.Context) {
	id := c.Param("id")
	foundTask, ok := a.taskManager.GetTask(id)
	if !ok {
		log.Warn().Str("task_id", id).Msg("task not found on status")
		c.JSON(http.StatusNotFound, gin.H{"error": task.ErrTaskNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(foundTask))
}

func (a *API) submit(files []incomingFile) ([]task.Task, error) {
	accepted := make([]task.Task, 0, len(files))
	for _, f := range files {
		created, err := a.taskManager.Submit(f.filename, f.data)
		if err != nil {
			return accepted, fmt.Errorf("submit %s: %w", f.filename, err)
		}
		log.Debug().Str("task_id", created.ID).Str("field", f.field).Msg("part scheduled")
		accepted = append(accepted, created)
	}
	return accepted, nil
}

func toUploadResponse(t task.Task) uploadResponse {
	return uploadResponse{TaskID: t.ID, Status: t.Status}
}

func toStatusResponse(t task.Task) statusResponse {
	return statusResponse{
		ID:        t.ID,
		Status:    t.Status,
		Reason:    t.Reason,
		Filename:  t.Filename,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
