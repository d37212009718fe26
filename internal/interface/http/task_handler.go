package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ho-ssain/HkToDoServer/internal/application"
	"github.com/ho-ssain/HkToDoServer/internal/interface/middleware"
	"github.com/ho-ssain/HkToDoServer/pkg/response"
	"github.com/ho-ssain/HkToDoServer/pkg/validation"
)

// TaskHandler serves the embedded task endpoints. All of them require an
// authenticated user.
type TaskHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewTaskHandler(svc *application.Service, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{Svc: svc, Logger: logger}
}

type addTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// Add POST /api/v1/newtask
func (h *TaskHandler) Add(c *gin.Context) {
	var req addTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Please enter all fields", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if _, err := h.Svc.AddTask(c.Request.Context(), uid, req.Title, req.Description); err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, "Task added successfully", nil)
}

// Toggle GET /api/v1/task/:taskid flips the completed flag.
func (h *TaskHandler) Toggle(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.ToggleTask(c.Request.Context(), uid, taskID); err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, "Task updated successfully", nil)
}

// Remove DELETE /api/v1/task/:taskid
func (h *TaskHandler) Remove(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.RemoveTask(c.Request.Context(), uid, taskID); err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, "Task removed successfully", nil)
}

func taskIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("taskid"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid task id", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}
