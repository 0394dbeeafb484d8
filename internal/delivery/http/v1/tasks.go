package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/services"
)

type createTaskRequest struct {
	Title       string           `json:"title"`
	Notes       string           `json:"notes"`
	DueDate     json.RawMessage  `json:"dueDate"`
	Priority    models.Priority  `json:"priority"`
	Subtasks    []models.Subtask `json:"subtasks"`
	IsCompleted bool             `json:"isCompleted"`
}

type updateTaskRequest struct {
	Title        *string          `json:"title"`
	Notes        *string          `json:"notes"`
	List         *string          `json:"list"`
	IsCompleted  *bool            `json:"isCompleted"`
	DueDate      json.RawMessage  `json:"dueDate"`
	Priority     *models.Priority `json:"priority"`
	Subtasks     []models.Subtask `json:"subtasks"`
	CreatedBy    *string          `json:"createdBy"`
	CreationDate *time.Time       `json:"creationDate"`
}

var jsonNull = []byte("null")

// parseDueDate decodes a dueDate member. It reports cleared for an
// explicit null and returns nil when the member is absent.
func parseDueDate(raw json.RawMessage) (due *services.DueDate, cleared bool, err error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(raw, jsonNull) {
		return nil, true, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal due date: %w", err)
	}
	d, err := services.ParseDueDate(s)
	if err != nil {
		return nil, false, err
	}
	return &d, false, nil
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	dueDate, _, err := parseDueDate(req.DueDate)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse due date")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, actor, models.ParseListRef(c.Param("id")), services.CreateTaskParams{
		Title:       req.Title,
		Notes:       req.Notes,
		DueDate:     dueDate,
		Priority:    req.Priority,
		Subtasks:    req.Subtasks,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("list_id", c.Param("id")).
			Msg("failed to create task")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, actor, c.Param("id"))
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to get task")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	dueDate, cleared, err := parseDueDate(req.DueDate)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse due date")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, actor, c.Param("id"), services.UpdateTaskParams{
		Title:        req.Title,
		Notes:        req.Notes,
		List:         req.List,
		IsCompleted:  req.IsCompleted,
		DueDate:      dueDate,
		ClearDueDate: cleared,
		Priority:     req.Priority,
		Subtasks:     req.Subtasks,
		CreatedBy:    req.CreatedBy,
		CreationDate: req.CreationDate,
	})
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to update task")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, actor, c.Param("id"))
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to delete task")
		abort(c, newServiceError(err))
		return
	}

	c.Status(http.StatusNoContent)
}
