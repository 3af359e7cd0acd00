package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-tasksync/internal/models"
	"github.com/adanyl0v/go-tasksync/internal/realtime"
	"github.com/adanyl0v/go-tasksync/internal/services"
)

type createTaskRequest struct {
	Title       string              `json:"title" binding:"required,max=255"`
	Description *string             `json:"description"`
	Status      models.TaskStatus   `json:"status" binding:"omitempty,oneof=pending in-progress completed cancelled"`
	AssignedTo  *string             `json:"assignedTo"`
	Priority    models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	logger := h.requestLogger(c)

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
	})
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to create task")
		abort(c, newServiceError(err))
		return
	}

	h.live.Broadcast(realtime.TaskCreated{Task: *task})

	logger.Info().
		Int64("task_id", task.ID).
		Msg("created task")
	c.JSON(http.StatusCreated, task)
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	logger := h.requestLogger(c)

	tasks, err := h.tasks.ListTasks(c)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abort(c, newServiceError(err))
		return
	}

	logger.Debug().
		Int("count", len(tasks)).
		Msg("fetched tasks")
	c.JSON(http.StatusOK, tasks)
}

// A field that is absent or null keeps its stored value.
type updateTaskRequest struct {
	Title       *string              `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status" binding:"omitempty,oneof=pending in-progress completed cancelled"`
	AssignedTo  *string              `json:"assignedTo"`
	Priority    *models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	logger := h.requestLogger(c)

	taskID, ok := h.bindTaskID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:          taskID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
	})
	if err != nil {
		logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to update task")
		abort(c, newServiceError(err))
		return
	}

	h.live.Broadcast(realtime.TaskUpdated{Task: *task})

	logger.Info().
		Int64("task_id", task.ID).
		Msg("updated task")
	c.JSON(http.StatusOK, task)
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	logger := h.requestLogger(c)

	taskID, ok := h.bindTaskID(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, taskID)
	if err != nil {
		logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to delete task")
		abort(c, newServiceError(err))
		return
	}

	h.live.Broadcast(realtime.TaskDeleted{TaskID: taskID})

	logger.Info().
		Int64("task_id", taskID).
		Msg("deleted task")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handlerImpl) bindTaskID(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || taskID <= 0 {
		h.requestLogger(c).Error().
			Str("id", c.Param("id")).
			Msg("invalid task id")
		abort(c, newBadRequestError(errInvalidTaskID.Error()))
		return 0, false
	}
	return taskID, true
}
