package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasksync/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	db     DB
}

func NewTaskService(
	logger zerolog.Logger,
	db DB,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		db:     db,
	}
}

const taskColumns = `id,
       title,
       description,
       status,
       assigned_to,
       priority,
       created_at,
       updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	task := new(models.Task)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.AssignedTo,
		&task.Priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	task := &models.Task{
		Title:       params.Title,
		Description: params.Description,
		Status:      params.Status,
		AssignedTo:  params.AssignedTo,
		Priority:    params.Priority,
	}
	task.ApplyDefaults()

	if task.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !task.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, task.Status)
	}
	if !task.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, task.Priority)
	}

	const insertTaskQuery = `
INSERT INTO tasks (title,
                   description,
                   status,
                   assigned_to,
                   priority)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + taskColumns

	created, err := scanTask(s.db.QueryRow(
		ctx,
		insertTaskQuery,
		task.Title,
		task.Description,
		task.Status,
		task.AssignedTo,
		task.Priority,
	))
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, classifyPgError(err)
	}

	s.logger.Info().
		Int64("task_id", created.ID).
		Msg("created task")
	return created, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*models.Task, error) {
	const selectTasksQuery = `
SELECT ` + taskColumns + `
FROM tasks
ORDER BY created_at DESC, id DESC
`
	rows, err := s.db.Query(ctx, selectTasksQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("selected tasks")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	if params.Title != nil && *params.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	if params.Status != nil && !params.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *params.Status)
	}
	if params.Priority != nil && !params.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *params.Priority)
	}

	// A NULL parameter keeps the stored value.
	const updateTaskQuery = `
UPDATE tasks
SET title = COALESCE($1, title),
    description = COALESCE($2, description),
    status = COALESCE($3, status),
    assigned_to = COALESCE($4, assigned_to),
    priority = COALESCE($5, priority),
    updated_at = NOW()
WHERE id = $6
RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRow(
		ctx,
		updateTaskQuery,
		params.Title,
		params.Description,
		params.Status,
		params.AssignedTo,
		params.Priority,
		params.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", params.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", params.ID).
			Msg("failed to update task")
		return nil, classifyPgError(err)
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, id int64) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	commandTag, err := s.db.Exec(ctx, deleteTaskQuery, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return err
	}

	if commandTag.RowsAffected() == 0 {
		s.logger.Warn().
			Int64("task_id", id).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Int64("task_id", id).
		Msg("deleted task")
	return nil
}
