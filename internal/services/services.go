package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adanyl0v/go-tasksync/internal/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidInput = errors.New("invalid input")
)

// MaxRecentMetrics caps how many samples ListRecentMetrics ever returns.
const MaxRecentMetrics = 100

// DB is the part of *pgxpool.Pool the services query through.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type TaskService interface {
	// CreateTask inserts a task, filling status and priority defaults.
	//
	// It returns ErrInvalidInput if the title is empty, an enum
	// value is unknown or the store rejects the row.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// ListTasks returns every task, newest first.
	ListTasks(ctx context.Context) ([]*models.Task, error)

	// UpdateTask applies the non-nil fields of params and returns
	// the full post-update record.
	//
	// It returns ErrTaskNotFound if no task has the given ID.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// DeleteTask removes the task with the given ID.
	//
	// It returns ErrTaskNotFound if no task has the given ID.
	DeleteTask(ctx context.Context, id int64) error
}

type ApiTestService interface {
	CreateApiTest(ctx context.Context, params CreateApiTestParams) (*models.ApiTestRecord, error)

	// ListApiTests returns every recorded probe, newest first.
	ListApiTests(ctx context.Context) ([]*models.ApiTestRecord, error)
}

type MetricService interface {
	RecordMetric(ctx context.Context, sample *models.MetricSample) (*models.MetricSample, error)

	// ListRecentMetrics returns at most limit samples ordered by
	// timestamp descending. The limit is clamped to [1, MaxRecentMetrics].
	ListRecentMetrics(ctx context.Context, limit int) ([]*models.MetricSample, error)
}

type CreateTaskParams struct {
	Title       string
	Description *string
	Status      models.TaskStatus
	AssignedTo  *string
	Priority    models.TaskPriority
}

type UpdateTaskParams struct {
	ID          int64
	Title       *string
	Description *string
	Status      *models.TaskStatus
	AssignedTo  *string
	Priority    *models.TaskPriority
}

type CreateApiTestParams struct {
	Endpoint       string
	Method         string
	RequestBody    *string
	ResponseStatus *int
	ResponseBody   *string
}

// classifyPgError folds integrity and data errors reported by
// postgres into ErrInvalidInput and leaves everything else as is.
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) ||
		pgerrcode.IsDataException(pgErr.Code) {
		return fmt.Errorf("%w: %s", ErrInvalidInput, pgErr.Message)
	}
	return err
}
