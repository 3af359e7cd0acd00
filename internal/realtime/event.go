package realtime

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/adanyl0v/go-tasksync/internal/models"
)

type EventType string

const (
	EventTaskCreated EventType = "TASK_CREATED"
	EventTaskUpdated EventType = "TASK_UPDATED"
	EventTaskDeleted EventType = "TASK_DELETED"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMalformedEvent   = errors.New("malformed event")
)

// Event is a task mutation notification. The set of implementations is
// closed: TaskCreated, TaskUpdated and TaskDeleted.
type Event interface {
	Type() EventType
	isEvent()
}

type TaskCreated struct {
	Task models.Task
}

type TaskUpdated struct {
	Task models.Task
}

type TaskDeleted struct {
	TaskID int64
}

func (TaskCreated) Type() EventType { return EventTaskCreated }
func (TaskUpdated) Type() EventType { return EventTaskUpdated }
func (TaskDeleted) Type() EventType { return EventTaskDeleted }

func (TaskCreated) isEvent() {}
func (TaskUpdated) isEvent() {}
func (TaskDeleted) isEvent() {}

// envelope is the wire form: {"type":..., "task":...} or {"type":..., "taskId":...}.
type envelope struct {
	Type   EventType    `json:"type"`
	Task   *models.Task `json:"task,omitempty"`
	TaskID *int64       `json:"taskId,omitempty"`
}

func Encode(ev Event) ([]byte, error) {
	var env envelope
	switch e := ev.(type) {
	case TaskCreated:
		env = envelope{Type: EventTaskCreated, Task: &e.Task}
	case TaskUpdated:
		env = envelope{Type: EventTaskUpdated, Task: &e.Task}
	case TaskDeleted:
		env = envelope{Type: EventTaskDeleted, TaskID: &e.TaskID}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEventType, ev)
	}
	return json.Marshal(env)
}

func Decode(data []byte) (Event, error) {
	var env envelope
	err := json.Unmarshal(data, &env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch env.Type {
	case EventTaskCreated, EventTaskUpdated:
		if env.Task == nil {
			return nil, fmt.Errorf("%w: %s without task", ErrMalformedEvent, env.Type)
		}
		if env.Type == EventTaskCreated {
			return TaskCreated{Task: *env.Task}, nil
		}
		return TaskUpdated{Task: *env.Task}, nil
	case EventTaskDeleted:
		if env.TaskID == nil {
			return nil, fmt.Errorf("%w: %s without taskId", ErrMalformedEvent, env.Type)
		}
		return TaskDeleted{TaskID: *env.TaskID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}
}
