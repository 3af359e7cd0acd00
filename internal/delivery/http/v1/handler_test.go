package v1

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-tasksync/internal/metrics"
	"github.com/adanyl0v/go-tasksync/internal/models"
	"github.com/adanyl0v/go-tasksync/internal/realtime"
	"github.com/adanyl0v/go-tasksync/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memTaskService keeps tasks in memory with the same defaults and partial
// update rules as the postgres implementation.
type memTaskService struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]*models.Task
	now    time.Time
}

func newMemTaskService() *memTaskService {
	return &memTaskService{
		tasks: make(map[int64]*models.Task),
		now:   time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memTaskService) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memTaskService) CreateTask(_ context.Context, p services.CreateTaskParams) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := m.tick()
	task := &models.Task{
		ID:          m.nextID,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		AssignedTo:  p.AssignedTo,
		Priority:    p.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.ApplyDefaults()
	m.tasks[task.ID] = task

	out := *task
	return &out, nil
}

func (m *memTaskService) ListTasks(context.Context) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Task, 0, len(m.tasks))
	for id := m.nextID; id > 0; id-- {
		if task, ok := m.tasks[id]; ok {
			cp := *task
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTaskService) UpdateTask(_ context.Context, p services.UpdateTaskParams) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[p.ID]
	if !ok {
		return nil, services.ErrTaskNotFound
	}
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = p.Description
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.AssignedTo != nil {
		task.AssignedTo = p.AssignedTo
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
	task.UpdatedAt = m.tick()

	out := *task
	return &out, nil
}

func (m *memTaskService) DeleteTask(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return services.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

type fakeApiTestService struct {
	createFn func(ctx context.Context, p services.CreateApiTestParams) (*models.ApiTestRecord, error)
	listFn   func(ctx context.Context) ([]*models.ApiTestRecord, error)
}

func (f *fakeApiTestService) CreateApiTest(ctx context.Context, p services.CreateApiTestParams) (*models.ApiTestRecord, error) {
	return f.createFn(ctx, p)
}

func (f *fakeApiTestService) ListApiTests(ctx context.Context) ([]*models.ApiTestRecord, error) {
	return f.listFn(ctx)
}

type fakeMetricService struct {
	listFn func(ctx context.Context, limit int) ([]*models.MetricSample, error)
}

func (f *fakeMetricService) RecordMetric(_ context.Context, s *models.MetricSample) (*models.MetricSample, error) {
	return s, nil
}

func (f *fakeMetricService) ListRecentMetrics(ctx context.Context, limit int) ([]*models.MetricSample, error) {
	return f.listFn(ctx, limit)
}

// recordingHub captures broadcasts instead of writing to connections.
type recordingHub struct {
	mu     sync.Mutex
	events []realtime.Event
	served int
}

func (r *recordingHub) Broadcast(ev realtime.Event, _ ...*realtime.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingHub) ServeWS(w http.ResponseWriter, _ *http.Request) {
	r.mu.Lock()
	r.served++
	r.mu.Unlock()
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func (r *recordingHub) broadcasts() []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Event(nil), r.events...)
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []metrics.Observation
}

func (r *recordingObserver) Observe(o metrics.Observation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, o)
}

func (r *recordingObserver) observations() []metrics.Observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metrics.Observation(nil), r.obs...)
}

type testEnv struct {
	router    *gin.Engine
	tasks     services.TaskService
	apiTests  *fakeApiTestService
	metrics   *fakeMetricService
	hub       *recordingHub
	observer  *recordingObserver
	apiPrefix string
}

type testEnvOption func(*testEnv)

func withTaskService(s services.TaskService) testEnvOption {
	return func(e *testEnv) { e.tasks = s }
}

func withAPIPrefix(prefix string) testEnvOption {
	return func(e *testEnv) { e.apiPrefix = prefix }
}

func newTestEnv(t *testing.T, opts ...testEnvOption) *testEnv {
	t.Helper()

	env := &testEnv{
		tasks:     newMemTaskService(),
		apiTests:  &fakeApiTestService{},
		metrics:   &fakeMetricService{},
		hub:       &recordingHub{},
		observer:  &recordingObserver{},
		apiPrefix: "/api",
	}
	for _, opt := range opts {
		opt(env)
	}

	h := New(zerolog.Nop(), env.tasks, env.apiTests, env.metrics, env.hub, env.observer, services.MaxRecentMetrics)

	env.router = gin.New()
	env.router.Use(h.HandleRequestIDMiddleware, h.HandleMetricsMiddleware)
	Register(env.router, h, env.apiPrefix)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
