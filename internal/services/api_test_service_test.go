package services

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var apiTestRowColumns = []string{
	"id", "endpoint", "method", "request_body", "response_status", "response_body", "created_at",
}

func intPtr(i int) *int { return &i }

func TestApiTestService_CreateApiTest(t *testing.T) {
	mock := newMockDB(t)
	svc := NewApiTestService(zerolog.Nop(), mock)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO api_tests").
		WithArgs("/api/tasks", "POST", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(apiTestRowColumns).
			AddRow(int64(1), "/api/tasks", "POST", strPtr(`{"title":"x"}`), intPtr(201), strPtr(`{"id":1}`), now))

	record, err := svc.CreateApiTest(context.Background(), CreateApiTestParams{
		Endpoint:       "/api/tasks",
		Method:         "post",
		RequestBody:    strPtr(`{"title":"x"}`),
		ResponseStatus: intPtr(201),
		ResponseBody:   strPtr(`{"id":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "POST", record.Method)
	assert.Equal(t, 201, *record.ResponseStatus)
}

func TestApiTestService_CreateApiTest_RequiresEndpointAndMethod(t *testing.T) {
	svc := NewApiTestService(zerolog.Nop(), newMockDB(t))

	_, err := svc.CreateApiTest(context.Background(), CreateApiTestParams{Method: "GET"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateApiTest(context.Background(), CreateApiTestParams{Endpoint: "/api/tasks"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestApiTestService_ListApiTests(t *testing.T) {
	mock := newMockDB(t)
	svc := NewApiTestService(zerolog.Nop(), mock)
	now := time.Now()

	mock.ExpectQuery("FROM api_tests").
		WillReturnRows(pgxmock.NewRows(apiTestRowColumns).
			AddRow(int64(2), "/api/tasks", "GET", (*string)(nil), intPtr(200), strPtr("[]"), now).
			AddRow(int64(1), "/api/tests", "GET", (*string)(nil), (*int)(nil), (*string)(nil), now.Add(-time.Hour)))

	records, err := svc.ListApiTests(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[0].ID)
	assert.Nil(t, records[1].ResponseStatus)
}
