package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasksync/internal/models"
)

type apiTestServiceImpl struct {
	logger zerolog.Logger
	db     DB
}

func NewApiTestService(
	logger zerolog.Logger,
	db DB,
) ApiTestService {
	return &apiTestServiceImpl{
		logger: logger,
		db:     db,
	}
}

func scanApiTest(row pgx.Row) (*models.ApiTestRecord, error) {
	record := new(models.ApiTestRecord)
	err := row.Scan(
		&record.ID,
		&record.Endpoint,
		&record.Method,
		&record.RequestBody,
		&record.ResponseStatus,
		&record.ResponseBody,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *apiTestServiceImpl) CreateApiTest(ctx context.Context, params CreateApiTestParams) (*models.ApiTestRecord, error) {
	if params.Endpoint == "" || params.Method == "" {
		return nil, fmt.Errorf("%w: endpoint and method are required", ErrInvalidInput)
	}

	const insertApiTestQuery = `
INSERT INTO api_tests (endpoint,
                       method,
                       request_body,
                       response_status,
                       response_body)
VALUES ($1, $2, $3, $4, $5)
RETURNING id,
          endpoint,
          method,
          request_body,
          response_status,
          response_body,
          created_at
`
	record, err := scanApiTest(s.db.QueryRow(
		ctx,
		insertApiTestQuery,
		params.Endpoint,
		strings.ToUpper(params.Method),
		params.RequestBody,
		params.ResponseStatus,
		params.ResponseBody,
	))
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("endpoint", params.Endpoint).
			Msg("failed to insert api test")
		return nil, classifyPgError(err)
	}

	s.logger.Info().
		Int64("api_test_id", record.ID).
		Str("endpoint", record.Endpoint).
		Msg("created api test")
	return record, nil
}

func (s *apiTestServiceImpl) ListApiTests(ctx context.Context) ([]*models.ApiTestRecord, error) {
	const selectApiTestsQuery = `
SELECT id,
       endpoint,
       method,
       request_body,
       response_status,
       response_body,
       created_at
FROM api_tests
ORDER BY created_at DESC, id DESC
`
	rows, err := s.db.Query(ctx, selectApiTestsQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select api tests")
		return nil, err
	}
	defer rows.Close()

	records := make([]*models.ApiTestRecord, 0)
	for rows.Next() {
		record, err := scanApiTest(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan api test")
			return nil, err
		}
		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(records)).
		Msg("selected api tests")
	return records, nil
}
