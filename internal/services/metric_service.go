package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasksync/internal/models"
)

type metricServiceImpl struct {
	logger zerolog.Logger
	db     DB
}

func NewMetricService(
	logger zerolog.Logger,
	db DB,
) MetricService {
	return &metricServiceImpl{
		logger: logger,
		db:     db,
	}
}

func (s *metricServiceImpl) RecordMetric(ctx context.Context, sample *models.MetricSample) (*models.MetricSample, error) {
	const insertMetricQuery = `
INSERT INTO metrics (endpoint,
                     method,
                     response_time,
                     response_status)
VALUES ($1, $2, $3, $4)
RETURNING id, timestamp
`
	recorded := *sample
	err := s.db.QueryRow(
		ctx,
		insertMetricQuery,
		sample.Endpoint,
		sample.Method,
		sample.ResponseTime,
		sample.ResponseStatus,
	).Scan(
		&recorded.ID,
		&recorded.Timestamp,
	)
	if err != nil {
		return nil, classifyPgError(err)
	}

	s.logger.Trace().
		Int64("metric_id", recorded.ID).
		Str("endpoint", recorded.Endpoint).
		Msg("recorded metric")
	return &recorded, nil
}

func (s *metricServiceImpl) ListRecentMetrics(ctx context.Context, limit int) ([]*models.MetricSample, error) {
	if limit <= 0 || limit > MaxRecentMetrics {
		limit = MaxRecentMetrics
	}

	const selectRecentMetricsQuery = `
SELECT id,
       endpoint,
       method,
       response_time,
       response_status,
       timestamp
FROM metrics
ORDER BY timestamp DESC, id DESC
LIMIT $1
`
	rows, err := s.db.Query(ctx, selectRecentMetricsQuery, limit)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select metrics")
		return nil, err
	}
	defer rows.Close()

	samples := make([]*models.MetricSample, 0, limit)
	for rows.Next() {
		sample := new(models.MetricSample)
		err = rows.Scan(
			&sample.ID,
			&sample.Endpoint,
			&sample.Method,
			&sample.ResponseTime,
			&sample.ResponseStatus,
			&sample.Timestamp,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan metric")
			return nil, err
		}
		samples = append(samples, sample)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return samples, nil
}
