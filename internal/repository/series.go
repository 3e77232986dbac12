package repository

import (
	"context"

	"remindbot/internal/database"
	"remindbot/internal/models"
)

type SeriesRepository struct {
	db *database.DB
}

func NewSeriesRepository(db *database.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

func (r *SeriesRepository) Create(ctx context.Context, series *models.ReminderSeries) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminder_series (series_id, chat_id, source_text, recurrence_rule)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		series.SeriesID, series.ChatID, series.SourceText, series.RecurrenceRule,
	).Scan(&series.CreatedAt, &series.UpdatedAt)
}

func (r *SeriesRepository) GetByID(ctx context.Context, seriesID string) (*models.ReminderSeries, error) {
	series := &models.ReminderSeries{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT series_id, chat_id, source_text, recurrence_rule, created_at, updated_at
		 FROM reminder_series WHERE series_id = $1`,
		seriesID,
	).Scan(&series.SeriesID, &series.ChatID, &series.SourceText, &series.RecurrenceRule,
		&series.CreatedAt, &series.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return series, nil
}
