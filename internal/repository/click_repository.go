package repository

import (
	"context"
	"fmt"

	"github.com/falkeetsingh/ClickLens/internal/models"
	"github.com/jackc/pgx/v5"
)

type ClickRepository interface {
	RecordClick(ctx context.Context, click *models.Click) error
	GetStats(ctx context.Context, shortCode string) (*models.ClickStats, error)
	GetDailyStats(ctx context.Context, shortCode string, days int) ([]models.DailyClickStats, error)
	GetBreakdown(ctx context.Context, shortCode string) (*models.ClickBreakdown, error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

// RecordClick вставляет одну запись клика. Записи append-only:
// обновлений и точечных удалений нет, только каскад при удалении ссылки.
func (r *clickRepository) RecordClick(ctx context.Context, click *models.Click) error {
	query := `
		INSERT INTO clicks (link_id, ip_address, referrer, user_agent, country, city, device_type, browser, os, clicked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		click.LinkID,
		click.IPAddress,
		click.Referrer,
		click.UserAgent,
		click.Country,
		click.City,
		click.DeviceType,
		click.Browser,
		click.OS,
		click.ClickedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	return nil
}

func (r *clickRepository) GetStats(ctx context.Context, shortCode string) (*models.ClickStats, error) {
	query := `
		SELECT
			COUNT(*) as total_clicks,
			COUNT(DISTINCT ip_address) as unique_clicks
		FROM clicks c
		JOIN links l ON c.link_id = l.id
		WHERE l.short_code = $1
	`

	stats := &models.ClickStats{
		ShortCode: shortCode,
	}

	err := r.db.Pool.QueryRow(ctx, query, shortCode).Scan(
		&stats.TotalClicks,
		&stats.UniqueClicks,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get click stats: %w", err)
	}

	return stats, nil
}

func (r *clickRepository) GetDailyStats(ctx context.Context, shortCode string, days int) ([]models.DailyClickStats, error) {
	// Дата отдаётся строкой: pgx не умеет сканировать binary date в *string
	query := `
		SELECT
			to_char(DATE(c.clicked_at), 'YYYY-MM-DD') as date,
			COUNT(*) as clicks
		FROM clicks c
		JOIN links l ON c.link_id = l.id
		WHERE l.short_code = $1
			AND c.clicked_at >= NOW() - INTERVAL '1 day' * $2
		GROUP BY DATE(c.clicked_at)
		ORDER BY date DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, shortCode, days)
	if err != nil {
		if err == pgx.ErrNoRows {
			return []models.DailyClickStats{}, nil
		}
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	defer rows.Close()

	var stats []models.DailyClickStats
	for rows.Next() {
		var dailyStat models.DailyClickStats
		if err := rows.Scan(&dailyStat.Date, &dailyStat.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		stats = append(stats, dailyStat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily stats: %w", err)
	}

	return stats, nil
}

// GetBreakdown считает распределение кликов по производным полям
func (r *clickRepository) GetBreakdown(ctx context.Context, shortCode string) (*models.ClickBreakdown, error) {
	breakdown := &models.ClickBreakdown{ShortCode: shortCode}

	dimensions := []struct {
		column string
		dest   *[]models.BreakdownEntry
	}{
		{"device_type", &breakdown.Devices},
		{"browser", &breakdown.Browsers},
		{"os", &breakdown.Systems},
		{"country", &breakdown.Countries},
	}

	for _, dim := range dimensions {
		query := fmt.Sprintf(`
			SELECT c.%s, COUNT(*) as clicks
			FROM clicks c
			JOIN links l ON c.link_id = l.id
			WHERE l.short_code = $1
			GROUP BY c.%s
			ORDER BY clicks DESC
		`, dim.column, dim.column)

		rows, err := r.db.Pool.Query(ctx, query, shortCode)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s breakdown: %w", dim.column, err)
		}

		entries := []models.BreakdownEntry{}
		for rows.Next() {
			var entry models.BreakdownEntry
			if err := rows.Scan(&entry.Value, &entry.Clicks); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s breakdown: %w", dim.column, err)
			}
			entries = append(entries, entry)
		}
		rows.Close()

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating %s breakdown: %w", dim.column, err)
		}

		*dim.dest = entries
	}

	return breakdown, nil
}
