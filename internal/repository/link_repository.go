package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/falkeetsingh/ClickLens/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
	ErrNotOwner     = errors.New("link belongs to another user")
)

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByShortCode(ctx context.Context, code string) (*models.Link, error)
	GetLinkIDByShortCode(ctx context.Context, code string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]models.LinkWithAnalytics, error)
	DeleteByID(ctx context.Context, id int64, userID string) (string, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (short_code, original_url, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ShortCode,
		link.OriginalURL,
		link.UserID,
		link.ExpiresAt,
		link.CreatedAt,
	).Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetByShortCode ищет по точному совпадению кода с учётом регистра
func (r *linkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	query := `
		SELECT id, short_code, original_url, user_id, expires_at, created_at
		FROM links
		WHERE short_code = $1 AND (expires_at IS NULL OR expires_at > NOW())
	`

	link := &models.Link{}
	err := r.db.Pool.QueryRow(ctx, query, code).Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.UserID,
		&link.ExpiresAt,
		&link.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) GetLinkIDByShortCode(ctx context.Context, code string) (int64, error) {
	query := `SELECT id FROM links WHERE short_code = $1`

	var linkID int64
	err := r.db.Pool.QueryRow(ctx, query, code).Scan(&linkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrLinkNotFound
		}
		return 0, fmt.Errorf("failed to get link ID: %w", err)
	}

	return linkID, nil
}

// ListByUser возвращает ссылки пользователя с агрегатами по кликам.
// Счётчики считаются по таблице clicks, отдельного счётчика на ссылке нет.
func (r *linkRepository) ListByUser(ctx context.Context, userID string) ([]models.LinkWithAnalytics, error) {
	query := `
		SELECT
			l.id,
			l.original_url,
			l.short_code,
			l.created_at,
			COUNT(c.id) AS total_clicks,
			MAX(c.clicked_at) AS last_click_time
		FROM links l
		LEFT JOIN clicks c ON c.link_id = l.id
		WHERE l.user_id = $1
		GROUP BY l.id
		ORDER BY l.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.LinkWithAnalytics{}
	for rows.Next() {
		var link models.LinkWithAnalytics
		if err := rows.Scan(
			&link.ID,
			&link.OriginalURL,
			&link.ShortCode,
			&link.CreatedAt,
			&link.Analytics.TotalClicks,
			&link.Analytics.LastClickTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

// DeleteByID удаляет ссылку владельца, клики уходят каскадом по FK.
// Возвращает short_code удалённой ссылки для инвалидации кэша.
func (r *linkRepository) DeleteByID(ctx context.Context, id int64, userID string) (string, error) {
	var ownerID, shortCode string
	err := r.db.Pool.QueryRow(ctx, `SELECT user_id, short_code FROM links WHERE id = $1`, id).Scan(&ownerID, &shortCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to check link owner: %w", err)
	}
	if ownerID != userID {
		return "", ErrNotOwner
	}

	result, err := r.db.Pool.Exec(ctx, `DELETE FROM links WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return "", fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return "", ErrLinkNotFound
	}

	return shortCode, nil
}

// Проверка на нарушение уникальности short_code (код 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
