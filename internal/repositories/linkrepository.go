package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Totarae/ShortLinks/internal/database"
	"github.com/Totarae/ShortLinks/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrLinkNotFound запись отсутствует. Отличается от прочих ошибок БД.
	ErrLinkNotFound = errors.New("link not found")
	// ErrHashConflict нарушение уникальности hash (SQLSTATE 23505).
	// Для сгенерированного хеша это проигранная гонка, а не фатальная ошибка.
	ErrHashConflict = errors.New("hash already exists")
)

const uniqueViolationCode = "23505"

// LinkRepositoryInterface определяет методы репозитория ссылок.
type LinkRepositoryInterface interface {
	Insert(ctx context.Context, link *model.Link) error
	GetByHash(ctx context.Context, hash string) (*model.Link, error)
	GetByID(ctx context.Context, id int64) (*model.Link, error)
	IncrementVisitors(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	ListVisible(ctx context.Context, limit, offset int) ([]*model.Link, error)
	CountVisible(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// LinkRepository реализует LinkRepositoryInterface с использованием PostgreSQL.
type LinkRepository struct {
	DB *database.DB
}

// NewLinkRepository создаёт новый экземпляр LinkRepository.
func NewLinkRepository(db *database.DB) *LinkRepository {
	return &LinkRepository{DB: db}
}

// Insert сохраняет ссылку в базу данных и заполняет ID записи.
// Уникальность hash гарантирует ограничение в схеме, а не проверка в коде.
func (r *LinkRepository) Insert(ctx context.Context, link *model.Link) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	query := `INSERT INTO links (url, hash, visible, visitors, created_at, expires_at, title)
              VALUES ($1, $2, $3, 0, $4, $5, $6)
              RETURNING id`

	err := r.DB.Pool.QueryRow(ctx, query,
		link.URL, link.Hash, link.Visible, link.CreatedAt, link.ExpiresAt, link.Title,
	).Scan(&link.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrHashConflict
		}
		return fmt.Errorf("database insert error: %w", err)
	}
	return nil
}

// GetByHash извлекает ссылку по её хешу.
func (r *LinkRepository) GetByHash(ctx context.Context, hash string) (*model.Link, error) {
	query := `SELECT id, url, hash, visible, visitors, created_at, expires_at, title
              FROM links WHERE hash = $1`
	return r.scanLink(r.DB.Pool.QueryRow(ctx, query, hash))
}

// GetByID извлекает ссылку по идентификатору.
func (r *LinkRepository) GetByID(ctx context.Context, id int64) (*model.Link, error) {
	query := `SELECT id, url, hash, visible, visitors, created_at, expires_at, title
              FROM links WHERE id = $1`
	return r.scanLink(r.DB.Pool.QueryRow(ctx, query, id))
}

func (r *LinkRepository) scanLink(row pgx.Row) (*model.Link, error) {
	link := &model.Link{}
	err := row.Scan(
		&link.ID, &link.URL, &link.Hash, &link.Visible, &link.Visitors,
		&link.CreatedAt, &link.ExpiresAt, &link.Title,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return link, nil
}

// IncrementVisitors атомарно увеличивает счётчик посещений.
// Инкремент выполняется одним UPDATE на стороне БД: read-modify-write в коде
// терял бы обновления при параллельных переходах по одной ссылке.
func (r *LinkRepository) IncrementVisitors(ctx context.Context, id int64) (int64, error) {
	var visitors int64
	query := `UPDATE links SET visitors = visitors + 1 WHERE id = $1 RETURNING visitors`
	err := r.DB.Pool.QueryRow(ctx, query, id).Scan(&visitors)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrLinkNotFound
		}
		return 0, fmt.Errorf("database update error: %w", err)
	}
	return visitors, nil
}

// Delete удаляет ссылку по идентификатору.
func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("database delete error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// DeleteAll очищает таблицу целиком. Используется для сброса фикстур.
func (r *LinkRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.DB.Pool.Exec(ctx, `DELETE FROM links`); err != nil {
		return fmt.Errorf("database delete error: %w", err)
	}
	return nil
}

// ListVisible возвращает окно публичного листинга.
// Порядок created_at DESC, id DESC стабилен и тотален, поэтому страницы
// детерминированы даже при совпадающих created_at.
func (r *LinkRepository) ListVisible(ctx context.Context, limit, offset int) ([]*model.Link, error) {
	query := `SELECT id, url, hash, visible, visitors, created_at, expires_at, title
              FROM links
              WHERE visible = TRUE
              ORDER BY created_at DESC, id DESC
              LIMIT $1 OFFSET $2`

	rows, err := r.DB.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	var results []*model.Link
	for rows.Next() {
		link := &model.Link{}
		err := rows.Scan(
			&link.ID, &link.URL, &link.Hash, &link.Visible, &link.Visitors,
			&link.CreatedAt, &link.ExpiresAt, &link.Title,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return results, nil
}

// CountVisible возвращает общее число видимых ссылок.
func (r *LinkRepository) CountVisible(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM links WHERE visible = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("database query error: %w", err)
	}
	return count, nil
}

// Ping проверяет доступность базы данных.
func (r *LinkRepository) Ping(ctx context.Context) error {
	return r.DB.Ping(ctx)
}
