package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Totarae/ShortLinks/internal/cache"
	"github.com/Totarae/ShortLinks/internal/hashgen"
	"github.com/Totarae/ShortLinks/internal/model"
	"github.com/Totarae/ShortLinks/internal/repositories"
	"go.uber.org/zap"
)

//go:generate mockgen -source=links.go -destination=mocks/store_mock.go -package=mocks Store

// Store определяет операции хранилища, нужные сервису ссылок.
type Store interface {
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

const (
	// maxHashAttempts потолок цикла подбора хеша. Коллизии астрономически
	// редки, лимит лишь защищает от бесконечного цикла.
	maxHashAttempts = 32
	maxTitleLength  = 255
	defaultPerPage  = 10
)

// LinkService оркестрирует жизненный цикл ссылок поверх Store.
type LinkService struct {
	Repo    Store
	Cache   *cache.LinkCache
	Logger  *zap.Logger
	BaseURL string
	PerPage int
}

// CreateParams параметры создания ссылки.
type CreateParams struct {
	URL        string
	Visible    bool
	CustomHash *string
	Title      *string
	ExpiresIn  *int64 // секунды
}

func NewLinkService(repo Store, linkCache *cache.LinkCache, logger *zap.Logger, baseURL string, perPage int) *LinkService {
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return &LinkService{
		Repo:    repo,
		Cache:   linkCache,
		Logger:  logger,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		PerPage: perPage,
	}
}

// ShortURL собирает полный короткий адрес для хеша.
func (s *LinkService) ShortURL(hash string) string {
	return fmt.Sprintf("%s/%s", s.BaseURL, hash)
}

// Create создаёт новую ссылку. Пользовательский хеш берётся как есть и при
// конфликте даёт ErrAliasTaken; сгенерированный хеш перебирается до первого
// свободного, проигранная гонка на вставке считается коллизией и повторяется.
func (s *LinkService) Create(ctx context.Context, p CreateParams) (*model.Link, error) {
	normalized := strings.TrimRight(p.URL, "/")

	if err := validate(normalized, p.Title); err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if p.ExpiresIn != nil {
		t := time.Now().Add(time.Duration(*p.ExpiresIn) * time.Second)
		expiresAt = &t
	}

	newLink := func(hash string) *model.Link {
		return &model.Link{
			URL:       normalized,
			Hash:      hash,
			Visible:   p.Visible,
			Title:     p.Title,
			ExpiresAt: expiresAt,
			CreatedAt: time.Now(),
		}
	}

	if p.CustomHash != nil && *p.CustomHash != "" {
		alias := *p.CustomHash
		if _, err := s.Repo.GetByHash(ctx, alias); err == nil {
			return nil, ErrAliasTaken
		} else if !errors.Is(err, repositories.ErrLinkNotFound) {
			return nil, fmt.Errorf("alias lookup failed: %w", err)
		}

		link := newLink(alias)
		if err := s.Repo.Insert(ctx, link); err != nil {
			if errors.Is(err, repositories.ErrHashConflict) {
				// гонка между проверкой и вставкой
				return nil, ErrAliasTaken
			}
			return nil, fmt.Errorf("insert failed: %w", err)
		}
		return link, nil
	}

	for attempt := 0; attempt < maxHashAttempts; attempt++ {
		hash := hashgen.Generate(normalized)

		if _, err := s.Repo.GetByHash(ctx, hash); err == nil {
			continue // хеш занят, пробуем следующий
		} else if !errors.Is(err, repositories.ErrLinkNotFound) {
			return nil, fmt.Errorf("hash lookup failed: %w", err)
		}

		link := newLink(hash)
		err := s.Repo.Insert(ctx, link)
		if errors.Is(err, repositories.ErrHashConflict) {
			// проиграли гонку за этот хеш параллельному Create
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert failed: %w", err)
		}
		return link, nil
	}

	return nil, ErrHashExhausted
}

// validate собирает все нарушения, как и последующая ошибка — одним сообщением.
func validate(normalizedURL string, title *string) error {
	var violations []string

	if normalizedURL == "" {
		violations = append(violations, "URL cannot be empty")
	}
	if parsed, err := url.ParseRequestURI(normalizedURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		violations = append(violations, "Invalid URL")
	}
	if title != nil && len(*title) > maxTitleLength {
		violations = append(violations, "Title is too long")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// Resolve возвращает ссылку по хешу и атомарно увеличивает счётчик посещений.
// Истекшая ссылка неотличима от отсутствующей. Сбой инкремента не блокирует
// редирект: счётчик — второстепенный побочный эффект.
func (s *LinkService) Resolve(ctx context.Context, hash string) (*model.Link, error) {
	hash = strings.ToLower(hash)

	if entry, ok := s.Cache.Get(ctx, hash); ok {
		if entry.Expired() {
			return nil, ErrNotFound
		}
		link := &model.Link{ID: entry.ID, URL: entry.URL, Hash: hash, ExpiresAt: entry.ExpiresAt}
		s.incrementVisitors(ctx, link)
		return link, nil
	}

	link, err := s.Repo.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repositories.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("hash lookup failed: %w", err)
	}

	if link.Expired() {
		return nil, ErrNotFound
	}

	s.Cache.Set(ctx, hash, cache.Entry{ID: link.ID, URL: link.URL, ExpiresAt: link.ExpiresAt})
	s.incrementVisitors(ctx, link)
	return link, nil
}

func (s *LinkService) incrementVisitors(ctx context.Context, link *model.Link) {
	visitors, err := s.Repo.IncrementVisitors(ctx, link.ID)
	if err != nil {
		s.Logger.Warn("Не удалось увеличить счётчик посещений",
			zap.String("hash", link.Hash), zap.Error(err))
		return
	}
	link.Visitors = visitors
}

// Delete жёстко удаляет ссылку по идентификатору.
func (s *LinkService) Delete(ctx context.Context, id int64) error {
	link, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLinkNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup failed: %w", err)
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrLinkNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete failed: %w", err)
	}

	s.Cache.Invalidate(ctx, link.Hash)
	return nil
}

// DeleteAll очищает хранилище и кэш. Административная операция без проверок.
func (s *LinkService) DeleteAll(ctx context.Context) error {
	if err := s.Repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all failed: %w", err)
	}
	s.Cache.Purge(ctx)
	return nil
}

// Paginate возвращает страницу видимых ссылок и номер следующей страницы.
// Страницы за пределами данных — пустой результат без ошибки; ошибки
// хранилища всегда пробрасываются, частичные данные молча не отдаются.
func (s *LinkService) Paginate(ctx context.Context, page, perPage int) ([]*model.Link, *int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = s.PerPage
	}

	offset := (page - 1) * perPage
	links, err := s.Repo.ListVisible(ctx, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list failed: %w", err)
	}

	total, err := s.Repo.CountVisible(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("count failed: %w", err)
	}

	var nextPage *int
	if int64(page)*int64(perPage) < total {
		next := page + 1
		nextPage = &next
	}

	return links, nextPage, nil
}

// Ping проверяет доступность хранилища.
func (s *LinkService) Ping(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}
