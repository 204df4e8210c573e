package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Totarae/ShortLinks/internal/auth"
	"github.com/Totarae/ShortLinks/internal/handlers"
	"github.com/Totarae/ShortLinks/internal/model"
	"github.com/Totarae/ShortLinks/internal/repositories"
	"github.com/Totarae/ShortLinks/internal/router"
	"github.com/Totarae/ShortLinks/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testBaseURL    = "http://localhost:8080"
	testAdminToken = "test-admin-token"
)

// fakeStore — хранилище в памяти для сквозных тестов HTTP-слоя.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	links  map[int64]*model.Link
}

func newFakeStore() *fakeStore {
	return &fakeStore{links: make(map[int64]*model.Link)}
}

func (f *fakeStore) Insert(_ context.Context, link *model.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.Hash == link.Hash {
			return repositories.ErrHashConflict
		}
	}
	f.nextID++
	link.ID = f.nextID
	cp := *link
	f.links[link.ID] = &cp
	return nil
}

func (f *fakeStore) GetByHash(_ context.Context, hash string) (*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.Hash == hash {
			cp := *l
			return &cp, nil
		}
	}
	return nil, repositories.ErrLinkNotFound
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[id]
	if !ok {
		return nil, repositories.ErrLinkNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) IncrementVisitors(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[id]
	if !ok {
		return 0, repositories.ErrLinkNotFound
	}
	l.Visitors++
	return l.Visitors, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.links[id]; !ok {
		return repositories.ErrLinkNotFound
	}
	delete(f.links, id)
	return nil
}

func (f *fakeStore) DeleteAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links = make(map[int64]*model.Link)
	return nil
}

func (f *fakeStore) ListVisible(_ context.Context, limit, offset int) ([]*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var visible []*model.Link
	for _, l := range f.links {
		if l.Visible {
			cp := *l
			visible = append(visible, &cp)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		if !visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].CreatedAt.After(visible[j].CreatedAt)
		}
		return visible[i].ID > visible[j].ID
	})
	if offset >= len(visible) {
		return nil, nil
	}
	end := offset + limit
	if end > len(visible) {
		end = len(visible)
	}
	return visible[offset:end], nil
}

func (f *fakeStore) CountVisible(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, l := range f.links {
		if l.Visible {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

// expire переводит ссылку в истёкшее состояние прямо в хранилище.
func (f *fakeStore) expire(hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	past := time.Now().Add(-time.Minute)
	for _, l := range f.links {
		if l.Hash == hash {
			l.ExpiresAt = &past
		}
	}
}

func newTestRouter(store *fakeStore) http.Handler {
	logger := zap.NewNop()
	svc := service.NewLinkService(store, nil, logger, testBaseURL, 10)
	handler := handlers.NewHandler(svc, logger)
	return router.NewRouter(handler, auth.New(testAdminToken), logger)
}

func doRequest(t *testing.T, h http.Handler, method, target string, body string, headers map[string]string) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

func createLink(t *testing.T, h http.Handler, body string) model.LinkResponse {
	t.Helper()
	resp := doRequest(t, h, http.MethodPost, "/api/links", body, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result model.LinkResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

// Сквозной сценарий: создание, редирект и рост счётчика посещений
func TestCreateAndRedirectScenario(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	created := createLink(t, r, `{"url": "https://example.com/", "visible": true}`)

	hash := strings.TrimPrefix(created.ShortURL, testBaseURL+"/")
	assert.Len(t, hash, 8)
	assert.Zero(t, created.Visitors)

	// первый переход
	resp := doRequest(t, r, http.MethodGet, "/"+hash, "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "https://example.com", resp.Header.Get("Location"))

	// второй переход
	resp = doRequest(t, r, http.MethodGet, "/"+hash, "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	stored, err := store.GetByHash(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Visitors)
}

func TestCreateLink_EmptyURL(t *testing.T) {
	r := newTestRouter(newFakeStore())

	resp := doRequest(t, r, http.MethodPost, "/api/links", `{"url": "", "visible": true}`, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var result model.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Contains(t, result.Error, "URL cannot be empty")
}

func TestCreateLink_InvalidJSON(t *testing.T) {
	r := newTestRouter(newFakeStore())

	resp := doRequest(t, r, http.MethodPost, "/api/links", `{"url": `, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateLink_CustomHashTaken(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	createLink(t, r, `{"url": "https://first.example.com", "visible": true, "custom_hash": "promo1"}`)

	resp := doRequest(t, r, http.MethodPost, "/api/links",
		`{"url": "https://second.example.com", "visible": true, "custom_hash": "promo1"}`, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// существующая запись не тронута
	existing, err := store.GetByHash(context.Background(), "promo1")
	require.NoError(t, err)
	assert.Equal(t, "https://first.example.com", existing.URL)
}

func TestRedirect_NotFound(t *testing.T) {
	r := newTestRouter(newFakeStore())

	resp := doRequest(t, r, http.MethodGet, "/nonexistent", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRedirect_Expired(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	created := createLink(t, r, `{"url": "https://example.com", "visible": true}`)
	hash := strings.TrimPrefix(created.ShortURL, testBaseURL+"/")

	store.expire(hash)

	resp := doRequest(t, r, http.MethodGet, "/"+hash, "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListLinks(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	for i := 0; i < 25; i++ {
		createLink(t, r, fmt.Sprintf(`{"url": "https://example.com/%d", "visible": true}`, i))
	}

	resp := doRequest(t, r, http.MethodGet, "/api/links?page=1&per_page=10", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page1 model.ListLinksResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page1))
	assert.Len(t, page1.Links, 10)
	require.NotNil(t, page1.NextPage)
	assert.Equal(t, 2, *page1.NextPage)
	// новые записи идут первыми
	assert.Equal(t, int64(25), page1.Links[0].ID)

	resp = doRequest(t, r, http.MethodGet, "/api/links?page=3&per_page=10", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page3 model.ListLinksResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page3))
	assert.Len(t, page3.Links, 5)
	assert.Nil(t, page3.NextPage)
}

func TestListLinks_InvalidParams(t *testing.T) {
	r := newTestRouter(newFakeStore())

	for _, target := range []string{
		"/api/links?page=abc",
		"/api/links?per_page=xyz",
		"/api/links?page=0",
		"/api/links?page=-1",
	} {
		resp := doRequest(t, r, http.MethodGet, target, "", nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "target %s", target)
	}
}

func TestDeleteLink(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	created := createLink(t, r, `{"url": "https://example.com", "visible": true}`)
	target := fmt.Sprintf("/api/links/%d", created.ID)
	adminHeaders := map[string]string{"X-Admin-Token": testAdminToken}

	// без токена — отказ
	resp := doRequest(t, r, http.MethodDelete, target, "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// с неверным токеном — отказ
	resp = doRequest(t, r, http.MethodDelete, target, "", map[string]string{"X-Admin-Token": "guess"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// с токеном — удаление
	resp = doRequest(t, r, http.MethodDelete, target, "", adminHeaders)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// повторное удаление — 404
	resp = doRequest(t, r, http.MethodDelete, target, "", adminHeaders)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteAllLinks(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	createLink(t, r, `{"url": "https://example.com", "visible": true}`)

	resp := doRequest(t, r, http.MethodDelete, "/api/links", "", map[string]string{"X-Admin-Token": testAdminToken})
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	count, err := store.CountVisible(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPing(t *testing.T) {
	r := newTestRouter(newFakeStore())

	resp := doRequest(t, r, http.MethodGet, "/ping", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
