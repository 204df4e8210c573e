package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Totarae/ShortLinks/internal/model"
	"github.com/Totarae/ShortLinks/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler — тонкий HTTP-слой над сервисом ссылок. Вся логика живёт в service,
// здесь только разбор запросов и сериализация ответов.
type Handler struct {
	Service *service.LinkService
	Logger  *zap.Logger
}

func NewHandler(svc *service.LinkService, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, Logger: logger}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("Не удалось сериализовать ответ", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.ErrorResponse{Error: message})
}

func (h *Handler) linkResponse(link *model.Link) model.LinkResponse {
	return model.LinkResponse{
		ID:        link.ID,
		ShortURL:  h.Service.ShortURL(link.Hash),
		Visible:   link.Visible,
		Visitors:  link.Visitors,
		ExpiresAt: link.ExpiresAt,
		Title:     link.Title,
	}
}

// CreateLink обрабатывает POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req model.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Bad request")
		return
	}

	link, err := h.Service.Create(r.Context(), service.CreateParams{
		URL:        req.URL,
		Visible:    req.Visible,
		CustomHash: req.CustomHash,
		Title:      req.Title,
		ExpiresIn:  req.ExpiresIn,
	})
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			h.writeError(w, http.StatusUnprocessableEntity, vErr.Error())
		case errors.Is(err, service.ErrAliasTaken):
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.Logger.Error("Не удалось создать ссылку", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, h.linkResponse(link))
}

// Redirect обрабатывает GET /{hash}: переход по короткой ссылке.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if hash == "" {
		h.writeError(w, http.StatusBadRequest, "Bad request")
		return
	}

	link, err := h.Service.Resolve(r.Context(), hash)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.Logger.Error("Не удалось разрешить хеш", zap.String("hash", hash), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Location", link.URL)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// ListLinks обрабатывает GET /api/links?page=&per_page=.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	page, ok := h.queryInt(w, r, "page", 1)
	if !ok {
		return
	}
	perPage, ok := h.queryInt(w, r, "per_page", 0) // 0 — сервис подставит дефолт
	if !ok {
		return
	}

	links, nextPage, err := h.Service.Paginate(r.Context(), page, perPage)
	if err != nil {
		h.Logger.Error("Не удалось получить листинг", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := model.ListLinksResponse{
		Links:    make([]model.LinkResponse, 0, len(links)),
		NextPage: nextPage,
	}
	for _, link := range links {
		resp.Links = append(resp.Links, h.linkResponse(link))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// queryInt разбирает положительный числовой query-параметр.
// Нечисловое значение — ошибка клиента, а не пустой результат.
func (h *Handler) queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		h.writeError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return value, true
}

// DeleteLink обрабатывает DELETE /api/links/{id}. Авторизацию обеспечивает
// middleware, сюда запрос приходит уже проверенным.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.Logger.Error("Не удалось удалить ссылку", zap.Int64("id", id), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllLinks обрабатывает DELETE /api/links: полная очистка хранилища.
func (h *Handler) DeleteAllLinks(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteAll(r.Context()); err != nil {
		h.Logger.Error("Не удалось очистить хранилище", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Ping обрабатывает GET /ping: проверка доступности хранилища.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Ping(r.Context()); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Storage unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
}
