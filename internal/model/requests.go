package model

import "time"

// CreateLinkRequest представляет структуру запроса на создание ссылки.
type CreateLinkRequest struct {
	URL        string  `json:"url"`
	Visible    bool    `json:"visible"`
	CustomHash *string `json:"custom_hash,omitempty"`
	Title      *string `json:"title,omitempty"`
	ExpiresIn  *int64  `json:"expires_in,omitempty"` // секунды
}

// LinkResponse представляет публичное представление ссылки.
type LinkResponse struct {
	ID        int64      `json:"id"`
	ShortURL  string     `json:"short_url"`
	Visible   bool       `json:"visible"`
	Visitors  int64      `json:"visitors"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Title     *string    `json:"title,omitempty"`
}

// ListLinksResponse представляет страницу публичного листинга.
// NextPage равен null, когда дальше данных нет.
type ListLinksResponse struct {
	Links    []LinkResponse `json:"links"`
	NextPage *int           `json:"next_page"`
}

// ErrorResponse представляет тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
