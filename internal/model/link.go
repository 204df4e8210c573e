package model

import "time"

// Link представляет запись сокращённой ссылки в таблице links.
type Link struct {
	ID        int64      `json:"id"`
	URL       string     `json:"url"`
	Hash      string     `json:"hash"`
	Visible   bool       `json:"visible"`
	Visitors  int64      `json:"visitors"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Title     *string    `json:"title,omitempty"`
}

// Expired сообщает, истёк ли срок действия ссылки.
// Просроченная запись остаётся в базе, но не должна обслуживаться.
func (l *Link) Expired() bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(time.Now())
}
