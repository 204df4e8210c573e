package service

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound неизвестный хеш или идентификатор, либо ссылка истекла.
	ErrNotFound = errors.New("link not found")
	// ErrAliasTaken пользовательский хеш уже занят.
	ErrAliasTaken = errors.New("custom hash is already in use")
	// ErrHashExhausted исчерпан лимит попыток подбора уникального хеша.
	ErrHashExhausted = errors.New("could not generate a unique hash")
)

// ValidationError собирает все нарушения проверки в одно сообщение,
// не останавливаясь на первом.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, ", ")
}
