package hashgen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const (
	// Length длина публичного хеша.
	Length = 8
	// fudgeSize байты случайной добавки, подмешиваемой при каждом вызове.
	fudgeSize = 6
)

// Generate создаёт короткий идентификатор для ссылки.
// К URL подмешивается свежая случайная добавка, поэтому повторные вызовы
// с одним и тем же URL дают разные хеши. Результат — первые 8 символов
// base64url-кодирования (без паддинга), приведённые к нижнему регистру.
func Generate(originalURL string) string {
	fudge := make([]byte, fudgeSize)
	_, _ = rand.Read(fudge) // crypto/rand.Read не возвращает ошибку

	sum := sha256.Sum256(append(fudge, originalURL...))
	encoded := base64.RawURLEncoding.EncodeToString(sum[:16])
	return strings.ToLower(encoded[:Length])
}
