// Package jwt реализует Token Service: выпуск и проверку подписанных
// сессионных токенов с user_id, email и ролью.
//
// Токены не хранят состояния и не отзываются. Смена роли (оплата,
// действие администратора) не отражается в уже выданных токенах: клиент
// увидит новую роль только после повторного входа или запроса профиля,
// который выпускает свежий токен. Это принятое окно устаревания.
package jwt

import (
	"errors"
	"time"

	"github.com/fairwaylab/swingcoach/internal/models"
)

// DefaultTTL — срок жизни токена по умолчанию.
const DefaultTTL = 7 * 24 * time.Hour

// ErrInvalidToken оборачивает любую ошибку разбора или проверки токена.
var ErrInvalidToken = errors.New("invalid token")

// Maker описывает интерфейс для выпуска и разбора токенов.
type Maker interface {
	// GenerateToken выпускает токен для пользователя с указанной ролью.
	GenerateToken(userID, email string, role models.Role) (string, error)
	// ParseToken проверяет подпись и срок действия и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HS256 общим секретом процесса.
type MakerImpl struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт MakerImpl. Нулевой ttl заменяется на DefaultTTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}
