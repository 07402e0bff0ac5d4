package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer записывается в claim iss всех токенов устройств
const Issuer = "posync"

// ErrInvalidToken возвращается для неподписанных, просроченных и неполных токенов
var ErrInvalidToken = errors.New("invalid device token")

// DeviceClaims представляет JWT claims токена устройства
type DeviceClaims struct {
	StoreID  string `json:"store_id"`
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// Service выпускает и проверяет токены устройств
type Service struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// NewService creates a new JWT service.
// ttl == 0 выпускает бессрочные токены.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GenerateDeviceToken создает токен устройства магазина
func (s *Service) GenerateDeviceToken(storeID, deviceID string) (string, time.Time, error) {
	if storeID == "" || deviceID == "" {
		return "", time.Time{}, fmt.Errorf("store id and device id are required")
	}

	now := s.now()
	claims := DeviceClaims{
		StoreID:  storeID,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateDeviceToken проверяет подпись и срок действия и возвращает claims
func (s *Service) ValidateDeviceToken(tokenString string) (*DeviceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.StoreID == "" || claims.DeviceID == "" {
		return nil, fmt.Errorf("%w: missing store or device id", ErrInvalidToken)
	}

	return claims, nil
}

// ParseUnverified читает claims без проверки подписи.
// Используется клиентом, у которого нет секрета сервера.
func ParseUnverified(tokenString string) (*DeviceClaims, error) {
	claims := &DeviceClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.StoreID == "" || claims.DeviceID == "" {
		return nil, fmt.Errorf("%w: missing store or device id", ErrInvalidToken)
	}
	return claims, nil
}
