package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify the end user on whose behalf a request is made.
type Claims struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret    []byte
	adminRole string
}

func NewJWTService(secret, adminRole string) *JWTService {
	return &JWTService{secret: []byte(secret), adminRole: adminRole}
}

// Generate issues an HS256 token. Used by tooling and tests; the portal
// issues tokens in production.
func (s *JWTService) Generate(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(claims.UserID, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// User maps validated claims onto the payments view of a user.
func (s *JWTService) User(claims *Claims) *entity.User {
	return &entity.User{
		ID:          claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.Name,
		IsAdmin:     s.adminRole != "" && claims.Role == s.adminRole,
	}
}
