package common

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var (
	DefaultSigningKey = "change me"

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type JWT struct {
	SigningKey []byte
}

func NewJWT(key string) *JWT {
	return &JWT{
		[]byte(GetStringwithDefault(key, DefaultSigningKey)),
	}
}

type CustomClaims struct {
	jwt.StandardClaims
	Name     string `json:"name"`
	Role     string `json:"role"`
	ClientIP string `json:"clientIp"`
}

func (j *JWT) CreateToken(claims CustomClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.SigningKey)
}

// ParserToken returns ErrTokenExpired or ErrTokenInvalid on failure.
func (j *JWT) ParserToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return j.SigningKey, nil
	})

	if verr, ok := err.(*jwt.ValidationError); ok {
		if verr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrTokenInvalid
}
