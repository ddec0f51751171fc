package utils

import (
	"errors"
	"time"

	"expertmeet/config"

	"github.com/golang-jwt/jwt"
)

const devSecret = "expertmeet-dev-secret"

// Claims is the token payload issued by the external auth provider.
type Claims struct {
	Role        string `json:"role"`
	DisplayName string `json:"name,omitempty"`
	jwt.StandardClaims
}

func secretKey() []byte {
	if s := config.AppConfig.JWTSecret; s != "" {
		return []byte(s)
	}
	return []byte(devSecret)
}

// GenerateToken creates a signed JWT for subject with the given role.
// The token expires after the specified duration.
func GenerateToken(subject, role, displayName string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:        role,
		DisplayName: displayName,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ParseToken validates tokenString and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token does not contain a valid 'sub' claim")
	}
	return claims, nil
}
