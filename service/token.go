package service

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

// Token is the JSON shape returned by signup and login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenService issues and verifies the stateless bearer tokens. Validity is
// solely a function of signature and expiry; there is no revocation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// CreateToken signs a token carrying the username as subject.
func (t *TokenService) CreateToken(username string) (*Token, error) {
	claims := jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(t.ttl).Unix(),
	}

	at := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := at.SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Token{AccessToken: signed, TokenType: "bearer"}, nil
}

// ExtractToken pulls the bearer token out of the Authorization header.
func (t *TokenService) ExtractToken(r *http.Request) string {
	bearToken := r.Header.Get("Authorization")
	strArr := strings.Split(bearToken, " ")
	if len(strArr) == 2 && strings.EqualFold(strArr[0], "Bearer") {
		return strArr[1]
	}
	return ""
}

// VerifyToken fails closed: a bad signature, a wrong algorithm, a missing
// subject or an expired token all come back as the same error.
func (t *TokenService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", fmt.Errorf("invalid token: missing subject")
	}
	return subject, nil
}
