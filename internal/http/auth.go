package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"organico/internal/domain"
	"organico/internal/storefront"
)

const ctxClientKey = "client_id"

var errInvalidToken = errors.New("invalid token")

// ClientTokens подписывает и проверяет токены клиентов (HS256)
type ClientTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewClientTokens(secret string, ttl time.Duration) *ClientTokens {
	return &ClientTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue новый клиент и его токен
func (t *ClientTokens) Issue() (domain.ClientID, string, error) {
	id := domain.ClientID(uuid.NewString())
	now := t.now()
	claims := jwt.MapClaims{
		"client_id": string(id),
		"iat":       now.Unix(),
	}
	if t.ttl > 0 {
		claims["exp"] = now.Add(t.ttl).Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign client token: %w", err)
	}
	return id, signed, nil
}

func (t *ClientTokens) Parse(tokenStr string) (domain.ClientID, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}
	id, _ := claims["client_id"].(string)
	if id == "" {
		return "", errInvalidToken
	}
	return domain.ClientID(id), nil
}

// clientAuth проверяет "Authorization: Bearer <token>" и кладёт id клиента в контекст
func (s *Server) clientAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		id, err := s.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxClientKey, id)
		c.Next()
	}
}

// adminOnly пропускает только клиентов, чья текущая сессия администраторская
func (s *Server) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.workspace(c).Session(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": storefront.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

func (s *Server) workspace(c *gin.Context) *storefront.Workspace {
	id := c.MustGet(ctxClientKey).(domain.ClientID)
	return s.hub.Workspace(id)
}
