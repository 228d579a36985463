package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/notebase/internal/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityKey = "identity"

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
}

// requestLogger пишет по одной записи на запрос
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  "INTERNAL_ERROR",
		})
	})
}

// requireAuth проверяет bearer-токен; без валидного токена запрос отклоняется
func requireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := authenticate(c, verifier)
		if err != nil {
			writeError(c, err, nil)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// optionalAuth пропускает анонимные запросы, но отклоняет невалидный токен
func optionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		identity, err := authenticate(c, verifier)
		if err != nil {
			writeError(c, err, nil)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func authenticate(c *gin.Context, verifier TokenVerifier) (auth.Identity, error) {
	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return auth.Identity{}, err
	}
	return verifier.Verify(c.Request.Context(), token)
}

// identityFrom возвращает пользователя запроса; ok=false для анонимного
func identityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}
