package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/beanhook/pkg/auth"
	apperrors "github.com/beanhook/pkg/errors"
	"github.com/beanhook/pkg/logger"
	"github.com/beanhook/pkg/response"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recovery 恢复中间件
func Recovery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
				)
				cause := fmt.Errorf("%v", err)
				_ = response.Error(c, apperrors.Wrap(cause, apperrors.CodeInternal, "panic: "+cause.Error()))
			}
		}()
		return c.Next()
	}
}

// JWTAuth JWT认证中间件，jwtManager 为 nil 时直接放行
func JWTAuth(jwtManager *auth.JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if jwtManager == nil {
			return c.Next()
		}

		// 从Header获取token
		token := c.Get("Authorization")
		if token == "" {
			// 尝试从query参数获取
			token = c.Query("token")
		}
		if token == "" {
			return response.Unauthorized(c, "未提供认证令牌")
		}

		// 去除Bearer前缀
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtManager.ParseToken(token)
		if err != nil {
			return response.Unauthorized(c, "无效的认证令牌")
		}

		c.Locals("subject", claims.Subject)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// RequestID 请求ID中间件
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals("requestId", requestID)
		c.Set("X-Request-ID", requestID)
		return c.Next()
	}
}

// AccessLog 访问日志中间件
func AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}
		if id, ok := c.Locals("requestId").(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}
		if err != nil {
			logger.Warn("请求处理失败", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("请求完成", fields...)
		}
		return err
	}
}

// ErrorHandler 统一错误处理中间件
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			var fe *fiber.Error
			if apperrors.As(err, &fe) {
				return c.Status(fe.Code).JSON(response.Response{
					Code:    fe.Code,
					Message: fe.Message,
				})
			}
			return response.Error(c, err)
		}
		return nil
	}
}
