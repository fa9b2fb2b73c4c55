package response

import (
	"net/http"

	apperrors "github.com/beanhook/pkg/errors"
	"github.com/gofiber/fiber/v2"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// 响应码定义
const (
	CodeSuccess     = 0
	CodeError       = 1
	CodeNotFound    = 404
	CodeServerError = 500
)

// 响应消息定义
const (
	MsgSuccess     = "success"
	MsgNotFound    = "not found"
	MsgServerError = "server error"
)

// Success 成功响应
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(http.StatusOK).JSON(Response{
		Code:    CodeSuccess,
		Message: MsgSuccess,
		Data:    data,
	})
}

// BadRequest 请求错误
func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(Response{
		Code:    CodeError,
		Message: message,
	})
}

// NotFound 未找到
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = MsgNotFound
	}
	return c.Status(http.StatusNotFound).JSON(Response{
		Code:    CodeNotFound,
		Message: message,
	})
}

// Unauthorized 未授权
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, apperrors.Derive(apperrors.ErrUnauthorized, message, nil))
}

// Error 按业务错误码响应，未知错误返回 500
func Error(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case apperrors.Is(err, apperrors.ErrBeanNotFound):
		status = http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrReplayRejected), apperrors.Is(err, apperrors.ErrUnknownArgType):
		status = http.StatusUnprocessableEntity
	case apperrors.Is(err, apperrors.ErrContainerClosed):
		status = http.StatusServiceUnavailable
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case apperrors.GetCode(err) == apperrors.CodeReplayFailed:
		status = http.StatusBadGateway
	}
	return c.Status(status).JSON(Response{
		Code:    apperrors.GetCode(err),
		Message: apperrors.GetMessage(err),
	})
}
