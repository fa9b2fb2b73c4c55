package errors

import (
	"errors"
	"fmt"
)

// 错误码
const (
	CodeBeanNotFound    = 404
	CodeDuplicateBean   = 409
	CodeBeanCreation    = 500
	CodeContainerClosed = 410
	CodeContainerState  = 412
	CodeUnknownArgType  = 415
	CodeReplayRejected  = 403
	CodeReplayFailed    = 502
	CodeUnauthorized    = 401
	CodeInternal        = 500
)

// 预定义错误
var (
	ErrBeanNotFound     = New(CodeBeanNotFound, "bean 不存在")
	ErrDuplicateBean    = New(CodeDuplicateBean, "bean 名称重复")
	ErrBeanCreation     = New(CodeBeanCreation, "bean 创建失败")
	ErrContainerClosed  = New(CodeContainerClosed, "容器已关闭")
	ErrContainerStarted = New(CodeContainerState, "容器已启动")
	ErrUnknownArgType   = New(CodeUnknownArgType, "未知的参数类型")
	ErrReplayRejected   = New(CodeReplayRejected, "命令不允许回放")
	ErrUnauthorized     = New(CodeUnauthorized, "未授权")
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`

	// sentinel 指向派生出该错误的预定义错误，用于 errors.Is
	sentinel *AppError
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 解包错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 派生错误与其预定义错误视为相同
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e == t || (e.sentinel != nil && e.sentinel == t)
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Derive 基于预定义错误生成带上下文的新错误，errors.Is(err, sentinel) 仍成立
func Derive(sentinel *AppError, detail string, cause error) *AppError {
	msg := sentinel.Message
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", sentinel.Message, detail)
	}
	return &AppError{
		Code:     sentinel.Code,
		Message:  msg,
		Err:      cause,
		sentinel: sentinel,
	}
}

// BeanNotFound 创建 bean 未找到错误
func BeanNotFound(name string) *AppError {
	return Derive(ErrBeanNotFound, name, nil)
}

// DuplicateBean 创建 bean 重名错误
func DuplicateBean(name string) *AppError {
	return Derive(ErrDuplicateBean, name, nil)
}

// BeanCreation 创建 bean 构建失败错误
func BeanCreation(name string, cause error) *AppError {
	return Derive(ErrBeanCreation, name, cause)
}

// Is 检查是否为指定错误
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As 类型转换错误
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode 获取错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
