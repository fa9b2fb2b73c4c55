package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKeepsSentinelIdentity(t *testing.T) {
	err := BeanNotFound("redisClient")

	assert.True(t, Is(err, ErrBeanNotFound))
	assert.False(t, Is(err, ErrDuplicateBean))
	assert.Equal(t, CodeBeanNotFound, GetCode(err))
	assert.Equal(t, "bean 不存在: redisClient", GetMessage(err))
}

func TestBeanCreationUnwrapsCause(t *testing.T) {
	err := fmt.Errorf("refresh: %w", BeanCreation("svc", io.EOF))

	assert.True(t, Is(err, ErrBeanCreation))
	assert.True(t, Is(err, io.EOF))
	assert.Equal(t, CodeBeanCreation, GetCode(err))
}

func TestPlainErrors(t *testing.T) {
	assert.Equal(t, CodeInternal, GetCode(io.EOF))
	assert.Equal(t, "EOF", GetMessage(io.EOF))
	assert.Equal(t, "[410] 容器已关闭", ErrContainerClosed.Error())
}
