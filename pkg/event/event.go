package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/beanhook/pkg/interceptor"
	"github.com/google/uuid"
)

// CommandEvent 一次 Redis 命令调用的可序列化描述，可在其他节点上回放
type CommandEvent struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	InterfaceName  string    `json:"interfaceName"`
	MethodName     string    `json:"methodName"`
	ParameterTypes []string  `json:"parameterTypes"`
	Args           [][]byte  `json:"args"`
	SourceBeanName string    `json:"sourceBeanName"`
	DurationNanos  int64     `json:"durationNanos"`
}

// New 创建事件，args 按 EncodeArg 编码
func New(interfaceName, methodName, source string, args ...any) (*CommandEvent, error) {
	if source == "" {
		source = interceptor.NoSourceBeanName
	}
	e := &CommandEvent{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC().Round(0),
		InterfaceName:  interfaceName,
		MethodName:     methodName,
		ParameterTypes: make([]string, 0, len(args)),
		Args:           make([][]byte, 0, len(args)),
		SourceBeanName: source,
		DurationNanos:  -1,
	}
	for i, arg := range args {
		typ, data, err := EncodeArg(arg)
		if err != nil {
			return nil, fmt.Errorf("encode arg %d of %s: %w", i, methodName, err)
		}
		e.ParameterTypes = append(e.ParameterTypes, typ)
		e.Args = append(e.Args, data)
	}
	return e, nil
}

// FromMethodContext 根据拦截上下文创建事件
func FromMethodContext(mc *interceptor.MethodContext) (*CommandEvent, error) {
	e, err := New(mc.Method.Interface, mc.Method.Name, mc.SourceBeanName, mc.Args...)
	if err != nil {
		return nil, err
	}
	e.DurationNanos = mc.DurationNanos()
	return e, nil
}

// Method 事件对应的方法
func (e *CommandEvent) Method() interceptor.Method {
	return interceptor.Method{Interface: e.InterfaceName, Name: e.MethodName}
}

// DecodeArgs 还原参数
func (e *CommandEvent) DecodeArgs() ([]any, error) {
	if len(e.ParameterTypes) != len(e.Args) {
		return nil, fmt.Errorf("event %s: %d parameter types for %d args", e.ID, len(e.ParameterTypes), len(e.Args))
	}
	args := make([]any, len(e.Args))
	for i := range e.Args {
		v, err := DecodeArg(e.ParameterTypes[i], e.Args[i])
		if err != nil {
			return nil, fmt.Errorf("decode arg %d of %s: %w", i, e.MethodName, err)
		}
		args[i] = v
	}
	return args, nil
}

// CommandArgs 命令名 + 参数，可直接交给 client.Do
func (e *CommandEvent) CommandArgs() ([]any, error) {
	args, err := e.DecodeArgs()
	if err != nil {
		return nil, err
	}
	return append([]any{e.MethodName}, args...), nil
}

// Equal 比较两个事件的内容
func (e *CommandEvent) Equal(o *CommandEvent) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.ID == o.ID &&
		e.Timestamp.Equal(o.Timestamp) &&
		e.InterfaceName == o.InterfaceName &&
		e.MethodName == o.MethodName &&
		slices.Equal(e.ParameterTypes, o.ParameterTypes) &&
		slices.EqualFunc(e.Args, o.Args, bytes.Equal) &&
		e.SourceBeanName == o.SourceBeanName &&
		e.DurationNanos == o.DurationNanos
}

// Marshal 序列化
func Marshal(e *CommandEvent) ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal 反序列化
func Unmarshal(data []byte) (*CommandEvent, error) {
	var e CommandEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
