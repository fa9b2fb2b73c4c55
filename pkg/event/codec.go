package event

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/beanhook/pkg/errors"
)

// 参数类型名
const (
	TypeNil      = "nil"
	TypeString   = "string"
	TypeBytes    = "[]byte"
	TypeInt      = "int"
	TypeInt8     = "int8"
	TypeInt16    = "int16"
	TypeInt32    = "int32"
	TypeInt64    = "int64"
	TypeUint     = "uint"
	TypeUint8    = "uint8"
	TypeUint16   = "uint16"
	TypeUint32   = "uint32"
	TypeUint64   = "uint64"
	TypeFloat32  = "float32"
	TypeFloat64  = "float64"
	TypeBool     = "bool"
	TypeDuration = "time.Duration"
	TypeTime     = "time.Time"
	TypeBinary   = "binary"
	TypeJSON     = "json"
)

// EncodeArg 把命令参数编码成类型名 + 字节，编码方式与 Redis 协议写参数时一致
func EncodeArg(v any) (string, []byte, error) {
	switch x := v.(type) {
	case nil:
		return TypeNil, []byte{}, nil
	case string:
		return TypeString, []byte(x), nil
	case []byte:
		return TypeBytes, append([]byte{}, x...), nil
	case int:
		return TypeInt, strconv.AppendInt(nil, int64(x), 10), nil
	case int8:
		return TypeInt8, strconv.AppendInt(nil, int64(x), 10), nil
	case int16:
		return TypeInt16, strconv.AppendInt(nil, int64(x), 10), nil
	case int32:
		return TypeInt32, strconv.AppendInt(nil, int64(x), 10), nil
	case int64:
		return TypeInt64, strconv.AppendInt(nil, x, 10), nil
	case uint:
		return TypeUint, strconv.AppendUint(nil, uint64(x), 10), nil
	case uint8:
		return TypeUint8, strconv.AppendUint(nil, uint64(x), 10), nil
	case uint16:
		return TypeUint16, strconv.AppendUint(nil, uint64(x), 10), nil
	case uint32:
		return TypeUint32, strconv.AppendUint(nil, uint64(x), 10), nil
	case uint64:
		return TypeUint64, strconv.AppendUint(nil, x, 10), nil
	case float32:
		return TypeFloat32, strconv.AppendFloat(nil, float64(x), 'f', -1, 32), nil
	case float64:
		return TypeFloat64, strconv.AppendFloat(nil, x, 'f', -1, 64), nil
	case bool:
		if x {
			return TypeBool, []byte("1"), nil
		}
		return TypeBool, []byte("0"), nil
	case time.Duration:
		return TypeDuration, strconv.AppendInt(nil, int64(x), 10), nil
	case time.Time:
		return TypeTime, x.AppendFormat(nil, time.RFC3339Nano), nil
	case encoding.BinaryMarshaler:
		b, err := x.MarshalBinary()
		if err != nil {
			return "", nil, apperrors.Derive(apperrors.ErrUnknownArgType, fmt.Sprintf("%T", v), err)
		}
		return TypeBinary, b, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", nil, apperrors.Derive(apperrors.ErrUnknownArgType, fmt.Sprintf("%T", v), err)
	}
	return TypeJSON, b, nil
}

// DecodeArg 按类型名还原参数；binary 和 json 还原为 []byte
func DecodeArg(typ string, data []byte) (any, error) {
	var (
		v   any
		err error
	)
	s := string(data)

	switch typ {
	case TypeNil:
		return nil, nil
	case TypeString:
		return s, nil
	case TypeBytes, TypeBinary, TypeJSON:
		return append([]byte{}, data...), nil
	case TypeInt:
		var n int64
		n, err = strconv.ParseInt(s, 10, strconv.IntSize)
		v = int(n)
	case TypeInt8:
		var n int64
		n, err = strconv.ParseInt(s, 10, 8)
		v = int8(n)
	case TypeInt16:
		var n int64
		n, err = strconv.ParseInt(s, 10, 16)
		v = int16(n)
	case TypeInt32:
		var n int64
		n, err = strconv.ParseInt(s, 10, 32)
		v = int32(n)
	case TypeInt64:
		v, err = strconv.ParseInt(s, 10, 64)
	case TypeUint:
		var n uint64
		n, err = strconv.ParseUint(s, 10, strconv.IntSize)
		v = uint(n)
	case TypeUint8:
		var n uint64
		n, err = strconv.ParseUint(s, 10, 8)
		v = uint8(n)
	case TypeUint16:
		var n uint64
		n, err = strconv.ParseUint(s, 10, 16)
		v = uint16(n)
	case TypeUint32:
		var n uint64
		n, err = strconv.ParseUint(s, 10, 32)
		v = uint32(n)
	case TypeUint64:
		v, err = strconv.ParseUint(s, 10, 64)
	case TypeFloat32:
		var f float64
		f, err = strconv.ParseFloat(s, 32)
		v = float32(f)
	case TypeFloat64:
		v, err = strconv.ParseFloat(s, 64)
	case TypeBool:
		v = s == "1"
	case TypeDuration:
		var n int64
		n, err = strconv.ParseInt(s, 10, 64)
		v = time.Duration(n)
	case TypeTime:
		v, err = time.Parse(time.RFC3339Nano, s)
	default:
		return nil, apperrors.Derive(apperrors.ErrUnknownArgType, typ, nil)
	}

	if err != nil {
		return nil, apperrors.Derive(apperrors.ErrUnknownArgType, typ, err)
	}
	return v, nil
}
