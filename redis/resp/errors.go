package resp

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete 数据不完整，需要更多字节，不是错误状态
	ErrIncomplete = errors.New("resp: incomplete frame")

	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = fmt.Errorf("%w: limit exceeded", ErrProtocol)
)

// ProtocolError 不可恢复的解码错误，连接应当被关闭
type ProtocolError struct {
	Offset int   // 出错位置相对于本次解码起点的偏移
	Err    error // ErrProtocol 或 ErrLimitExceeded
	Msg    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Err, e.Offset, e.Msg)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func protoErr(offset int, format string, args ...interface{}) error {
	return &ProtocolError{Offset: offset, Err: ErrProtocol, Msg: fmt.Sprintf(format, args...)}
}

func limitErr(offset int, format string, args ...interface{}) error {
	return &ProtocolError{Offset: offset, Err: ErrLimitExceeded, Msg: fmt.Sprintf(format, args...)}
}
