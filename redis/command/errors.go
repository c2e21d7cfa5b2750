package command

import "fmt"

// Error 命令级错误，Error() 就是回复给客户端的内容
type Error struct {
	msg string
}

func (e *Error) Error() string {
	return e.msg
}

func errorf(format string, args ...interface{}) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

var (
	ErrWrongFrameKind = &Error{msg: "ERR Protocol error: expected an array of bulk strings"}
	ErrEmptyCommand   = &Error{msg: "ERR empty command"}
	ErrSyntax         = &Error{msg: "ERR syntax error"}
	ErrNotInteger     = &Error{msg: "ERR value is not an integer or out of range"}
)

func errWrongArgs(name string) *Error {
	return errorf("ERR wrong number of arguments for '%s' command", name)
}

func errInvalidExpire(name string) *Error {
	return errorf("ERR invalid expire time in '%s' command", name)
}
