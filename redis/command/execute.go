package command

import (
	"errors"
	"strings"
	"time"

	"github.com/chengsir22/hades/backend"
	"github.com/chengsir22/hades/redis/resp"
)

// Backend 执行命令需要的存储能力，*backend.Backend 实现了它
type Backend interface {
	Get(key []byte) ([]byte, bool)
	Set(key, value []byte, opts backend.SetOptions) backend.SetResult
	Delete(keys ...[]byte) int
	Exists(keys ...[]byte) int
	Expire(key []byte, ttl time.Duration) bool
	TTL(key []byte) (time.Duration, backend.TTLState)
	Persist(key []byte) bool
	IncrBy(key []byte, delta int64) (int64, error)
	Append(key, value []byte) int
	StrLen(key []byte) int
	MGet(keys ...[]byte) [][]byte
	MSet(pairs ...backend.KV)
	Keys(pattern string) [][]byte
	Len() int
	Flush()
}

var _ Backend = (*backend.Backend)(nil)

// Execute 在 b 上执行 cmd，总是返回一个回复 Frame
func Execute(cmd Command, b Backend) resp.Frame {
	switch c := cmd.(type) {
	case Ping:
		if c.HasMessage {
			return resp.NewBulk(c.Message)
		}
		return resp.SimpleString("PONG")
	case Echo:
		return resp.NewBulk(c.Message)
	case Get:
		v, ok := b.Get(c.Key)
		if !ok {
			return resp.NullBulk()
		}
		return resp.BulkString{Data: v}
	case Set:
		res := b.Set(c.Key, c.Value, backend.SetOptions{
			TTL:       c.TTL,
			KeepTTL:   c.KeepTTL,
			Condition: c.Condition,
		})
		switch {
		case c.ReturnOld && res.Existed:
			return resp.BulkString{Data: res.Previous}
		case c.ReturnOld, !res.Written:
			return resp.NullBulk()
		default:
			return resp.OK()
		}
	case Del:
		return resp.Integer(b.Delete(c.Keys...))
	case Exists:
		return resp.Integer(b.Exists(c.Keys...))
	case Expire:
		return boolReply(b.Expire(c.Key, c.TTL))
	case TTL:
		ttl, state := b.TTL(c.Key)
		switch state {
		case backend.KeyMissing:
			return resp.Integer(-2)
		case backend.NoExpiry:
			return resp.Integer(-1)
		}
		if c.Millis {
			return resp.Integer(ttl.Milliseconds())
		}
		return resp.Integer((ttl + 500*time.Millisecond) / time.Second)
	case Persist:
		return boolReply(b.Persist(c.Key))
	case IncrBy:
		n, err := b.IncrBy(c.Key, c.Delta)
		if err != nil {
			return errorReply(err)
		}
		return resp.Integer(n)
	case Append:
		return resp.Integer(b.Append(c.Key, c.Value))
	case StrLen:
		return resp.Integer(b.StrLen(c.Key))
	case MGet:
		values := b.MGet(c.Keys...)
		elems := make([]resp.Frame, len(values))
		for i, v := range values {
			if v == nil {
				elems[i] = resp.NullBulk()
				continue
			}
			elems[i] = resp.BulkString{Data: v}
		}
		return resp.NewArray(elems...)
	case MSet:
		b.MSet(c.Pairs...)
		return resp.OK()
	case Keys:
		keys := b.Keys(c.Pattern)
		elems := make([]resp.Frame, len(keys))
		for i, k := range keys {
			elems[i] = resp.BulkString{Data: k}
		}
		return resp.NewArray(elems...)
	case DBSize:
		return resp.Integer(b.Len())
	case FlushDB:
		b.Flush()
		return resp.OK()
	case Quit:
		return resp.OK()
	case Unknown:
		return resp.Error(unknownCommand(c).Error())
	default:
		return resp.Error("ERR unsupported command")
	}
}

func boolReply(ok bool) resp.Frame {
	if ok {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

// errorReply 把 backend 的错误转换为错误回复
func errorReply(err error) resp.Frame {
	var cmdErr *Error
	switch {
	case errors.As(err, &cmdErr):
		return resp.Error(cmdErr.Error())
	case errors.Is(err, backend.ErrNotInteger):
		return resp.Error(ErrNotInteger.Error())
	default:
		return resp.Error("ERR " + err.Error())
	}
}

func unknownCommand(c Unknown) *Error {
	var sb strings.Builder
	for _, a := range c.Args {
		sb.WriteByte('\'')
		sb.Write(a)
		sb.WriteString("' ")
	}
	return errorf("ERR unknown command '%s', with args beginning with: %s", c.Cmd, sb.String())
}
