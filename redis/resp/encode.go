package resp

import "github.com/tidwall/redcon"

// Encode 编码一个 Frame，总是成功
func Encode(f Frame) []byte {
	return AppendFrame(nil, f)
}

// AppendFrame 把 f 的线上表示追加到 dst。nil 按 null bulk string 处理，
// SimpleString 和 Error 中的 CR、LF 会被替换成空格。
func AppendFrame(dst []byte, f Frame) []byte {
	switch f := f.(type) {
	case SimpleString:
		return redcon.AppendString(dst, string(f))
	case Error:
		return redcon.AppendError(dst, string(f))
	case Integer:
		return redcon.AppendInt(dst, int64(f))
	case BulkString:
		if f.Null {
			return redcon.AppendNull(dst)
		}
		return redcon.AppendBulk(dst, f.Data)
	case Array:
		if f.Null {
			return append(dst, "*-1\r\n"...)
		}
		dst = redcon.AppendArray(dst, len(f.Elems))
		for _, e := range f.Elems {
			dst = AppendFrame(dst, e)
		}
		return dst
	case Null:
		return append(dst, "_\r\n"...)
	default:
		return redcon.AppendNull(dst)
	}
}
