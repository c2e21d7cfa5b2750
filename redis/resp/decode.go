package resp

import (
	"bytes"
	"strconv"
)

// Decoder 带长度限制的解码器，零值不可用，使用 DefaultDecoder 或者填满所有字段
type Decoder struct {
	MaxBulkLen  int // 单个 bulk string 的最大字节数
	MaxArrayLen int // 单个数组的最大元素个数
	MaxLineLen  int // 类型字节之后一行的最大长度
	MaxDepth    int // 数组最大嵌套深度
}

const (
	DefaultMaxBulkLen  = 512 * 1024 * 1024
	DefaultMaxArrayLen = 1024 * 1024
	DefaultMaxLineLen  = 64 * 1024
	DefaultMaxDepth    = 32

	// 数组预分配的上限，元素个数由对端声明，不能直接信任
	maxArrayPrealloc = 1024
)

// DefaultDecoder 默认限制的解码器
func DefaultDecoder() *Decoder {
	return &Decoder{
		MaxBulkLen:  DefaultMaxBulkLen,
		MaxArrayLen: DefaultMaxArrayLen,
		MaxLineLen:  DefaultMaxLineLen,
		MaxDepth:    DefaultMaxDepth,
	}
}

var defaultDecoder = DefaultDecoder()

// Decode 使用默认限制解码 buf 开头的一个 Frame
func Decode(buf []byte) (Frame, int, error) {
	return defaultDecoder.Decode(buf)
}

// Decode 解码 buf 开头的一个 Frame，返回 Frame 和消费的字节数。
// 数据不够时返回 ErrIncomplete，消费 0 字节；格式错误返回 *ProtocolError。
// 返回的 Frame 不引用 buf 的内存。
func (d *Decoder) Decode(buf []byte) (Frame, int, error) {
	f, n, err := d.decode(buf, 0, 0)
	if err != nil {
		return nil, 0, err
	}
	return f, n, nil
}

func (d *Decoder) decode(buf []byte, pos, depth int) (Frame, int, error) {
	if pos >= len(buf) {
		return nil, 0, ErrIncomplete
	}
	typ := buf[pos]
	switch typ {
	case TypeSimpleString, TypeError, TypeInteger, TypeBulkString, TypeArray, TypeNull:
	default:
		return nil, 0, protoErr(pos, "unexpected type byte %q", typ)
	}

	line, next, err := d.readLine(buf, pos+1)
	if err != nil {
		return nil, 0, err
	}

	switch typ {
	case TypeSimpleString:
		return SimpleString(line), next, nil
	case TypeError:
		return Error(line), next, nil
	case TypeInteger:
		n, err := parseInteger(line)
		if err != nil {
			return nil, 0, protoErr(pos, "invalid integer %q", line)
		}
		return Integer(n), next, nil
	case TypeNull:
		if len(line) != 0 {
			return nil, 0, protoErr(pos, "invalid null %q", line)
		}
		return Null{}, next, nil
	case TypeBulkString:
		return d.decodeBulk(buf, pos, line, next)
	default:
		return d.decodeArray(buf, pos, line, next, depth)
	}
}

func (d *Decoder) decodeBulk(buf []byte, pos int, line []byte, next int) (Frame, int, error) {
	n, err := parseLen(line)
	if err != nil {
		return nil, 0, protoErr(pos, "invalid bulk length %q", line)
	}
	if n == -1 {
		return NullBulk(), next, nil
	}
	if n > d.MaxBulkLen {
		return nil, 0, limitErr(pos, "bulk length %d exceeds limit %d", n, d.MaxBulkLen)
	}
	if len(buf)-next < n+2 {
		return nil, 0, ErrIncomplete
	}
	if buf[next+n] != '\r' || buf[next+n+1] != '\n' {
		return nil, 0, protoErr(next+n, "invalid bulk terminator")
	}
	return NewBulk(buf[next : next+n]), next + n + 2, nil
}

func (d *Decoder) decodeArray(buf []byte, pos int, line []byte, next, depth int) (Frame, int, error) {
	n, err := parseLen(line)
	if err != nil {
		return nil, 0, protoErr(pos, "invalid array length %q", line)
	}
	if n == -1 {
		return NullArray(), next, nil
	}
	if n > d.MaxArrayLen {
		return nil, 0, limitErr(pos, "array length %d exceeds limit %d", n, d.MaxArrayLen)
	}
	if depth+1 > d.MaxDepth {
		return nil, 0, limitErr(pos, "nesting depth exceeds limit %d", d.MaxDepth)
	}

	elems := make([]Frame, 0, min(n, maxArrayPrealloc))
	for i := 0; i < n; i++ {
		f, end, err := d.decode(buf, next, depth+1)
		if err != nil {
			return nil, 0, err
		}
		elems = append(elems, f)
		next = end
	}
	return Array{Elems: elems}, next, nil
}

// readLine 读取 start 开始到 CRLF 的一行，返回行内容（不含 CRLF）以及下一行的起点
func (d *Decoder) readLine(buf []byte, start int) ([]byte, int, error) {
	idx := bytes.IndexByte(buf[start:], '\n')
	if idx < 0 {
		if len(buf)-start > d.MaxLineLen {
			return nil, 0, limitErr(start, "line length exceeds limit %d", d.MaxLineLen)
		}
		return nil, 0, ErrIncomplete
	}
	end := start + idx
	if idx == 0 || buf[end-1] != '\r' {
		return nil, 0, protoErr(end, "missing CR before LF")
	}
	line := buf[start : end-1]
	if len(line) > d.MaxLineLen {
		return nil, 0, limitErr(start, "line length exceeds limit %d", d.MaxLineLen)
	}
	if bytes.IndexByte(line, '\r') >= 0 {
		return nil, 0, protoErr(start, "unexpected CR in line")
	}
	return line, end + 1, nil
}

// canonicalInt 只接受规范写法的十进制数：没有 '+'，没有多余的前导 0，没有 "-0"
func canonicalInt(line []byte) bool {
	digits := line
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
		if len(digits) == 1 && digits[0] == '0' {
			return false
		}
	}
	if len(digits) == 0 || digits[0] == '+' {
		return false
	}
	return len(digits) == 1 || digits[0] != '0'
}

func parseInteger(line []byte) (int64, error) {
	if !canonicalInt(line) {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(string(line), 10, 64)
}

// parseLen 解析长度前缀，只允许 -1 或者非负数
func parseLen(line []byte) (int, error) {
	if !canonicalInt(line) {
		return 0, strconv.ErrSyntax
	}
	n, err := strconv.Atoi(string(line))
	if err != nil {
		return 0, err
	}
	if n < -1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
