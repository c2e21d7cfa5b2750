// Package resp 实现 RESP 协议的值模型和编解码。
//
// Frame 是一个封闭的和类型，每种线上类型对应一个 Go 类型，使用方通过
// type switch 处理。解码对半包友好：数据不够时返回 ErrIncomplete 且不消费
// 任何字节；编码总是成功。
package resp

import "bytes"

// 线上类型字节
const (
	TypeSimpleString byte = '+'
	TypeError        byte = '-'
	TypeInteger      byte = ':'
	TypeBulkString   byte = '$'
	TypeArray        byte = '*'
	TypeNull         byte = '_' // RESP3
)

// Frame 协议中的一个完整的值
type Frame interface {
	// Type 线上类型字节
	Type() byte
	frame()
}

// SimpleString 状态回复，例如 +OK
type SimpleString string

// Error 错误回复，和 SimpleString 只有类型字节不同
type Error string

// Integer 有符号 64 位整数
type Integer int64

// BulkString 带长度前缀的字节串，Null 为 true 时表示 $-1
type BulkString struct {
	Data []byte
	Null bool
}

// Array 有序的 Frame 序列，Null 为 true 时表示 *-1
type Array struct {
	Elems []Frame
	Null  bool
}

// Null RESP3 的独立空值 _
type Null struct{}

func (SimpleString) Type() byte { return TypeSimpleString }
func (Error) Type() byte        { return TypeError }
func (Integer) Type() byte      { return TypeInteger }
func (BulkString) Type() byte   { return TypeBulkString }
func (Array) Type() byte        { return TypeArray }
func (Null) Type() byte         { return TypeNull }

func (SimpleString) frame() {}
func (Error) frame()        {}
func (Integer) frame()      {}
func (BulkString) frame()   {}
func (Array) frame()        {}
func (Null) frame()         {}

// OK +OK
func OK() Frame { return SimpleString("OK") }

// NewBulk 拷贝 b 构造 bulk string
func NewBulk(b []byte) BulkString {
	data := make([]byte, len(b))
	copy(data, b)
	return BulkString{Data: data}
}

// NewBulkString 由字符串构造 bulk string
func NewBulkString(s string) BulkString {
	return BulkString{Data: []byte(s)}
}

// NullBulk $-1
func NullBulk() BulkString { return BulkString{Null: true} }

// NewArray 构造数组
func NewArray(elems ...Frame) Array {
	if elems == nil {
		elems = []Frame{}
	}
	return Array{Elems: elems}
}

// NullArray *-1
func NullArray() Array { return Array{Null: true} }

// Equal 比较两个 Frame 的可观察内容，nil 和空切片视为相同
func Equal(a, b Frame) bool {
	switch a := a.(type) {
	case SimpleString, Error, Integer, Null:
		return a == b
	case BulkString:
		o, ok := b.(BulkString)
		if !ok || a.Null != o.Null {
			return false
		}
		return a.Null || bytes.Equal(a.Data, o.Data)
	case Array:
		o, ok := b.(Array)
		if !ok || a.Null != o.Null || len(a.Elems) != len(o.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], o.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}
