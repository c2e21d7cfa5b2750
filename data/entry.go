package data

import "time"

// Entry 键对应的值以及过期时间
type Entry struct {
	Value    []byte
	ExpireAt int64 // 过期时间点，unix 毫秒，0 表示永不过期
}

// NewEntry 拷贝 value 构造一个新的 Entry，调用方之后修改自己的切片不会影响存储
func NewEntry(value []byte, expireAt int64) *Entry {
	buf := make([]byte, len(value))
	copy(buf, value)
	return &Entry{Value: buf, ExpireAt: expireAt}
}

// HasExpiry 是否设置了过期时间
func (e *Entry) HasExpiry() bool {
	return e.ExpireAt > 0
}

// Expired 判断在 now 时刻是否已经过期
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpireAt > 0 && now.UnixMilli() >= e.ExpireAt
}

// TTL 剩余存活时间，没有过期时间时返回 0
func (e *Entry) TTL(now time.Time) time.Duration {
	if e.ExpireAt <= 0 {
		return 0
	}
	return time.Duration(e.ExpireAt-now.UnixMilli()) * time.Millisecond
}

// CloneValue 返回 value 的拷贝
func (e *Entry) CloneValue() []byte {
	out := make([]byte, len(e.Value))
	copy(out, e.Value)
	return out
}

// ExpireAtFrom 根据 ttl 计算过期时间点，ttl <= 0 返回 0
func ExpireAtFrom(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Add(ttl).UnixMilli()
}
