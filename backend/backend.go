// Package backend 是所有连接共享的内存 key-value 存储。
//
// Backend 只认识字节串和过期时间，不知道 RESP 协议。所有方法都可以被多个
// goroutine 并发调用，同步由 Backend 内部完成：key 通过 murmur3 散列到分片，
// 每个分片一把读写锁，多 key 操作按分片下标顺序加锁。
package backend

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/twmb/murmur3"

	"github.com/chengsir22/hades/data"
)

var (
	ErrNotInteger = errors.New("value is not an integer or out of range")
	ErrOverflow   = errors.New("increment or decrement would overflow")
)

// Condition SET 的写入条件
type Condition uint8

const (
	Always      Condition = iota
	IfNotExists           // NX
	IfExists              // XX
)

// SetOptions SET 的可选参数
type SetOptions struct {
	TTL       time.Duration // <= 0 表示不过期
	KeepTTL   bool          // 保留原有的过期时间
	Condition Condition
}

// SetResult SET 的执行结果
type SetResult struct {
	Previous []byte // 旧值，Existed 为 false 时为 nil
	Existed  bool
	Written  bool // 条件不满足时为 false
}

// TTLState key 的过期状态
type TTLState uint8

const (
	KeyMissing TTLState = iota
	NoExpiry
	HasExpiry
)

// KV 一个键值对
type KV struct {
	Key   []byte
	Value []byte
}

// Backend 共享存储句柄
type Backend struct {
	opts   Options
	now    func() time.Time
	shards []*shard

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New 创建 Backend，SweepInterval > 0 时启动后台过期清理
func New(opts Options) *Backend {
	if opts.Shards <= 0 {
		opts.Shards = 1
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	b := &Backend{
		opts:   opts,
		now:    opts.Clock,
		shards: make([]*shard, opts.Shards),
		done:   make(chan struct{}),
	}
	for i := range b.shards {
		b.shards[i] = newShard(opts)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	if opts.SweepInterval > 0 {
		go b.sweepLoop(ctx, opts.SweepInterval)
	} else {
		close(b.done)
	}
	return b
}

// Close 停止后台清理，可以重复调用
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		b.cancel()
		<-b.done
	})
	return nil
}

func (b *Backend) shardIndex(key []byte) int {
	return int(murmur3.Sum32(key) % uint32(len(b.shards)))
}

func (b *Backend) shardFor(key []byte) *shard {
	return b.shards[b.shardIndex(key)]
}

// lockKeys 按分片下标升序锁住 keys 涉及的所有分片，返回解锁函数
func (b *Backend) lockKeys(keys [][]byte, write bool) func() {
	seen := make(map[int]struct{}, len(keys))
	ids := make([]int, 0, len(keys))
	for _, k := range keys {
		id := b.shardIndex(k)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if write {
			b.shards[id].mu.Lock()
		} else {
			b.shards[id].mu.RLock()
		}
	}
	return func() {
		for i := len(ids) - 1; i >= 0; i-- {
			if write {
				b.shards[ids[i]].mu.Unlock()
			} else {
				b.shards[ids[i]].mu.RUnlock()
			}
		}
	}
}

// Get 读取 key 的值
func (b *Backend) Get(key []byte) ([]byte, bool) {
	s := b.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.lookup(key, b.now())
	if e == nil {
		return nil, false
	}
	return e.CloneValue(), true
}

// Set 写入 key，返回旧值以及是否写入
func (b *Backend) Set(key, value []byte, opts SetOptions) SetResult {
	s := b.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := b.now()
	old := s.live(key, now)
	var res SetResult
	if old != nil {
		res.Existed = true
		res.Previous = old.CloneValue()
	}
	switch {
	case opts.Condition == IfNotExists && old != nil:
		return res
	case opts.Condition == IfExists && old == nil:
		return res
	}

	expireAt := data.ExpireAtFrom(now, opts.TTL)
	if opts.KeepTTL && old != nil {
		expireAt = old.ExpireAt
	}
	s.put(key, data.NewEntry(value, expireAt))
	res.Written = true
	return res
}

// Delete 删除 keys，返回实际删除的数量
func (b *Backend) Delete(keys ...[]byte) int {
	unlock := b.lockKeys(keys, true)
	defer unlock()

	now := b.now()
	removed := 0
	for _, k := range keys {
		s := b.shardFor(k)
		if s.live(k, now) == nil {
			continue
		}
		if _, ok := s.remove(k); ok {
			removed++
		}
	}
	return removed
}

// Exists 返回 keys 中存在的数量，重复的 key 重复计数
func (b *Backend) Exists(keys ...[]byte) int {
	unlock := b.lockKeys(keys, false)
	defer unlock()

	now := b.now()
	n := 0
	for _, k := range keys {
		if b.shardFor(k).lookup(k, now) != nil {
			n++
		}
	}
	return n
}

// Expire 设置过期时间，ttl <= 0 直接删除 key，key 不存在返回 false
func (b *Backend) Expire(key []byte, ttl time.Duration) bool {
	s := b.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := b.now()
	e := s.live(key, now)
	if e == nil {
		return false
	}
	if ttl <= 0 {
		s.remove(key)
		return true
	}
	s.put(key, &data.Entry{Value: e.Value, ExpireAt: data.ExpireAtFrom(now, ttl)})
	return true
}

// TTL 返回剩余存活时间
func (b *Backend) TTL(key []byte) (time.Duration, TTLState) {
	s := b.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := b.now()
	e := s.lookup(key, now)
	switch {
	case e == nil:
		return 0, KeyMissing
	case !e.HasExpiry():
		return 0, NoExpiry
	default:
		return e.TTL(now), HasExpiry
	}
}

// Persist 去掉 key 的过期时间，只有原来设置了过期时间才返回 true
func (b *Backend) Persist(key []byte) bool {
	s := b.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key, b.now())
	if e == nil || !e.HasExpiry() {
		return false
	}
	s.put(key, &data.Entry{Value: e.Value})
	return true
}

// IncrBy 把 key 的值当作 int64 加上 delta，key 不存在时视为 0，保留过期时间
func (b *Backend) IncrBy(key []byte, delta int64) (int64, error) {
	s := b.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		cur      int64
		expireAt int64
	)
	if e := s.live(key, b.now()); e != nil {
		n, err := strconv.ParseInt(string(e.Value), 10, 64)
		if err != nil || !isCanonicalInt(e.Value) {
			return 0, ErrNotInteger
		}
		cur, expireAt = n, e.ExpireAt
	}
	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return 0, ErrOverflow
	}
	cur += delta
	s.put(key, &data.Entry{Value: strconv.AppendInt(nil, cur, 10), ExpireAt: expireAt})
	return cur, nil
}

// isCanonicalInt 拒绝 "+1"、"01" 这种 ParseInt 能接受但不是规范写法的数字
func isCanonicalInt(v []byte) bool {
	if len(v) == 0 || v[0] == '+' {
		return false
	}
	digits := v
	if digits[0] == '-' {
		digits = digits[1:]
	}
	return len(digits) == 1 || digits[0] != '0'
}

// Append 追加 value，返回追加后的长度
func (b *Backend) Append(key, value []byte) int {
	s := b.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		buf      []byte
		expireAt int64
	)
	if e := s.live(key, b.now()); e != nil {
		buf = make([]byte, 0, len(e.Value)+len(value))
		buf = append(buf, e.Value...)
		expireAt = e.ExpireAt
	}
	buf = append(buf, value...)
	s.put(key, &data.Entry{Value: buf, ExpireAt: expireAt})
	return len(buf)
}

// StrLen 值的长度，key 不存在返回 0
func (b *Backend) StrLen(key []byte) int {
	s := b.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e := s.lookup(key, b.now()); e != nil {
		return len(e.Value)
	}
	return 0
}

// MGet 批量读取，不存在的 key 对应 nil
func (b *Backend) MGet(keys ...[]byte) [][]byte {
	unlock := b.lockKeys(keys, false)
	defer unlock()

	now := b.now()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if e := b.shardFor(k).lookup(k, now); e != nil {
			out[i] = e.CloneValue()
		}
	}
	return out
}

// MSet 原子地批量写入，同时清除这些 key 的过期时间
func (b *Backend) MSet(pairs ...KV) {
	keys := make([][]byte, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	unlock := b.lockKeys(keys, true)
	defer unlock()

	for _, p := range pairs {
		b.shardFor(p.Key).put(p.Key, data.NewEntry(p.Value, 0))
	}
}

// Keys 返回匹配 glob pattern 的所有 key，按字典序排列
func (b *Backend) Keys(pattern string) [][]byte {
	now := b.now()
	var out [][]byte
	for _, s := range b.shards {
		s.mu.RLock()
		it := s.index.Iterator(false)
		for it.Rewind(); it.Valid(); it.Next() {
			if it.Value().Expired(now) {
				continue
			}
			if matchPattern(string(it.Key()), pattern) {
				k := make([]byte, len(it.Key()))
				copy(k, it.Key())
				out = append(out, k)
			}
		}
		it.Close()
		s.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i], out[j]) < 0
	})
	return out
}

// Len key 的数量，可能包含已过期但还没有被清理的 key
func (b *Backend) Len() int {
	n := 0
	for _, s := range b.shards {
		s.mu.RLock()
		n += s.index.Size()
		s.mu.RUnlock()
	}
	return n
}

// Flush 清空所有数据
func (b *Backend) Flush() {
	for _, s := range b.shards {
		s.mu.Lock()
		s.reset(b.opts)
		s.mu.Unlock()
	}
}
