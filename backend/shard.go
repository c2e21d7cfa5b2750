package backend

import (
	"sync"
	"time"

	"github.com/chengsir22/hades/data"
	"github.com/chengsir22/hades/index"
)

// shard 一个分片，索引和带过期时间的 key 集合都由 mu 保护
type shard struct {
	mu      sync.RWMutex
	index   index.Indexer
	expires map[string]int64 // key -> 过期时间点，只记录设置了过期时间的 key
}

func newShard(opts Options) *shard {
	return &shard{
		index:   index.NewIndexer(opts.IndexType, opts.BTreeDegree),
		expires: make(map[string]int64),
	}
}

// lookup 读取未过期的 Entry，调用方至少持有读锁
func (s *shard) lookup(key []byte, now time.Time) *data.Entry {
	e := s.index.Get(key)
	if e == nil || e.Expired(now) {
		return nil
	}
	return e
}

// live 读取未过期的 Entry，过期的顺便删除，调用方持有写锁
func (s *shard) live(key []byte, now time.Time) *data.Entry {
	e := s.index.Get(key)
	if e == nil {
		return nil
	}
	if e.Expired(now) {
		s.remove(key)
		return nil
	}
	return e
}

// put 写入 Entry，调用方持有写锁，key 会被拷贝
func (s *shard) put(key []byte, e *data.Entry) *data.Entry {
	k := make([]byte, len(key))
	copy(k, key)
	if e.HasExpiry() {
		s.expires[string(k)] = e.ExpireAt
	} else {
		delete(s.expires, string(k))
	}
	return s.index.Put(k, e)
}

func (s *shard) remove(key []byte) (*data.Entry, bool) {
	delete(s.expires, string(key))
	return s.index.Delete(key)
}

func (s *shard) reset(opts Options) {
	_ = s.index.Close()
	s.index = index.NewIndexer(opts.IndexType, opts.BTreeDegree)
	s.expires = make(map[string]int64)
}

// sweep 随机抽样 sample 个带过期时间的 key，删除其中已过期的，返回抽样数和删除数
func (s *shard) sweep(now time.Time, sample int) (checked, removed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nowMs := now.UnixMilli()
	for k, at := range s.expires {
		if checked >= sample {
			break
		}
		checked++
		if nowMs >= at {
			delete(s.expires, k)
			s.index.Delete([]byte(k))
			removed++
		}
	}
	return checked, removed
}
