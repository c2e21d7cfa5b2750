package backend

import (
	"time"

	"github.com/chengsir22/hades/settings"
)

// Options Backend 配置项
type Options struct {
	IndexType     settings.IndexerType // 每个分片使用的索引类型
	BTreeDegree   int
	Shards        int           // 分片数量，决定锁粒度
	SweepInterval time.Duration // 主动过期间隔，0 表示只做惰性删除
	Clock         func() time.Time
}

// DefaultOptions 默认配置
func DefaultOptions() Options {
	return Options{
		IndexType:     settings.BTree,
		BTreeDegree:   32,
		Shards:        16,
		SweepInterval: 100 * time.Millisecond,
		Clock:         time.Now,
	}
}

// OptionsFrom 从配置文件中构造 Options
func OptionsFrom(conf *settings.BackendConfig) Options {
	opts := DefaultOptions()
	if conf == nil {
		return opts
	}
	if conf.IndexType != 0 {
		opts.IndexType = conf.IndexType
	}
	if conf.BTreeDegree > 0 {
		opts.BTreeDegree = conf.BTreeDegree
	}
	if conf.Shards > 0 {
		opts.Shards = conf.Shards
	}
	opts.SweepInterval = conf.SweepInterval
	return opts
}
