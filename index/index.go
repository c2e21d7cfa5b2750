package index

import (
	"bytes"

	"github.com/google/btree"

	"github.com/chengsir22/hades/data"
	"github.com/chengsir22/hades/settings"
)

// Indexer 抽象索引接口，key 到 Entry 的有序映射
type Indexer interface {
	// Put 存储 key 对应的数据，返回旧值
	Put(key []byte, e *data.Entry) *data.Entry

	// Get 根据 key 取出对应的数据
	Get(key []byte) *data.Entry

	// Delete 根据 key 删除对应的数据，返回旧值
	Delete(key []byte) (*data.Entry, bool)

	// Size 索引中的数据量
	Size() int

	// Iterator 索引迭代器
	Iterator(reverse bool) Iterator

	// Close 关闭索引
	Close() error
}

const defaultBTreeDegree = 32

// NewIndexer 根据类型初始化索引
func NewIndexer(typ settings.IndexerType, degree int) Indexer {
	switch typ {
	case settings.BTree:
		if degree <= 0 {
			degree = defaultBTreeDegree
		}
		return NewBTree(degree)
	case settings.ART:
		return NewART()
	case settings.Skiplist:
		return NewSkipList()
	default:
		panic("unsupported index type")
	}
}

// Item btree 中的元素，同时作为迭代器的快照元素
type Item struct {
	key   []byte
	entry *data.Entry
}

func (ai *Item) Less(bi btree.Item) bool {
	return bytes.Compare(ai.key, bi.(*Item).key) == -1
}

// Iterator 通用索引迭代器
type Iterator interface {
	// Rewind 重新回到迭代器的起点，即第一个数据
	Rewind()

	// Seek 根据传入的 key 查找到第一个大于（或小于）等于的目标 key，从这个 key 开始遍历
	Seek(key []byte)

	// Next 跳转到下一个 key
	Next()

	// Valid 是否有效，即是否已经遍历完了所有的 key，用于退出遍历
	Valid() bool

	// Key 当前遍历位置的 key 数据
	Key() []byte

	// Value 当前遍历位置的 Entry
	Value() *data.Entry

	// Close 关闭迭代器，释放相应资源
	Close()
}

// sliceIterator 基于快照切片的迭代器，三种索引共用
type sliceIterator struct {
	currIndex int     // 当前遍历的下标位置
	reverse   bool    // 是否反向遍历
	values    []*Item // key + Entry
}

func newSliceIterator(values []*Item, reverse bool) *sliceIterator {
	return &sliceIterator{
		currIndex: 0,
		reverse:   reverse,
		values:    values,
	}
}

func (s *sliceIterator) Rewind() {
	s.currIndex = 0
}

func (s *sliceIterator) Seek(key []byte) {
	if s.reverse {
		s.currIndex = searchItems(s.values, func(k []byte) bool {
			return bytes.Compare(k, key) <= 0
		})
	} else {
		s.currIndex = searchItems(s.values, func(k []byte) bool {
			return bytes.Compare(k, key) >= 0
		})
	}
}

func (s *sliceIterator) Next() {
	s.currIndex += 1
}

func (s *sliceIterator) Valid() bool {
	return s.currIndex < len(s.values)
}

func (s *sliceIterator) Key() []byte {
	return s.values[s.currIndex].key
}

func (s *sliceIterator) Value() *data.Entry {
	return s.values[s.currIndex].entry
}

func (s *sliceIterator) Close() {
	s.values = nil
}

func searchItems(values []*Item, f func(key []byte) bool) int {
	lo, hi := 0, len(values)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if !f(values[mid].key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
