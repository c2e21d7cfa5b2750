package index

import (
	"bytes"
	"math/rand"
	"sync"

	"github.com/chengsir22/hades/data"
)

const (
	// 跳表索引最⼤层数，可根据实际情况进⾏调整
	maxLevel int = 18
	// 用于决定在哪些层级上创建索引
	probability float64 = 0.5
)

type Node struct {
	key     []byte
	value   interface{}
	forward []*Node // 各层的下一个指针
}

type SkipList struct {
	head   *Node
	level  int
	length int
	lock   *sync.RWMutex
}

func newNode(key []byte, value interface{}, level int) *Node {
	return &Node{
		key:     key,
		value:   value,
		forward: make([]*Node, level),
	}
}

func NewSkipList() *SkipList {
	head := newNode(nil, nil, maxLevel)
	return &SkipList{
		head:   head,
		level:  1,
		length: 0,
		lock:   new(sync.RWMutex),
	}
}

func (sl *SkipList) randomLevel() int {
	level := 1
	for rand.Float64() < probability && level < maxLevel {
		level++
	}
	return level
}

func (sl *SkipList) Put(key []byte, e *data.Entry) *data.Entry {
	sl.lock.Lock()
	defer sl.lock.Unlock()

	update := make([]*Node, maxLevel)
	current := sl.head

	for i := sl.level - 1; i >= 0; i-- {
		// 在当前层查找插入位置
		for current.forward[i] != nil && bytes.Compare(current.forward[i].key, key) < 0 {
			current = current.forward[i]
		}
		update[i] = current
	}

	if current.forward[0] != nil && bytes.Equal(current.forward[0].key, key) {
		// 如果键已存在，更新值并返回旧值
		oldVal := current.forward[0].value
		current.forward[0].value = e
		return oldVal.(*data.Entry)
	}

	level := sl.randomLevel()
	if level > sl.level {
		// 如果新节点的层数大于当前层数，需要更新 update 切片
		for i := sl.level; i < level; i++ {
			update[i] = sl.head
		}
		sl.level = level
	}

	newNode := newNode(key, e, level)
	for i := 0; i < level; i++ {
		// 更新节点的各层指针
		newNode.forward[i] = update[i].forward[i]
		update[i].forward[i] = newNode
	}
	sl.length++
	return nil
}

func (sl *SkipList) Get(key []byte) *data.Entry {
	sl.lock.RLock()
	defer sl.lock.RUnlock()

	current := sl.head

	for i := sl.level - 1; i >= 0; i-- {
		// 在当前层查找键值对
		for current.forward[i] != nil && bytes.Compare(current.forward[i].key, key) < 0 {
			current = current.forward[i]
		}
		if current.forward[i] != nil && bytes.Equal(current.forward[i].key, key) {
			return current.forward[i].value.(*data.Entry)
		}
	}

	return nil
}

func (sl *SkipList) Delete(key []byte) (*data.Entry, bool) {
	sl.lock.Lock()
	defer sl.lock.Unlock()

	update := make([]*Node, maxLevel)
	current := sl.head

	for i := sl.level - 1; i >= 0; i-- {
		// 在当前层查找要删除的节点
		for current.forward[i] != nil && bytes.Compare(current.forward[i].key, key) < 0 {
			current = current.forward[i]
		}
		update[i] = current
	}

	if current.forward[0] != nil && bytes.Equal(current.forward[0].key, key) {
		// 找到要删除的节点并更新指针
		target := current.forward[0]
		for i := 0; i < sl.level; i++ {
			if update[i].forward[i] != target {
				break
			}
			update[i].forward[i] = target.forward[i]
		}
		sl.length--
		return target.value.(*data.Entry), true
	}

	return nil, false
}

func (sl *SkipList) Size() int {
	sl.lock.RLock()
	defer sl.lock.RUnlock()
	return sl.length
}

func (sl *SkipList) Iterator(reverse bool) Iterator {
	sl.lock.RLock()
	defer sl.lock.RUnlock()
	return newSkipListIterator(sl, reverse)
}

func (sl *SkipList) Close() error {
	return nil
}

// 遍历第 0 层得到有序快照
func newSkipListIterator(sl *SkipList, reverse bool) Iterator {
	values := make([]*Item, 0, sl.length)
	for current := sl.head.forward[0]; current != nil; current = current.forward[0] {
		values = append(values, &Item{
			key:   current.key,
			entry: current.value.(*data.Entry),
		})
	}

	if reverse {
		for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
			values[i], values[j] = values[j], values[i]
		}
	}
	return newSliceIterator(values, reverse)
}
