package index

import (
	"sync"

	goart "github.com/plar/go-adaptive-radix-tree"

	"github.com/chengsir22/hades/data"
)

// AdaptiveRadixTree 自适应基数树索引
type AdaptiveRadixTree struct {
	tree goart.Tree
	lock *sync.RWMutex
}

func NewART() *AdaptiveRadixTree {
	return &AdaptiveRadixTree{
		tree: goart.New(),
		lock: new(sync.RWMutex),
	}
}

func (art *AdaptiveRadixTree) Put(key []byte, e *data.Entry) *data.Entry {
	art.lock.Lock()
	oldValue, _ := art.tree.Insert(key, e)
	art.lock.Unlock()
	if oldValue == nil {
		return nil
	}
	return oldValue.(*data.Entry)
}

func (art *AdaptiveRadixTree) Get(key []byte) *data.Entry {
	art.lock.RLock()
	defer art.lock.RUnlock()
	value, found := art.tree.Search(key)
	if !found {
		return nil
	}
	return value.(*data.Entry)
}

func (art *AdaptiveRadixTree) Delete(key []byte) (*data.Entry, bool) {
	art.lock.Lock()
	oldValue, deleted := art.tree.Delete(key)
	art.lock.Unlock()
	if oldValue == nil {
		return nil, false
	}
	return oldValue.(*data.Entry), deleted
}

func (art *AdaptiveRadixTree) Size() int {
	art.lock.RLock()
	size := art.tree.Size()
	art.lock.RUnlock()
	return size
}

func (art *AdaptiveRadixTree) Iterator(reverse bool) Iterator {
	art.lock.RLock()
	defer art.lock.RUnlock()
	return newARTIterator(art.tree, reverse)
}

func (art *AdaptiveRadixTree) Close() error {
	return nil
}

// 这里相当于创建一个快照
func newARTIterator(tree goart.Tree, reverse bool) Iterator {
	var idx int
	if reverse {
		idx = tree.Size() - 1
	}

	values := make([]*Item, tree.Size())
	saveValues := func(node goart.Node) bool {
		values[idx] = &Item{
			key:   node.Key(),
			entry: node.Value().(*data.Entry),
		}
		if reverse {
			idx--
		} else {
			idx++
		}
		return true
	}
	tree.ForEach(saveValues)

	return newSliceIterator(values, reverse)
}
